// Package model defines the immutable domain entities of an office
// scheduling problem: people, their availability, and the department and
// synergy constraints that bound a feasible schedule.
package model

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is the sentinel wrapped by every constructor-time
// validation failure. Callers can test for it with errors.Is.
var ErrInvalidModel = errors.New("model: invalid model")

// Kind distinguishes the two flavors of SetConstraint.
type Kind int

const (
	// Department bounds how many members of the set may be in the office
	// on any single day.
	Department Kind = iota
	// Synergy requires the entire member set to be in the office together
	// on at least a minimum number of days.
	Synergy
)

func (k Kind) String() string {
	switch k {
	case Department:
		return "Department"
	case Synergy:
		return "Synergy"
	default:
		return "unknown"
	}
}

// NoUpperBound is the sentinel Hi value for a Department constraint with no
// upper bound. It is normalized to len(Members) by consumers, not here.
const NoUpperBound = -1

// Person is an immutable scheduling participant.
type Person struct {
	// UID uniquely identifies the person among all people in a Model.
	UID string

	// Available holds one entry per day of the horizon; Available[d] is
	// true iff the person may work on day d.
	Available []bool
}

// SetConstraint is an immutable department or synergy constraint over a
// subset of a Model's people.
type SetConstraint struct {
	// SID uniquely identifies the constraint among all constraints in a
	// Model.
	SID string

	Kind Kind

	// Members lists the uids of the people in the set, in input order.
	// No uid may repeat.
	Members []string

	// Lo is the lower bound: for Department, the minimum headcount on any
	// day; for Synergy, the minimum number of days the whole set must
	// attend together.
	Lo int

	// Hi is the upper bound, used only for Department constraints.
	// NoUpperBound (-1) means unbounded.
	Hi int
}

// Model is the immutable, validated input to the LP builder: a fixed
// horizon, a set of people, and a set of department/synergy constraints
// over them.
type Model struct {
	Horizon     int
	People      []Person
	Constraints []SetConstraint
}

// New validates people, constraints, and horizon against the invariants of
// the data model and returns an immutable Model. It fails with
// ErrInvalidModel (wrapped with a description of the specific violation)
// when any invariant does not hold.
func New(people []Person, constraints []SetConstraint, horizon int) (*Model, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidModel, horizon)
	}

	seenUIDs := make(map[string]bool, len(people))
	for _, p := range people {
		if p.UID == "" {
			return nil, fmt.Errorf("%w: person uid must not be empty", ErrInvalidModel)
		}
		if seenUIDs[p.UID] {
			return nil, fmt.Errorf("%w: duplicate person uid %q", ErrInvalidModel, p.UID)
		}
		seenUIDs[p.UID] = true

		if len(p.Available) != horizon {
			return nil, fmt.Errorf("%w: person %q has availability length %d, want %d", ErrInvalidModel, p.UID, len(p.Available), horizon)
		}
	}

	seenSIDs := make(map[string]bool, len(constraints))
	for _, c := range constraints {
		if c.SID == "" {
			return nil, fmt.Errorf("%w: constraint sid must not be empty", ErrInvalidModel)
		}
		if seenSIDs[c.SID] {
			return nil, fmt.Errorf("%w: duplicate constraint sid %q", ErrInvalidModel, c.SID)
		}
		seenSIDs[c.SID] = true

		seenMembers := make(map[string]bool, len(c.Members))
		for _, uid := range c.Members {
			if seenMembers[uid] {
				return nil, fmt.Errorf("%w: constraint %q lists member %q more than once", ErrInvalidModel, c.SID, uid)
			}
			seenMembers[uid] = true
			if !seenUIDs[uid] {
				return nil, fmt.Errorf("%w: constraint %q references unknown person %q", ErrInvalidModel, c.SID, uid)
			}
		}

		if c.Lo < 0 {
			return nil, fmt.Errorf("%w: constraint %q has negative lower bound %d", ErrInvalidModel, c.SID, c.Lo)
		}

		switch c.Kind {
		case Department:
			if c.Hi != NoUpperBound {
				if c.Hi < 0 {
					return nil, fmt.Errorf("%w: department constraint %q has invalid upper bound %d", ErrInvalidModel, c.SID, c.Hi)
				}
				if c.Lo > c.Hi {
					return nil, fmt.Errorf("%w: department constraint %q has lower bound %d exceeding upper bound %d", ErrInvalidModel, c.SID, c.Lo, c.Hi)
				}
			}
		case Synergy:
			// Lo is the minimum count of qualifying days; Hi is unused.
		default:
			return nil, fmt.Errorf("%w: constraint %q has unrecognized kind %v", ErrInvalidModel, c.SID, c.Kind)
		}
	}

	return &Model{
		Horizon:     horizon,
		People:      people,
		Constraints: constraints,
	}, nil
}

// PersonByUID returns the person with the given uid, and whether it was
// found.
func (m *Model) PersonByUID(uid string) (Person, bool) {
	for _, p := range m.People {
		if p.UID == uid {
			return p, true
		}
	}
	return Person{}, false
}

// ConstraintBySID returns the constraint with the given sid, and whether it
// was found.
func (m *Model) ConstraintBySID(sid string) (SetConstraint, bool) {
	for _, c := range m.Constraints {
		if c.SID == sid {
			return c, true
		}
	}
	return SetConstraint{}, false
}

// UpperBound returns the constraint's effective upper bound, normalizing
// NoUpperBound to the size of the member set.
func (c SetConstraint) UpperBound() int {
	if c.Hi == NoUpperBound {
		return len(c.Members)
	}
	return c.Hi
}
