// Package branch enumerates and splits the decision atoms the
// branch-and-bound engine can partition the feasible region on: a single
// person's attendance on a single day, a single synergy set's full
// attendance on a single day, or a narrowing of a department's headcount
// interval on a single day.
package branch

import (
	"fmt"

	"github.com/ian-ludden/office-scheduler/internal/lpmodel"
	"github.com/ian-ludden/office-scheduler/internal/model"
)

// DecisionType distinguishes the three branching atoms of §4.4.
type DecisionType int

const (
	PersonDay DecisionType = iota
	SynergyDay
	DeptDay
)

func (d DecisionType) String() string {
	switch d {
	case PersonDay:
		return "PersonDay"
	case SynergyDay:
		return "SynergyDay"
	case DeptDay:
		return "DeptDay"
	default:
		return "unknown"
	}
}

// Option is one branchable decision atom, either still on a node's
// remaining-options list or about to be materialized into child LPs.
type Option struct {
	Type DecisionType

	// VarName is set for PersonDay and SynergyDay: the canonical name of
	// the variable being fixed to 0 or 1.
	VarName string

	// SID and Day, together with Lo/Hi, describe a DeptDay option: the
	// department sid, the day, and the department's current headcount
	// interval on that day.
	SID string
	Day int
	Lo  int
	Hi  int
}

func (o Option) String() string {
	switch o.Type {
	case PersonDay, SynergyDay:
		return fmt.Sprintf("%s(%s)", o.Type, o.VarName)
	case DeptDay:
		return fmt.Sprintf("DeptDay(%s, day %d, [%d,%d])", o.SID, o.Day, o.Lo, o.Hi)
	default:
		return "invalid option"
	}
}

// RootOptions enumerates the full catalog of branching atoms available at
// the root of the search, in the deterministic order of §4.4: one
// PersonDay per (person, day), one SynergyDay per (synergy, day), one
// DeptDay per (department, day).
func RootOptions(m *model.Model) []Option {
	var options []Option

	for _, p := range m.People {
		for d := 1; d <= m.Horizon; d++ {
			options = append(options, Option{
				Type:    PersonDay,
				VarName: lpmodel.ScheduleVarName(p.UID, d),
			})
		}
	}

	for _, c := range m.Constraints {
		if c.Kind != model.Synergy {
			continue
		}
		for d := 1; d <= m.Horizon; d++ {
			options = append(options, Option{
				Type:    SynergyDay,
				VarName: lpmodel.SynergyVarName(c.SID, d),
			})
		}
	}

	for _, c := range m.Constraints {
		if c.Kind != model.Department {
			continue
		}
		for d := 1; d <= m.Horizon; d++ {
			options = append(options, Option{
				Type: DeptDay,
				SID:  c.SID,
				Day:  d,
				Lo:   c.Lo,
				Hi:   c.UpperBound(),
			})
		}
	}

	return options
}

// Collapsed reports whether a DeptDay interval contains no room to
// branch further (hi <= lo).
func Collapsed(lo, hi int) bool {
	return hi <= lo
}

// Split computes the midpoint of a DeptDay interval and its two halves,
// per §4.4: mid = lo + (hi-lo)/2 (integer division), lower half [lo,mid],
// upper half [mid+1,hi].
func Split(lo, hi int) (mid, lowerLo, lowerHi, upperLo, upperHi int) {
	mid = lo + (hi-lo)/2
	return mid, lo, mid, mid + 1, hi
}
