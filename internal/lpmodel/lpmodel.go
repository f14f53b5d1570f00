// Package lpmodel builds the canonical LP relaxation of an office
// scheduling model: named decision variables, named constraints, and the
// bookkeeping the branch-and-bound engine needs to tighten constraints by
// name as it descends the search tree.
//
// The shape mirrors the teacher's own abstract Problem/Variable/Constraint
// types in internal/milp, generalized from an expression-builder API to a
// name-indexed one: branching needs to locate and replace a constraint by
// its canonical name, which an expression-chaining API does not expose.
package lpmodel

import (
	"fmt"

	"github.com/ian-ludden/office-scheduler/internal/model"
)

// Sense is the relational operator of a Constraint's right-hand side.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

// Term is one addend of a Constraint's left-hand side: coef * Variables[Var].
type Term struct {
	Var  int
	Coef float64
}

// Variable is a named, bounded decision variable of the LP.
type Variable struct {
	Name string

	// Lo and Hi are the variable's bounds; both relaxations here are
	// continuous in [0,1].
	Lo, Hi float64

	// ObjCoef is this variable's coefficient in the (maximized) objective.
	ObjCoef float64
}

// Constraint is a named linear constraint: Σ Terms ∘ RHS, where ∘ is Sense.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Canonical name prefixes and formats, matching the original PuLP model
// exactly so that branch-and-bound's name-indexed constraint tightening
// behaves identically to the system this was distilled from.
const (
	scheduleVarPrefix = "Schedule"
	synergyVarPrefix  = "Synergy"
)

// ScheduleVarName returns the canonical name of the x[p,d] decision
// variable for a person uid and a 1-indexed day.
func ScheduleVarName(uid string, day int) string {
	return fmt.Sprintf("%s_%s_%d", scheduleVarPrefix, uid, day)
}

// SynergyVarName returns the canonical name of the y[s,d] auxiliary
// variable for a synergy sid and a 1-indexed day.
func SynergyVarName(sid string, day int) string {
	return fmt.Sprintf("%s_%s_%d", synergyVarPrefix, sid, day)
}

// DeptLowerBoundName returns the canonical name of a department's
// lower-bound constraint on a given day.
func DeptLowerBoundName(sid string, day int) string {
	return fmt.Sprintf("%s_LB_day_%d", sid, day)
}

// DeptUpperBoundName returns the canonical name of a department's
// upper-bound constraint on a given day.
func DeptUpperBoundName(sid string, day int) string {
	return fmt.Sprintf("%s_UB_day_%d", sid, day)
}

// LP is the canonical, mutable scheduling LP: a list of named variables,
// a list of named constraints, and a name index over the constraints so
// branching can locate (and append a tightened copy of) an existing one.
//
// LP is always a maximization problem, matching the domain's objective.
type LP struct {
	Variables   []Variable
	Constraints []Constraint

	varIndex        map[string]int
	constraintIndex map[string]int
}

// newLP returns an empty LP ready for Build to populate.
func newLP() *LP {
	return &LP{
		varIndex:        make(map[string]int),
		constraintIndex: make(map[string]int),
	}
}

// AddVariable appends a new variable and indexes it by name. Panics if the
// name is already in use, since variable names must be unique by
// construction of the builder.
func (lp *LP) AddVariable(v Variable) int {
	if lp.varIndex == nil {
		lp.varIndex = make(map[string]int)
	}
	if _, exists := lp.varIndex[v.Name]; exists {
		panic(fmt.Sprintf("lpmodel: duplicate variable name %q", v.Name))
	}
	idx := len(lp.Variables)
	lp.Variables = append(lp.Variables, v)
	lp.varIndex[v.Name] = idx
	return idx
}

// VariableIndex returns the index of the variable with the given name.
func (lp *LP) VariableIndex(name string) (int, bool) {
	idx, ok := lp.varIndex[name]
	return idx, ok
}

// AddConstraint appends a new constraint. If another constraint already
// carries this name, the new one becomes the one located by name — the
// append-only tightening scheme §4.5.1 relies on: the old row is left in
// place (still part of the LP) but no longer reachable by name.
func (lp *LP) AddConstraint(c Constraint) int {
	if lp.constraintIndex == nil {
		lp.constraintIndex = make(map[string]int)
	}
	idx := len(lp.Constraints)
	lp.Constraints = append(lp.Constraints, c)
	lp.constraintIndex[c.Name] = idx
	return idx
}

// ConstraintByName returns the currently active (most recently added)
// constraint with the given canonical name.
func (lp *LP) ConstraintByName(name string) (Constraint, bool) {
	idx, ok := lp.constraintIndex[name]
	if !ok {
		return Constraint{}, false
	}
	return lp.Constraints[idx], true
}

// Clone returns a deep copy of the LP: tightening a constraint on the
// clone (as branching does) must never be visible to the original or to
// any sibling clone.
func (lp *LP) Clone() *LP {
	clone := &LP{
		Variables:       append([]Variable(nil), lp.Variables...),
		Constraints:     make([]Constraint, len(lp.Constraints)),
		varIndex:        make(map[string]int, len(lp.varIndex)),
		constraintIndex: make(map[string]int, len(lp.constraintIndex)),
	}
	for i, c := range lp.Constraints {
		clone.Constraints[i] = Constraint{
			Name:  c.Name,
			Terms: append([]Term(nil), c.Terms...),
			Sense: c.Sense,
			RHS:   c.RHS,
		}
	}
	for k, v := range lp.varIndex {
		clone.varIndex[k] = v
	}
	for k, v := range lp.constraintIndex {
		clone.constraintIndex[k] = v
	}
	return clone
}

// Build constructs the canonical LP relaxation of a Model, per §3 and
// §4.1: decision variables x[p,d] and y[s,d] in deterministic order,
// availability constraints, department bound constraints, and synergy
// constraints, all under the stable naming scheme the branch-and-bound
// engine depends on.
func Build(m *model.Model) (*LP, error) {
	lp := newLP()

	// Variables: people x days, then synergies x days, both in input
	// order, matching §4.1's determinism requirement.
	for _, p := range m.People {
		for d := 1; d <= m.Horizon; d++ {
			lp.AddVariable(Variable{
				Name:    ScheduleVarName(p.UID, d),
				Lo:      0,
				Hi:      1,
				ObjCoef: 1,
			})
		}
	}

	var synergies []model.SetConstraint
	for _, c := range m.Constraints {
		if c.Kind == model.Synergy {
			synergies = append(synergies, c)
		}
	}
	for _, s := range synergies {
		for d := 1; d <= m.Horizon; d++ {
			lp.AddVariable(Variable{
				Name:    SynergyVarName(s.SID, d),
				Lo:      0,
				Hi:      1,
				ObjCoef: 0,
			})
		}
	}

	// Availability: x[p,d] <= 0 whenever unavailable. Per §4.2 this keeps
	// the variable present (rather than omitted) so every
	// Schedule_{uid}_{day} lookup stays total.
	for _, p := range m.People {
		for d := 1; d <= m.Horizon; d++ {
			if p.Available[d-1] {
				continue
			}
			varIdx, _ := lp.VariableIndex(ScheduleVarName(p.UID, d))
			lp.AddConstraint(Constraint{
				Name:  fmt.Sprintf("Availability_%s_day_%d", p.UID, d),
				Terms: []Term{{Var: varIdx, Coef: 1}},
				Sense: LE,
				RHS:   0,
			})
		}
	}

	for _, c := range m.Constraints {
		switch c.Kind {
		case model.Department:
			if err := addDepartmentConstraints(lp, m, c); err != nil {
				return nil, err
			}
		case model.Synergy:
			if err := addSynergyConstraints(lp, m, c); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: constraint %q has unrecognized kind %v", model.ErrInvalidModel, c.SID, c.Kind)
		}
	}

	return lp, nil
}

func addDepartmentConstraints(lp *LP, m *model.Model, c model.SetConstraint) error {
	terms := func(d int) ([]Term, error) {
		terms := make([]Term, 0, len(c.Members))
		for _, uid := range c.Members {
			idx, ok := lp.VariableIndex(ScheduleVarName(uid, d))
			if !ok {
				return nil, fmt.Errorf("%w: department %q references unknown person %q", model.ErrInvalidModel, c.SID, uid)
			}
			terms = append(terms, Term{Var: idx, Coef: 1})
		}
		return terms, nil
	}

	for d := 1; d <= m.Horizon; d++ {
		ts, err := terms(d)
		if err != nil {
			return err
		}

		if c.Hi != model.NoUpperBound {
			lp.AddConstraint(Constraint{
				Name:  DeptUpperBoundName(c.SID, d),
				Terms: append([]Term(nil), ts...),
				Sense: LE,
				RHS:   float64(c.Hi),
			})
		}

		lp.AddConstraint(Constraint{
			Name:  DeptLowerBoundName(c.SID, d),
			Terms: append([]Term(nil), ts...),
			Sense: GE,
			RHS:   float64(c.Lo),
		})
	}

	return nil
}

func addSynergyConstraints(lp *LP, m *model.Model, c model.SetConstraint) error {
	// Synergy count: Σ_d y[s,d] >= lo.
	countTerms := make([]Term, 0, m.Horizon)
	for d := 1; d <= m.Horizon; d++ {
		idx, ok := lp.VariableIndex(SynergyVarName(c.SID, d))
		if !ok {
			return fmt.Errorf("%w: synergy %q missing auxiliary variable for day %d", model.ErrInvalidModel, c.SID, d)
		}
		countTerms = append(countTerms, Term{Var: idx, Coef: 1})
	}
	lp.AddConstraint(Constraint{
		Name:  fmt.Sprintf("%s_synergy_count", c.SID),
		Terms: countTerms,
		Sense: GE,
		RHS:   float64(c.Lo),
	})

	// Synergy coupling: Σ_{p in members} x[p,d] - |members| * y[s,d] >= 0.
	for d := 1; d <= m.Horizon; d++ {
		yIdx, _ := lp.VariableIndex(SynergyVarName(c.SID, d))
		terms := make([]Term, 0, len(c.Members)+1)
		for _, uid := range c.Members {
			idx, ok := lp.VariableIndex(ScheduleVarName(uid, d))
			if !ok {
				return fmt.Errorf("%w: synergy %q references unknown person %q", model.ErrInvalidModel, c.SID, uid)
			}
			terms = append(terms, Term{Var: idx, Coef: 1})
		}
		terms = append(terms, Term{Var: yIdx, Coef: -float64(len(c.Members))})

		lp.AddConstraint(Constraint{
			Name:  fmt.Sprintf("%s_all_present_day_%d", c.SID, d),
			Terms: terms,
			Sense: GE,
			RHS:   0,
		})
	}

	return nil
}
