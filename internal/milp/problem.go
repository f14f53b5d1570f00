// Package milp is the office scheduler's independent cross-check solver:
// a small generic 0/1 (or bounded-integer) MILP abstraction and a
// branch-and-bound search over its LP relaxation, reached via --direct.
//
// It deliberately knows nothing about people, days, departments, or
// synergy sets. The façade lowers the same canonical lpmodel.LP that
// internal/bnb searches into one of these generic Problems instead, so
// an agreement between the two paths' objective values means the
// scheduling-specific engine and this domain-blind one derived the same
// answer from two independently-encoded formulations of the same model.
package milp

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Problem is the abstract MILP: an objective over a set of named,
// bounded variables plus a set of linear equality/inequality
// constraints over them.
type Problem struct {
	maximize bool

	variables   []*Variable
	constraints []*Constraint
}

// Variable is one column of the problem.
type Variable struct {
	name        string
	coefficient float64
	integer     bool
	upper       float64
	lower       float64
}

// expression is one coef*variable addend of a Constraint's left-hand side.
type expression struct {
	coef     float64
	variable *Variable
}

// Constraint is a linear equality or "<=" inequality over a Problem's
// variables.
type Constraint struct {
	expressions []expression
	rhs         float64
	inequality  bool
	problem     *Problem
}

// NewProblem returns an empty Problem, ready to accept variables and
// constraints.
func NewProblem() Problem {
	return Problem{}
}

// AddVariable registers a new variable with objective coefficient 0, no
// integrality constraint, and bounds [0, +Inf), and returns it for
// further configuration.
func (p *Problem) AddVariable(name string) *Variable {
	v := &Variable{
		name:  name,
		upper: math.Inf(1),
		lower: 0,
	}
	p.variables = append(p.variables, v)
	return v
}

// SetCoeff sets the variable's objective coefficient.
func (v *Variable) SetCoeff(coef float64) *Variable {
	v.coefficient = coef
	return v
}

// IsInteger marks the variable as integrality-constrained.
func (v *Variable) IsInteger() *Variable {
	v.integer = true
	return v
}

// UpperBound sets the variable's inclusive upper bound.
func (v *Variable) UpperBound(bound float64) *Variable {
	v.upper = bound
	return v
}

// LowerBound sets the variable's inclusive lower bound.
func (v *Variable) LowerBound(bound float64) *Variable {
	v.lower = bound
	return v
}

// AddConstraint starts a new constraint, to be completed with
// AddExpression and EqualTo/SmallerThanOrEqualTo.
func (p *Problem) AddConstraint() *Constraint {
	c := &Constraint{problem: p}
	p.constraints = append(p.constraints, c)
	return c
}

// EqualTo closes the constraint as an equality with the given right-hand
// side.
func (c *Constraint) EqualTo(val float64) *Constraint {
	c.inequality = false
	c.rhs = val
	return c
}

// SmallerThanOrEqualTo closes the constraint as a "<=" inequality with
// the given right-hand side.
func (c *Constraint) SmallerThanOrEqualTo(val float64) *Constraint {
	c.inequality = true
	c.rhs = val
	return c
}

// AddExpression adds one coef*v addend to the constraint's left-hand
// side. Panics if v was not registered with the same Problem.
func (c *Constraint) AddExpression(coef float64, v *Variable) *Constraint {
	c.problem.indexOf(v)
	c.expressions = append(c.expressions, expression{coef: coef, variable: v})
	return c
}

// Maximize sets the Problem to maximize its objective.
func (p *Problem) Maximize() {
	p.maximize = true
}

// Minimize sets the Problem to minimize its objective (the default).
func (p *Problem) Minimize() {
	p.maximize = false
}

// indexOf returns v's position among the Problem's variables, panicking
// if v was never registered here.
func (p *Problem) indexOf(v *Variable) int {
	for i, candidate := range p.variables {
		if candidate == v {
			return i
		}
	}
	panic("milp: variable not registered with this problem")
}

// toStandardForm lowers the Problem's variables, bounds, and constraints
// into the dense matrices the branch-and-bound solver operates on.
// Objective coefficients are negated when maximizing, since the search
// always minimizes; Solve negates the reported objective back.
func (p *Problem) toStandardForm() (c []float64, A *mat.Dense, b []float64, G *mat.Dense, h []float64, integrality []bool) {
	n := len(p.variables)

	c = make([]float64, n)
	integrality = make([]bool, n)
	for i, v := range p.variables {
		coef := v.coefficient
		if p.maximize {
			coef = -coef
		}
		c[i] = coef
		integrality[i] = v.integer
	}

	var aData, gData []float64
	for _, cons := range p.constraints {
		row := make([]float64, n)
		for _, e := range cons.expressions {
			row[p.indexOf(e.variable)] += e.coef
		}
		if cons.inequality {
			gData = append(gData, row...)
			h = append(h, cons.rhs)
		} else {
			aData = append(aData, row...)
			b = append(b, cons.rhs)
		}
	}
	if len(b) > 0 {
		A = mat.NewDense(len(b), n, aData)
	}

	for i, v := range p.variables {
		if !math.IsInf(v.upper, 1) {
			row := make([]float64, n)
			row[i] = 1
			gData = append(gData, row...)
			h = append(h, v.upper)
		}
		if v.lower > 0 {
			row := make([]float64, n)
			row[i] = -1
			gData = append(gData, row...)
			h = append(h, -v.lower)
		}
	}
	if len(h) > 0 {
		G = mat.NewDense(len(h), n, gData)
	}

	return c, A, b, G, h, integrality
}

// Solve runs the branch-and-bound search to completion, or until ctx is
// done, and reports the result in terms of the Problem's own variable
// names.
func (p *Problem) Solve(ctx context.Context, log *slog.Logger) (*Solution, error) {
	if log == nil {
		log = slog.Default()
	}

	c, A, b, G, h, integrality := p.toStandardForm()

	x, z, nodes, err := branchAndBound(ctx, c, A, b, G, h, integrality, log)
	if err != nil {
		return nil, err
	}

	sol := Solution{byName: make(map[string]float64, len(p.variables))}
	if p.maximize {
		z = -z
	}
	sol.Objective = z

	for i, v := range p.variables {
		sol.byName[v.name] = x[i]
		sol.Coefficients = append(sol.Coefficients, struct {
			Name string
			Coef float64
		}{Name: v.name, Coef: x[i]})
	}

	log.Info("milp: direct solve complete", "objective", sol.Objective, "nodes_explored", nodes)

	return &sol, nil
}

// Solution contains the results of a solved Problem.
type Solution struct {
	Objective float64

	// Coefficients holds the variables and their optimal values, in the
	// order they were originally added to the Problem.
	Coefficients []struct {
		Name string
		Coef float64
	}

	byName map[string]float64
}

// GetValueFor retrieves the value for a decision variable by its name.
func (s *Solution) GetValueFor(varName string) (float64, error) {
	val, ok := s.byName[varName]
	if !ok {
		return 0, fmt.Errorf("variable %q not found in solution", varName)
	}
	return val, nil
}
