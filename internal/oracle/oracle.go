// Package oracle is the LP solver the branch-and-bound engine calls at
// every node: it converts a named lpmodel.LP into gonum's dense simplex
// input, exactly as the teacher's subproblem.go converts inequalities to
// slack-variable equalities, and maps the result back onto variable names.
package oracle

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/ian-ludden/office-scheduler/internal/lpmodel"
)

// Status is the oracle's outcome for a single LP solve.
type Status int

const (
	Optimal Status = iota
	Infeasible
	Unbounded
	Undefined
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case Undefined:
		return "Undefined"
	default:
		return "unknown"
	}
}

// Result is the outcome of solving one LP.
type Result struct {
	Status Status

	// Objective is meaningful only when Status == Optimal.
	Objective float64

	// Assignment maps every variable's name to its optimal value. Present
	// only when Status == Optimal.
	Assignment map[string]float64
}

// ErrSolverFailure wraps any simplex error that is not a recognized,
// well-defined LP outcome (infeasible or unbounded).
var ErrSolverFailure = errors.New("oracle: solver failure")

// Solve runs gonum's simplex on lp's current constraints and variable
// bounds and reports the outcome against the oracle's status enum.
func Solve(m *lpmodel.LP) (Result, error) {
	n := len(m.Variables)

	c := make([]float64, n)
	for i, v := range m.Variables {
		// gonum's lp.Simplex minimizes; the domain objective maximizes,
		// so negate the coefficients and negate the reported value back.
		c[i] = -v.ObjCoef
	}

	var Adata []float64
	var b []float64
	var Gdata []float64
	var h []float64

	for _, cons := range m.Constraints {
		row := make([]float64, n)
		for _, t := range cons.Terms {
			row[t.Var] += t.Coef
		}

		switch cons.Sense {
		case lpmodel.EQ:
			Adata = append(Adata, row...)
			b = append(b, cons.RHS)
		case lpmodel.LE:
			Gdata = append(Gdata, row...)
			h = append(h, cons.RHS)
		case lpmodel.GE:
			// Σ a_i x_i >= rhs  <=>  Σ (-a_i) x_i <= -rhs
			neg := make([]float64, n)
			for i, v := range row {
				neg[i] = -v
			}
			Gdata = append(Gdata, neg...)
			h = append(h, -cons.RHS)
		default:
			return Result{}, fmt.Errorf("oracle: constraint %q has unrecognized sense %v", cons.Name, cons.Sense)
		}
	}

	// Variable bounds as additional inequalities. gonum's simplex already
	// assumes x >= 0, so a zero lower bound needs no row.
	for i, v := range m.Variables {
		if !math.IsInf(v.Hi, 1) {
			row := make([]float64, n)
			row[i] = 1
			Gdata = append(Gdata, row...)
			h = append(h, v.Hi)
		}
		if v.Lo > 0 {
			row := make([]float64, n)
			row[i] = -1
			Gdata = append(Gdata, row...)
			h = append(h, -v.Lo)
		}
	}

	var A *mat.Dense
	if len(b) > 0 {
		A = mat.NewDense(len(b), n, Adata)
	}

	var cFinal []float64
	var aFinal *mat.Dense
	var bFinal []float64

	if len(h) > 0 {
		G := mat.NewDense(len(h), n, Gdata)
		cFinal, aFinal, bFinal = toEqualityForm(c, A, b, G, h)
	} else {
		cFinal, aFinal, bFinal = c, A, b
	}

	z, x, err := lp.Simplex(cFinal, aFinal, bFinal, 0, nil)
	if err != nil {
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return Result{Status: Infeasible}, nil
		case errors.Is(err, lp.ErrUnbounded):
			return Result{Status: Unbounded}, nil
		default:
			return Result{Status: Undefined}, fmt.Errorf("%w: %v", ErrSolverFailure, err)
		}
	}

	assignment := make(map[string]float64, n)
	for i, v := range m.Variables {
		assignment[v.Name] = x[i]
	}

	return Result{
		Status:     Optimal,
		Objective:  -z,
		Assignment: assignment,
	}, nil
}

// toEqualityForm converts Gx <= h into equalities by adding one
// nonnegative slack variable per row, appended after the original
// variables, and stacks it below the original equality constraints.
// Adapted from the teacher's subproblem.go convertToEqualities, made
// self-contained since that helper is unexported in another package.
func toEqualityForm(c []float64, A *mat.Dense, b []float64, G *mat.Dense, h []float64) (cNew []float64, aNew *mat.Dense, bNew []float64) {
	nVar := len(c)
	nEq := len(b)
	nIneq := len(h)

	nNewVar := nVar + nIneq
	nNewCons := nEq + nIneq

	cNew = make([]float64, nNewVar)
	copy(cNew, c)

	bNew = make([]float64, nNewCons)
	copy(bNew, b)
	copy(bNew[nEq:], h)

	aNew = mat.NewDense(nNewCons, nNewVar, nil)
	if A != nil {
		aNew.Slice(0, nEq, 0, nVar).(*mat.Dense).Copy(A)
	}
	aNew.Slice(nEq, nNewCons, 0, nVar).(*mat.Dense).Copy(G)

	slackBlock := aNew.Slice(nEq, nNewCons, nVar, nNewVar).(*mat.Dense)
	for i := 0; i < nIneq; i++ {
		slackBlock.Set(i, i, 1)
	}

	return cNew, aNew, bNew
}
