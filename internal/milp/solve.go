package milp

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrNoIntegerFeasibleSolution is returned when the search exhausts every
// node without finding an integer-feasible point.
var ErrNoIntegerFeasibleSolution = errors.New("milp: no integer feasible solution found")

// mipNode is one branch-and-bound stack frame: the original problem's
// equality/inequality constraints are shared and immutable; extraRows
// and extraH hold only the bound-tightening rows this node's ancestors
// branched in, so branching stays a cheap append rather than a deep copy
// of the whole constraint system.
type mipNode struct {
	extraRows [][]float64
	extraH    []float64
}

// branchAndBound runs a depth-first search over the LP relaxation of
// (c, A, b, G, h), branching on the most-fractional integrality-
// constrained variable at each node, pruning by bound, until the stack
// empties or ctx is done.
func branchAndBound(ctx context.Context, c []float64, A *mat.Dense, b []float64, G *mat.Dense, h []float64, integrality []bool, log *slog.Logger) ([]float64, float64, int, error) {
	nVar := len(c)
	stack := []mipNode{{}}

	var bestX []float64
	bestZ := math.Inf(1)
	nodes := 0

	for len(stack) > 0 {
		if ctx.Err() != nil {
			if bestX != nil {
				return bestX, bestZ, nodes, nil
			}
			return nil, 0, nodes, ctx.Err()
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		gCombined, hCombined := combineRows(G, h, n.extraRows, n.extraH, nVar)

		var z float64
		var x []float64
		var err error
		if gCombined != nil {
			cEq, aEq, bEq := toEqualityForm(c, A, b, gCombined, hCombined)
			z, x, err = lp.Simplex(cEq, aEq, bEq, 0, nil)
		} else if A != nil {
			z, x, err = lp.Simplex(c, A, b, 0, nil)
		} else {
			// No constraint rows at all: every variable is bounded only
			// below by zero, so x = 0 is optimal unless a negative cost
			// makes the relaxation unbounded.
			x = make([]float64, nVar)
			for _, ci := range c {
				if ci < 0 {
					err = lp.ErrUnbounded
				}
			}
		}
		if err != nil {
			log.Debug("milp: subproblem has no feasible solution", "err", err)
			continue
		}
		x = x[:nVar]

		if z >= bestZ {
			continue
		}

		branchVar, ok := mostFractional(x, integrality)
		if !ok {
			bestX = append([]float64(nil), x...)
			bestZ = z
			log.Debug("milp: new incumbent", "objective", -z)
			continue
		}

		floor := math.Floor(x[branchVar])
		stack = append(stack,
			branchChild(n, nVar, branchVar, 1, floor),      // x[branchVar] <= floor
			branchChild(n, nVar, branchVar, -1, -(floor+1)), // x[branchVar] >= floor+1
		)
	}

	if bestX == nil {
		return nil, 0, nodes, ErrNoIntegerFeasibleSolution
	}
	return bestX, bestZ, nodes, nil
}

// mostFractional returns the integrality-constrained variable whose LP
// value is furthest from its nearest integer, or ok=false if every such
// variable is already integral.
func mostFractional(x []float64, integrality []bool) (idx int, ok bool) {
	idx = -1
	bestDist := math.Inf(1)
	for i, constrained := range integrality {
		if !constrained {
			continue
		}
		f := x[i] - math.Floor(x[i])
		if f < 1e-9 || f > 1-1e-9 {
			continue
		}
		dist := math.Abs(0.5 - f)
		if dist < bestDist {
			bestDist = dist
			idx = i
		}
	}
	return idx, idx != -1
}

// branchChild appends one new bound row (coef*x[varIdx] <= rhs) to n's
// inherited rows, without mutating n itself.
func branchChild(n mipNode, nVar, varIdx int, coef, rhs float64) mipNode {
	row := make([]float64, nVar)
	row[varIdx] = coef

	rows := make([][]float64, len(n.extraRows), len(n.extraRows)+1)
	copy(rows, n.extraRows)
	rows = append(rows, row)

	hs := make([]float64, len(n.extraH), len(n.extraH)+1)
	copy(hs, n.extraH)
	hs = append(hs, rhs)

	return mipNode{extraRows: rows, extraH: hs}
}

// combineRows stacks a node's branching rows below the problem's own
// inequality rows, returning the original matrix unmodified when there
// is nothing to add.
func combineRows(G *mat.Dense, h []float64, extraRows [][]float64, extraH []float64, nVar int) (*mat.Dense, []float64) {
	if len(extraRows) == 0 {
		return G, h
	}

	nOrig := 0
	if G != nil {
		nOrig, _ = G.Dims()
	}
	total := nOrig + len(extraRows)

	data := make([]float64, 0, total*nVar)
	for i := 0; i < nOrig; i++ {
		data = append(data, G.RawRowView(i)...)
	}
	for _, row := range extraRows {
		data = append(data, row...)
	}

	combinedH := make([]float64, 0, total)
	combinedH = append(combinedH, h...)
	combinedH = append(combinedH, extraH...)

	return mat.NewDense(total, nVar, data), combinedH
}

// toEqualityForm converts Gx <= h into equalities by adding one
// nonnegative slack variable per row, appended after the original
// variables and stacked below the original equality constraints. The
// same technique as internal/oracle's toEqualityForm, duplicated here
// since this package's LP encoding (generic Problem matrices, not a
// named lpmodel.LP) is intentionally independent of it.
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
