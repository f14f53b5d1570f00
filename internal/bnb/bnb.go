// Package bnb is the specified branch-and-bound search: a depth-first
// stack of LP nodes, pruned by bound, with a rounding heuristic for
// quickly discovering integer-feasible incumbents and a deadline that
// turns the search into an anytime algorithm.
package bnb

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/ian-ludden/office-scheduler/internal/branch"
	"github.com/ian-ludden/office-scheduler/internal/lpmodel"
	"github.com/ian-ludden/office-scheduler/internal/oracle"
)

// Status is the engine's terminal outcome, per §4.5.2.
type Status int

const (
	Optimal Status = iota
	Infeasible
	Feasible
	OutOfTime
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Feasible:
		return "Feasible"
	case OutOfTime:
		return "OutOfTime"
	default:
		return "unknown"
	}
}

// ErrSolverFailure is returned when the LP oracle cannot produce a
// well-defined status for a node; the search aborts rather than guess.
var ErrSolverFailure = errors.New("bnb: solver failure")

// Stats accumulates search bookkeeping, surfaced by the façade and logged
// on completion.
type Stats struct {
	NodesExplored int
	LPSolveTime   time.Duration
	Elapsed       time.Duration
}

// Result is the outcome of a complete (or deadline-truncated) search.
type Result struct {
	Status     Status
	BestValue  float64
	Assignment map[string]float64
	Stats      Stats
}

// Options configures one Run.
type Options struct {
	// Deadline, if non-zero, stops the search (reporting Feasible or
	// OutOfTime) once reached.
	Deadline time.Time

	// Rand selects the branching option at each node. If nil, Run uses a
	// source seeded with 1, so the default run is reproducible.
	Rand *rand.Rand

	Log *slog.Logger
}

// node is a single branch-and-bound stack frame. It lives only during the
// search: created on branch, discarded once its children are pushed.
type node struct {
	lp      *lpmodel.LP
	options []branch.Option
}

// Run explores lp via depth-first branch-and-bound, starting from
// rootOptions, until the stack empties or opts.Deadline passes.
func Run(lp *lpmodel.LP, rootOptions []branch.Option, opts Options) (Result, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	start := time.Now()

	stack := []*node{{lp: lp, options: rootOptions}}

	var stats Stats
	var bestValue float64
	var bestAssignment map[string]float64

	rootInfeasible := false
	first := true
	timedOut := false

	for len(stack) > 0 {
		if !opts.Deadline.IsZero() && time.Now().After(opts.Deadline) {
			timedOut = true
			break
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stats.NodesExplored++

		solveStart := time.Now()
		result, err := oracle.Solve(n.lp)
		stats.LPSolveTime += time.Since(solveStart)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrSolverFailure, err)
		}

		isRoot := first
		first = false

		switch result.Status {
		case oracle.Infeasible, oracle.Unbounded:
			if isRoot {
				rootInfeasible = true
			}
			log.Debug("bnb: subproblem has no feasible LP solution", "status", result.Status.String())
			continue
		case oracle.Undefined:
			return Result{}, fmt.Errorf("%w: LP oracle returned Undefined", ErrSolverFailure)
		}

		lpValue := result.Objective

		if feasibleValue, feasibleAssignment, ok := feasibleSolution(n.lp, result.Assignment); ok {
			if feasibleValue > bestValue {
				bestValue = feasibleValue
				bestAssignment = feasibleAssignment
				log.Info("bnb: new incumbent", "value", bestValue, "nodes_explored", stats.NodesExplored)
			}
		}

		if lpValue <= bestValue {
			continue
		}

		if len(n.options) == 0 {
			continue
		}

		children := branchNode(n, opts.Rand)
		stack = append(stack, children...)
	}

	stats.Elapsed = time.Since(start)

	status := terminalStatus(timedOut, rootInfeasible, bestValue)

	log.Info("bnb: search complete",
		"status", status.String(),
		"best_value", bestValue,
		"nodes_explored", stats.NodesExplored,
		"elapsed", stats.Elapsed)

	return Result{
		Status:     status,
		BestValue:  bestValue,
		Assignment: bestAssignment,
		Stats:      stats,
	}, nil
}

func terminalStatus(timedOut, rootInfeasible bool, bestValue float64) Status {
	if timedOut {
		if bestValue > 0 {
			return Feasible
		}
		return OutOfTime
	}
	if rootInfeasible {
		return Infeasible
	}
	return Optimal
}

// feasibleSolution implements §4.5 step 6: an LP assignment that is
// already integral is feasible outright; otherwise a rounding heuristic
// is tried and accepted only if it satisfies every constraint currently
// active on n's LP.
func feasibleSolution(lp *lpmodel.LP, assignment map[string]float64) (float64, map[string]float64, bool) {
	x := make([]float64, len(lp.Variables))
	for i, v := range lp.Variables {
		x[i] = assignment[v.Name]
	}

	if allIntegral(x) {
		return objectiveValue(lp, x), assignment, true
	}

	rounded := make([]float64, len(x))
	for i, v := range x {
		if v <= 0.5 {
			rounded[i] = 0
		} else {
			rounded[i] = 1
		}
	}

	for _, c := range lp.Constraints {
		if violates(c, rounded) {
			return 0, nil, false
		}
	}

	roundedAssignment := make(map[string]float64, len(lp.Variables))
	for i, v := range lp.Variables {
		roundedAssignment[v.Name] = rounded[i]
	}
	return objectiveValue(lp, rounded), roundedAssignment, true
}

func allIntegral(x []float64) bool {
	for _, v := range x {
		if v != math.Round(v) {
			return false
		}
	}
	return true
}

func objectiveValue(lp *lpmodel.LP, x []float64) float64 {
	var total float64
	for i, v := range lp.Variables {
		total += v.ObjCoef * x[i]
	}
	return total
}

func violates(c lpmodel.Constraint, x []float64) bool {
	var lhs float64
	for _, t := range c.Terms {
		lhs += t.Coef * x[t.Var]
	}
	switch c.Sense {
	case lpmodel.LE:
		return lhs > c.RHS
	case lpmodel.GE:
		return lhs < c.RHS
	case lpmodel.EQ:
		return lhs != c.RHS
	default:
		return false
	}
}

// branchNode picks one remaining option uniformly at random, removes it,
// and materializes its children per §4.4 and §4.5.1.
func branchNode(n *node, r *rand.Rand) []*node {
	i := r.Intn(len(n.options))
	chosen := n.options[i]

	remaining := make([]branch.Option, 0, len(n.options)-1)
	remaining = append(remaining, n.options[:i]...)
	remaining = append(remaining, n.options[i+1:]...)

	switch chosen.Type {
	case branch.PersonDay, branch.SynergyDay:
		return branchOnVariable(n, remaining, chosen)
	case branch.DeptDay:
		return branchOnDept(n, remaining, chosen)
	default:
		panic(fmt.Sprintf("bnb: unrecognized decision type %v", chosen.Type))
	}
}

func branchOnVariable(n *node, remaining []branch.Option, opt branch.Option) []*node {
	children := make([]*node, 0, 2)
	for _, v := range [2]float64{0, 1} {
		childLP := n.lp.Clone()
		varIdx, ok := childLP.VariableIndex(opt.VarName)
		if !ok {
			panic(fmt.Sprintf("bnb: branching variable %q not found in LP", opt.VarName))
		}
		childLP.AddConstraint(lpmodel.Constraint{
			Name:  fmt.Sprintf("%s_eq_%d", opt.VarName, int(v)),
			Terms: []lpmodel.Term{{Var: varIdx, Coef: 1}},
			Sense: lpmodel.EQ,
			RHS:   v,
		})
		children = append(children, &node{
			lp:      childLP,
			options: append([]branch.Option(nil), remaining...),
		})
	}
	return children
}

// branchOnDept materializes the two halves of a DeptDay split, per
// §4.4 and §4.5.1. A collapsed interval yields no children.
func branchOnDept(n *node, remaining []branch.Option, opt branch.Option) []*node {
	if branch.Collapsed(opt.Lo, opt.Hi) {
		return nil
	}

	mid, lowerLo, lowerHi, upperLo, upperHi := branch.Split(opt.Lo, opt.Hi)

	lowerChild := n.lp.Clone()
	ub, ok := lowerChild.ConstraintByName(lpmodel.DeptUpperBoundName(opt.SID, opt.Day))
	if !ok {
		lb, _ := lowerChild.ConstraintByName(lpmodel.DeptLowerBoundName(opt.SID, opt.Day))
		ub = lb
	}
	ub.Name = lpmodel.DeptUpperBoundName(opt.SID, opt.Day)
	ub.Sense = lpmodel.LE
	ub.RHS = float64(mid)
	lowerChild.AddConstraint(ub)
	lowerOptions := append([]branch.Option(nil), remaining...)
	if !branch.Collapsed(lowerLo, lowerHi) {
		lowerOptions = append(lowerOptions, branch.Option{Type: branch.DeptDay, SID: opt.SID, Day: opt.Day, Lo: lowerLo, Hi: lowerHi})
	}

	upperChild := n.lp.Clone()
	lb, _ := upperChild.ConstraintByName(lpmodel.DeptLowerBoundName(opt.SID, opt.Day))
	lb.RHS = float64(mid + 1)
	upperChild.AddConstraint(lb)
	upperOptions := append([]branch.Option(nil), remaining...)
	if !branch.Collapsed(upperLo, upperHi) {
		upperOptions = append(upperOptions, branch.Option{Type: branch.DeptDay, SID: opt.SID, Day: opt.Day, Lo: upperLo, Hi: upperHi})
	}

	return []*node{
		{lp: lowerChild, options: lowerOptions},
		{lp: upperChild, options: upperOptions},
	}
}
