// Package officesched is the solver façade: it wires the canonical LP
// builder, the branch-and-bound engine (or the internal/milp cross-check
// path), and the schedule materializer together into a single Solve call.
package officesched

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ian-ludden/office-scheduler/internal/bnb"
	"github.com/ian-ludden/office-scheduler/internal/branch"
	"github.com/ian-ludden/office-scheduler/internal/lpmodel"
	"github.com/ian-ludden/office-scheduler/internal/milp"
	"github.com/ian-ludden/office-scheduler/internal/model"
	"github.com/ian-ludden/office-scheduler/internal/schedule"
)

// Status mirrors bnb.Status in the façade's own vocabulary, so callers of
// this package never need to import internal/bnb directly.
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

// Stats summarizes one search, surfaced in the CLI's final log line.
type Stats struct {
	NodesExplored int
	Elapsed       time.Duration
}

// Options configures a single Solve call.
type Options struct {
	// TimeLimit bounds the B&B search; zero means no deadline. Ignored by
	// the Direct path, which always runs to completion.
	TimeLimit time.Duration

	// BranchSeed seeds the B&B engine's branching-option RNG, for
	// reproducible runs. Zero uses the engine's own default seed.
	BranchSeed int64

	// Direct switches to the internal/milp generic cross-check solver
	// instead of the specified branch-and-bound engine.
	Direct bool

	Log *slog.Logger
}

// Solve builds the canonical LP for m and solves it via the configured
// path, returning the final status, the best schedule found (nil if
// none), and search statistics.
func Solve(m *model.Model, opts Options) (Status, *schedule.Schedule, Stats, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	lp, err := lpmodel.Build(m)
	if err != nil {
		return 0, nil, Stats{}, fmt.Errorf("officesched: building LP: %w", err)
	}

	var status Status
	var assignment map[string]float64
	var stats Stats

	if opts.Direct {
		status, assignment, stats, err = solveDirect(m, lp, log)
	} else {
		status, assignment, stats, err = solveBnB(lp, m, opts, log)
	}
	if err != nil {
		return 0, nil, Stats{}, err
	}

	var sched *schedule.Schedule
	if assignment != nil {
		s := schedule.FromAssignment(m, assignment)
		sched = &s
	}

	log.Info("officesched: solve complete",
		"status", status.String(),
		"nodes_explored", stats.NodesExplored,
		"elapsed", stats.Elapsed)

	return status, sched, stats, nil
}

func solveBnB(lp *lpmodel.LP, m *model.Model, opts Options, log *slog.Logger) (Status, map[string]float64, Stats, error) {
	root := branch.RootOptions(m)

	bnbOpts := bnb.Options{Log: log}
	seed := opts.BranchSeed
	if seed == 0 {
		seed = 1
	}
	bnbOpts.Rand = rand.New(rand.NewSource(seed))
	if opts.TimeLimit > 0 {
		bnbOpts.Deadline = time.Now().Add(opts.TimeLimit)
	}

	result, err := bnb.Run(lp, root, bnbOpts)
	if err != nil {
		return 0, nil, Stats{}, fmt.Errorf("officesched: %w", err)
	}

	return Status(result.Status), result.Assignment, Stats{
		NodesExplored: result.Stats.NodesExplored,
		Elapsed:       result.Stats.Elapsed,
	}, nil
}

// solveDirect converts the canonical LP into an internal/milp Problem and
// solves it with the generic branch-and-bound simplex cross-check, per
// §6's --direct flag.
func solveDirect(m *model.Model, lp *lpmodel.LP, log *slog.Logger) (Status, map[string]float64, Stats, error) {
	start := time.Now()

	prob := milp.NewProblem()
	prob.Maximize()

	vars := make([]*milp.Variable, len(lp.Variables))
	for i, v := range lp.Variables {
		mv := prob.AddVariable(v.Name).SetCoeff(v.ObjCoef).IsInteger()
		mv.UpperBound(v.Hi)
		mv.LowerBound(v.Lo)
		vars[i] = mv
	}

	for _, c := range lp.Constraints {
		switch c.Sense {
		case lpmodel.LE:
			addMilpConstraint(&prob, vars, c.Terms, c.RHS)
		case lpmodel.GE:
			negated := make([]lpmodel.Term, len(c.Terms))
			for i, t := range c.Terms {
				negated[i] = lpmodel.Term{Var: t.Var, Coef: -t.Coef}
			}
			addMilpConstraint(&prob, vars, negated, -c.RHS)
		case lpmodel.EQ:
			constraint := prob.AddConstraint()
			for _, t := range c.Terms {
				constraint.AddExpression(t.Coef, vars[t.Var])
			}
			constraint.EqualTo(c.RHS)
		}
	}

	solution, err := prob.Solve(context.Background(), log)
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("officesched: direct solve found no feasible integer solution", "err", err)
		return Infeasible, nil, Stats{Elapsed: elapsed}, nil
	}

	assignment := make(map[string]float64, len(lp.Variables))
	for _, c := range solution.Coefficients {
		assignment[c.Name] = c.Coef
	}

	return Optimal, assignment, Stats{Elapsed: elapsed}, nil
}

func addMilpConstraint(prob *milp.Problem, vars []*milp.Variable, terms []lpmodel.Term, rhs float64) {
	constraint := prob.AddConstraint()
	for _, t := range terms {
		constraint.AddExpression(t.Coef, vars[t.Var])
	}
	constraint.SmallerThanOrEqualTo(rhs)
}
