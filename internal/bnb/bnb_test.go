package bnb

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/ian-ludden/office-scheduler/internal/branch"
	"github.com/ian-ludden/office-scheduler/internal/lpmodel"
	"github.com/ian-ludden/office-scheduler/internal/model"
)

func buildModel(t *testing.T, people []model.Person, constraints []model.SetConstraint, horizon int) *lpmodel.LP {
	t.Helper()
	m, err := model.New(people, constraints, horizon)
	require.NoError(t, err)
	lp, err := lpmodel.Build(m)
	require.NoError(t, err)
	return lp
}

func deterministicOptions() Options {
	return Options{Rand: rand.New(rand.NewSource(42))}
}

func TestRun_AlreadyIntegralRoot(t *testing.T) {
	people := []model.Person{
		{UID: "alice", Available: []bool{true}},
	}
	lp := buildModel(t, people, nil, 1)

	result, err := Run(lp, nil, deterministicOptions())
	require.NoError(t, err)
	assert.Equal(t, Optimal, result.Status)
	assert.True(t, floats.EqualWithinAbs(1, result.BestValue, 1e-9))
	assert.Equal(t, float64(1), result.Assignment[lpmodel.ScheduleVarName("alice", 1)])
}

func TestRun_DepartmentUpperBoundCapsAttendance(t *testing.T) {
	people := []model.Person{
		{UID: "alice", Available: []bool{true}},
		{UID: "bob", Available: []bool{true}},
		{UID: "carol", Available: []bool{true}},
	}
	constraints := []model.SetConstraint{
		{SID: "eng", Kind: model.Department, Members: []string{"alice", "bob", "carol"}, Lo: 0, Hi: 2},
	}
	lp := buildModel(t, people, constraints, 1)
	m, err := model.New(people, constraints, 1)
	require.NoError(t, err)
	root := branch.RootOptions(m)

	result, err := Run(lp, root, deterministicOptions())
	require.NoError(t, err)
	assert.Equal(t, Optimal, result.Status)
	assert.True(t, floats.EqualWithinAbs(2, result.BestValue, 1e-9))

	var present int
	for _, uid := range []string{"alice", "bob", "carol"} {
		if result.Assignment[lpmodel.ScheduleVarName(uid, 1)] == 1 {
			present++
		}
	}
	assert.Equal(t, 2, present)
}

func TestRun_SynergyRequiresFullAttendance(t *testing.T) {
	people := []model.Person{
		{UID: "alice", Available: []bool{true, true}},
		{UID: "bob", Available: []bool{true, true}},
	}
	constraints := []model.SetConstraint{
		{SID: "pair", Kind: model.Synergy, Members: []string{"alice", "bob"}, Lo: 1},
	}
	lp := buildModel(t, people, constraints, 2)
	m, err := model.New(people, constraints, 2)
	require.NoError(t, err)
	root := branch.RootOptions(m)

	result, err := Run(lp, root, deterministicOptions())
	require.NoError(t, err)
	assert.Equal(t, Optimal, result.Status)

	var synergyDaysSatisfied int
	for d := 1; d <= 2; d++ {
		a := result.Assignment[lpmodel.ScheduleVarName("alice", d)]
		b := result.Assignment[lpmodel.ScheduleVarName("bob", d)]
		if a == 1 && b == 1 {
			synergyDaysSatisfied++
		}
	}
	assert.GreaterOrEqual(t, synergyDaysSatisfied, 1)
}

func TestRun_RootInfeasible(t *testing.T) {
	people := []model.Person{
		{UID: "alice", Available: []bool{false}},
	}
	constraints := []model.SetConstraint{
		{SID: "eng", Kind: model.Department, Members: []string{"alice"}, Lo: 1, Hi: 1},
	}
	lp := buildModel(t, people, constraints, 1)

	result, err := Run(lp, nil, deterministicOptions())
	require.NoError(t, err)
	assert.Equal(t, Infeasible, result.Status)
}

func TestRun_DeadlineExceededYieldsFeasibleOrOutOfTime(t *testing.T) {
	people := []model.Person{
		{UID: "alice", Available: []bool{true}},
		{UID: "bob", Available: []bool{true}},
	}
	lp := buildModel(t, people, nil, 1)

	opts := deterministicOptions()
	opts.Deadline = time.Now().Add(-time.Second)

	result, err := Run(lp, nil, opts)
	require.NoError(t, err)
	assert.Contains(t, []Status{Feasible, OutOfTime}, result.Status)
}

func TestTerminalStatus(t *testing.T) {
	assert.Equal(t, Optimal, terminalStatus(false, false, 0))
	assert.Equal(t, Infeasible, terminalStatus(false, true, 0))
	assert.Equal(t, OutOfTime, terminalStatus(true, false, 0))
	assert.Equal(t, Feasible, terminalStatus(true, false, 3))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Optimal", Optimal.String())
	assert.Equal(t, "Infeasible", Infeasible.String())
	assert.Equal(t, "Feasible", Feasible.String())
	assert.Equal(t, "OutOfTime", OutOfTime.String())
}

func TestBranchOnDept_CollapsedIntervalYieldsNoChildren(t *testing.T) {
	people := []model.Person{
		{UID: "alice", Available: []bool{true}},
	}
	constraints := []model.SetConstraint{
		{SID: "eng", Kind: model.Department, Members: []string{"alice"}, Lo: 1, Hi: 1},
	}
	lp := buildModel(t, people, constraints, 1)

	n := &node{lp: lp}
	opt := branch.Option{Type: branch.DeptDay, SID: "eng", Day: 1, Lo: 1, Hi: 1}
	children := branchOnDept(n, nil, opt)
	assert.Nil(t, children)
}

func TestBranchOnVariable_FixesBothHalves(t *testing.T) {
	people := []model.Person{
		{UID: "alice", Available: []bool{true}},
	}
	lp := buildModel(t, people, nil, 1)

	n := &node{lp: lp}
	opt := branch.Option{Type: branch.PersonDay, VarName: lpmodel.ScheduleVarName("alice", 1)}
	children := branchOnVariable(n, nil, opt)
	require.Len(t, children, 2)

	result0, err := Run(children[0].lp, nil, deterministicOptions())
	require.NoError(t, err)
	result1, err := Run(children[1].lp, nil, deterministicOptions())
	require.NoError(t, err)

	assert.True(t, floats.EqualWithinAbs(0, result0.BestValue, 1e-9))
	assert.True(t, floats.EqualWithinAbs(1, result1.BestValue, 1e-9))
}
