package officesched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ian-ludden/office-scheduler/internal/model"
	"github.com/ian-ludden/office-scheduler/internal/schedule"
)

func TestSolve_Trivial(t *testing.T) {
	people := []model.Person{{UID: "A", Available: []bool{true}}}
	m, err := model.New(people, nil, 1)
	require.NoError(t, err)

	status, sched, _, err := Solve(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, Optimal, status)
	require.NotNil(t, sched)
	assert.Equal(t, 1, sched.Matrix[0][0])
}

func TestSolve_Unavailable(t *testing.T) {
	people := []model.Person{{UID: "A", Available: []bool{false, true}}}
	m, err := model.New(people, nil, 2)
	require.NoError(t, err)

	status, sched, _, err := Solve(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, Optimal, status)
	require.NotNil(t, sched)
	assert.Equal(t, []int{0, 1}, sched.Matrix[0])
}

func TestSolve_DepartmentFloorInfeasibleOnAvailability(t *testing.T) {
	people := []model.Person{
		{UID: "A", Available: []bool{false}},
		{UID: "B", Available: []bool{false}},
	}
	constraints := []model.SetConstraint{
		{SID: "dept", Kind: model.Department, Members: []string{"A", "B"}, Lo: 1, Hi: 2},
	}
	m, err := model.New(people, constraints, 1)
	require.NoError(t, err)

	status, sched, _, err := Solve(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, Infeasible, status)
	assert.Nil(t, sched)
}

func TestSolve_TimeLimit(t *testing.T) {
	var people []model.Person
	for i := 0; i < 10; i++ {
		available := make([]bool, 10)
		for d := range available {
			available[d] = true
		}
		people = append(people, model.Person{UID: string(rune('A' + i)), Available: available})
	}
	var constraints []model.SetConstraint
	for i := 0; i < 5; i++ {
		constraints = append(constraints, model.SetConstraint{
			SID:     string(rune('a' + i)),
			Kind:    model.Department,
			Members: []string{people[i].UID, people[i+1].UID, people[i+2].UID},
			Lo:      1,
			Hi:      1,
		})
	}
	m, err := model.New(people, constraints, 10)
	require.NoError(t, err)

	status, sched, _, err := Solve(m, Options{TimeLimit: time.Nanosecond})
	require.NoError(t, err)
	assert.Contains(t, []Status{Feasible, OutOfTime}, status)
	if status == Feasible {
		require.NotNil(t, sched)
	}
}

func TestSolve_DepartmentCap(t *testing.T) {
	people := []model.Person{
		{UID: "A", Available: []bool{true, true}},
		{UID: "B", Available: []bool{true, true}},
		{UID: "C", Available: []bool{true, true}},
	}
	constraints := []model.SetConstraint{
		{SID: "dept", Kind: model.Department, Members: []string{"A", "B", "C"}, Lo: 0, Hi: 1},
	}
	m, err := model.New(people, constraints, 2)
	require.NoError(t, err)

	status, sched, _, err := Solve(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, Optimal, status)
	require.NotNil(t, sched)

	var total int
	for d := 0; d < 2; d++ {
		var present int
		for i := range sched.People {
			present += sched.Matrix[i][d]
		}
		assert.LessOrEqual(t, present, 1)
		total += present
	}
	assert.Equal(t, 2, total)
}

func TestSolve_Synergy(t *testing.T) {
	people := []model.Person{
		{UID: "A", Available: []bool{true, true, true}},
		{UID: "B", Available: []bool{true, true, true}},
	}
	constraints := []model.SetConstraint{
		{SID: "team", Kind: model.Synergy, Members: []string{"A", "B"}, Lo: 2},
	}
	m, err := model.New(people, constraints, 3)
	require.NoError(t, err)

	status, sched, _, err := Solve(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, Optimal, status)
	require.NotNil(t, sched)

	var total, bothPresentDays int
	for d := 0; d < 3; d++ {
		a := sched.Matrix[0][d]
		b := sched.Matrix[1][d]
		total += a + b
		if a == 1 && b == 1 {
			bothPresentDays++
		}
	}
	assert.GreaterOrEqual(t, total, 4)
	assert.GreaterOrEqual(t, bothPresentDays, 2)
}

func TestSolve_MonotonicInTimeLimit(t *testing.T) {
	var people []model.Person
	for i := 0; i < 10; i++ {
		available := make([]bool, 10)
		for d := range available {
			available[d] = true
		}
		people = append(people, model.Person{UID: string(rune('A' + i)), Available: available})
	}
	var constraints []model.SetConstraint
	for i := 0; i < 5; i++ {
		constraints = append(constraints, model.SetConstraint{
			SID:     string(rune('a' + i)),
			Kind:    model.Department,
			Members: []string{people[i].UID, people[i+1].UID, people[i+2].UID},
			Lo:      1,
			Hi:      1,
		})
	}
	m, err := model.New(people, constraints, 10)
	require.NoError(t, err)

	_, schedShort, _, err := Solve(m, Options{TimeLimit: 5 * time.Millisecond, BranchSeed: 7})
	require.NoError(t, err)
	_, schedLong, _, err := Solve(m, Options{TimeLimit: 10 * time.Millisecond, BranchSeed: 7})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, scheduleValue(schedLong), scheduleValue(schedShort))
}

func scheduleValue(sched *schedule.Schedule) int {
	if sched == nil {
		return 0
	}
	var total int
	for _, row := range sched.Matrix {
		for _, v := range row {
			if v == 1 {
				total++
			}
		}
	}
	return total
}

func TestSolve_Direct(t *testing.T) {
	people := []model.Person{{UID: "A", Available: []bool{true}}}
	m, err := model.New(people, nil, 1)
	require.NoError(t, err)

	status, sched, _, err := Solve(m, Options{Direct: true})
	require.NoError(t, err)
	assert.Equal(t, Optimal, status)
	require.NotNil(t, sched)
	assert.Equal(t, 1, sched.Matrix[0][0])
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Optimal", Optimal.String())
	assert.Equal(t, "Infeasible", Infeasible.String())
	assert.Equal(t, "Feasible", Feasible.String())
	assert.Equal(t, "OutOfTime", OutOfTime.String())
}
