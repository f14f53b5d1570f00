package csvio

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ian-ludden/office-scheduler/internal/schedule"
)

func TestParseModel_Basic(t *testing.T) {
	people := "alice,1,1,eng\nbob,1,0,eng\n"
	sets := "eng,1,1,2\n"

	m, err := ParseModel(strings.NewReader(people), strings.NewReader(sets), 2)
	require.NoError(t, err)

	require.Len(t, m.People, 2)
	assert.Equal(t, "alice", m.People[0].UID)
	assert.Equal(t, []bool{true, true}, m.People[0].Available)
	assert.Equal(t, []bool{true, false}, m.People[1].Available)

	require.Len(t, m.Constraints, 1)
	assert.ElementsMatch(t, []string{"alice", "bob"}, m.Constraints[0].Members)
	assert.Equal(t, 1, m.Constraints[0].Lo)
	assert.Equal(t, 2, m.Constraints[0].Hi)
}

func TestParseModel_SynergyNoUpperBoundColumn(t *testing.T) {
	people := "alice,1,1,pair\nbob,1,1,pair\n"
	sets := "pair,2,1\n"

	m, err := ParseModel(strings.NewReader(people), strings.NewReader(sets), 2)
	require.NoError(t, err)
	require.Len(t, m.Constraints, 1)
	assert.Equal(t, "pair", m.Constraints[0].SID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, m.Constraints[0].Members)
}

func TestParseModel_DepartmentUnbounded(t *testing.T) {
	people := "alice,1,eng\n"
	sets := "eng,1,0,-1\n"

	m, err := ParseModel(strings.NewReader(people), strings.NewReader(sets), 1)
	require.NoError(t, err)
	assert.Equal(t, -1, m.Constraints[0].Hi)
}

func TestParseSets_UninitializedRejected(t *testing.T) {
	people := "alice,1,eng\n"
	sets := "eng,0,0\n"

	_, err := ParseModel(strings.NewReader(people), strings.NewReader(sets), 1)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "sets", parseErr.Source)
}

func TestParsePeople_BadAvailabilityField(t *testing.T) {
	people := "alice,x\n"
	sets := ""

	_, err := ParseModel(strings.NewReader(people), strings.NewReader(sets), 1)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "people", parseErr.Source)
}

func TestWriteSchedule(t *testing.T) {
	s := schedule.Schedule{
		People:  []string{"alice", "bob"},
		Horizon: 2,
		Matrix:  [][]int{{1, 0}, {0, 1}},
	}

	var buf strings.Builder
	require.NoError(t, WriteSchedule(&buf, s))
	assert.Equal(t, "alice,1,0\nbob,0,1\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	people := "alice,1,1,eng\nbob,0,1,eng\n"
	sets := "eng,1,0,2\n"

	m, err := ParseModel(strings.NewReader(people), strings.NewReader(sets), 2)
	require.NoError(t, err)

	assignment := map[string]float64{
		"Schedule_alice_1": 1,
		"Schedule_alice_2": 1,
		"Schedule_bob_1":   0,
		"Schedule_bob_2":   1,
	}
	sched := schedule.FromAssignment(m, assignment)

	var buf strings.Builder
	require.NoError(t, WriteSchedule(&buf, sched))
	assert.Equal(t, "alice,1,1\nbob,0,1\n", buf.String())
}
