// Package schedule materializes a solved branch-and-bound assignment into
// the people x days integer matrix the CLI and CSV writer operate on.
package schedule

import (
	"fmt"
	"math"
	"strings"

	"github.com/ian-ludden/office-scheduler/internal/lpmodel"
	"github.com/ian-ludden/office-scheduler/internal/model"
)

// Undecided marks a matrix cell with no corresponding Schedule_{uid}_{day}
// entry in the assignment (should not occur for a complete incumbent, but
// keeps the matrix total over the people x horizon grid either way).
const Undecided = -1

// Schedule is the materialized people x days attendance matrix: Matrix[i][d-1]
// is the attendance of People[i] on day d, one of {0, 1}, or Undecided.
type Schedule struct {
	People  []string
	Horizon int
	Matrix  [][]int
}

// FromAssignment builds a Schedule from a solved variable assignment and
// the model's people list, per §4.6: one row per person in model order,
// one column per day, each cell populated by rounding the corresponding
// Schedule_{uid}_{d} variable's value.
func FromAssignment(m *model.Model, assignment map[string]float64) Schedule {
	uids := make([]string, len(m.People))
	for i, p := range m.People {
		uids[i] = p.UID
	}

	matrix := make([][]int, len(uids))
	for i, uid := range uids {
		row := make([]int, m.Horizon)
		for d := 1; d <= m.Horizon; d++ {
			row[d-1] = Undecided
			if v, ok := assignment[lpmodel.ScheduleVarName(uid, d)]; ok {
				row[d-1] = int(math.Round(v))
			}
		}
		matrix[i] = row
	}

	return Schedule{People: uids, Horizon: m.Horizon, Matrix: matrix}
}

// Serialize renders the schedule as text rows "uid,v_1,v_2,...,v_D\n", in
// person order, for internal/csvio to write out.
func (s Schedule) Serialize() string {
	var b strings.Builder
	for i, uid := range s.People {
		b.WriteString(uid)
		for _, v := range s.Matrix[i] {
			fmt.Fprintf(&b, ",%d", v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// AttendanceCount returns the number of days person uid is scheduled to
// attend (value 1). It is used by tests and callers that want a quick
// summary without re-walking the whole matrix.
func (s Schedule) AttendanceCount(uid string) int {
	for i, id := range s.People {
		if id != uid {
			continue
		}
		count := 0
		for _, v := range s.Matrix[i] {
			if v == 1 {
				count++
			}
		}
		return count
	}
	return 0
}
