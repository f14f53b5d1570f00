// Package csvio reads the two input CSV formats (people availability,
// set constraints) into a model.Model, and writes a solved schedule back
// out as CSV.
//
// No example repo in the corpus imports a third-party CSV library (the
// closest hit, steveyegge-beads, only touches encoding/csv for one-off
// SQL import/export); encoding/csv is the idiomatic choice here too.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ian-ludden/office-scheduler/internal/model"
	"github.com/ian-ludden/office-scheduler/internal/schedule"
)

// ParseError wraps a malformed row or invalid field in either input CSV,
// distinguishing "bad input file" from a solver failure at the CLI layer.
type ParseError struct {
	// Source names the file kind: "people" or "sets".
	Source string
	// Row is the 0-indexed row at which parsing failed.
	Row int
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csvio: %s csv row %d: %v", e.Source, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const (
	setTypeUninitialized = 0
	setTypeDepartment    = 1
	setTypeSynergy       = 2
)

// ParseModel reads the people and set-constraints CSVs and assembles them
// into a validated model.Model, per §6. Enrollment columns trailing each
// people row (sids) are merged into the corresponding set's Members list.
func ParseModel(peopleCSV, setsCSV io.Reader, horizon int) (*model.Model, error) {
	people, enrollment, err := parsePeople(peopleCSV, horizon)
	if err != nil {
		return nil, err
	}

	constraints, err := parseSets(setsCSV)
	if err != nil {
		return nil, err
	}

	membersBySID := make(map[string][]string, len(constraints))
	for sid, uids := range enrollment {
		membersBySID[sid] = uids
	}
	for i, c := range constraints {
		constraints[i].Members = append(append([]string(nil), c.Members...), membersBySID[c.SID]...)
	}

	return model.New(people, constraints, horizon)
}

func parsePeople(r io.Reader, horizon int) ([]model.Person, map[string][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // enrollment columns vary per row
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, &ParseError{Source: "people", Row: 0, Err: err}
	}

	people := make([]model.Person, 0, len(rows))
	enrollment := make(map[string][]string)

	for i, row := range rows {
		if len(row) < 1+horizon {
			return nil, nil, &ParseError{Source: "people", Row: i, Err: fmt.Errorf("expected at least %d fields, got %d", 1+horizon, len(row))}
		}
		uid := row[0]

		available := make([]bool, horizon)
		for d := 0; d < horizon; d++ {
			v, err := strconv.Atoi(row[1+d])
			if err != nil {
				return nil, nil, &ParseError{Source: "people", Row: i, Err: fmt.Errorf("availability field %d: %w", d, err)}
			}
			if v != 0 && v != 1 {
				return nil, nil, &ParseError{Source: "people", Row: i, Err: fmt.Errorf("availability field %d must be 0 or 1, got %d", d, v)}
			}
			available[d] = v == 1
		}
		people = append(people, model.Person{UID: uid, Available: available})

		for _, sid := range row[1+horizon:] {
			if sid == "" {
				continue
			}
			enrollment[sid] = append(enrollment[sid], uid)
		}
	}

	return people, enrollment, nil
}

func parseSets(r io.Reader) ([]model.SetConstraint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // synergy rows omit the upper bound column
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{Source: "sets", Row: 0, Err: err}
	}

	constraints := make([]model.SetConstraint, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, &ParseError{Source: "sets", Row: i, Err: fmt.Errorf("expected at least 3 fields, got %d", len(row))}
		}
		sid := row[0]

		kindCode, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, &ParseError{Source: "sets", Row: i, Err: fmt.Errorf("set type field: %w", err)}
		}

		lo, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, &ParseError{Source: "sets", Row: i, Err: fmt.Errorf("lower bound field: %w", err)}
		}

		switch kindCode {
		case setTypeDepartment:
			hi := model.NoUpperBound
			if len(row) > 3 {
				hi, err = strconv.Atoi(row[3])
				if err != nil {
					return nil, &ParseError{Source: "sets", Row: i, Err: fmt.Errorf("upper bound field: %w", err)}
				}
			}
			constraints = append(constraints, model.SetConstraint{SID: sid, Kind: model.Department, Lo: lo, Hi: hi})
		case setTypeSynergy:
			constraints = append(constraints, model.SetConstraint{SID: sid, Kind: model.Synergy, Lo: lo})
		case setTypeUninitialized:
			return nil, &ParseError{Source: "sets", Row: i, Err: fmt.Errorf("set type 0 (uninitialized) is not a valid constraint type")}
		default:
			return nil, &ParseError{Source: "sets", Row: i, Err: fmt.Errorf("unrecognized set type code %d", kindCode)}
		}
	}

	return constraints, nil
}

// WriteSchedule writes a solved Schedule to w as the output CSV format of
// §6: one row per person, uid followed by one 0/1 field per day.
func WriteSchedule(w io.Writer, s schedule.Schedule) error {
	cw := csv.NewWriter(w)
	for i, uid := range s.People {
		row := make([]string, 0, 1+s.Horizon)
		row = append(row, uid)
		for _, v := range s.Matrix[i] {
			row = append(row, strconv.Itoa(v))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csvio: writing row for %q: %w", uid, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
