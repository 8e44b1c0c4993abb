// Package model holds the domain types shared by the loader, renderer and dashboard.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors surfaced to the display instead of failing the process
var (
	ErrFileNotFound     = errors.New("file not found")
	ErrEmptyResult      = errors.New("no rows match the selection")
	ErrSchemaMismatch   = errors.New("expected column absent")
	ErrInvalidSelection = errors.New("invalid selection")
)

// Parameter is the simulated physical metric
type Parameter string

const (
	ParamVelocity Parameter = "Velocity"
	ParamShear    Parameter = "Shear"
	ParamFlow     Parameter = "Flow"
)

// Parameters lists the metrics in selector order
func Parameters() []Parameter {
	return []Parameter{ParamVelocity, ParamShear, ParamFlow}
}

// ParseParameter accepts any casing of a known parameter name
func ParseParameter(s string) (Parameter, error) {
	for _, p := range Parameters() {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown parameter %q", ErrInvalidSelection, s)
}

// Slug returns the lowercase form used in file names and URLs
func (p Parameter) Slug() string {
	return strings.ToLower(string(p))
}

// Height is the placement level of the valve prosthesis
type Height string

const (
	HeightLow     Height = "Low"
	HeightNeutral Height = "Neutral"
	HeightHigh    Height = "High"
)

// Heights lists the heights in selector order
func Heights() []Height {
	return []Height{HeightLow, HeightNeutral, HeightHigh}
}

// ParseHeight accepts any casing of a known height
func ParseHeight(s string) (Height, error) {
	for _, h := range Heights() {
		if strings.EqualFold(strings.TrimSpace(s), string(h)) {
			return h, nil
		}
	}
	return "", fmt.Errorf("%w: unknown height %q", ErrInvalidSelection, s)
}

// Slug returns the lowercase form used in file names and URLs
func (h Height) Slug() string {
	return strings.ToLower(string(h))
}

// Selection is the (parameter, height) pair chosen by the user
type Selection struct {
	Parameter Parameter `json:"parameter"`
	Height    Height    `json:"height"`
}

// ParseSelection validates raw selector values
func ParseSelection(parameter, height string) (Selection, error) {
	p, err := ParseParameter(parameter)
	if err != nil {
		return Selection{}, err
	}
	h, err := ParseHeight(height)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Parameter: p, Height: h}, nil
}

// Key returns "<parameter>-<height>" in lowercase
func (s Selection) Key() string {
	return s.Parameter.Slug() + "-" + s.Height.Slug()
}

func (s Selection) String() string {
	return fmt.Sprintf("%s/%s", s.Parameter, s.Height)
}

// AllSelections enumerates every valid selection
func AllSelections() []Selection {
	var out []Selection
	for _, p := range Parameters() {
		for _, h := range Heights() {
			out = append(out, Selection{Parameter: p, Height: h})
		}
	}
	return out
}

// Column names shared by all result files
const (
	ColHeight   = "Height"
	ColLocation = "Location"
	ColX        = "X"
	ColY        = "Y"
	ColZ        = "Z"
)

// Record is one measurement row
type Record struct {
	Height   string
	Location string
	Value    float64
	X, Y, Z  float64
}

// Dataset is the immutable content of one result file
type Dataset struct {
	name    string
	metric  Parameter
	source  string
	columns []string
	records []Record
}

// NewDataset copies records so later changes to the caller's slice are not observed
func NewDataset(name string, metric Parameter, source string, columns []string, records []Record) *Dataset {
	return &Dataset{
		name:    name,
		metric:  metric,
		source:  source,
		columns: append([]string(nil), columns...),
		records: append([]Record(nil), records...),
	}
}

// Name is the dataset key, e.g. "sections"
func (d *Dataset) Name() string { return d.name }

// Metric is the value column carried by the dataset
func (d *Dataset) Metric() Parameter { return d.metric }

// Source is the file the dataset was read from
func (d *Dataset) Source() string { return d.source }

// Len returns the number of records
func (d *Dataset) Len() int { return len(d.records) }

// Columns returns a copy of the projected column names
func (d *Dataset) Columns() []string { return append([]string(nil), d.columns...) }

// Records returns a copy of the records
func (d *Dataset) Records() []Record { return append([]Record(nil), d.records...) }

// Filter returns a table of the records keep accepts. The dataset is not modified.
func (d *Dataset) Filter(keep func(Record) bool) Table {
	t := Table{Columns: d.Columns(), Records: []Record{}}
	for _, r := range d.records {
		if keep(r) {
			t.Records = append(t.Records, r)
		}
	}
	return t
}

// Table is the display view of a filtered dataset
type Table struct {
	Columns []string
	Records []Record
}

// HasCoords reports whether the X, Y, Z columns are part of the projection
func (t Table) HasCoords() bool {
	return len(t.Columns) > 3
}

// MarshalJSON emits {"columns": [...], "rows": [[...], ...]} with numeric cells as numbers
func (t Table) MarshalJSON() ([]byte, error) {
	rows := make([][]any, 0, len(t.Records))
	for _, r := range t.Records {
		row := []any{r.Height, r.Location, Cell(r.Value)}
		if t.HasCoords() {
			row = append(row, Cell(r.X), Cell(r.Y), Cell(r.Z))
		}
		rows = append(rows, row)
	}
	return json.Marshal(struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}{Columns: t.Columns, Rows: rows})
}

// Len returns the number of rows
func (t Table) Len() int {
	return len(t.Records)
}

// Locations returns the distinct locations in first-appearance order
func (t Table) Locations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Records {
		if !seen[r.Location] {
			seen[r.Location] = true
			out = append(out, r.Location)
		}
	}
	return out
}

// Rows formats every record as strings in column order
func (t Table) Rows() [][]string {
	rows := make([][]string, 0, len(t.Records))
	for _, r := range t.Records {
		row := []string{r.Height, r.Location, FormatFloat(r.Value)}
		if t.HasCoords() {
			row = append(row, FormatFloat(r.X), FormatFloat(r.Y), FormatFloat(r.Z))
		}
		rows = append(rows, row)
	}
	return rows
}

// FormatFloat uses the shortest representation that round-trips. A missing
// value formats as an empty string.
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Cell returns f for JSON and spreadsheet output, or nil for a missing value
func Cell(f float64) any {
	if math.IsNaN(f) {
		return nil
	}
	return f
}
