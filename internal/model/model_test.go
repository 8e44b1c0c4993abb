package model

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestParseParameter(t *testing.T) {
	tests := []struct {
		input   string
		want    Parameter
		wantErr bool
	}{
		{"Velocity", ParamVelocity, false},
		{"shear", ParamShear, false},
		{" FLOW ", ParamFlow, false},
		{"pressure", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseParameter(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseParameter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("expected ErrInvalidSelection, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseParameter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseHeight(t *testing.T) {
	tests := []struct {
		input   string
		want    Height
		wantErr bool
	}{
		{"Low", HeightLow, false},
		{"neutral", HeightNeutral, false},
		{"HIGH", HeightHigh, false},
		{"Medium", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHeight(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHeight(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseHeight(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSelectionKey(t *testing.T) {
	sel, err := ParseSelection("Velocity", "Neutral")
	if err != nil {
		t.Fatalf("ParseSelection() error = %v", err)
	}
	if sel.Key() != "velocity-neutral" {
		t.Errorf("Key() = %q, want velocity-neutral", sel.Key())
	}
	if sel.String() != "Velocity/Neutral" {
		t.Errorf("String() = %q", sel.String())
	}
}

func TestAllSelections(t *testing.T) {
	all := AllSelections()
	if len(all) != 9 {
		t.Fatalf("expected 9 selections, got %d", len(all))
	}
	seen := make(map[string]bool)
	for _, s := range all {
		if seen[s.Key()] {
			t.Errorf("duplicate selection %s", s.Key())
		}
		seen[s.Key()] = true
	}
}

func TestDatasetFilterDoesNotMutate(t *testing.T) {
	records := []Record{
		{Height: "Low", Location: "Arch", Value: 0.1},
		{Height: "High", Location: "Arch", Value: 0.2},
		{Height: "Low", Location: "Root", Value: 0.3},
	}
	ds := NewDataset("sections", ParamVelocity, "sections.csv", []string{"Height", "Location", "Velocity"}, records)

	// Changing the caller's slice must not leak into the dataset
	records[0].Value = 99

	table := ds.Filter(func(r Record) bool { return r.Height == "Low" })
	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	table.Records[0].Value = -1

	if got := ds.Records()[0].Value; got != 0.1 {
		t.Errorf("dataset was mutated: first value = %v", got)
	}
	if ds.Len() != 3 {
		t.Errorf("dataset length changed to %d", ds.Len())
	}
}

func TestTableLocationsOrder(t *testing.T) {
	table := Table{
		Columns: []string{"Height", "Location", "Shear"},
		Records: []Record{
			{Location: "Descending"},
			{Location: "Arch"},
			{Location: "Descending"},
			{Location: "Ascending"},
		},
	}
	got := table.Locations()
	want := []string{"Descending", "Arch", "Ascending"}
	if len(got) != len(want) {
		t.Fatalf("Locations() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Locations()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTableRows(t *testing.T) {
	withCoords := Table{
		Columns: []string{"Height", "Location", "Flow", "X", "Y", "Z"},
		Records: []Record{{Height: "High", Location: "Left Carotid", Value: -20, X: 1, Y: 2.5, Z: -3}},
	}
	rows := withCoords.Rows()
	if len(rows) != 1 || len(rows[0]) != 6 {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if rows[0][2] != "-20" || rows[0][4] != "2.5" {
		t.Errorf("unexpected formatting: %v", rows[0])
	}

	noCoords := Table{
		Columns: []string{"Height", "Location", "Shear"},
		Records: []Record{{Height: "Low", Location: "Arch", Value: 1.25, X: 7}},
	}
	if got := noCoords.Rows()[0]; len(got) != 3 {
		t.Errorf("expected 3 cells without coordinates, got %v", got)
	}
}

func TestTableMarshalJSON(t *testing.T) {
	table := Table{
		Columns: []string{"Height", "Location", "Shear"},
		Records: []Record{{Height: "Low", Location: "Arch", Value: 1.5}},
	}
	data, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"columns":["Height","Location","Shear"],"rows":[["Low","Arch",1.5]]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestTableMissingValues(t *testing.T) {
	table := Table{
		Columns: []string{"Height", "Location", "Velocity", "X", "Y", "Z"},
		Records: []Record{{Height: "Low", Location: "Arch", Value: 0.2, X: math.NaN(), Y: 1, Z: 2}},
	}

	if got := table.Rows()[0][3]; got != "" {
		t.Errorf("missing X should format empty, got %q", got)
	}

	data, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `["Low","Arch",0.2,null,1,2]`) {
		t.Errorf("missing X should marshal as null, got %s", data)
	}
}
