// Package dataset loads the precomputed result files into immutable datasets.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/drew/databoard/internal/model"
)

// Source describes one result file
type Source struct {
	// Name is the catalog key: sections, walls or boundaries
	Name   string
	File   string
	Metric model.Parameter
	Coords bool
}

// Columns returns the columns the file must provide
func (s Source) Columns() []string {
	cols := []string{model.ColHeight, model.ColLocation, string(s.Metric)}
	if s.Coords {
		cols = append(cols, model.ColX, model.ColY, model.ColZ)
	}
	return cols
}

// ReadCSV parses a result file and projects it to the source's columns.
// Columns not named by the source, such as an exported index, are ignored.
func ReadCSV(r io.Reader, src Source, origin string) (*model.Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header row", model.ErrSchemaMismatch, origin)
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", origin, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	columns := src.Columns()
	pos := make([]int, len(columns))
	var missing []string
	for i, col := range columns {
		p, ok := index[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		pos[i] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing column(s) %s", model.ErrSchemaMismatch, origin, strings.Join(missing, ", "))
	}

	var records []model.Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", origin, err)
		}

		rec := model.Record{
			Height:   strings.TrimSpace(row[pos[0]]),
			Location: strings.TrimSpace(row[pos[1]]),
		}
		nums := make([]float64, len(columns)-2)
		for i := range nums {
			col := columns[i+2]
			v, err := parseCell(row[pos[i+2]])
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: column %s: invalid number %q",
					model.ErrSchemaMismatch, origin, line, col, strings.TrimSpace(row[pos[i+2]]))
			}
			nums[i] = v
		}
		rec.Value = nums[0]
		if src.Coords {
			rec.X, rec.Y, rec.Z = nums[1], nums[2], nums[3]
		}
		records = append(records, rec)
	}

	return model.NewDataset(src.Name, src.Metric, origin, columns, records), nil
}

// parseCell reads a numeric cell; a blank cell is a missing value (NaN)
func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
