// Package export writes filtered result tables as CSV or XLSX downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/drew/databoard/internal/model"
	"github.com/xuri/excelize/v2"
)

// Supported export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// CheckFormat reports an error for anything but csv or xlsx
func CheckFormat(format string) error {
	if format != FormatCSV && format != FormatXLSX {
		return fmt.Errorf("unsupported export format %q (csv or xlsx)", format)
	}
	return nil
}

// ContentType returns the MIME type of an export format
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns the download name for a selection, e.g. "velocity-low.csv"
func FileName(sel model.Selection, format string) string {
	return sel.Key() + "." + format
}

// Write dispatches on format
func Write(w io.Writer, table model.Table, format, sheet string) error {
	if err := CheckFormat(format); err != nil {
		return err
	}
	if format == FormatXLSX {
		return XLSX(w, table, sheet)
	}
	return CSV(w, table)
}

// CSV writes the table with a header row
func CSV(w io.Writer, table model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// XLSX writes the table to a single worksheet. Metric and coordinate cells are
// stored as numbers.
func XLSX(w io.Writer, table model.Table, sheet string) (err error) {
	if sheet == "" {
		sheet = "Results"
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	coords := table.HasCoords()
	for i, r := range table.Records {
		row := []interface{}{r.Height, r.Location, model.Cell(r.Value)}
		if coords {
			row = append(row, model.Cell(r.X), model.Cell(r.Y), model.Cell(r.Z))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 22); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}
