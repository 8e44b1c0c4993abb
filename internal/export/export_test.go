package export

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/drew/databoard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func flowTable() model.Table {
	return model.Table{
		Columns: []string{"Height", "Location", "Flow", "X", "Y", "Z"},
		Records: []model.Record{
			{Height: "High", Location: "Right Carotid", Value: -20, X: 0.1, Y: 0, Z: -0.25},
			{Height: "High", Location: "Left Carotid", Value: 18.5, X: 0.2, Y: 0.3, Z: 0},
		},
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, flowTable()))

	want := "Height,Location,Flow,X,Y,Z\n" +
		"High,Right Carotid,-20,0.1,0,-0.25\n" +
		"High,Left Carotid,18.5,0.2,0.3,0\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVEmptyTableKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, model.Table{Columns: []string{"Height", "Location", "Shear"}}))
	assert.Equal(t, "Height,Location,Shear\n", buf.String())
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, flowTable(), "flow-high"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("flow-high")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Height", "Location", "Flow", "X", "Y", "Z"}, rows[0])
	assert.Equal(t, "Right Carotid", rows[1][1])

	typ, err := f.GetCellType("flow-high", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "metric should be numeric")

	raw, err := f.GetCellValue("flow-high", "C3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "18.5", raw)
}

func TestMissingValuesStayBlank(t *testing.T) {
	table := flowTable()
	table.Records[0].Y = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, table))
	assert.Contains(t, buf.String(), "High,Right Carotid,-20,0.1,,-0.25\n")

	buf.Reset()
	require.NoError(t, XLSX(&buf, table, "flow-high"))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("flow-high", "E2")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestXLSXWithoutCoords(t *testing.T) {
	table := model.Table{
		Columns: []string{"Height", "Location", "Shear"},
		Records: []model.Record{{Height: "Low", Location: "Arch", Value: 0.85}},
	}
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, table, ""))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 3)
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, flowTable(), "json", "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "json"))
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, CheckFormat(FormatCSV))
	assert.NoError(t, CheckFormat(FormatXLSX))
	for _, f := range []string{"pdf", "", "CSV"} {
		assert.Error(t, CheckFormat(f), f)
	}
}

func TestFileNameAndContentType(t *testing.T) {
	sel := model.Selection{Parameter: model.ParamShear, Height: model.HeightNeutral}
	assert.Equal(t, "shear-neutral.xlsx", FileName(sel, FormatXLSX))
	assert.Contains(t, ContentType(FormatCSV), "text/csv")
	assert.Contains(t, ContentType(FormatXLSX), "spreadsheetml")
}
