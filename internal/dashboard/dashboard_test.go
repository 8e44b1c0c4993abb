package dashboard

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drew/databoard/internal/config"
	"github.com/drew/databoard/internal/dataset"
	"github.com/drew/databoard/internal/images"
	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
)

func newTestRenderer(t *testing.T, dataDir string, pngs ...string) *results.Renderer {
	t.Helper()
	assetDir := t.TempDir()
	for _, name := range pngs {
		if err := os.WriteFile(filepath.Join(assetDir, name), []byte("\x89PNG\r\n\x1a\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.MergeWithDefaults(nil)
	catalog := dataset.NewCatalog(dataDir, dataset.SourcesFromConfig(&cfg), nil)
	return results.NewRenderer(&cfg, catalog, images.NewResolver(assetDir))
}

func serverOptions() PageOptions {
	return PageOptions{
		SelectionURL: func(sel model.Selection) string {
			return "/?parameter=" + string(sel.Parameter) + "&height=" + string(sel.Height)
		},
		ChartURL: "/chart.svg",
		ImageURL: "/image",
		CSVURL:   "/export.csv",
	}
}

func renderPage(t *testing.T, res *results.Result) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Page(&buf, res, serverOptions()); err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	return buf.String()
}

func TestPageVelocity(t *testing.T) {
	rd := newTestRenderer(t, filepath.Join("..", "..", "testdata"), "velocity-low.png")
	html := renderPage(t, rd.Render(model.Selection{Parameter: model.ParamVelocity, Height: model.HeightLow}))

	for _, want := range []string{
		"<title>Results - Velocity</title>",
		"Velocity contours",
		"Velocity field",
		"Velocity data",
		"Low height.",
		"<th>X</th>",
		"Ascending Aorta",
		`<img src="/chart.svg"`,
		"heightened velocities",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, `class="error"`) {
		t.Error("page should not contain error panels")
	}
	if strings.Contains(html, "See definition") {
		t.Error("velocity has no definition")
	}
}

func TestPageSelectors(t *testing.T) {
	rd := newTestRenderer(t, filepath.Join("..", "..", "testdata"))
	html := renderPage(t, rd.Render(model.Selection{Parameter: model.ParamShear, Height: model.HeightHigh}))

	if !strings.Contains(html, `<option value="/?parameter=Shear&amp;height=High" selected>Shear</option>`) {
		t.Error("current parameter should be selected")
	}
	if !strings.Contains(html, `<option value="/?parameter=Shear&amp;height=Low">Low</option>`) {
		t.Error("height options should keep the parameter")
	}
}

func TestPageShearDefinition(t *testing.T) {
	rd := newTestRenderer(t, filepath.Join("..", "..", "testdata"), "shear-high.png")
	html := renderPage(t, rd.Render(model.Selection{Parameter: model.ParamShear, Height: model.HeightHigh}))

	if !strings.Contains(html, "See definition") {
		t.Error("shear should show its definition")
	}
	if !strings.Contains(html, "<strong>Wall shear stress</strong>") {
		t.Error("definition markdown should be rendered")
	}
	if !strings.Contains(html, "τ<sub>w</sub> = μ ∂u/∂y") {
		t.Error("formula subscript should be rendered as HTML")
	}
	if strings.Contains(html, "<code>τ") || strings.Contains(html, "raw HTML omitted") {
		t.Error("formula should not be a code span or dropped")
	}
	if strings.Contains(html, "<th>X</th>") {
		t.Error("shear table has no coordinates")
	}
}

func TestPageFlowHasNoField(t *testing.T) {
	rd := newTestRenderer(t, filepath.Join("..", "..", "testdata"))
	html := renderPage(t, rd.Render(model.Selection{Parameter: model.ParamFlow, Height: model.HeightHigh}))

	if strings.Contains(html, "Flow field") {
		t.Error("flow page should not have a field section")
	}
	if !strings.Contains(html, "Right Carotid") || strings.Contains(html, "Left Subclavian") {
		t.Error("flow table should list carotids only")
	}
	if !strings.Contains(html, "<td class=\"num\">-20</td>") {
		t.Error("expected rescaled flow value")
	}
}

func TestPageErrorPanels(t *testing.T) {
	rd := newTestRenderer(t, t.TempDir())
	html := renderPage(t, rd.Render(model.Selection{Parameter: model.ParamVelocity, Height: model.HeightNeutral}))

	if got := strings.Count(html, `<div class="error">`); got != 3 {
		t.Errorf("expected 3 error panels, got %d", got)
	}
	if !strings.Contains(html, "FileNotFound") {
		t.Error("expected FileNotFound kind")
	}
	if strings.Contains(html, "<table>") {
		t.Error("failed table should not render")
	}
}

func TestGenerateDashboard(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report")
	rd := newTestRenderer(t, filepath.Join("..", "..", "testdata"), "velocity-low.png")

	summary, err := GenerateDashboard(out, rd, "svg")
	if err != nil {
		t.Fatalf("GenerateDashboard() error = %v", err)
	}

	if summary.TotalSelections != 9 {
		t.Errorf("TotalSelections = %d, want 9", summary.TotalSelections)
	}

	for _, f := range []string{"index.html", "summary.json", "velocity-low/index.html", "velocity-low/chart.svg", "velocity-low/velocity-low.png", "velocity-low/data.csv", "flow-high/chart.svg"} {
		if _, err := os.Stat(filepath.Join(out, f)); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}

	if _, err := os.Stat(filepath.Join(out, "flow-high", "flow-high.png")); !os.IsNotExist(err) {
		t.Error("flow has no image to copy")
	}

	csvData, err := os.ReadFile(filepath.Join(out, "velocity-low", "data.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(csvData), "Height,Location,Velocity,X,Y,Z\n") {
		t.Errorf("unexpected csv header: %q", strings.SplitN(string(csvData), "\n", 2)[0])
	}

	raw, err := os.ReadFile(filepath.Join(out, "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	var parsed Summary
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("summary.json is not valid: %v", err)
	}

	byKey := make(map[string]SelectionSummary)
	for _, s := range parsed.Selections {
		byKey[s.Key] = s
	}
	if byKey["velocity-low"].Rows != 7 || len(byKey["velocity-low"].Errors) != 0 {
		t.Errorf("velocity-low = %+v", byKey["velocity-low"])
	}
	if byKey["flow-high"].Rows != 2 || byKey["flow-high"].Locations != 2 {
		t.Errorf("flow-high = %+v", byKey["flow-high"])
	}
	// Only velocity-low has an image in the asset directory
	if len(byKey["shear-low"].Errors) != 1 || byKey["shear-low"].Errors[0].Section != results.SectionImage {
		t.Errorf("shear-low errors = %+v", byKey["shear-low"].Errors)
	}

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(index), `href="velocity-low/index.html"`) {
		t.Error("index should link to selection pages")
	}

	page, err := os.ReadFile(filepath.Join(out, "velocity-low", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), `<img src="velocity-low.png"`) || !strings.Contains(string(page), `../shear-low/index.html`) {
		t.Error("static page should link to local files")
	}
}
