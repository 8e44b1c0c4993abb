// Package ui prints results, dataset status and build summaries to the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/drew/databoard/internal/dashboard"
	"github.com/drew/databoard/internal/dataset"
	"github.com/drew/databoard/internal/images"
	"github.com/drew/databoard/internal/results"
)

// Renderer handles terminal output
type Renderer struct {
	out    io.Writer
	colors *Colors
	width  int
	lg     *lipgloss.Renderer
}

// NewRenderer creates a renderer writing to out. Colors are dropped when
// disabled or when out is not a terminal.
func NewRenderer(out io.Writer, enableColors bool) *Renderer {
	enableColors = enableColors && isTerminal(out)
	return &Renderer{
		out:    out,
		colors: NewColors(enableColors),
		width:  TerminalWidth(out),
		lg:     lipgloss.NewRenderer(out),
	}
}

// Colors returns the renderer's color set
func (r *Renderer) Colors() *Colors {
	return r.colors
}

// print writes s, removing escape codes when colors are off
func (r *Renderer) print(s string) {
	if !r.colors.Enabled() {
		s = stripansi.Strip(s)
	}
	fmt.Fprint(r.out, s)
}

func (r *Renderer) printf(format string, args ...any) {
	r.print(fmt.Sprintf(format, args...))
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	header := r.lg.NewStyle().Bold(true).Padding(0, 1)
	cell := r.lg.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.lg.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.String() + "\n"
}

// subscripts is the inline HTML metric text may carry; terminals get the
// plain characters
var subscripts = strings.NewReplacer("<sub>", "", "</sub>", "")

func (r *Renderer) markdown(src string) (string, error) {
	style := "notty"
	if r.colors.Enabled() {
		style = "dark"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(r.width-4),
	)
	if err != nil {
		return "", err
	}
	return md.Render(subscripts.Replace(src))
}

// RenderResult prints the title, description, distribution summary, image
// and table of a result, with section errors in place of failed sections.
func (r *Renderer) RenderResult(res *results.Result) error {
	r.printf("%s\n", r.colors.Bold(res.Title()))
	r.printf("%s\n", r.colors.Gray(fmt.Sprintf("Height: %s", res.Selection.Height)))

	for _, text := range []string{res.Metric.Definition, res.Metric.Summary} {
		if text == "" {
			continue
		}
		out, err := r.markdown(text)
		if err != nil {
			return fmt.Errorf("failed to render description: %w", err)
		}
		r.print(out)
	}

	r.printf("\n%s\n", r.colors.Bold(fmt.Sprintf("%s contours", res.Selection.Parameter)))
	if e := res.Err(results.SectionChart); e != nil {
		r.renderError(e)
	} else {
		r.print(r.table(SummaryHeaders(), SummaryRows(res.Chart)))
	}

	if res.Metric.HasImage {
		r.printf("\n%s\n", r.colors.Bold(fmt.Sprintf("%s field", res.Selection.Parameter)))
		if e := res.Err(results.SectionImage); e != nil {
			r.renderError(e)
		} else if res.Image != nil {
			r.printf("%s %s\n", res.Image.Path, r.colors.Gray(res.Image.Caption))
		}
	}

	r.printf("\n%s\n", r.colors.Bold(fmt.Sprintf("%s data", res.Selection.Parameter)))
	if e := res.Err(results.SectionTable); e != nil {
		r.renderError(e)
	} else {
		r.print(r.table(res.Table.Columns, res.Table.Rows()))
		r.printf("%s\n", r.colors.Gray(fmt.Sprintf("%d rows", res.Table.Len())))
	}
	return nil
}

func (r *Renderer) renderError(e *results.SectionError) {
	r.printf("%s %s %s\n", r.colors.Symbol(false), r.colors.KindColor(e.Kind, string(e.Kind)), e.Message)
}

// SummaryHeaders are the columns of the distribution summary
func SummaryHeaders() []string {
	return []string{"Location", "n", "Min", "Q1", "Median", "Q3", "Max", "Mean"}
}

// SummaryRows formats each group of the chart as a row
func SummaryRows(c results.ChartData) [][]string {
	rows := make([][]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		rows = append(rows, []string{
			g.Location,
			fmt.Sprintf("%d", g.Count),
			formatStat(g.Min),
			formatStat(g.Q1),
			formatStat(g.Median),
			formatStat(g.Q3),
			formatStat(g.Max),
			formatStat(g.Mean),
		})
	}
	return rows
}

func formatStat(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

// RenderStatus prints the load state of every dataset
func (r *Renderer) RenderStatus(statuses []dataset.Status) {
	r.printf("%s\n", r.colors.Bold("Datasets:"))
	for _, s := range statuses {
		if s.Error != "" {
			r.printf("  %s %-12s %s\n", r.colors.Symbol(false), s.Name, r.colors.Red(s.Error))
			continue
		}
		r.printf("  %s %-12s %d rows %s\n", r.colors.Symbol(true), s.Name, s.Rows, r.colors.Gray(s.Path))
	}
}

// RenderInventory prints found, missing and unused reference images
func (r *Renderer) RenderInventory(inv images.Inventory) {
	r.printf("%s\n", r.colors.Bold("Images:"))
	r.printf("  %s %d found\n", r.colors.Symbol(true), len(inv.Found))
	for _, m := range inv.Missing {
		r.printf("  %s missing %s\n", r.colors.Yellow("!"), m)
	}
	if len(inv.Extra) > 0 {
		r.printf("  %s\n", r.colors.Gray("unused: "+strings.Join(inv.Extra, ", ")))
	}
}

// RenderBuildSummary prints the outcome of a static report build
func (r *Renderer) RenderBuildSummary(outputRoot string, s dashboard.Summary) {
	rows := make([][]string, 0, len(s.Selections))
	for _, sel := range s.Selections {
		status := "ok"
		if len(sel.Errors) > 0 {
			kinds := make([]string, 0, len(sel.Errors))
			for _, e := range sel.Errors {
				kinds = append(kinds, fmt.Sprintf("%s:%s", e.Section, e.Kind))
			}
			status = strings.Join(kinds, " ")
		}
		rows = append(rows, []string{sel.Parameter, sel.Height, fmt.Sprintf("%d", sel.Rows), status})
	}
	r.print(r.table([]string{"Parameter", "Height", "Rows", "Status"}, rows))

	symbol := r.colors.Symbol(s.FailedSections == 0)
	r.printf("%s Report written to %s (%d selections, %d failed sections)\n",
		symbol, outputRoot, s.TotalSelections, s.FailedSections)
}
