// Package dashboard renders the results page and builds the static report.
package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/drew/databoard/internal/chart"
	"github.com/drew/databoard/internal/export"
	"github.com/drew/databoard/internal/images"
	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
)

// Renderer produces the result of a selection
type Renderer interface {
	Render(sel model.Selection) *results.Result
}

// Summary is written to summary.json next to the report index
type Summary struct {
	TotalSelections int                `json:"totalSelections"`
	FailedSections  int                `json:"failedSections"`
	Selections      []SelectionSummary `json:"selections"`
	LastGenerated   string             `json:"lastGenerated"`
}

// SelectionSummary is a condensed view of one rendered selection
type SelectionSummary struct {
	Key       string                 `json:"key"`
	Parameter string                 `json:"parameter"`
	Height    string                 `json:"height"`
	Page      string                 `json:"page"`
	Rows      int                    `json:"rows"`
	Locations int                    `json:"locations"`
	Errors    []results.SectionError `json:"errors,omitempty"`
}

// GenerateDashboard renders every selection into outputRoot as
// <parameter>-<height>/index.html with its chart, image and data.csv, then
// writes index.html and summary.json.
func GenerateDashboard(outputRoot string, rd Renderer, chartFormat string) (Summary, error) {
	if chartFormat == "" {
		chartFormat = chart.FormatSVG
	}
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return Summary{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	now := time.Now()
	summary := Summary{
		Selections:    []SelectionSummary{},
		LastGenerated: now.UTC().Format(time.RFC3339),
	}

	for _, sel := range model.AllSelections() {
		res := rd.Render(sel)
		if err := writeSelection(outputRoot, res, chartFormat, now); err != nil {
			// Keep going; the failure shows up in the summary
			res.Errors = append(res.Errors, results.SectionError{
				Section: results.SectionChart,
				Kind:    results.KindInternal,
				Message: err.Error(),
			})
		}
		summary.Selections = append(summary.Selections, summarize(res))
		summary.FailedSections += len(res.Errors)
	}
	summary.TotalSelections = len(summary.Selections)

	summaryPath := filepath.Join(outputRoot, "summary.json")
	if err := writeSummaryJSON(summaryPath, summary); err != nil {
		return summary, fmt.Errorf("failed to write summary.json: %w", err)
	}

	indexPath := filepath.Join(outputRoot, "index.html")
	if err := writeIndex(indexPath, summary, now); err != nil {
		return summary, fmt.Errorf("failed to write index.html: %w", err)
	}

	return summary, nil
}

// StaticOptions links a page to the files written next to it
func StaticOptions(res *results.Result, chartFormat string, generated time.Time) PageOptions {
	opts := PageOptions{
		SelectionURL: func(sel model.Selection) string {
			return "../" + sel.Key() + "/index.html"
		},
		ChartURL:  "chart." + chartFormat,
		CSVURL:    "data.csv",
		Generated: generated,
	}
	if res.Image != nil {
		opts.ImageURL = res.Image.Name
	}
	return opts
}

func writeSelection(outputRoot string, res *results.Result, chartFormat string, generated time.Time) error {
	dir := filepath.Join(outputRoot, res.Selection.Key())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if res.Err(results.SectionChart) == nil {
		data, err := chart.Violin(res.Chart, chartFormat)
		if err != nil {
			res.Errors = append(res.Errors, results.SectionError{
				Section: results.SectionChart,
				Kind:    results.Classify(err),
				Message: err.Error(),
			})
		} else if err := os.WriteFile(filepath.Join(dir, "chart."+chartFormat), data, 0644); err != nil {
			return err
		}
	}

	if res.Image != nil {
		data, err := images.ReadFile(*res.Image)
		if err != nil {
			res.Errors = append(res.Errors, results.SectionError{
				Section: results.SectionImage,
				Kind:    results.Classify(err),
				Message: err.Error(),
			})
			res.Image = nil
		} else if err := os.WriteFile(filepath.Join(dir, res.Image.Name), data, 0644); err != nil {
			return err
		}
	}

	if err := writeFile(filepath.Join(dir, "data.csv"), func(f *os.File) error {
		return export.CSV(f, res.Table)
	}); err != nil {
		return err
	}

	return writeFile(filepath.Join(dir, "index.html"), func(f *os.File) error {
		return Page(f, res, StaticOptions(res, chartFormat, generated))
	})
}

func summarize(res *results.Result) SelectionSummary {
	return SelectionSummary{
		Key:       res.Selection.Key(),
		Parameter: string(res.Selection.Parameter),
		Height:    string(res.Selection.Height),
		Page:      res.Selection.Key() + "/index.html",
		Rows:      res.Table.Len(),
		Locations: len(res.Table.Locations()),
		Errors:    res.Errors,
	}
}

func writeIndex(path string, summary Summary, generated time.Time) error {
	data := struct {
		Summary
		Generated time.Time
	}{summary, generated}

	return writeFile(path, func(f *os.File) error {
		return indexTemplate.Execute(f, data)
	})
}

// writeSummaryJSON writes the summary to a JSON file
func writeSummaryJSON(path string, summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeFile(path string, fn func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
