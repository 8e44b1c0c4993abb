package features

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
)

type resultsContext struct {
	*sharedContext
}

func (c *resultsContext) theSampleResultFiles() error {
	return c.copyFixtures()
}

func (c *resultsContext) theReferenceImage(name string) error {
	return c.writeImage(name)
}

func (c *resultsContext) theResultFileIsMissing(name string) error {
	return os.Remove(filepath.Join(c.dataDir, name))
}

func (c *resultsContext) theResultFileContains(name string, content *godog.DocString) error {
	return os.WriteFile(filepath.Join(c.dataDir, name), []byte(content.Content+"\n"), 0644)
}

func (c *resultsContext) iSelect(parameter, height string) error {
	sel, err := model.ParseSelection(parameter, height)
	if err != nil {
		return err
	}
	c.result = c.renderer().Render(sel)
	return nil
}

func (c *resultsContext) theTitleShouldBe(title string) error {
	if got := c.result.Title(); got != title {
		return fmt.Errorf("expected title %q, got %q", title, got)
	}
	return nil
}

func (c *resultsContext) theTableColumnsShouldBe(columns string) error {
	got := strings.Join(c.result.Table.Columns, ", ")
	if got != columns {
		return fmt.Errorf("expected columns %q, got %q", columns, got)
	}
	return nil
}

func (c *resultsContext) theTableShouldHaveRows(n int) error {
	if got := c.result.Table.Len(); got != n {
		return fmt.Errorf("expected %d rows, got %d", n, got)
	}
	return nil
}

func (c *resultsContext) everyRowShouldHaveHeight(height string) error {
	for i, r := range c.result.Table.Records {
		if r.Height != height {
			return fmt.Errorf("row %d has height %q, expected %q", i+1, r.Height, height)
		}
	}
	return nil
}

func (c *resultsContext) theTableShouldOnlyListLocations(locations string) error {
	want := strings.Split(locations, ", ")
	got := c.result.Table.Locations()
	if strings.Join(got, ", ") != strings.Join(want, ", ") {
		return fmt.Errorf("expected locations %v, got %v", want, got)
	}
	return nil
}

func (c *resultsContext) theValueAtShouldBe(location string, want float64) error {
	for _, r := range c.result.Table.Records {
		if r.Location == location {
			if math.Abs(r.Value-want) > 1e-9 {
				return fmt.Errorf("expected %s value %g, got %g", location, want, r.Value)
			}
			return nil
		}
	}
	return fmt.Errorf("no row for %s", location)
}

func (c *resultsContext) theChartShouldShowGroups(n int) error {
	if got := len(c.result.Chart.Groups); got != n {
		return fmt.Errorf("expected %d chart groups, got %d", n, got)
	}
	return nil
}

func (c *resultsContext) theChartAxisShouldBe(label string, min, max float64) error {
	ch := c.result.Chart
	if ch.Label != label {
		return fmt.Errorf("expected axis label %q, got %q", label, ch.Label)
	}
	if ch.Axis.Min != min || ch.Axis.Max != max {
		return fmt.Errorf("expected axis [%g, %g], got [%g, %g]", min, max, ch.Axis.Min, ch.Axis.Max)
	}
	return nil
}

func (c *resultsContext) theReferenceImageShouldBe(name string) error {
	if c.result.Image == nil {
		return fmt.Errorf("expected image %s, got none (errors: %v)", name, c.result.Errors)
	}
	if c.result.Image.Name != name {
		return fmt.Errorf("expected image %s, got %s", name, c.result.Image.Name)
	}
	return nil
}

func (c *resultsContext) noImageSectionShouldBeShown() error {
	if c.result.Metric.HasImage {
		return fmt.Errorf("expected no image section for %s", c.result.Selection.Parameter)
	}
	if c.result.Image != nil || c.result.Err(results.SectionImage) != nil {
		return fmt.Errorf("expected no image or image error, got %+v", c.result)
	}
	return nil
}

func (c *resultsContext) theSectionShouldFailWith(section, kind string) error {
	e := c.result.Err(results.Section(section))
	if e == nil {
		return fmt.Errorf("expected %s section to fail with %s, it rendered", section, kind)
	}
	if string(e.Kind) != kind {
		return fmt.Errorf("expected %s section to fail with %s, got %s: %s", section, kind, e.Kind, e.Message)
	}
	return nil
}

func (c *resultsContext) theSectionShouldRender(section string) error {
	if e := c.result.Err(results.Section(section)); e != nil {
		return fmt.Errorf("expected %s section to render, got %s: %s", section, e.Kind, e.Message)
	}
	return nil
}

func InitializeResultsScenario(sc *godog.ScenarioContext, shared *sharedContext) {
	c := &resultsContext{sharedContext: shared}

	sc.Step(`^the sample result files$`, c.theSampleResultFiles)
	sc.Step(`^the reference image "([^"]*)"$`, c.theReferenceImage)
	sc.Step(`^the result file "([^"]*)" is missing$`, c.theResultFileIsMissing)
	sc.Step(`^the result file "([^"]*)" contains:$`, c.theResultFileContains)
	sc.Step(`^I select "([^"]*)" at "([^"]*)" height$`, c.iSelect)
	sc.Step(`^the title should be "([^"]*)"$`, c.theTitleShouldBe)
	sc.Step(`^the table columns should be "([^"]*)"$`, c.theTableColumnsShouldBe)
	sc.Step(`^the table should have (\d+) rows?$`, c.theTableShouldHaveRows)
	sc.Step(`^every row should have height "([^"]*)"$`, c.everyRowShouldHaveHeight)
	sc.Step(`^the table should only list "([^"]*)"$`, c.theTableShouldOnlyListLocations)
	sc.Step(`^the value at "([^"]*)" should be (-?[\d.]+)$`, c.theValueAtShouldBe)
	sc.Step(`^the chart should show (\d+) locations?$`, c.theChartShouldShowGroups)
	sc.Step(`^the chart axis should be "([^"]*)" from (-?[\d.]+) to (-?[\d.]+)$`, c.theChartAxisShouldBe)
	sc.Step(`^the reference image should be "([^"]*)"$`, c.theReferenceImageShouldBe)
	sc.Step(`^no image section should be shown$`, c.noImageSectionShouldBeShown)
	sc.Step(`^the (chart|image|table) section should fail with "([^"]*)"$`, c.theSectionShouldFailWith)
	sc.Step(`^the (chart|image|table) section should render$`, c.theSectionShouldRender)
}
