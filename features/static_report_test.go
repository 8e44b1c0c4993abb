package features

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"
	"github.com/drew/databoard/internal/dashboard"
)

type staticReportContext struct {
	*sharedContext
}

func (c *staticReportContext) iBuildTheStaticReport() error {
	summary, err := dashboard.GenerateDashboard(c.outputRoot, c.renderer(), c.cfg.Defaults.ChartFormat)
	if err != nil {
		return err
	}
	c.summary = summary
	return nil
}

func (c *staticReportContext) theReportShouldContain(path string) error {
	if _, err := os.Stat(filepath.Join(c.outputRoot, filepath.FromSlash(path))); err != nil {
		return fmt.Errorf("expected %s in report: %w", path, err)
	}
	return nil
}

func (c *staticReportContext) theSummaryShouldListSelections(n int) error {
	if c.summary.TotalSelections != n {
		return fmt.Errorf("expected %d selections, got %d", n, c.summary.TotalSelections)
	}
	return nil
}

func (c *staticReportContext) theSelectionShouldReport(key, kind string) error {
	for _, sel := range c.summary.Selections {
		if sel.Key != key {
			continue
		}
		for _, e := range sel.Errors {
			if string(e.Kind) == kind {
				return nil
			}
		}
		return fmt.Errorf("expected %s to report %s, got %v", key, kind, sel.Errors)
	}
	return fmt.Errorf("selection %s not in summary", key)
}

func InitializeStaticReportScenario(sc *godog.ScenarioContext, shared *sharedContext) {
	c := &staticReportContext{sharedContext: shared}

	sc.Step(`^I build the static report$`, c.iBuildTheStaticReport)
	sc.Step(`^the report should contain "([^"]*)"$`, c.theReportShouldContain)
	sc.Step(`^the summary should list (\d+) selections$`, c.theSummaryShouldListSelections)
	sc.Step(`^the selection "([^"]*)" should report "([^"]*)"$`, c.theSelectionShouldReport)
}
