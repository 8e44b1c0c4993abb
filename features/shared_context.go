package features

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/drew/databoard/internal/config"
	"github.com/drew/databoard/internal/dashboard"
	"github.com/drew/databoard/internal/dataset"
	"github.com/drew/databoard/internal/images"
	"github.com/drew/databoard/internal/results"
)

// sharedContext holds ALL state for a scenario - used by all step definitions
type sharedContext struct {
	// Common fields
	output     string
	failed     bool
	tempDir    string
	configPath string

	// Workspace
	dataDir  string
	assetDir string
	cfg      config.Config

	// Results fields
	result *results.Result

	// Static report fields
	outputRoot string
	summary    dashboard.Summary
}

// fixturesDir is the repo testdata directory, found relative to this file
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "testdata")
}

// setupWorkspace creates a temp dir with empty data and asset directories
func (c *sharedContext) setupWorkspace() error {
	dir, err := os.MkdirTemp("", "databoard-features-*")
	if err != nil {
		return err
	}
	c.tempDir = dir
	c.dataDir = filepath.Join(dir, "data")
	c.assetDir = filepath.Join(dir, "assets")
	c.outputRoot = filepath.Join(dir, "report")
	c.cfg = config.MergeWithDefaults(nil)

	for _, d := range []string{c.dataDir, c.assetDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// copyFixtures copies the sample result files into the data directory
func (c *sharedContext) copyFixtures() error {
	for _, f := range []string{"sections.csv", "walls.csv", "boundaries.csv"} {
		data, err := os.ReadFile(filepath.Join(fixturesDir(), f))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(c.dataDir, f), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// writeImage drops a minimal PNG into the asset directory
func (c *sharedContext) writeImage(name string) error {
	return os.WriteFile(filepath.Join(c.assetDir, name), []byte("\x89PNG\r\n\x1a\n"), 0644)
}

func (c *sharedContext) renderer() *results.Renderer {
	catalog := dataset.NewCatalog(c.dataDir, dataset.SourcesFromConfig(&c.cfg), nil)
	return results.NewRenderer(&c.cfg, catalog, images.NewResolver(c.assetDir))
}

// theOutputShouldContain checks that output contains the expected string (case-insensitive)
func (c *sharedContext) theOutputShouldContain(expected string) error {
	expected = strings.Trim(expected, `"`)
	if !strings.Contains(strings.ToLower(c.output), strings.ToLower(expected)) {
		return fmt.Errorf("expected output to contain %q, got: %s", expected, c.output)
	}
	return nil
}

func (c *sharedContext) printValidation(path string, result *config.ValidationResult) {
	var buf bytes.Buffer
	config.PrintValidationResult(&buf, path, result)
	c.output = buf.String()
	c.failed = !result.Valid
}

// cleanup removes temporary directories
func (c *sharedContext) cleanup() {
	if c.tempDir != "" {
		_ = os.RemoveAll(c.tempDir)
	}
}
