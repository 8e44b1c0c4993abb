package features

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"
	"github.com/drew/databoard/internal/config"
)

type configValidationContext struct {
	*sharedContext
}

func (c *configValidationContext) aConfigFileWith(content *godog.DocString) error {
	c.configPath = filepath.Join(c.tempDir, "config.toml")
	return os.WriteFile(c.configPath, []byte(content.Content+"\n"), 0644)
}

func (c *configValidationContext) iValidateTheConfig() error {
	result, err := config.ValidateConfigFile(c.configPath)
	if err != nil {
		return err
	}
	c.printValidation(c.configPath, result)
	return nil
}

// iLoadTheConfig applies the config file to the scenario workspace
func (c *configValidationContext) iLoadTheConfig() error {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = config.MergeWithDefaults(cfg)
	return nil
}

func (c *configValidationContext) theValidationShouldSucceed() error {
	if c.failed {
		return fmt.Errorf("expected validation to succeed\nOutput: %s", c.output)
	}
	return nil
}

func (c *configValidationContext) theValidationShouldFail() error {
	if !c.failed {
		return fmt.Errorf("expected validation to fail\nOutput: %s", c.output)
	}
	return nil
}

func InitializeConfigValidationScenario(sc *godog.ScenarioContext, shared *sharedContext) {
	c := &configValidationContext{sharedContext: shared}

	sc.Step(`^a config file with:$`, c.aConfigFileWith)
	sc.Step(`^I validate the config$`, c.iValidateTheConfig)
	sc.Step(`^I load the config$`, c.iLoadTheConfig)
	sc.Step(`^the validation should succeed$`, c.theValidationShouldSucceed)
	sc.Step(`^the validation should fail$`, c.theValidationShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, c.theOutputShouldContain)
}
