package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/drew/databoard/internal/model"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult holds the results of config validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}
}

func (r *ValidationResult) addError(field, msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: msg})
}

func (r *ValidationResult) addWarning(field, msg string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: msg})
}

// ValidateConfig validates an already-loaded config
func ValidateConfig(cfg *Config) (*ValidationResult, error) {
	result := newValidationResult()

	if cfg == nil {
		return result, nil
	}

	validateDefaults(&cfg.Defaults, result)
	validateServer(&cfg.Server, result)
	for name, mc := range cfg.Metrics {
		validateMetric(name, mc, result)
	}

	return result, nil
}

// ValidateConfigFile validates a TOML config file
func ValidateConfigFile(path string) (*ValidationResult, error) {
	result := newValidationResult()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		result.addError("", fmt.Sprintf("Invalid TOML syntax: %v", err))
		return result, nil
	}

	for _, key := range metadata.Undecoded() {
		result.addError(key.String(), "Unknown configuration field")
	}

	validateDefaults(&cfg.Defaults, result)
	validateServer(&cfg.Server, result)
	for name, mc := range cfg.Metrics {
		validateMetric(name, mc, result)
	}

	return result, nil
}

// validateDefaults validates the defaults section
func validateDefaults(defaults *DefaultsConfig, result *ValidationResult) {
	if defaults.Parameter != "" {
		if _, err := model.ParseParameter(defaults.Parameter); err != nil {
			result.addError("defaults.parameter",
				fmt.Sprintf("Invalid parameter '%s'. Valid options: Velocity, Shear, Flow", defaults.Parameter))
		}
	}

	if defaults.Height != "" {
		if _, err := model.ParseHeight(defaults.Height); err != nil {
			result.addError("defaults.height",
				fmt.Sprintf("Invalid height '%s'. Valid options: Low, Neutral, High", defaults.Height))
		}
	}

	if defaults.ChartFormat != "" {
		validFormats := []string{"svg", "png"}
		if !contains(validFormats, defaults.ChartFormat) {
			result.addError("defaults.chartFormat",
				fmt.Sprintf("Invalid chart format '%s'. Valid options: %s", defaults.ChartFormat, strings.Join(validFormats, ", ")))
		}
	}

	if defaults.LogLevel != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		if !contains(validLevels, defaults.LogLevel) {
			result.addError("defaults.logLevel",
				fmt.Sprintf("Invalid log level '%s'. Valid options: %s", defaults.LogLevel, strings.Join(validLevels, ", ")))
		}
	}

	if defaults.DataDir != "" {
		if info, err := os.Stat(defaults.DataDir); err != nil || !info.IsDir() {
			result.addWarning("defaults.dataDir", fmt.Sprintf("Data directory '%s' does not exist", defaults.DataDir))
		}
	}
}

// validateServer validates the server section
func validateServer(server *ServerConfig, result *ValidationResult) {
	if server.ShutdownTimeoutSeconds < 0 {
		result.addError("server.shutdownTimeoutSeconds", "Shutdown timeout must be non-negative")
	}
	if server.Addr != "" && !strings.Contains(server.Addr, ":") {
		result.addError("server.addr", fmt.Sprintf("Invalid listen address '%s'. Expected host:port", server.Addr))
	}
}

// validateMetric validates a single [metrics.X] override
func validateMetric(name string, mc MetricConfig, result *ValidationResult) {
	prefix := fmt.Sprintf("metrics.%s", name)

	if _, err := model.ParseParameter(name); err != nil {
		result.addError(prefix, "Unknown metric. Valid options: velocity, shear, flow")
		return
	}

	if mc.AxisMin != nil && mc.AxisMax != nil && *mc.AxisMin >= *mc.AxisMax {
		result.addError(prefix+".axisMax", "axisMax must be greater than axisMin")
	}

	if mc.File != "" && !strings.HasSuffix(strings.ToLower(mc.File), ".csv") {
		result.addWarning(prefix+".file", "File does not have a .csv extension")
	}
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// PrintValidationResult prints the validation result in a human-readable format
func PrintValidationResult(w io.Writer, path string, result *ValidationResult) {
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(w, "📋 Validating: %s\n", path)

	if result.Valid && len(result.Warnings) == 0 {
		fmt.Fprintln(w, "✅ Configuration is valid!")
		fmt.Fprintln(w)
		return
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\n❌ Found %d error(s):\n", len(result.Errors))
		for _, err := range result.Errors {
			if err.Field != "" {
				fmt.Fprintf(w, "  • [%s] %s\n", err.Field, err.Message)
			} else {
				fmt.Fprintf(w, "  • %s\n", err.Message)
			}
		}
		fmt.Fprintln(w)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  Found %d warning(s):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			if warn.Field != "" {
				fmt.Fprintf(w, "  • [%s] %s\n", warn.Field, warn.Message)
			} else {
				fmt.Fprintf(w, "  • %s\n", warn.Message)
			}
		}
		fmt.Fprintln(w)
	}

	if !result.Valid {
		fmt.Fprintln(w, "❌ Configuration is INVALID")
	} else {
		fmt.Fprintln(w, "✅ Configuration is valid (with warnings)")
	}
	fmt.Fprintln(w)
}
