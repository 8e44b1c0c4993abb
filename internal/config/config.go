// Package config handles loading, validation, and merging of databoard configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/drew/databoard/internal/model"
)

// Config represents the complete databoard configuration
type Config struct {
	Defaults DefaultsConfig          `toml:"defaults"`
	Server   ServerConfig            `toml:"server"`
	Metrics  map[string]MetricConfig `toml:"metrics"`
}

// DefaultsConfig holds global defaults
type DefaultsConfig struct {
	// Directory holding sections.csv, walls.csv and boundaries.csv
	DataDir string `toml:"dataDir" doc:"Directory holding the result CSV files"`
	// Directory holding <parameter>-<height>.png reference images
	AssetDir string `toml:"assetDir" doc:"Directory holding <parameter>-<height>.png reference images"`
	// Directory for the static report
	OutputRoot string `toml:"outputRoot" doc:"Directory the static report is written to"`
	// Parameter shown when none is selected
	Parameter string `toml:"parameter" doc:"Parameter shown when none is selected" enum:"Velocity,Shear,Flow"`
	// Height shown when none is selected
	Height string `toml:"height" doc:"Prosthesis height shown when none is selected" enum:"Low,Neutral,High"`
	// Chart image format
	ChartFormat string `toml:"chartFormat" doc:"Chart image format" enum:"svg,png"`
	// Log level
	LogLevel string `toml:"logLevel" doc:"Log level" enum:"debug,info,warn,error"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	// Listen address
	Addr string `toml:"addr" doc:"Listen address for databoard serve"`
	// Seconds allowed to finish in-flight requests on shutdown
	ShutdownTimeoutSeconds int `toml:"shutdownTimeoutSeconds" doc:"Seconds allowed to finish in-flight requests on shutdown"`
	// Reload datasets when files in dataDir change
	WatchData *bool `toml:"watchData" doc:"Reload datasets when files in dataDir change"`
}

// MetricConfig overrides display settings of a built-in metric
type MetricConfig struct {
	// CSV file name relative to dataDir
	File string `toml:"file" doc:"CSV file name relative to dataDir"`
	// X axis label
	Label string `toml:"label" doc:"Chart axis label"`
	// Lower bound of the chart axis
	AxisMin *float64 `toml:"axisMin" doc:"Lower bound of the chart axis"`
	// Upper bound of the chart axis
	AxisMax *float64 `toml:"axisMax" doc:"Upper bound of the chart axis"`
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(path string) (*Config, error) {
	// If no path specified, look for config.toml in current directory
	explicitPath := path != ""
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// If user explicitly specified a config file, fail
		if explicitPath {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		// Otherwise run on defaults
		return nil, nil
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	undecoded := metadata.Undecoded()
	if len(undecoded) > 0 {
		var unknownFields []string
		for _, key := range undecoded {
			unknownFields = append(unknownFields, key.String())
		}
		return nil, fmt.Errorf("unknown fields in config: %s", strings.Join(unknownFields, ", "))
	}

	for name := range cfg.Metrics {
		if _, err := model.ParseParameter(name); err != nil {
			return nil, fmt.Errorf("unknown metric in config: %s", name)
		}
	}

	return &cfg, nil
}

// GetDefaults returns the default configuration
func GetDefaults() Config {
	return Config{
		Defaults: DefaultsConfig{
			DataDir:     "data",
			AssetDir:    "assets",
			OutputRoot:  ".databoard",
			Parameter:   string(model.ParamVelocity),
			Height:      string(model.HeightLow),
			ChartFormat: "svg",
			LogLevel:    "info",
		},
		Server: ServerConfig{
			Addr:                   "127.0.0.1:8501",
			ShutdownTimeoutSeconds: 5,
			WatchData:              boolPtr(true),
		},
		Metrics: make(map[string]MetricConfig),
	}
}

// MergeWithDefaults merges loaded config with defaults
func MergeWithDefaults(cfg *Config) Config {
	defaults := GetDefaults()

	if cfg == nil {
		return defaults
	}

	if cfg.Defaults.DataDir == "" {
		cfg.Defaults.DataDir = defaults.Defaults.DataDir
	}
	if cfg.Defaults.AssetDir == "" {
		cfg.Defaults.AssetDir = defaults.Defaults.AssetDir
	}
	if cfg.Defaults.OutputRoot == "" {
		cfg.Defaults.OutputRoot = defaults.Defaults.OutputRoot
	}
	if cfg.Defaults.Parameter == "" {
		cfg.Defaults.Parameter = defaults.Defaults.Parameter
	}
	if cfg.Defaults.Height == "" {
		cfg.Defaults.Height = defaults.Defaults.Height
	}
	if cfg.Defaults.ChartFormat == "" {
		cfg.Defaults.ChartFormat = defaults.Defaults.ChartFormat
	}
	if cfg.Defaults.LogLevel == "" {
		cfg.Defaults.LogLevel = defaults.Defaults.LogLevel
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = defaults.Server.ShutdownTimeoutSeconds
	}
	if cfg.Server.WatchData == nil {
		cfg.Server.WatchData = defaults.Server.WatchData
	}

	if cfg.Metrics == nil {
		cfg.Metrics = make(map[string]MetricConfig)
	}

	return *cfg
}

// ResolvePaths makes dataDir, assetDir and outputRoot absolute relative to root
func (c *Config) ResolvePaths(root string) {
	for _, p := range []*string{&c.Defaults.DataDir, &c.Defaults.AssetDir, &c.Defaults.OutputRoot} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(root, *p)
		}
	}
}

// Metric returns the built-in MetricSpec for p with config overrides applied
func (c *Config) Metric(p model.Parameter) MetricSpec {
	spec := BuiltInMetrics()[p]

	override, ok := c.metricOverride(p)
	if !ok {
		return spec
	}
	if override.File != "" {
		spec.File = override.File
	}
	if override.Label != "" {
		spec.Label = override.Label
	}
	if override.AxisMin != nil {
		spec.AxisMin = *override.AxisMin
	}
	if override.AxisMax != nil {
		spec.AxisMax = *override.AxisMax
	}
	return spec
}

// MetricFiles maps dataset name to its CSV file name for every metric
func (c *Config) MetricFiles() map[string]string {
	files := make(map[string]string)
	for _, p := range model.Parameters() {
		spec := c.Metric(p)
		files[spec.Dataset] = spec.File
	}
	return files
}

// metricOverride finds a [metrics.X] table regardless of key casing
func (c *Config) metricOverride(p model.Parameter) (MetricConfig, bool) {
	for name, mc := range c.Metrics {
		if strings.EqualFold(name, string(p)) {
			return mc, true
		}
	}
	return MetricConfig{}, false
}

// DefaultSelection returns the configured initial selection, falling back to Velocity/Low
func (c *Config) DefaultSelection() model.Selection {
	sel, err := model.ParseSelection(c.Defaults.Parameter, c.Defaults.Height)
	if err != nil {
		return model.Selection{Parameter: model.ParamVelocity, Height: model.HeightLow}
	}
	return sel
}

func boolPtr(b bool) *bool {
	return &b
}

// GenerateDefaultConfig creates a minimal config.toml file
func GenerateDefaultConfig(path string) (err error) {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", cerr)
		}
	}()

	content := `# databoard configuration file

[defaults]
dataDir = "data"
assetDir = "assets"
outputRoot = ".databoard"
parameter = "Velocity"
height = "Low"

[server]
addr = "127.0.0.1:8501"

# Display overrides per metric, e.g.
# [metrics.flow]
# axisMin = -25.0
# axisMax = 100.0
`

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
