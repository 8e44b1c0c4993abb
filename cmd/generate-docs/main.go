// Copyright 2025 Andrew Khoury
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// generate-docs generates documentation from config structs using reflection
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/drew/databoard/internal/config"
	"github.com/drew/databoard/internal/model"
)

// FieldDoc represents documentation for a single field
type FieldDoc struct {
	Name        string
	Type        string
	Default     string
	Description string
	ValidValues []string
}

// SectionDoc represents documentation for a config section
type SectionDoc struct {
	Name        string
	Description string
	Fields      []FieldDoc
}

// flagDoc is one row of the CLI reference
type flagDoc struct {
	Flag        string
	Description string
	Default     string
}

// commandDoc lists the flags of one subcommand
type commandDoc struct {
	Name        string
	Description string
	Flags       []flagDoc
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--help" {
		fmt.Println("Usage: generate-docs [output-dir]")
		fmt.Println("Generates documentation from config structs:")
		fmt.Println("  - config.example.toml")
		fmt.Println("  - config.schema.json")
		fmt.Println("  - docs/configuration.md")
		fmt.Println("  - docs/cli-reference.md")
		return
	}

	outDir := "."
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	if err := generate(outDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generate(outDir string) error {
	docs := buildDocumentation()

	steps := []struct {
		file string
		run  func() error
	}{
		{"config.example.toml", func() error { return generateExampleTOML(outDir, docs) }},
		{"config.schema.json", func() error { return generateJSONSchema(outDir, docs) }},
		{"docs/configuration.md", func() error { return generateMarkdownDocs(outDir, docs) }},
		{"docs/cli-reference.md", func() error { return generateCLIDocs(outDir) }},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("generating %s: %w", step.file, err)
		}
		fmt.Printf("✓ Generated %s\n", step.file)
	}
	return nil
}

func buildDocumentation() []SectionDoc {
	defaults := config.GetDefaults()

	// Metric overrides have no defaults of their own; show Velocity's built-ins
	velocity := config.BuiltInMetrics()[model.ParamVelocity]
	axisMin, axisMax := velocity.AxisMin, velocity.AxisMax
	metricDefaults := config.MetricConfig{
		File:    velocity.File,
		Label:   velocity.Label,
		AxisMin: &axisMin,
		AxisMax: &axisMax,
	}

	return []SectionDoc{
		extractSection("defaults", "Global configuration options", defaults.Defaults, defaults.Defaults),
		extractSection("server", "HTTP dashboard settings for databoard serve", defaults.Server, defaults.Server),
		extractSection("metrics.<parameter>", "Display overrides for one parameter: velocity, shear or flow", metricDefaults, metricDefaults),
	}
}

// extractSection uses reflection to extract field documentation from struct tags
func extractSection(name, description string, value interface{}, defaultValue interface{}) SectionDoc {
	section := SectionDoc{
		Name:        name,
		Description: description,
		Fields:      []FieldDoc{},
	}

	t := reflect.TypeOf(value)
	v := reflect.ValueOf(defaultValue)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		// Skip internal fields (no doc tag)
		docTag := field.Tag.Get("doc")
		if docTag == "" {
			continue
		}

		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		fieldDoc := FieldDoc{
			Name:        tomlTag,
			Type:        getFieldType(field.Type),
			Description: docTag,
			Default:     getDefaultValue(v.Field(i), field.Type),
		}

		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			fieldDoc.ValidValues = strings.Split(enumTag, ",")
		}

		section.Fields = append(section.Fields, fieldDoc)
	}

	return section
}

// getFieldType returns a string representation of the field type
func getFieldType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Ptr:
		return getFieldType(t.Elem())
	default:
		return t.String()
	}
}

// getDefaultValue returns a string representation of the default value
func getDefaultValue(v reflect.Value, t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Float32, reflect.Float64:
		return model.FormatFloat(v.Float())
	case reflect.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// tomlValue formats a default for the example file; floats keep a decimal point
func tomlValue(field FieldDoc) string {
	switch field.Type {
	case "string":
		return fmt.Sprintf("%q", field.Default)
	case "float":
		if !strings.ContainsAny(field.Default, ".eE") {
			return field.Default + ".0"
		}
	}
	return field.Default
}

func writeOutput(outDir, name string, data []byte) error {
	path := filepath.Join(outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func generateExampleTOML(outDir string, docs []SectionDoc) error {
	var sb strings.Builder

	sb.WriteString(`# =============================================================================
# databoard Configuration Reference
# =============================================================================
# This is a comprehensive example showing ALL available configuration options.
# Copy sections you need to your own config.toml.
#
# Quick Start:
#   [defaults]
#   dataDir = "data"
#   assetDir = "assets"
# =============================================================================

`)

	for _, section := range docs {
		sb.WriteString("# -----------------------------------------------------------------------------\n")
		sb.WriteString(fmt.Sprintf("# [%s] - %s\n", section.Name, section.Description))
		sb.WriteString("# -----------------------------------------------------------------------------\n\n")

		if section.Name == "metrics.<parameter>" {
			sb.WriteString("# Example override with all options:\n")
			sb.WriteString("[metrics.velocity]\n")
		} else {
			sb.WriteString(fmt.Sprintf("[%s]\n", section.Name))
		}

		for _, field := range section.Fields {
			sb.WriteString(fmt.Sprintf("# %s\n", field.Description))
			sb.WriteString(fmt.Sprintf("# Default: %s\n", field.Default))
			if len(field.ValidValues) > 0 {
				sb.WriteString(fmt.Sprintf("# Valid values: %s\n", strings.Join(field.ValidValues, ", ")))
			}

			if field.Default == "" {
				sb.WriteString(fmt.Sprintf("# %s = \n", field.Name))
			} else {
				sb.WriteString(fmt.Sprintf("%s = %s\n", field.Name, tomlValue(field)))
			}
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	sb.WriteString(`# -----------------------------------------------------------------------------
# Built-in metrics
# -----------------------------------------------------------------------------
`)
	for _, p := range model.Parameters() {
		spec := config.BuiltInMetrics()[p]
		sb.WriteString(fmt.Sprintf("# %-8s %-15s %-18s axis [%s, %s]\n",
			p, spec.File, spec.Label, model.FormatFloat(spec.AxisMin), model.FormatFloat(spec.AxisMax)))
	}

	return writeOutput(outDir, "config.example.toml", []byte(sb.String()))
}

func fieldSchema(field FieldDoc) map[string]interface{} {
	schema := map[string]interface{}{
		"description": field.Description,
	}

	switch field.Type {
	case "string":
		schema["type"] = "string"
	case "int":
		schema["type"] = "integer"
	case "float":
		schema["type"] = "number"
	case "bool":
		schema["type"] = "boolean"
	}

	if field.Default != "" {
		switch field.Type {
		case "string":
			schema["default"] = field.Default
		case "int":
			var intVal int
			_, _ = fmt.Sscanf(field.Default, "%d", &intVal) // Best effort parsing
			schema["default"] = intVal
		case "bool":
			schema["default"] = field.Default == "true"
		}
	}

	if len(field.ValidValues) > 0 {
		schema["enum"] = field.ValidValues
	}
	return schema
}

func sectionSchema(section SectionDoc) map[string]interface{} {
	props := make(map[string]interface{})
	for _, field := range section.Fields {
		props[field.Name] = fieldSchema(field)
	}
	return map[string]interface{}{
		"type":                 "object",
		"description":          section.Description,
		"properties":           props,
		"additionalProperties": false,
	}
}

func generateJSONSchema(outDir string, docs []SectionDoc) error {
	properties := make(map[string]interface{})

	for _, section := range docs {
		if section.Name == "metrics.<parameter>" {
			metric := sectionSchema(section)
			metricProps := make(map[string]interface{})
			for _, p := range model.Parameters() {
				metricProps[p.Slug()] = metric
			}
			properties["metrics"] = map[string]interface{}{
				"type":                 "object",
				"description":          section.Description,
				"properties":           metricProps,
				"additionalProperties": false,
			}
			continue
		}
		properties[section.Name] = sectionSchema(section)
	}

	schema := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "databoard Configuration",
		"description": "Configuration schema for the databoard results dashboard",
		"type":        "object",
		"properties":  properties,
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}

	return writeOutput(outDir, "config.schema.json", data)
}

func generateMarkdownDocs(outDir string, docs []SectionDoc) error {
	var sb strings.Builder

	sb.WriteString("# Configuration\n\n")
	sb.WriteString("databoard reads `config.toml` from the working directory, or the file given with `--config`. ")
	sb.WriteString("Relative directories are resolved against the directory of the config file. ")
	sb.WriteString("Every field is optional.\n\n")

	for _, section := range docs {
		sb.WriteString("### `[" + section.Name + "]`\n\n")
		sb.WriteString(section.Description + "\n\n")

		sb.WriteString("| Field | Type | Default | Description |\n")
		sb.WriteString("|-------|------|---------|-------------|\n")

		for _, field := range section.Fields {
			defaultVal := field.Default
			if defaultVal == "" {
				defaultVal = "-"
			}
			desc := field.Description
			if len(field.ValidValues) > 0 {
				desc += fmt.Sprintf(" (valid: `%s`)", strings.Join(field.ValidValues, "`, `"))
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | `%s` | %s |\n",
				field.Name, field.Type, defaultVal, desc))
		}

		sb.WriteString("\n")
	}

	sb.WriteString("### Built-in metrics\n\n")
	sb.WriteString("| Parameter | File | Label | Axis | Reference image |\n")
	sb.WriteString("|-----------|------|-------|------|-----------------|\n")
	for _, p := range model.Parameters() {
		spec := config.BuiltInMetrics()[p]
		image := "`<parameter>-<height>.png`"
		if !spec.HasImage {
			image = "none"
		}
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | [%s, %s] | %s |\n",
			p, spec.File, spec.Label, model.FormatFloat(spec.AxisMin), model.FormatFloat(spec.AxisMax), image))
	}
	sb.WriteString("\n")

	return writeOutput(outDir, "docs/configuration.md", []byte(sb.String()))
}

func cliReference() []commandDoc {
	selection := []flagDoc{
		{"`-p, --parameter <name>`", "Parameter: `Velocity`, `Shear`, `Flow`", "`defaults.parameter`"},
		{"`-H, --height <name>`", "Prosthesis height: `Low`, `Neutral`, `High`", "`defaults.height`"},
	}

	return []commandDoc{
		{"global", "Flags accepted by every command", []flagDoc{
			{"`--config <path>`", "Path to config file", "`config.toml`"},
			{"`-v, --verbose`", "Verbose logging", "`false`"},
			{"`--no-color`", "Disable colored output", "`false`"},
		}},
		{"serve", "Serve the results dashboard over HTTP", []flagDoc{
			{"`--addr <host:port>`", "Listen address (overrides config)", "`server.addr`"},
		}},
		{"render", "Print the table and distribution summary of one selection", append(selection,
			flagDoc{"`--chart <file>`", "Also write the chart to this `.svg` or `.png` file", "-"},
		)},
		{"build", "Generate the static HTML report for every selection", []flagDoc{
			{"`-o, --out <dir>`", "Output directory (overrides config)", "`defaults.outputRoot`"},
			{"`--chart-format <fmt>`", "Chart format: `svg`, `png`", "`defaults.chartFormat`"},
		}},
		{"export", "Write the filtered table of one selection as CSV or XLSX", append(selection,
			flagDoc{"`-f, --format <fmt>`", "Export format: `csv`, `xlsx`", "`csv`"},
			flagDoc{"`-o, --output <file>`", "Output file", "stdout"},
		)},
		{"validate [config]", "Validate the config file, datasets and reference images", nil},
		{"init", "Write a default config.toml", nil},
	}
}

func generateCLIDocs(outDir string) error {
	var sb strings.Builder

	sb.WriteString("# CLI Reference\n\n")
	sb.WriteString("```\ndataboard <command> [flags]\n```\n\n")

	for _, cmd := range cliReference() {
		sb.WriteString(fmt.Sprintf("### %s\n\n%s\n\n", cmd.Name, cmd.Description))
		if len(cmd.Flags) == 0 {
			continue
		}
		sb.WriteString("| Flag | Description | Default |\n")
		sb.WriteString("|------|-------------|---------|\n")
		for _, f := range cmd.Flags {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", f.Flag, f.Description, f.Default))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### HTTP endpoints\n\n")
	sb.WriteString("All endpoints take `?parameter=<name>&height=<name>`.\n\n")
	endpoints := map[string]string{
		"/":            "Results page",
		"/chart.svg":   "Split violin chart as SVG",
		"/chart.png":   "Split violin chart as PNG",
		"/image":       "Reference image, or a placeholder",
		"/api/results": "Table, chart data and section errors as JSON",
		"/export.csv":  "Filtered table as CSV",
		"/export.xlsx": "Filtered table as XLSX",
		"/health":      "Dataset load status",
	}
	paths := make([]string, 0, len(endpoints))
	for p := range endpoints {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	sb.WriteString("| Path | Description |\n")
	sb.WriteString("|------|-------------|\n")
	for _, p := range paths {
		sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", p, endpoints[p]))
	}

	return writeOutput(outDir, "docs/cli-reference.md", []byte(sb.String()))
}
