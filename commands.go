package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/drew/databoard/internal/chart"
	"github.com/drew/databoard/internal/config"
	"github.com/drew/databoard/internal/dashboard"
	"github.com/drew/databoard/internal/export"
	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
	"github.com/drew/databoard/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the results dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			catalog := a.catalog()
			if err := catalog.Load(ctx); err != nil {
				// Missing files are shown per section on the page
				a.logger.Warn("some datasets failed to load", zap.Error(err))
			}

			srv := server.New(server.Options{
				Config:  &a.cfg,
				Catalog: catalog,
				Images:  a.resolver(),
				Logger:  a.logger,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "databoard listening on http://%s\n", a.cfg.Server.Addr)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var parameter, height, chartPath string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the table and distribution summary of one selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := a.selection(parameter, height)
			if err != nil {
				return err
			}

			res := a.renderer(a.catalog()).Render(sel)
			if err := a.printer(cmd).RenderResult(res); err != nil {
				return err
			}

			if chartPath != "" {
				if err := writeChart(chartPath, res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", chartPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&parameter, "parameter", "p", "", "Parameter: Velocity, Shear or Flow")
	cmd.Flags().StringVarP(&height, "height", "H", "", "Prosthesis height: Low, Neutral or High")
	cmd.Flags().StringVar(&chartPath, "chart", "", "Also write the chart to this .svg or .png file")
	return cmd
}

// writeChart picks the format from the file extension
func writeChart(path string, res *results.Result) error {
	if e := res.Err(results.SectionChart); e != nil {
		return fmt.Errorf("no chart for %s: %s", res.Selection, e.Message)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	data, err := chart.Violin(res.Chart, format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func newBuildCmd(a *app) *cobra.Command {
	var out, format string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the static HTML report for every selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = a.cfg.Defaults.OutputRoot
			}
			if format == "" {
				format = a.cfg.Defaults.ChartFormat
			}

			catalog := a.catalog()
			if err := catalog.Load(cmd.Context()); err != nil {
				a.logger.Warn("some datasets failed to load", zap.Error(err))
			}

			summary, err := dashboard.GenerateDashboard(out, a.renderer(catalog), format)
			if err != nil {
				return err
			}
			a.printer(cmd).RenderBuildSummary(out, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory (overrides config outputRoot)")
	cmd.Flags().StringVar(&format, "chart-format", "", "Chart format: svg or png")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var parameter, height, format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered table of one selection as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			// before anything touches the output file
			if err := export.CheckFormat(format); err != nil {
				return err
			}
			sel, err := a.selection(parameter, height)
			if err != nil {
				return err
			}

			res := a.renderer(a.catalog()).Render(sel)
			if e := res.Err(results.SectionTable); e != nil {
				return fmt.Errorf("%s: %s", e.Kind, e.Message)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, ferr := os.Create(out)
				if ferr != nil {
					return ferr
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}
			return export.Write(w, res.Table, format, sel.Key())
		},
	}

	cmd.Flags().StringVarP(&parameter, "parameter", "p", "", "Parameter: Velocity, Shear or Flow")
	cmd.Flags().StringVarP(&height, "height", "H", "", "Prosthesis height: Low, Neutral or High")
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatCSV, "Export format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config]",
		Short: "Validate the config file, datasets and reference images",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = "config.toml"
			}

			if _, err := os.Stat(path); err == nil {
				result, err := config.ValidateConfigFile(path)
				if err != nil {
					return err
				}
				config.PrintValidationResult(w, path, result)
				if !result.Valid {
					return errors.New("configuration is invalid")
				}
				a.configPath = path
			} else if a.configPath != "" || len(args) == 1 {
				return fmt.Errorf("config file not found: %s", path)
			} else {
				fmt.Fprintln(w, "No config.toml found, using defaults")
			}

			if err := a.load(); err != nil {
				return err
			}

			catalog := a.catalog()
			loadErr := catalog.Load(cmd.Context())

			printer := a.printer(cmd)
			printer.RenderStatus(catalog.Status())

			var expected []model.Selection
			for _, sel := range model.AllSelections() {
				if a.cfg.Metric(sel.Parameter).HasImage {
					expected = append(expected, sel)
				}
			}
			inv, err := a.resolver().Discover(expected)
			if err != nil {
				a.logger.Warn("image scan failed", zap.Error(err))
			}
			printer.RenderInventory(inv)

			if loadErr != nil {
				return fmt.Errorf("dataset validation failed: %w", loadErr)
			}
			return nil
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = "config.toml"
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
}
