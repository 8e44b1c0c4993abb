// databoard
//
// Results dashboard for precomputed aortic valve CFD simulations.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/drew/databoard/internal/config"
	"github.com/drew/databoard/internal/dataset"
	"github.com/drew/databoard/internal/images"
	"github.com/drew/databoard/internal/logging"
	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
	"github.com/drew/databoard/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every command once flags are parsed
type app struct {
	configPath string
	verbose    bool
	noColor    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "databoard",
		Short: "Results dashboard for aortic valve CFD simulations",
		Long: `databoard renders precomputed simulation results per parameter
(Velocity, Shear, Flow) and prosthesis height (Low, Neutral, High) as
split violin charts, reference images and filtered tables.

Serve it as a web dashboard, build a static report, or inspect a single
selection in the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// init and validate work without a loadable config
			if cmd.Name() == "init" || cmd.Name() == "validate" {
				return nil
			}
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default: config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newServeCmd(a),
		newRenderCmd(a),
		newBuildCmd(a),
		newExportCmd(a),
		newValidateCmd(a),
		newInitCmd(a),
	)
	return root
}

// load reads the config, resolves paths against the config file's directory
// and builds the logger
func (a *app) load() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = config.MergeWithDefaults(cfg)

	root := "."
	if a.configPath != "" {
		root = filepath.Dir(a.configPath)
	}
	a.cfg.ResolvePaths(root)

	a.logger, err = logging.New(a.cfg.Defaults.LogLevel, a.verbose)
	if err != nil {
		return err
	}
	a.logger.Debug("configuration loaded",
		zap.String("config", a.configPath),
		zap.String("dataDir", a.cfg.Defaults.DataDir),
		zap.String("assetDir", a.cfg.Defaults.AssetDir))
	return nil
}

func (a *app) catalog() *dataset.Catalog {
	return dataset.NewCatalog(a.cfg.Defaults.DataDir, dataset.SourcesFromConfig(&a.cfg), a.logger)
}

func (a *app) resolver() *images.Resolver {
	return images.NewResolver(a.cfg.Defaults.AssetDir)
}

func (a *app) renderer(c *dataset.Catalog) *results.Renderer {
	return results.NewRenderer(&a.cfg, c, a.resolver())
}

func (a *app) printer(cmd *cobra.Command) *ui.Renderer {
	return ui.NewRenderer(cmd.OutOrStdout(), ui.ColorEnabled(cmd.OutOrStdout(), a.noColor))
}

// selection parses --parameter and --height, defaulting to the config
func (a *app) selection(parameter, height string) (model.Selection, error) {
	def := a.cfg.DefaultSelection()
	if parameter == "" {
		parameter = string(def.Parameter)
	}
	if height == "" {
		height = string(def.Height)
	}
	sel, err := model.ParseSelection(parameter, height)
	if err != nil {
		return model.Selection{}, fmt.Errorf("%w (parameters: Velocity, Shear, Flow; heights: Low, Neutral, High)", err)
	}
	return sel, nil
}
