// Package server serves the results dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/drew/databoard/internal/config"
	"github.com/drew/databoard/internal/dataset"
	"github.com/drew/databoard/internal/images"
	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options wires the server to its data
type Options struct {
	Config  *config.Config
	Catalog *dataset.Catalog
	Images  *images.Resolver
	Logger  *zap.Logger
}

// Server handles the HTTP interface of the dashboard
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	watch           bool
	chartFormat     string
	defaultSel      model.Selection

	catalog  *dataset.Catalog
	images   *images.Resolver
	renderer *results.Renderer
	logger   *zap.Logger
	server   *http.Server
}

// New creates a server from the resolved config
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config

	s := &Server{
		addr:            cfg.Server.Addr,
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second,
		watch:           cfg.Server.WatchData != nil && *cfg.Server.WatchData,
		chartFormat:     cfg.Defaults.ChartFormat,
		defaultSel:      cfg.DefaultSelection(),
		catalog:         opts.Catalog,
		images:          opts.Images,
		renderer:        results.NewRenderer(cfg, opts.Catalog, opts.Images),
		logger:          logger,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = time.Second
	}

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes configures the HTTP routes and handlers
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/chart.svg", s.handleChart("svg"))
	r.Get("/chart.png", s.handleChart("png"))
	r.Get("/image", s.handleImage)
	r.Get("/api/results", s.handleResults)
	r.Get("/export.csv", s.handleExport("csv"))
	r.Get("/export.xlsx", s.handleExport("xlsx"))
	r.Get("/health", s.handleHealth)

	return r
}

// Start listens on the configured address and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// The data directory is watched for the lifetime of the server when enabled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if s.watch && s.catalog != nil {
		g.Go(func() error {
			err := s.catalog.Watch(ctx, func(name string) {
				s.logger.Debug("dataset reloaded", zap.String("dataset", name))
			})
			if err != nil {
				// Serving continues without live reload
				s.logger.Warn("dataset watch stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("graceful shutdown failed", zap.Error(err))
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("force close: %w", err)
			}
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("HTTP server stopped")
	return err
}
