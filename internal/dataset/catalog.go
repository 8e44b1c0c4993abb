package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/drew/databoard/internal/config"
	"github.com/drew/databoard/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status summarizes one catalog entry for validation output and summary.json
type Status struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Rows     int       `json:"rows"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loadedAt"`
}

type entry struct {
	ds       *model.Dataset
	err      error
	loadedAt time.Time
}

// Catalog holds the datasets of a data directory. A reload swaps a whole
// dataset; callers holding the previous *model.Dataset keep a consistent view.
type Catalog struct {
	dir     string
	sources map[string]Source
	logger  *zap.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// SourcesFromConfig builds one source per metric from the resolved config
func SourcesFromConfig(cfg *config.Config) []Source {
	var out []Source
	for _, p := range model.Parameters() {
		spec := cfg.Metric(p)
		out = append(out, Source{
			Name:   spec.Dataset,
			File:   spec.File,
			Metric: spec.Parameter,
			Coords: spec.Coords,
		})
	}
	return out
}

// NewCatalog creates an empty catalog; nothing is read until Load or Dataset
func NewCatalog(dir string, sources []Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		dir:     dir,
		sources: make(map[string]Source, len(sources)),
		logger:  logger,
		entries: make(map[string]entry),
	}
	for _, s := range sources {
		c.sources[s.Name] = s
	}
	return c
}

// Dir returns the data directory
func (c *Catalog) Dir() string {
	return c.dir
}

// Names returns the dataset names in sorted order
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns the file backing a dataset
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.dir, c.sources[name].File)
}

// Load reads every dataset concurrently. A failing file is recorded against
// its dataset and does not stop the others; the returned error joins all failures.
func (c *Catalog) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var failures []error

	for _, name := range c.Names() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.Reload(name); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(failures...)
}

// Reload re-reads one dataset from disk and replaces the cached entry
func (c *Catalog) Reload(name string) error {
	src, ok := c.sources[name]
	if !ok {
		return fmt.Errorf("%w: unknown dataset %q", model.ErrFileNotFound, name)
	}

	start := time.Now()
	ds, err := c.readSource(src)

	c.mu.Lock()
	c.entries[name] = entry{ds: ds, err: err, loadedAt: time.Now()}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("dataset load failed",
			zap.String("dataset", name),
			zap.String("path", c.Path(name)),
			zap.Error(err))
		return err
	}

	c.logger.Debug("dataset loaded",
		zap.String("dataset", name),
		zap.Int("rows", ds.Len()),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Dataset returns the cached dataset, loading it on first use
func (c *Catalog) Dataset(name string) (*model.Dataset, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()

	if !ok {
		_ = c.Reload(name)
		c.mu.RLock()
		e = c.entries[name]
		c.mu.RUnlock()
	}

	if e.err != nil {
		return nil, e.err
	}
	if e.ds == nil {
		return nil, fmt.Errorf("%w: unknown dataset %q", model.ErrFileNotFound, name)
	}
	return e.ds, nil
}

// Status reports every dataset, loading those not yet read
func (c *Catalog) Status() []Status {
	var out []Status
	for _, name := range c.Names() {
		ds, err := c.Dataset(name)

		c.mu.RLock()
		loadedAt := c.entries[name].loadedAt
		c.mu.RUnlock()

		st := Status{Name: name, Path: c.Path(name), LoadedAt: loadedAt}
		if err != nil {
			st.Error = err.Error()
		} else {
			st.Rows = ds.Len()
		}
		out = append(out, st)
	}
	return out
}

func (c *Catalog) readSource(src Source) (*model.Dataset, error) {
	path := filepath.Join(c.dir, src.File)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f, src, path)
}

// nameForFile maps a file in the data directory back to its dataset
func (c *Catalog) nameForFile(path string) (string, bool) {
	base := filepath.Base(path)
	for name, src := range c.sources {
		if filepath.Base(src.File) == base {
			return name, true
		}
	}
	return "", false
}
