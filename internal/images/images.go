// Package images resolves the static reference images shown next to each chart.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/drew/databoard/assets"
	"github.com/drew/databoard/internal/model"
)

// Pattern matches every candidate reference image below the asset directory
const Pattern = "**/*.png"

// Ref points at a resolved reference image
type Ref struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Caption string `json:"caption"`
}

// FileName returns the conventional "<parameter>-<height>.png" name
func FileName(sel model.Selection) string {
	return sel.Key() + ".png"
}

// Caption returns the text shown under the image, e.g. "Low height."
func Caption(sel model.Selection) string {
	return fmt.Sprintf("%s height.", sel.Height)
}

// Resolver finds reference images in an asset directory
type Resolver struct {
	dir string
}

// NewResolver creates a resolver rooted at dir
func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// Dir returns the asset directory
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve looks for <parameter>-<height>.png directly in the asset directory
// and then anywhere below it, ignoring case.
func (r *Resolver) Resolve(sel model.Selection) (Ref, error) {
	name := FileName(sel)
	ref := Ref{Name: name, Caption: Caption(sel)}

	direct := filepath.Join(r.dir, name)
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		ref.Path = direct
		return ref, nil
	}

	matches, err := r.list()
	if err != nil {
		return Ref{}, err
	}
	for _, m := range matches {
		if strings.EqualFold(filepath.Base(m), name) {
			ref.Path = filepath.Join(r.dir, filepath.FromSlash(m))
			return ref, nil
		}
	}

	return Ref{}, fmt.Errorf("%w: image %s in %s", model.ErrFileNotFound, name, r.dir)
}

// Inventory is the result of scanning the asset directory
type Inventory struct {
	Found   map[string]string `json:"found"`
	Missing []string          `json:"missing"`
	Extra   []string          `json:"extra"`
}

// Discover resolves every expected selection and lists images that match none
func (r *Resolver) Discover(expected []model.Selection) (Inventory, error) {
	inv := Inventory{Found: make(map[string]string)}

	matches, err := r.list()
	if err != nil {
		return inv, err
	}

	used := make(map[string]bool)
	for _, sel := range expected {
		ref, err := r.Resolve(sel)
		if err != nil {
			inv.Missing = append(inv.Missing, FileName(sel))
			continue
		}
		inv.Found[sel.Key()] = ref.Path
		used[ref.Path] = true
	}

	for _, m := range matches {
		p := filepath.Join(r.dir, filepath.FromSlash(m))
		if !used[p] {
			inv.Extra = append(inv.Extra, m)
		}
	}
	sort.Strings(inv.Missing)
	sort.Strings(inv.Extra)
	return inv, nil
}

// list returns asset paths relative to the directory, slash separated
func (r *Resolver) list() ([]string, error) {
	if _, err := os.Stat(r.dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: asset directory %s", model.ErrFileNotFound, r.dir)
	}
	matches, err := doublestar.Glob(os.DirFS(r.dir), Pattern, doublestar.WithFilesOnly(), doublestar.WithCaseInsensitive())
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", r.dir, err)
	}
	return matches, nil
}

// Placeholder returns the SVG shown when an image is missing
func Placeholder() []byte {
	return assets.PlaceholderSVG
}

// ReadFile reads a resolved image
func ReadFile(ref Ref) ([]byte, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrFileNotFound, ref.Path)
		}
		return nil, err
	}
	return data, nil
}
