package images

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/drew/databoard/internal/model"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	// PNG signature is enough for the resolver
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFileNameAndCaption(t *testing.T) {
	sel := model.Selection{Parameter: model.ParamShear, Height: model.HeightNeutral}
	if got := FileName(sel); got != "shear-neutral.png" {
		t.Errorf("FileName() = %q", got)
	}
	if got := Caption(sel); got != "Neutral height." {
		t.Errorf("Caption() = %q", got)
	}
}

func TestResolveDirect(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "velocity-low.png"))

	ref, err := NewResolver(dir).Resolve(model.Selection{Parameter: model.ParamVelocity, Height: model.HeightLow})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ref.Path != filepath.Join(dir, "velocity-low.png") {
		t.Errorf("Path = %q", ref.Path)
	}
	if ref.Caption != "Low height." {
		t.Errorf("Caption = %q", ref.Caption)
	}

	data, err := ReadFile(ref)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("unexpected image content")
	}
}

func TestResolveNestedCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "fields", "Shear-High.PNG"))

	ref, err := NewResolver(dir).Resolve(model.Selection{Parameter: model.ParamShear, Height: model.HeightHigh})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ref.Path != filepath.Join(dir, "fields", "Shear-High.PNG") {
		t.Errorf("Path = %q", ref.Path)
	}
}

func TestResolveMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := NewResolver(dir).Resolve(model.Selection{Parameter: model.ParamVelocity, Height: model.HeightHigh})
	if !errors.Is(err, model.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}

	_, err = NewResolver(filepath.Join(dir, "absent")).Resolve(model.Selection{Parameter: model.ParamVelocity, Height: model.HeightHigh})
	if !errors.Is(err, model.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound for missing directory, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "velocity-low.png"))
	writePNG(t, filepath.Join(dir, "velocity-high.png"))
	writePNG(t, filepath.Join(dir, "logo.png"))

	expected := []model.Selection{
		{Parameter: model.ParamVelocity, Height: model.HeightLow},
		{Parameter: model.ParamVelocity, Height: model.HeightNeutral},
		{Parameter: model.ParamVelocity, Height: model.HeightHigh},
	}
	inv, err := NewResolver(dir).Discover(expected)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(inv.Found) != 2 {
		t.Errorf("Found = %v", inv.Found)
	}
	if len(inv.Missing) != 1 || inv.Missing[0] != "velocity-neutral.png" {
		t.Errorf("Missing = %v", inv.Missing)
	}
	if len(inv.Extra) != 1 || inv.Extra[0] != "logo.png" {
		t.Errorf("Extra = %v", inv.Extra)
	}
}

func TestPlaceholder(t *testing.T) {
	if !bytes.Contains(Placeholder(), []byte("<svg")) {
		t.Error("placeholder is not an SVG")
	}
}
