package modelsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File reads a model from the local filesystem.
type File struct {
	Path string
}

// Fetch maps the file read-only, or reads it where mmap is unavailable. A
// missing file wraps ErrNotFound.
func (f File) Fetch(ctx context.Context) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := mapFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, f.Path)
	}
	return p, err
}

// String returns the file path.
func (f File) String() string { return f.Path }

// Dir stores models as files in a directory. Writes go to a temporary file
// that is renamed into place once complete.
type Dir struct {
	Path string
}

// Store writes r to a temporary file in the directory and renames it to name,
// so readers never observe a partial model.
func (d Dir) Store(ctx context.Context, name string, r io.Reader, _ int64) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("modelsource: create %s: %w", d.Path, err)
	}
	tmp, err := os.CreateTemp(d.Path, ".fasttext-*")
	if err != nil {
		return fmt.Errorf("modelsource: create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("modelsource: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("modelsource: write %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(d.Path, name))
}

// String returns the directory path.
func (d Dir) String() string { return d.Path }
