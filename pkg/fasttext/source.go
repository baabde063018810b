package fasttext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/modelsource"
)

// LoadFrom fetches a model image from src and loads it from memory. The
// image is released once the engine has parsed it.
func (m *Model) LoadFrom(ctx context.Context, src modelsource.Source) error {
	if _, err := m.handle(); err != nil {
		return err
	}
	p, err := src.Fetch(ctx)
	if err != nil {
		m.log.Warn(ctx, "fasttext fetch failed", logging.Source(src), logging.Err(err))
		return fmt.Errorf("fasttext: fetch %s: %w", src, err)
	}
	defer p.Close()

	if err := m.LoadModelFromBuffer(p.Bytes); err != nil {
		return err
	}
	m.log.Info(ctx, "fasttext model loaded", logging.Source(src), logging.Bytes(len(p.Bytes)))
	return nil
}

// SaveTo saves the loaded model to a temporary file and stores it in sink
// under name.
func (m *Model) SaveTo(ctx context.Context, sink modelsource.Sink, name string) error {
	if _, err := m.handle(); err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "fasttext-save-*")
	if err != nil {
		return fmt.Errorf("fasttext: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "model.bin")
	if err := m.SaveModel(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("fasttext: reopen saved model: %w", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("fasttext: stat saved model: %w", err)
	}

	if err := sink.Store(ctx, name, f, st.Size()); err != nil {
		m.log.Warn(ctx, "fasttext store failed", logging.Sink(sink), "name", name, logging.Err(err))
		return fmt.Errorf("fasttext: store %s: %w", name, err)
	}
	m.log.Info(ctx, "fasttext model stored", logging.Sink(sink), "name", name, logging.Bytes(int(st.Size())))
	return nil
}
