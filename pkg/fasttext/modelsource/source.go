// Package modelsource fetches serialized fastText models from local files,
// object stores and memory, and stores saved models back to them.
//
// A Source yields the complete model image as a Payload, which the caller
// hands to Model.LoadModelFromBuffer and then closes. File sources map the
// file read-only where the platform allows it, so a Payload must not be
// retained after Close.
package modelsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrNotFound reports a missing model object or file.
var ErrNotFound = errors.New("modelsource: model not found")

// Payload is a model image. Bytes is valid until Close.
type Payload struct {
	Bytes []byte

	once    sync.Once
	release func() error
	err     error
}

// NewPayload wraps b. release, if non-nil, runs once on Close.
func NewPayload(b []byte, release func() error) *Payload {
	return &Payload{Bytes: b, release: release}
}

// Close releases the payload's backing memory. It is safe to call more than
// once.
func (p *Payload) Close() error {
	if p == nil {
		return nil
	}
	p.once.Do(func() {
		if p.release != nil {
			p.err = p.release()
		}
		p.Bytes = nil
	})
	return p.err
}

// Source produces a model image.
type Source interface {
	Fetch(ctx context.Context) (*Payload, error)
	String() string
}

// Sink receives a saved model image under name.
type Sink interface {
	Store(ctx context.Context, name string, r io.Reader, size int64) error
	String() string
}

// Memory serves a model image already held in memory.
type Memory struct {
	Name string
	Data []byte
}

// Fetch returns Data without copying it.
func (m Memory) Fetch(ctx context.Context) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewPayload(m.Data, nil), nil
}

// String returns "memory", qualified by Name when set.
func (m Memory) String() string {
	if m.Name == "" {
		return "memory"
	}
	return "memory:" + m.Name
}

// MemorySink keeps stored images in a map. The zero value is ready to use.
type MemorySink struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// Store buffers r and keeps it under name, replacing any earlier image.
func (s *MemorySink) Store(ctx context.Context, name string, r io.Reader, size int64) error {
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("modelsource: read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[name] = buf.Bytes()
	return nil
}

// Get returns the image stored under name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[name]
	return b, ok
}

// String returns "memory".
func (s *MemorySink) String() string { return "memory" }
