//go:build !cgo || fasttext_reduced

package backend

import (
	"errors"
	"testing"
)

func TestReducedSurface(t *testing.T) {
	s := Surface()
	if s.Surface != "reduced" || s.ConcurrentReads || s.Training {
		t.Fatalf("Surface() = %+v", s)
	}
}

func TestReducedNewWithoutEngineModule(t *testing.T) {
	t.Setenv(EngineModuleEnv, "")
	_, err := New(Config{})
	var be *Error
	if !errors.As(err, &be) || be.Kind != KindAllocation {
		t.Fatalf("err = %v, want allocation error", err)
	}
}

func TestReducedNewWithInvalidEngineModule(t *testing.T) {
	_, err := New(Config{EngineModule: []byte("not wasm")})
	var be *Error
	if !errors.As(err, &be) || be.Kind != KindAllocation {
		t.Fatalf("err = %v, want allocation error", err)
	}
}

func TestReducedTrainingUnavailable(t *testing.T) {
	if _, err := NewArgs(); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("NewArgs err = %v", err)
	}
	if err := Train("in.txt", "out", "sup", false, false, 1); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("Train err = %v", err)
	}
}

func TestReducedUndeclaredOperations(t *testing.T) {
	h := &Handle{}
	if _, err := h.NearestNeighbors("king", 3); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("NearestNeighbors err = %v", err)
	}
	if _, err := h.Dimension(); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("Dimension err = %v", err)
	}
	if _, err := h.WordVector("king"); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("WordVector err = %v", err)
	}
	if err := h.SaveModel("/tmp/out.bin"); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("SaveModel err = %v", err)
	}
	h.Free()
	h.Free()
}
