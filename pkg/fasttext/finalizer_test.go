package fasttext

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext/internal/backend"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
)

// busyNative forces collections while a call is inside the engine and
// records whether the handle was released during one.
type busyNative struct {
	fakeNative
	inCall atomic.Bool
	raced  atomic.Bool
}

func (b *busyNative) Free() {
	if b.inCall.Load() {
		b.raced.Store(true)
	}
}

func (b *busyNative) busy() {
	b.inCall.Store(true)
	defer b.inCall.Store(false)
	for range 5 {
		runtime.GC()
		time.Sleep(time.Millisecond)
	}
}

func (b *busyNative) LoadModel(string) error { b.busy(); return nil }

func (b *busyNative) SaveModel(string) error { b.busy(); return nil }

func (b *busyNative) Predict(string, int32, float32) ([]backend.Prediction, error) {
	b.busy()
	return nil, nil
}

func (b *busyNative) NearestNeighbors(string, int32) ([]backend.Pair, error) {
	b.busy()
	return nil, nil
}

func (b *busyNative) Analogies(int32, string, string, string) ([]backend.Pair, error) {
	b.busy()
	return nil, nil
}

func (b *busyNative) WordID(string) (int32, error) { b.busy(); return 0, nil }

func (b *busyNative) SubwordID(string) (int32, error) { b.busy(); return 0, nil }

func (b *busyNative) Dimension() (int, error) { b.busy(); return 4, nil }

func (b *busyNative) WordVector(string) ([]float32, error) { b.busy(); return make([]float32, 4), nil }

func (b *busyNative) SentenceVector(string) ([]float32, error) { b.busy(); return make([]float32, 4), nil }

// queryUnowned runs op on a model nobody holds a reference to afterwards.
//
//go:noinline
func queryUnowned(t *testing.T, op func(*Model) error) {
	m, err := New(WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := op(m); err != nil {
		t.Fatalf("op: %v", err)
	}
}

func TestFinalizerWaitsForEngineCalls(t *testing.T) {
	ops := map[string]func(*Model) error{
		"load":            func(m *Model) error { return m.LoadModel("cooking.model.bin") },
		"save":            func(m *Model) error { return m.SaveModel("out.bin") },
		"predict":         func(m *Model) error { _, err := m.Predict("x", 1, 0); return err },
		"nearest":         func(m *Model) error { _, err := m.NearestNeighbors("king", 3); return err },
		"analogies":       func(m *Model) error { _, err := m.Analogies("king", "queen", "man", 3); return err },
		"word id":         func(m *Model) error { _, err := m.WordID("king"); return err },
		"subword id":      func(m *Model) error { _, err := m.SubwordID("king"); return err },
		"dimension":       func(m *Model) error { _, err := m.Dimension(); return err },
		"word vector":     func(m *Model) error { _, err := m.WordVector("king"); return err },
		"sentence vector": func(m *Model) error { _, err := m.SentenceVector("king"); return err },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			native := &busyNative{}
			useNative(t, func(backend.Config) (nativeModel, error) { return native, nil })

			queryUnowned(t, op)
			assert.False(t, native.raced.Load(), "handle released while %s was inside the engine", name)
		})
	}
}
