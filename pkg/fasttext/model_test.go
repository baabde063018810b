package fasttext

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext/internal/backend"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/modelsource"
)

// fakeNative records how a Model drives its engine handle.
type fakeNative struct {
	frees     int
	calls     int
	loadErrs  []error
	buffer    []byte
	saved     []byte
	dim       int
	preds     []backend.Prediction
	neighbors []backend.Pair
}

func (f *fakeNative) Free() { f.frees++ }

func (f *fakeNative) nextLoadErr() error {
	f.calls++
	if len(f.loadErrs) == 0 {
		return nil
	}
	err := f.loadErrs[0]
	f.loadErrs = f.loadErrs[1:]
	return err
}

func (f *fakeNative) LoadModel(string) error { return f.nextLoadErr() }

func (f *fakeNative) LoadModelFromBuffer(data []byte) error {
	f.buffer = append([]byte(nil), data...)
	return f.nextLoadErr()
}

func (f *fakeNative) Predict(string, int32, float32) ([]backend.Prediction, error) {
	f.calls++
	return f.preds, nil
}

func (f *fakeNative) NearestNeighbors(string, int32) ([]backend.Pair, error) {
	f.calls++
	return f.neighbors, nil
}

func (f *fakeNative) Analogies(int32, string, string, string) ([]backend.Pair, error) {
	f.calls++
	return f.neighbors, nil
}

func (f *fakeNative) WordID(string) (int32, error) { f.calls++; return 1567, nil }

func (f *fakeNative) SubwordID(string) (int32, error) { f.calls++; return 743833, nil }

func (f *fakeNative) SaveModel(path string) error {
	f.calls++
	return os.WriteFile(path, f.saved, 0o600)
}

func (f *fakeNative) Dimension() (int, error) { f.calls++; return f.dim, nil }

func (f *fakeNative) WordVector(string) ([]float32, error) {
	f.calls++
	return make([]float32, f.dim), nil
}

func (f *fakeNative) SentenceVector(string) ([]float32, error) {
	f.calls++
	return make([]float32, f.dim), nil
}

func useNative(t *testing.T, fn func(backend.Config) (nativeModel, error)) {
	t.Helper()
	prev := newNative
	newNative = fn
	t.Cleanup(func() { newNative = prev })
}

func newFakeModel(t *testing.T, f *fakeNative) *Model {
	t.Helper()
	useNative(t, func(backend.Config) (nativeModel, error) { return f, nil })
	m, err := New(WithLogger(logging.Discard()))
	require.NoError(t, err)
	return m
}

func TestNewAllocationFailure(t *testing.T) {
	useNative(t, func(backend.Config) (nativeModel, error) {
		return nil, &backend.Error{Op: "new", Kind: backend.KindAllocation, Message: "engine returned a null handle"}
	})
	m, err := New(WithLogger(logging.Discard()))
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestCloseReleasesOnce(t *testing.T) {
	f := &fakeNative{dim: 16}
	m := newFakeModel(t, f)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, f.frees)

	before := f.calls
	_, err := m.Predict("text", 1, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Dimension()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.LoadModel("cooking.model.bin"), ErrClosed)
	assert.ErrorIs(t, m.LoadFrom(context.Background(), modelsource.Memory{}), ErrClosed)
	assert.Equal(t, before, f.calls, "closed model touched the engine")
}

func TestNilModel(t *testing.T) {
	var m *Model
	require.NoError(t, m.Close())
	_, err := m.Predict("text", 1, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFailedLoadLeavesModelUsable(t *testing.T) {
	f := &fakeNative{
		loadErrs: []error{&backend.Error{Op: "load_model", Kind: backend.KindNative, Message: "invalid.model.bin has wrong file format!"}},
		preds:    []backend.Prediction{{Probability: 0.9, Label: "__label__baking"}, {Probability: 0.1, Label: "__label__bread"}},
	}
	m := newFakeModel(t, f)
	defer m.Close()

	err := m.LoadModel("invalid.model.bin")
	require.ErrorIs(t, err, ErrNative)
	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "invalid.model.bin has wrong file format!", fe.Message)

	require.NoError(t, m.LoadModel("cooking.model.bin"))
	preds, err := m.Predict("Which baking dish is best to bake a banana bread ?", 2, 0)
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, "__label__baking", preds[0].Label)
	assert.Equal(t, "__label__bread", preds[1].Label)
}

func TestNeighborsKeepEngineOrder(t *testing.T) {
	f := &fakeNative{neighbors: []backend.Pair{{Score: 0.9, Word: "University"}, {Score: 0.8, Word: "city"}, {Score: 0.7, Word: "won"}}}
	m := newFakeModel(t, f)
	defer m.Close()

	nn, err := m.NearestNeighbors("King", 3)
	require.NoError(t, err)
	assert.Equal(t, []Neighbor{{"University", 0.9}, {"city", 0.8}, {"won", 0.7}}, nn)

	an, err := m.Analogies("king", "queen", "man", 3)
	require.NoError(t, err)
	assert.Len(t, an, 3)
}

func TestVectorLengthMatchesDimension(t *testing.T) {
	f := &fakeNative{dim: 16}
	m := newFakeModel(t, f)
	defer m.Close()

	dim, err := m.Dimension()
	require.NoError(t, err)
	v, err := m.WordVector("king")
	require.NoError(t, err)
	assert.Len(t, v, dim)
	s, err := m.SentenceVector("king is to queen as man is to ?")
	require.NoError(t, err)
	assert.Len(t, s, dim)
}

func TestRemapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"allocation", &backend.Error{Op: "new", Kind: backend.KindAllocation}, ErrAllocation},
		{"encoding", &backend.Error{Op: "predict", Kind: backend.KindEncoding}, ErrEncoding},
		{"native", &backend.Error{Op: "load_model", Kind: backend.KindNative}, ErrNative},
		{"protocol", &backend.Error{Op: "get_nn", Kind: backend.KindProtocol}, ErrProtocol},
		{"not supported", backend.ErrNotSupported, ErrNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, RemapError(tt.in), tt.want)
		})
	}
	assert.NoError(t, RemapError(nil))

	other := errors.New("unrelated")
	assert.Same(t, other, RemapError(other))
	assert.False(t, errors.Is(RemapError(&backend.Error{Kind: backend.KindNative}), ErrProtocol))
}

func TestLoadFromAndSaveTo(t *testing.T) {
	f := &fakeNative{saved: []byte("saved model image")}
	m := newFakeModel(t, f)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.LoadFrom(ctx, modelsource.Memory{Data: []byte("model image")}))
	assert.Equal(t, []byte("model image"), f.buffer)

	var sink modelsource.MemorySink
	require.NoError(t, m.SaveTo(ctx, &sink, "cooking.bin"))
	got, ok := sink.Get("cooking.bin")
	require.True(t, ok)
	assert.Equal(t, f.saved, got)
}

func TestLoadFromFetchFailure(t *testing.T) {
	m := newFakeModel(t, &fakeNative{})
	defer m.Close()

	err := m.LoadFrom(context.Background(), modelsource.File{Path: "does/not/exist.bin"})
	assert.ErrorIs(t, err, modelsource.ErrNotFound)
}

// TestLifecycleProperties drives random operation sequences and checks that
// the handle is released at most once and never used afterwards.
func TestLifecycleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("release at most once, no use after release", prop.ForAll(
		func(ops []int) bool {
			f := &fakeNative{dim: 4}
			useNative(t, func(backend.Config) (nativeModel, error) { return f, nil })
			m, err := New(WithLogger(logging.Discard()))
			if err != nil {
				return false
			}
			closed := false
			for _, op := range ops {
				before := f.calls
				var err error
				switch op {
				case 0:
					err = m.Close()
					closed = true
				case 1:
					_, err = m.Predict("x", 1, 0)
				case 2:
					_, err = m.WordVector("x")
				case 3:
					err = m.LoadModel("x.bin")
				case 4:
					_, err = m.NearestNeighbors("x", 2)
				}
				if closed {
					if op != 0 && (!errors.Is(err, ErrClosed) || f.calls != before) {
						return false
					}
				} else if err != nil {
					return false
				}
			}
			_ = m.Close()
			return f.frees == 1
		},
		gen.SliceOf(gen.IntRange(0, 4)),
	))

	properties.TestingRun(t)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}
