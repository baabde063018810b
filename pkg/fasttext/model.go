package fasttext

import (
	"context"
	"math"
	"runtime"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext/internal/backend"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
)

// Surface names the binding set compiled into the binary.
type Surface string

const (
	// SurfaceFull is the cgo binding to the complete C API.
	SurfaceFull Surface = "full"
	// SurfaceReduced is the wasm-hosted engine exposing construction,
	// loading and prediction only.
	SurfaceReduced Surface = "reduced"
)

// Capabilities describes what the compiled-in binding set supports.
type Capabilities struct {
	Surface Surface
	// ConcurrentReads reports whether read-only operations on one Model may
	// run concurrently.
	ConcurrentReads bool
	// Training reports whether Args and Train are available.
	Training bool
}

// CurrentCapabilities reports the binding set of this build.
func CurrentCapabilities() Capabilities {
	s := backend.Surface()
	return Capabilities{
		Surface:         Surface(s.Surface),
		ConcurrentReads: s.ConcurrentReads,
		Training:        s.Training,
	}
}

// Prediction is one label returned by Predict.
type Prediction struct {
	Label       string
	Probability float32
}

// Neighbor is one word returned by NearestNeighbors or Analogies.
type Neighbor struct {
	Word       string
	Similarity float32
}

// nativeModel is the engine handle a Model drives.
type nativeModel interface {
	Free()
	LoadModel(path string) error
	LoadModelFromBuffer(data []byte) error
	Predict(text string, k int32, threshold float32) ([]backend.Prediction, error)
	NearestNeighbors(word string, k int32) ([]backend.Pair, error)
	Analogies(k int32, a, b, c string) ([]backend.Pair, error)
	WordID(word string) (int32, error)
	SubwordID(word string) (int32, error)
	SaveModel(path string) error
	Dimension() (int, error)
	WordVector(word string) ([]float32, error)
	SentenceVector(text string) ([]float32, error)
}

var newNative = func(cfg backend.Config) (nativeModel, error) {
	h, err := backend.New(cfg)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Model owns one engine instance. Its native handle is released exactly once,
// by Close or, if the owner forgets, by a finalizer.
//
// A Model has no internal lock. Loading and saving must not overlap any other
// call on the same Model. When CurrentCapabilities().ConcurrentReads is true,
// Predict, WordID, SubwordID, Dimension, WordVector and SentenceVector may run
// concurrently with each other. NearestNeighbors and Analogies lazily
// precompute engine state and must be serialized like writes. Package worker
// implements this discipline.
type Model struct {
	native nativeModel
	log    logging.Logger
}

// New creates an empty model. Load one with LoadModel, LoadModelFromBuffer or
// LoadFrom before querying it.
func New(opts ...Option) (*Model, error) {
	cfg := newConfig(opts)
	bc, err := cfg.toBackend()
	if err != nil {
		return nil, err
	}
	native, err := newNative(bc)
	if err != nil {
		err = RemapError(err)
		cfg.Logger.Warn(context.Background(), "fasttext model creation failed", logging.Err(err))
		return nil, err
	}

	m := &Model{native: native, log: logging.ForModel(cfg.Logger, string(CurrentCapabilities().Surface))}
	runtime.SetFinalizer(m, func(m *Model) { _ = m.Close() })
	m.log.Debug(context.Background(), "fasttext model created")
	return m, nil
}

// Close releases the engine instance. It is safe to call more than once.
func (m *Model) Close() error {
	if m == nil || m.native == nil {
		return nil
	}
	runtime.SetFinalizer(m, nil)
	m.native.Free()
	m.native = nil
	m.log.Debug(context.Background(), "fasttext model closed")
	return nil
}

// Capabilities reports the binding set backing m.
func (m *Model) Capabilities() Capabilities {
	return CurrentCapabilities()
}

func (m *Model) handle() (nativeModel, error) {
	if m == nil {
		return nil, ErrInvalidArgument
	}
	if m.native == nil {
		return nil, ErrClosed
	}
	return m.native, nil
}

// LoadModel loads a .bin or .ftz model from path, replacing any loaded model.
// A failed load leaves the Model usable.
func (m *Model) LoadModel(path string) error {
	h, err := m.handle()
	if err != nil {
		return err
	}
	err = h.LoadModel(path)
	runtime.KeepAlive(m)
	if err != nil {
		err = RemapError(err)
		m.log.Warn(context.Background(), "fasttext load failed", logging.Path(path), logging.Err(err))
		return err
	}
	m.log.Debug(context.Background(), "fasttext model loaded", logging.Path(path))
	return nil
}

// LoadModelFromBuffer loads a model image held in memory. The engine reads
// data during the call only; the caller may reuse it afterwards.
func (m *Model) LoadModelFromBuffer(data []byte) error {
	h, err := m.handle()
	if err != nil {
		return err
	}
	err = h.LoadModelFromBuffer(data)
	runtime.KeepAlive(m)
	if err != nil {
		err = RemapError(err)
		m.log.Warn(context.Background(), "fasttext load from buffer failed", logging.Bytes(len(data)), logging.Err(err))
		return err
	}
	m.log.Debug(context.Background(), "fasttext model loaded from buffer", logging.Bytes(len(data)))
	return nil
}

// Predict returns up to k labels for text whose probability is at least
// threshold, in the engine's order (descending probability).
func (m *Model) Predict(text string, k int32, threshold float32) ([]Prediction, error) {
	h, err := m.handle()
	if err != nil {
		return nil, err
	}
	raw, err := h.Predict(text, k, threshold)
	runtime.KeepAlive(m)
	if err != nil {
		return nil, RemapError(err)
	}
	out := make([]Prediction, len(raw))
	for i, p := range raw {
		out[i] = Prediction{Label: p.Label, Probability: p.Probability}
	}
	m.log.Debug(context.Background(), "fasttext predict", logging.Redacted("text"), "k", k, logging.Results(len(out)))
	return out, nil
}

// NearestNeighbors returns the k words closest to word.
func (m *Model) NearestNeighbors(word string, k int32) ([]Neighbor, error) {
	h, err := m.handle()
	if err != nil {
		return nil, err
	}
	raw, err := h.NearestNeighbors(word, k)
	runtime.KeepAlive(m)
	if err != nil {
		return nil, RemapError(err)
	}
	return neighbors(raw), nil
}

// Analogies answers "a is to b as c is to ?" with k candidates. The engine
// computes b - a + c.
func (m *Model) Analogies(a, b, c string, k int32) ([]Neighbor, error) {
	h, err := m.handle()
	if err != nil {
		return nil, err
	}
	raw, err := h.Analogies(k, a, b, c)
	runtime.KeepAlive(m)
	if err != nil {
		return nil, RemapError(err)
	}
	return neighbors(raw), nil
}

func neighbors(raw []backend.Pair) []Neighbor {
	out := make([]Neighbor, len(raw))
	for i, p := range raw {
		out[i] = Neighbor{Word: p.Word, Similarity: p.Score}
	}
	return out
}

// WordID returns the vocabulary index of word, or -1 when it is unknown.
func (m *Model) WordID(word string) (int32, error) {
	h, err := m.handle()
	if err != nil {
		return 0, err
	}
	id, err := h.WordID(word)
	runtime.KeepAlive(m)
	return id, RemapError(err)
}

// SubwordID returns the bucket index the engine hashes subword to.
func (m *Model) SubwordID(subword string) (int32, error) {
	h, err := m.handle()
	if err != nil {
		return 0, err
	}
	id, err := h.SubwordID(subword)
	runtime.KeepAlive(m)
	return id, RemapError(err)
}

// SaveModel writes the loaded model to path.
func (m *Model) SaveModel(path string) error {
	h, err := m.handle()
	if err != nil {
		return err
	}
	err = h.SaveModel(path)
	runtime.KeepAlive(m)
	if err != nil {
		err = RemapError(err)
		m.log.Warn(context.Background(), "fasttext save failed", logging.Path(path), logging.Err(err))
		return err
	}
	m.log.Debug(context.Background(), "fasttext model saved", logging.Path(path))
	return nil
}

// Dimension returns the embedding dimension of the loaded model.
func (m *Model) Dimension() (int, error) {
	h, err := m.handle()
	if err != nil {
		return 0, err
	}
	d, err := h.Dimension()
	runtime.KeepAlive(m)
	return d, RemapError(err)
}

// WordVector returns the embedding of word. Its length equals Dimension.
func (m *Model) WordVector(word string) ([]float32, error) {
	h, err := m.handle()
	if err != nil {
		return nil, err
	}
	v, err := h.WordVector(word)
	runtime.KeepAlive(m)
	if err != nil {
		return nil, RemapError(err)
	}
	return v, nil
}

// SentenceVector returns the embedding of text. Its length equals Dimension.
func (m *Model) SentenceVector(text string) ([]float32, error) {
	h, err := m.handle()
	if err != nil {
		return nil, err
	}
	v, err := h.SentenceVector(text)
	runtime.KeepAlive(m)
	if err != nil {
		return nil, RemapError(err)
	}
	return v, nil
}

// CosineSimilarity compares two vectors returned by WordVector or
// SentenceVector. It returns 0 when either vector has zero norm or the
// lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
