//go:build !cgo || fasttext_reduced

package backend

import (
	"context"
	"errors"
	"math"
	"path/filepath"

	"github.com/tetratelabs/wazero/api"
)

// Surface reports the compiled-in binding set.
func Surface() Capabilities {
	return Capabilities{Surface: "reduced", ConcurrentReads: false, Training: false}
}

// Handle owns one fasttext_t living inside a private guest instance.
type Handle struct {
	g   *guest
	ptr uint32
}

// New instantiates the engine module and asks it for a fresh fasttext_t.
func New(cfg Config) (*Handle, error) {
	const op = "new"
	ctx := context.Background()

	g, err := newGuest(ctx, cfg)
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return nil, asAllocation(err)
		}
		return nil, newError(op, KindAllocation, "%v", err)
	}
	if _, err := g.call(ctx, op, "fasttext_new", uint64(g.scratch)); err != nil {
		_ = g.close(ctx)
		return nil, asAllocation(err)
	}
	env, err := g.envelope(op)
	if err != nil {
		_ = g.close(ctx)
		return nil, err
	}
	ptr, err := env.unwrap()
	if err != nil {
		_ = g.close(ctx)
		return nil, asAllocation(err)
	}
	if ptr == 0 {
		_ = g.close(ctx)
		return nil, newError(op, KindAllocation, "engine returned a null handle")
	}
	return &Handle{g: g, ptr: ptr}, nil
}

// Free deletes the fasttext_t and tears down its guest instance.
func (h *Handle) Free() {
	if h == nil || h.g == nil {
		return
	}
	ctx := context.Background()
	_, _ = h.g.fns["fasttext_delete"].Call(ctx, uint64(h.ptr))
	_ = h.g.close(ctx)
	h.g = nil
	h.ptr = 0
}

// LoadModel loads a model file. Relative paths are resolved against the
// host working directory since the guest sees the host root read-only.
func (h *Handle) LoadModel(path string) error {
	const op = "load_model"
	ctx := context.Background()
	if err := encodeText(op, path); err != nil {
		return err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	cpath, err := h.g.cString(ctx, op, path)
	if err != nil {
		return err
	}
	defer h.g.free(ctx, cpath)

	if _, err := h.g.call(ctx, op, "fasttext_load_model", uint64(h.g.scratch), uint64(h.ptr), uint64(cpath)); err != nil {
		return err
	}
	env, err := h.g.envelope(op)
	if err != nil {
		return err
	}
	_, err = env.unwrap()
	return err
}

// LoadModelFromBuffer copies data into guest memory and loads it.
func (h *Handle) LoadModelFromBuffer(data []byte) error {
	const op = "load_model_from_buffer"
	ctx := context.Background()
	if uint64(len(data)) > math.MaxUint32 {
		return newError(op, KindAllocation, "model image of %d bytes exceeds guest address space", len(data))
	}

	var buf uint32
	if len(data) > 0 {
		var err error
		if buf, err = h.g.write(ctx, op, data); err != nil {
			return err
		}
		defer h.g.free(ctx, buf)
	}

	if _, err := h.g.call(ctx, op, "fasttext_load_model_from_buffer",
		uint64(h.g.scratch), uint64(h.ptr), uint64(buf), uint64(len(data))); err != nil {
		return err
	}
	env, err := h.g.envelope(op)
	if err != nil {
		return err
	}
	_, err = env.unwrap()
	return err
}

// Predict returns up to k labels with probability at least threshold, in
// the order produced by the engine.
func (h *Handle) Predict(text string, k int32, threshold float32) ([]Prediction, error) {
	const op = "predict"
	ctx := context.Background()
	ctext, err := h.g.cString(ctx, op, text)
	if err != nil {
		return nil, err
	}
	defer h.g.free(ctx, ctext)

	countAddr := h.g.scratch + envelopeSize
	if !h.g.mem.WriteUint32Le(countAddr, 0) {
		return nil, newError(op, KindProtocol, "scratch area at %#x is outside guest memory", countAddr)
	}
	if _, err := h.g.call(ctx, op, "fasttext_predict",
		uint64(h.g.scratch), uint64(h.ptr), uint64(ctext),
		api.EncodeI32(k), api.EncodeF32(threshold), uint64(countAddr)); err != nil {
		return nil, err
	}
	env, err := h.g.envelope(op)
	if err != nil {
		return nil, err
	}
	preds, err := env.unwrap()
	if err != nil {
		return nil, err
	}
	n, err := h.g.u32(op, countAddr)
	if err != nil {
		return nil, err
	}

	var readErr error
	out, err := collect(op, preds == 0, uint64(n),
		func(i int) Prediction {
			at := preds + uint32(i)*predictionSize
			bits, err := h.g.u32(op, at)
			if err == nil {
				var label uint32
				if label, err = h.g.u32(op, at+4); err == nil {
					var s string
					if s, err = h.g.goString(op, label); err == nil {
						return Prediction{Probability: math.Float32frombits(bits), Label: s}
					}
				}
			}
			if readErr == nil {
				readErr = err
			}
			return Prediction{}
		},
		func() {
			_, _ = h.g.fns["fasttext_free_predictions"].Call(ctx, uint64(preds), uint64(n))
		},
	)
	if err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}
	return out, nil
}

// NearestNeighbors is not declared by the reduced set.
func (h *Handle) NearestNeighbors(string, int32) ([]Pair, error) { return nil, ErrNotSupported }

// Analogies is not declared by the reduced set.
func (h *Handle) Analogies(int32, string, string, string) ([]Pair, error) {
	return nil, ErrNotSupported
}

// WordID is not declared by the reduced set.
func (h *Handle) WordID(string) (int32, error) { return 0, ErrNotSupported }

// SubwordID is not declared by the reduced set.
func (h *Handle) SubwordID(string) (int32, error) { return 0, ErrNotSupported }

// SaveModel is not declared by the reduced set.
func (h *Handle) SaveModel(string) error { return ErrNotSupported }

// Dimension is not declared by the reduced set.
func (h *Handle) Dimension() (int, error) { return 0, ErrNotSupported }

// WordVector is not declared by the reduced set.
func (h *Handle) WordVector(string) ([]float32, error) { return nil, ErrNotSupported }

// SentenceVector is not declared by the reduced set.
func (h *Handle) SentenceVector(string) ([]float32, error) { return nil, ErrNotSupported }

// Args is unavailable in the reduced set.
type Args struct{}

// NewArgs reports ErrNotSupported.
func NewArgs() (*Args, error) { return nil, ErrNotSupported }

func (a *Args) Free() {}

func (a *Args) String(ArgField) (string, error)  { return "", ErrNotSupported }
func (a *Args) SetString(ArgField, string) error { return ErrNotSupported }
func (a *Args) Float(ArgField) (float64, error)  { return 0, ErrNotSupported }
func (a *Args) SetFloat(ArgField, float64) error { return ErrNotSupported }
func (a *Args) Int(ArgField) (int64, error)      { return 0, ErrNotSupported }
func (a *Args) SetInt(ArgField, int64) error     { return ErrNotSupported }

// Train reports ErrNotSupported.
func Train(string, string, string, bool, bool, int) error { return ErrNotSupported }
