//go:build cgo && !fasttext_reduced

package backend

/*
#cgo CFLAGS: -I${SRCDIR}/../../../../fastText/src
#cgo CXXFLAGS: -std=c++17 -I${SRCDIR}/../../../../fastText/src
#cgo LDFLAGS: -L${SRCDIR}/../../../../build/fasttext -lfasttext -lstdc++ -lm -lpthread
#include <stdlib.h>
#include "c_api.h"
*/
import "C"

import (
	"runtime"
	"unsafe"
)

// Surface reports the compiled-in binding set.
func Surface() Capabilities {
	return Capabilities{Surface: "full", ConcurrentReads: true, Training: true}
}

// Handle owns one fasttext_t. The pointer never leaves this package.
type Handle struct {
	ptr *C.fasttext_t
}

func nativeEnvelope[P any](op string, e *C.char, p P) envelope[P] {
	return envelope[P]{
		op:      op,
		failed:  e != nil,
		message: func() string { return C.GoString(e) },
		payload: p,
	}
}

// cString encodes s as a C string allocated with malloc. The caller must
// release it with C.free.
func cString(op, s string) (*C.char, error) {
	if err := encodeText(op, s); err != nil {
		return nil, err
	}
	return C.CString(s), nil
}

// New asks the engine for a fresh fasttext_t.
func New(Config) (*Handle, error) {
	const op = "new"
	r := C.fasttext_new()
	ptr, err := nativeEnvelope(op, r.error, r.result).unwrap()
	if err != nil {
		return nil, asAllocation(err)
	}
	if ptr == nil {
		return nil, newError(op, KindAllocation, "engine returned a null handle")
	}
	return &Handle{ptr: ptr}, nil
}

// Free deletes the fasttext_t. It is a no-op on a nil or already freed handle.
func (h *Handle) Free() {
	if h == nil || h.ptr == nil {
		return
	}
	C.fasttext_delete(h.ptr)
	h.ptr = nil
}

// LoadModel loads a model file into the handle.
func (h *Handle) LoadModel(path string) error {
	const op = "load_model"
	cpath, err := cString(op, path)
	if err != nil {
		return err
	}
	defer C.free(unsafe.Pointer(cpath))

	r := C.fasttext_load_model(h.ptr, cpath)
	_, err = nativeEnvelope(op, r.error, r.result).unwrap()
	return err
}

// LoadModelFromBuffer loads a model from an in-memory image. The engine reads
// data synchronously, so Go memory is passed without copying.
func (h *Handle) LoadModelFromBuffer(data []byte) error {
	const op = "load_model_from_buffer"
	var p unsafe.Pointer
	if len(data) > 0 {
		p = unsafe.Pointer(&data[0])
	}
	r := C.fasttext_load_model_from_buffer(h.ptr, p, C.size_t(len(data)))
	runtime.KeepAlive(data)
	_, err := nativeEnvelope(op, r.error, r.result).unwrap()
	return err
}

// Predict returns up to k labels with probability at least threshold, in
// the order produced by the engine.
func (h *Handle) Predict(text string, k int32, threshold float32) ([]Prediction, error) {
	const op = "predict"
	ctext, err := cString(op, text)
	if err != nil {
		return nil, err
	}
	defer C.free(unsafe.Pointer(ctext))

	var n C.size_t
	r := C.fasttext_predict(h.ptr, ctext, C.int32_t(k), C.float(threshold), &n)
	preds, err := nativeEnvelope(op, r.error, r.result).unwrap()
	if err != nil {
		return nil, err
	}

	stride := unsafe.Sizeof(*preds)
	return collect(op, preds == nil, uint64(n),
		func(i int) Prediction {
			p := (*C.fasttext_prediction_t)(unsafe.Add(unsafe.Pointer(preds), uintptr(i)*stride))
			return Prediction{Probability: float32(p.probability), Label: C.GoString(p.label)}
		},
		func() { C.fasttext_free_predictions(preds, n) },
	)
}

func collectPairs(op string, pairs *C.fasttext_float_char_pair_t, n C.size_t) ([]Pair, error) {
	stride := unsafe.Sizeof(*pairs)
	return collect(op, pairs == nil, uint64(n),
		func(i int) Pair {
			p := (*C.fasttext_float_char_pair_t)(unsafe.Add(unsafe.Pointer(pairs), uintptr(i)*stride))
			return Pair{Score: float32(p.first), Word: C.GoString(p.second)}
		},
		func() { C.fasttext_free_float_char_pair(pairs, n) },
	)
}

// NearestNeighbors returns the k nearest words to word.
func (h *Handle) NearestNeighbors(word string, k int32) ([]Pair, error) {
	const op = "get_nn"
	cword, err := cString(op, word)
	if err != nil {
		return nil, err
	}
	defer C.free(unsafe.Pointer(cword))

	var n C.size_t
	r := C.fasttext_get_nn(h.ptr, cword, C.int32_t(k), &n)
	pairs, err := nativeEnvelope(op, r.error, r.result).unwrap()
	if err != nil {
		return nil, err
	}
	return collectPairs(op, pairs, n)
}

// Analogies resolves "a is to b as c is to ?" and returns k candidates.
func (h *Handle) Analogies(k int32, a, b, c string) ([]Pair, error) {
	const op = "get_analogies"
	words := [3]*C.char{}
	for i, w := range [3]string{a, b, c} {
		cw, err := cString(op, w)
		if err != nil {
			for _, prev := range words[:i] {
				C.free(unsafe.Pointer(prev))
			}
			return nil, err
		}
		words[i] = cw
	}
	defer func() {
		for _, w := range words {
			C.free(unsafe.Pointer(w))
		}
	}()

	var n C.size_t
	r := C.fasttext_get_analogies(h.ptr, C.int32_t(k), words[0], words[1], words[2], &n)
	pairs, err := nativeEnvelope(op, r.error, r.result).unwrap()
	if err != nil {
		return nil, err
	}
	return collectPairs(op, pairs, n)
}

// WordID returns the dictionary id of word, -1 when it is not in vocabulary.
func (h *Handle) WordID(word string) (int32, error) {
	const op = "get_word_id"
	cword, err := cString(op, word)
	if err != nil {
		return 0, err
	}
	defer C.free(unsafe.Pointer(cword))

	r := C.fasttext_get_word_id(h.ptr, cword)
	id, err := nativeEnvelope(op, r.error, r.result).unwrap()
	return int32(id), err
}

// SubwordID returns the hashed bucket id of a subword.
func (h *Handle) SubwordID(word string) (int32, error) {
	const op = "get_subword_id"
	cword, err := cString(op, word)
	if err != nil {
		return 0, err
	}
	defer C.free(unsafe.Pointer(cword))

	r := C.fasttext_get_subword_id(h.ptr, cword)
	id, err := nativeEnvelope(op, r.error, r.result).unwrap()
	return int32(id), err
}

// SaveModel writes the loaded model to path.
func (h *Handle) SaveModel(path string) error {
	const op = "save_model"
	cpath, err := cString(op, path)
	if err != nil {
		return err
	}
	defer C.free(unsafe.Pointer(cpath))

	r := C.fasttext_save_model(h.ptr, cpath)
	_, err = nativeEnvelope(op, r.error, r.result).unwrap()
	return err
}

// Dimension returns the vector dimension of the loaded model.
func (h *Handle) Dimension() (int, error) {
	const op = "get_dimension"
	r := C.fasttext_get_dimension(h.ptr)
	dim, err := nativeEnvelope(op, r.error, r.result).unwrap()
	if err != nil {
		return 0, err
	}
	return checkDimension(op, int64(dim))
}

// WordVector returns the embedding of word. The buffer is sized from
// Dimension and filled in place by the engine.
func (h *Handle) WordVector(word string) ([]float32, error) {
	const op = "get_word_vector"
	return h.vector(op, word, func(text *C.char, vec *C.float) C.VoidResult {
		return C.fasttext_get_word_vector(h.ptr, text, vec)
	})
}

// SentenceVector returns the averaged embedding of text.
func (h *Handle) SentenceVector(text string) ([]float32, error) {
	const op = "get_sentence_vector"
	return h.vector(op, text, func(text *C.char, vec *C.float) C.VoidResult {
		return C.fasttext_get_sentence_vector(h.ptr, text, vec)
	})
}

func (h *Handle) vector(op, text string, fill func(*C.char, *C.float) C.VoidResult) ([]float32, error) {
	ctext, err := cString(op, text)
	if err != nil {
		return nil, err
	}
	defer C.free(unsafe.Pointer(ctext))

	dim, err := h.Dimension()
	if err != nil {
		return nil, err
	}

	vec := make([]float32, dim)
	r := fill(ctext, (*C.float)(unsafe.Pointer(&vec[0])))
	runtime.KeepAlive(vec)
	if _, err := nativeEnvelope(op, r.error, r.result).unwrap(); err != nil {
		return nil, err
	}
	return vec, nil
}
