//go:build cgo && !fasttext_reduced

package backend

/*
#include <stdlib.h>
#include <stdbool.h>
#include "c_api.h"
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Args owns one fasttext_args_t.
type Args struct {
	ptr *C.fasttext_args_t
}

// NewArgs allocates an argument block populated with engine defaults.
func NewArgs() (*Args, error) {
	ptr := C.fasttext_args_new()
	if ptr == nil {
		return nil, newError("args_new", KindAllocation, "engine returned a null argument block")
	}
	return &Args{ptr: ptr}, nil
}

// Free deletes the argument block. It is a no-op when already freed.
func (a *Args) Free() {
	if a == nil || a.ptr == nil {
		return
	}
	C.fasttext_args_delete(a.ptr)
	a.ptr = nil
}

// String reads a text field. The engine owns the returned pointer, so the
// text is copied before the call returns.
func (a *Args) String(f ArgField) (string, error) {
	var s *C.char
	switch f {
	case ArgInput:
		s = C.fasttext_args_get_input(a.ptr)
	case ArgOutput:
		s = C.fasttext_args_get_output(a.ptr)
	case ArgLabel:
		s = C.fasttext_args_get_label(a.ptr)
	case ArgPretrainedVectors:
		s = C.fasttext_args_get_pretrained_vectors(a.ptr)
	default:
		return "", fmt.Errorf("fasttext/internal/backend: field %d is not text", f)
	}
	if s == nil {
		return "", nil
	}
	return C.GoString(s), nil
}

// SetString writes a text field.
func (a *Args) SetString(f ArgField, v string) error {
	const op = "args_set"
	cv, err := cString(op, v)
	if err != nil {
		return err
	}
	defer C.free(unsafe.Pointer(cv))

	switch f {
	case ArgInput:
		C.fasttext_args_set_input(a.ptr, cv)
	case ArgOutput:
		C.fasttext_args_set_output(a.ptr, cv)
	case ArgLabel:
		C.fasttext_args_set_label(a.ptr, cv)
	case ArgPretrainedVectors:
		C.fasttext_args_set_pretrained_vectors(a.ptr, cv)
	default:
		return fmt.Errorf("fasttext/internal/backend: field %d is not text", f)
	}
	return nil
}

// Float reads a floating point field.
func (a *Args) Float(f ArgField) (float64, error) {
	switch f {
	case ArgLR:
		return float64(C.fasttext_args_get_lr(a.ptr)), nil
	case ArgT:
		return float64(C.fasttext_args_get_t(a.ptr)), nil
	}
	return 0, fmt.Errorf("fasttext/internal/backend: field %d is not floating point", f)
}

// SetFloat writes a floating point field.
func (a *Args) SetFloat(f ArgField, v float64) error {
	switch f {
	case ArgLR:
		C.fasttext_args_set_lr(a.ptr, C.double(v))
	case ArgT:
		C.fasttext_args_set_t(a.ptr, C.double(v))
	default:
		return fmt.Errorf("fasttext/internal/backend: field %d is not floating point", f)
	}
	return nil
}

// Int reads an integer field, including the size_t fields.
func (a *Args) Int(f ArgField) (int64, error) {
	var v int64
	switch f {
	case ArgLRUpdateRate:
		v = int64(C.fasttext_args_get_lr_update_rate(a.ptr))
	case ArgDim:
		v = int64(C.fasttext_args_get_dim(a.ptr))
	case ArgWS:
		v = int64(C.fasttext_args_get_ws(a.ptr))
	case ArgEpoch:
		v = int64(C.fasttext_args_get_epoch(a.ptr))
	case ArgMinCount:
		v = int64(C.fasttext_args_get_min_count(a.ptr))
	case ArgMinCountLabel:
		v = int64(C.fasttext_args_get_min_count_label(a.ptr))
	case ArgNeg:
		v = int64(C.fasttext_args_get_neg(a.ptr))
	case ArgWordNgrams:
		v = int64(C.fasttext_args_get_word_ngrams(a.ptr))
	case ArgLoss:
		v = int64(C.fasttext_args_get_loss(a.ptr))
	case ArgModel:
		v = int64(C.fasttext_args_get_model(a.ptr))
	case ArgBucket:
		v = int64(C.fasttext_args_get_bucket(a.ptr))
	case ArgMinn:
		v = int64(C.fasttext_args_get_minn(a.ptr))
	case ArgMaxn:
		v = int64(C.fasttext_args_get_maxn(a.ptr))
	case ArgThread:
		v = int64(C.fasttext_args_get_thread(a.ptr))
	case ArgVerbose:
		v = int64(C.fasttext_args_get_verbose(a.ptr))
	case ArgSaveOutput:
		v = int64(C.fasttext_args_get_save_output(a.ptr))
	case ArgQOut:
		v = int64(C.fasttext_args_get_qout(a.ptr))
	case ArgRetrain:
		v = int64(C.fasttext_args_get_retrain(a.ptr))
	case ArgQNorm:
		v = int64(C.fasttext_args_get_qnorm(a.ptr))
	case ArgCutoff:
		v = int64(C.fasttext_args_get_cutoff(a.ptr))
	case ArgDSub:
		v = int64(C.fasttext_args_get_dsub(a.ptr))
	default:
		return 0, fmt.Errorf("fasttext/internal/backend: field %d is not an integer", f)
	}
	return v, nil
}

// SetInt writes an integer field. Negative values are rejected for the
// size_t fields.
func (a *Args) SetInt(f ArgField, v int64) error {
	n := C.int(v)
	switch f {
	case ArgLRUpdateRate:
		C.fasttext_args_set_lr_update_rate(a.ptr, n)
	case ArgDim:
		C.fasttext_args_set_dim(a.ptr, n)
	case ArgWS:
		C.fasttext_args_set_ws(a.ptr, n)
	case ArgEpoch:
		C.fasttext_args_set_epoch(a.ptr, n)
	case ArgMinCount:
		C.fasttext_args_set_min_count(a.ptr, n)
	case ArgMinCountLabel:
		C.fasttext_args_set_min_count_label(a.ptr, n)
	case ArgNeg:
		C.fasttext_args_set_neg(a.ptr, n)
	case ArgWordNgrams:
		C.fasttext_args_set_word_ngrams(a.ptr, n)
	case ArgLoss:
		C.fasttext_args_set_loss(a.ptr, n)
	case ArgModel:
		C.fasttext_args_set_model(a.ptr, n)
	case ArgBucket:
		C.fasttext_args_set_bucket(a.ptr, n)
	case ArgMinn:
		C.fasttext_args_set_minn(a.ptr, n)
	case ArgMaxn:
		C.fasttext_args_set_maxn(a.ptr, n)
	case ArgThread:
		C.fasttext_args_set_thread(a.ptr, n)
	case ArgVerbose:
		C.fasttext_args_set_verbose(a.ptr, n)
	case ArgSaveOutput:
		C.fasttext_args_set_save_output(a.ptr, n)
	case ArgQOut:
		C.fasttext_args_set_qout(a.ptr, n)
	case ArgRetrain:
		C.fasttext_args_set_retrain(a.ptr, n)
	case ArgQNorm:
		C.fasttext_args_set_qnorm(a.ptr, n)
	case ArgCutoff, ArgDSub:
		if v < 0 {
			return fmt.Errorf("fasttext/internal/backend: field %d must not be negative", f)
		}
		if f == ArgCutoff {
			C.fasttext_args_set_cutoff(a.ptr, C.size_t(v))
		} else {
			C.fasttext_args_set_dsub(a.ptr, C.size_t(v))
		}
	default:
		return fmt.Errorf("fasttext/internal/backend: field %d is not an integer", f)
	}
	return nil
}

// Train runs fasttext_train. The C API has no error channel for training, so
// only argument encoding failures are reported.
func Train(input, output, model string, retrain, qout bool, thread int) error {
	const op = "train"
	if !validTrainModel(model) {
		return newError(op, KindEncoding, "unknown model %q", model)
	}
	strs := [3]string{input, output, model}
	var cs [3]*C.char
	for i, s := range strs {
		c, err := cString(op, s)
		if err != nil {
			for _, prev := range cs[:i] {
				C.free(unsafe.Pointer(prev))
			}
			return err
		}
		cs[i] = c
	}
	defer func() {
		for _, c := range cs {
			C.free(unsafe.Pointer(c))
		}
	}()

	C.fasttext_train(cs[0], cs[1], cs[2], C.bool(retrain), C.bool(qout), C.int(thread))
	return nil
}
