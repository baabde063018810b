package backend

import (
	"errors"
	"strings"
	"testing"
)

func TestEnvelopeUnwrapSuccess(t *testing.T) {
	called := false
	env := envelope[int32]{
		op:      "get_word_id",
		message: func() string { called = true; return "" },
		payload: 1567,
	}
	got, err := env.unwrap()
	if err != nil {
		t.Fatalf("unwrap: %v", err)
	}
	if got != 1567 {
		t.Fatalf("payload = %d, want 1567", got)
	}
	if called {
		t.Fatalf("message read on success")
	}
}

func TestEnvelopeUnwrapFailureDiscardsPayload(t *testing.T) {
	env := envelope[int32]{
		op:      "load_model",
		failed:  true,
		message: func() string { return "bad.bin has wrong file format!" },
		payload: 42,
	}
	got, err := env.unwrap()
	if got != 0 {
		t.Fatalf("payload = %d leaked through a failed envelope", got)
	}
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("err = %T, want *Error", err)
	}
	if be.Kind != KindNative || be.Op != "load_model" {
		t.Fatalf("err = %+v", be)
	}
	if !strings.Contains(err.Error(), "has wrong file format") {
		t.Fatalf("message lost: %q", err.Error())
	}
}

func TestEnvelopeUnwrapEmptyMessage(t *testing.T) {
	env := envelope[string]{op: "predict", failed: true, message: func() string { return "" }}
	_, err := env.unwrap()
	var be *Error
	if !errors.As(err, &be) || be.Message == "" {
		t.Fatalf("err = %v, want a non-empty native message", err)
	}
}

func TestAsAllocation(t *testing.T) {
	err := asAllocation(&Error{Op: "new", Kind: KindNative, Message: "out of memory"})
	var be *Error
	if !errors.As(err, &be) || be.Kind != KindAllocation || be.Message != "out of memory" {
		t.Fatalf("err = %v, want allocation error carrying the message", err)
	}

	plain := errors.New("boom")
	if got := asAllocation(plain); got != plain {
		t.Fatalf("non-binding error rewritten: %v", got)
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{
		KindAllocation: "allocation",
		KindEncoding:   "encoding",
		KindNative:     "native",
		KindProtocol:   "protocol",
		Kind(0):        "unknown",
	} {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
