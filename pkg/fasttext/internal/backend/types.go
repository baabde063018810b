package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a failure crossing the native boundary.
type Kind int

const (
	// KindAllocation reports that the native engine could not create an object.
	KindAllocation Kind = iota + 1
	// KindEncoding reports a Go value that has no native text representation.
	KindEncoding
	// KindNative reports an error message produced by the native engine.
	KindNative
	// KindProtocol reports a buffer/count combination that violates the
	// ownership contract of the C API.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindAllocation:
		return "allocation"
	case KindEncoding:
		return "encoding"
	case KindNative:
		return "native"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is the single error type produced by the binding layer.
type Error struct {
	Op      string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("fasttext %s: %s: %s", e.Op, e.Kind, e.Message)
}

func newError(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// asAllocation reclassifies a construction failure reported by the engine.
func asAllocation(err error) error {
	var be *Error
	if errors.As(err, &be) {
		return &Error{Op: be.Op, Kind: KindAllocation, Message: be.Message}
	}
	return err
}

// ErrNotSupported reports an operation that the compiled-in binding set does
// not declare.
var ErrNotSupported = errors.New("fasttext/internal/backend: operation not available in this binding set")

// Config carries the parameters a binding set needs to create engine
// instances. The full set ignores every field.
type Config struct {
	// EngineModule holds the wasm32 build of the engine used by the reduced
	// set. When empty the module is read from the file named by the
	// FASTTEXT_WASM environment variable.
	EngineModule []byte

	// MemoryLimitPages caps guest memory (64 KiB pages) for the reduced set.
	// Zero keeps the wazero default. Only the first engine created in the
	// process applies this value.
	MemoryLimitPages uint32
}

// Capabilities describes the compiled-in binding set.
type Capabilities struct {
	Surface         string
	ConcurrentReads bool
	Training        bool
}

// Prediction is a Go-owned copy of one fasttext_prediction_t.
type Prediction struct {
	Probability float32
	Label       string
}

// Pair is a Go-owned copy of one fasttext_float_char_pair_t.
type Pair struct {
	Score float32
	Word  string
}
