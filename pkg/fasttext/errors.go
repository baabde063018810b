package fasttext

import (
	"errors"
	"fmt"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext/internal/backend"
)

var (
	// ErrAllocation reports that the engine could not create a model or
	// argument block.
	ErrAllocation = errors.New("fasttext: native allocation failed")
	// ErrEncoding reports text that cannot be passed to the engine, such as a
	// string containing a NUL byte.
	ErrEncoding = errors.New("fasttext: text cannot be encoded for the engine")
	// ErrNative reports an error message produced by the engine.
	ErrNative = errors.New("fasttext: engine reported an error")
	// ErrProtocol reports a result that violates the engine's ownership
	// contract, such as a null array with a non-zero count.
	ErrProtocol = errors.New("fasttext: engine returned an inconsistent result")

	ErrClosed          = errors.New("fasttext: model has been closed")
	ErrNotSupported    = errors.New("fasttext: operation not available in this build")
	ErrInvalidArgument = errors.New("fasttext: invalid argument")
)

// Kind classifies an *Error.
type Kind int

const (
	KindAllocation Kind = iota + 1
	KindEncoding
	KindNative
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

func (k Kind) sentinel() error {
	switch k {
	case KindAllocation:
		return ErrAllocation
	case KindEncoding:
		return ErrEncoding
	case KindNative:
		return ErrNative
	case KindProtocol:
		return ErrProtocol
	}
	return nil
}

// Error carries the failing operation and, for native failures, the engine's
// message verbatim. It matches the Err* sentinel of its Kind under errors.Is.
type Error struct {
	Op      string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("fasttext %s: %s", e.Op, e.Message)
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// RemapError converts binding layer errors to public API errors.
func RemapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, backend.ErrNotSupported) {
		return ErrNotSupported
	}
	var be *backend.Error
	if errors.As(err, &be) {
		return &Error{Op: be.Op, Kind: remapKind(be.Kind), Message: be.Message}
	}
	return err
}

func remapKind(k backend.Kind) Kind {
	switch k {
	case backend.KindAllocation:
		return KindAllocation
	case backend.KindEncoding:
		return KindEncoding
	case backend.KindNative:
		return KindNative
	case backend.KindProtocol:
		return KindProtocol
	}
	return 0
}
