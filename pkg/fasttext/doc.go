// Package fasttext is a memory-safe Go API over the fastText engine.
//
// A Model owns one engine instance. Every result is copied into Go memory
// before the call returns, and every engine-allocated array is released
// exactly once, so callers never hold engine pointers:
//
//	m, err := fasttext.New()
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	if err := m.LoadModel("cooking.model.bin"); err != nil {
//	    return err
//	}
//	preds, err := m.Predict("Which baking dish is best to bake a banana bread?", 2, 0)
//
// # Binding sets
//
// Builds with cgo link the complete C API (SurfaceFull). Builds without cgo,
// or with the fasttext_reduced tag, run a wasm32 build of the engine under
// wazero (SurfaceReduced); that set supports creation, loading and
// prediction only and returns ErrNotSupported for everything else. The
// engine module is supplied with WithEngineModule, WithEngineModuleFile or
// the FASTTEXT_WASM environment variable.
//
// # Errors
//
// Failures are *Error values that match ErrAllocation, ErrEncoding,
// ErrNative or ErrProtocol under errors.Is. Native messages are preserved
// verbatim. A failed load or save leaves the Model usable.
//
// # Concurrency
//
// Model does not lock. See the Model type for which calls may overlap, and
// package worker for a ready-made discipline.
package fasttext
