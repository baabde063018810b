// Package backend hosts the thin binding layer that links the Go API to the
// native fastText engine. Exactly one binding set is compiled in:
//
//   - the full set (cgo && !fasttext_reduced) calls the C API from c_api.h
//     directly through cgo;
//   - the reduced set (!cgo || fasttext_reduced) drives a constrained wasm32
//     build of the engine under wazero and only exposes construction,
//     release, loading and prediction.
//
// Both sets funnel every native result through envelope.unwrap and every
// native-allocated array through collect, so the ownership rules live in one
// place regardless of which set is active.
package backend
