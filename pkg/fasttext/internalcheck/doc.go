// Package internalcheck holds source-level policy tests for the fasttext
// packages.
//
// The checks load the module with golang.org/x/tools/go/packages and walk the
// syntax trees. They guard properties the compiler cannot: engine memory is
// only reachable from the backend package, and caller text never reaches a
// log record.
package internalcheck
