package backend

// envelope is the Go view of a native XxxResult{error, result} value. The
// message func reads the native-owned error text; it is only invoked when
// failed is true and must copy the text before returning.
type envelope[P any] struct {
	op      string
	failed  bool
	message func() string
	payload P
}

// unwrap yields the payload when the native error indicator is null. On
// failure the payload is discarded without being inspected.
func (e envelope[P]) unwrap() (P, error) {
	var zero P
	if e.failed {
		msg := ""
		if e.message != nil {
			msg = e.message()
		}
		if msg == "" {
			msg = "native engine reported an error without a message"
		}
		return zero, &Error{Op: e.op, Kind: KindNative, Message: msg}
	}
	return e.payload, nil
}
