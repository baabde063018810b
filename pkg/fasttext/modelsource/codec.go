package modelsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies how a stored model image is compressed.
type Codec int

const (
	CodecNone Codec = iota
	CodecZstd
	CodecLZ4
)

// String returns the codec name used in logs.
func (c Codec) String() string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// CodecFor infers the codec from an object or file name.
func CodecFor(name string) Codec {
	switch {
	case strings.HasSuffix(name, ".zst"), strings.HasSuffix(name, ".zstd"):
		return CodecZstd
	case strings.HasSuffix(name, ".lz4"):
		return CodecLZ4
	default:
		return CodecNone
	}
}

var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Decompress wraps a Source whose bytes are compressed with Codec.
type Decompress struct {
	Source Source
	Codec  Codec
}

// Fetch reads the wrapped source and returns its decoded image. The
// compressed payload is released before Fetch returns.
func (d Decompress) Fetch(ctx context.Context) (*Payload, error) {
	p, err := d.Source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	out, err := decode(d.Codec, p.Bytes)
	if err != nil {
		return nil, fmt.Errorf("modelsource: decompress %s: %w", d.Source, err)
	}
	return NewPayload(out, nil), nil
}

// String names the wrapped source.
func (d Decompress) String() string {
	return d.Source.String()
}

func decode(c Codec, data []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case CodecZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		return dec.DecodeAll(data, nil)
	case CodecLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	}
	return nil, fmt.Errorf("unknown codec %d", c)
}

// Compress wraps a Sink, compressing images with Codec before storing them.
type Compress struct {
	Sink  Sink
	Codec Codec
}

// Store encodes r in memory and hands the result to the wrapped sink. With
// CodecNone it passes r through unchanged.
func (c Compress) Store(ctx context.Context, name string, r io.Reader, size int64) error {
	if c.Codec == CodecNone {
		return c.Sink.Store(ctx, name, r, size)
	}
	var buf bytes.Buffer
	if err := encode(c.Codec, &buf, r); err != nil {
		return fmt.Errorf("modelsource: compress %s: %w", name, err)
	}
	return c.Sink.Store(ctx, name, &buf, int64(buf.Len()))
}

// String names the wrapped sink.
func (c Compress) String() string {
	return c.Sink.String()
}

func encode(c Codec, dst io.Writer, src io.Reader) error {
	var w io.WriteCloser
	switch c {
	case CodecZstd:
		enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		w = enc
	case CodecLZ4:
		w = lz4.NewWriter(dst)
	default:
		return fmt.Errorf("unknown codec %d", c)
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
