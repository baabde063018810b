package modelsource

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Scheme identifies where a model reference points.
type Scheme string

const (
	SchemeFile  Scheme = "file"
	SchemeS3    Scheme = "s3"
	SchemeMinIO Scheme = "minio"
	SchemeGCS   Scheme = "gs"
)

// Ref is a parsed model reference: a local path or a bucket/key URL.
type Ref struct {
	Scheme Scheme
	Bucket string
	// Key is the object key, or the file path for SchemeFile.
	Key string
}

// ParseRef parses a local path, a file:// URL, or an s3://, minio:// or gs://
// URL of the form scheme://bucket/key.
func ParseRef(ref string) (Ref, error) {
	if ref == "" {
		return Ref{}, fmt.Errorf("modelsource: empty model reference")
	}
	if !strings.Contains(ref, "://") {
		return Ref{Scheme: SchemeFile, Key: ref}, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return Ref{}, fmt.Errorf("modelsource: parse %q: %w", ref, err)
	}
	switch s := Scheme(u.Scheme); s {
	case SchemeFile:
		p := u.Path
		if u.Host != "" {
			p = u.Host + p
		}
		return Ref{Scheme: SchemeFile, Key: p}, nil
	case SchemeS3, SchemeMinIO, SchemeGCS:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Ref{}, fmt.Errorf("modelsource: %q must name a bucket and a key", ref)
		}
		return Ref{Scheme: s, Bucket: u.Host, Key: key}, nil
	default:
		return Ref{}, fmt.Errorf("modelsource: unsupported scheme %q", u.Scheme)
	}
}

// String formats the reference the way ParseRef accepts it.
func (r Ref) String() string {
	if r.Scheme == SchemeFile {
		return r.Key
	}
	return string(r.Scheme) + "://" + r.Bucket + "/" + r.Key
}

// Codec reports the compression implied by the reference's extension.
func (r Ref) Codec() Codec { return CodecFor(r.Key) }

// Options carries client settings for remote references.
type Options struct {
	S3    S3Config    `yaml:"s3"`
	MinIO MinIOConfig `yaml:"minio"`
	GCS   GCSConfig   `yaml:"gcs"`
}

// Open resolves ref to a Source. Compressed references (.zst, .zstd, .lz4)
// are decompressed transparently.
func Open(ctx context.Context, ref string, opts Options) (Source, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	var src Source
	switch r.Scheme {
	case SchemeFile:
		src = File{Path: r.Key}
	case SchemeS3:
		client, err := NewS3Client(ctx, opts.S3)
		if err != nil {
			return nil, err
		}
		src = S3{Client: client, Bucket: r.Bucket, Key: r.Key}
	case SchemeMinIO:
		client, err := NewMinIOClient(opts.MinIO)
		if err != nil {
			return nil, err
		}
		src = MinIO{Client: client, Bucket: r.Bucket, Object: r.Key}
	case SchemeGCS:
		client, err := NewGCSClient(ctx, opts.GCS)
		if err != nil {
			return nil, err
		}
		src = GCS{Client: client, Bucket: r.Bucket, Object: r.Key}
	}
	if c := r.Codec(); c != CodecNone {
		src = Decompress{Source: src, Codec: c}
	}
	return src, nil
}

// OpenSink resolves ref to a Sink and the object name to store under.
// Compressed references are compressed on the way out.
func OpenSink(ctx context.Context, ref string, opts Options) (Sink, string, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return nil, "", err
	}
	var sink Sink
	var name string
	switch r.Scheme {
	case SchemeFile:
		sink, name = Dir{Path: filepath.Dir(r.Key)}, filepath.Base(r.Key)
	case SchemeS3:
		client, err := NewS3Client(ctx, opts.S3)
		if err != nil {
			return nil, "", err
		}
		sink, name = S3Sink{Client: client, Bucket: r.Bucket, Prefix: path.Dir(r.Key)}, path.Base(r.Key)
	case SchemeMinIO:
		client, err := NewMinIOClient(opts.MinIO)
		if err != nil {
			return nil, "", err
		}
		sink, name = MinIOSink{Client: client, Bucket: r.Bucket, Prefix: path.Dir(r.Key)}, path.Base(r.Key)
	case SchemeGCS:
		client, err := NewGCSClient(ctx, opts.GCS)
		if err != nil {
			return nil, "", err
		}
		sink, name = GCSSink{Client: client, Bucket: r.Bucket, Prefix: path.Dir(r.Key)}, path.Base(r.Key)
	}
	if c := r.Codec(); c != CodecNone {
		sink = Compress{Sink: sink, Codec: c}
	}
	return sink, name, nil
}
