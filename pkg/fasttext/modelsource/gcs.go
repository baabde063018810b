package modelsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSConfig configures the client used for gs:// references.
type GCSConfig struct {
	// Endpoint points the client at an emulator. Authentication is skipped
	// when it is set.
	Endpoint string `yaml:"endpoint"`
	// CredentialsFile names a service account key. Application default
	// credentials are used when empty.
	CredentialsFile string `yaml:"credentials_file"`
}

// NewGCSClient builds a Cloud Storage client.
func NewGCSClient(ctx context.Context, cfg GCSConfig) (*storage.Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("modelsource: create GCS client: %w", err)
	}
	return client, nil
}

// GCS reads a model object from Google Cloud Storage.
type GCS struct {
	Client *storage.Client
	Bucket string
	Object string
}

// Fetch downloads the object. A missing object wraps ErrNotFound.
func (g GCS) Fetch(ctx context.Context) (*Payload, error) {
	reader, err := g.Client.Bucket(g.Bucket).Object(g.Object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, g)
		}
		return nil, fmt.Errorf("modelsource: open %s: %w", g, err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("modelsource: read %s: %w", g, err)
	}
	return NewPayload(data, nil), nil
}

// String returns the gs:// reference of the object.
func (g GCS) String() string { return "gs://" + g.Bucket + "/" + g.Object }

// GCSSink uploads saved models under Prefix in Bucket.
type GCSSink struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

// Store streams r to Prefix/name in the bucket.
func (s GCSSink) Store(ctx context.Context, name string, r io.Reader, _ int64) error {
	key := path.Join(s.Prefix, name)
	w := s.Client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("modelsource: gcs write gs://%s/%s: %w", s.Bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("modelsource: gcs close gs://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}

// String returns the gs:// reference of the prefix.
func (s GCSSink) String() string { return "gs://" + path.Join(s.Bucket, s.Prefix) }
