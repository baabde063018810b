package modelsource

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig configures the client used for minio:// references.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// NewMinIOClient builds a MinIO client with static credentials.
func NewMinIOClient(cfg MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("modelsource: minio endpoint is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("modelsource: minio client: %w", err)
	}
	return client, nil
}

func isMinIONotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// MinIO reads a model object from MinIO or another S3-compatible store.
type MinIO struct {
	Client *minio.Client
	Bucket string
	Object string
}

// Fetch downloads the object. A missing object or bucket wraps ErrNotFound.
func (m MinIO) Fetch(ctx context.Context) (*Payload, error) {
	obj, err := m.Client.GetObject(ctx, m.Bucket, m.Object, minio.GetObjectOptions{})
	if err != nil {
		if isMinIONotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, m)
		}
		return nil, fmt.Errorf("modelsource: get %s: %w", m, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isMinIONotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, m)
		}
		return nil, fmt.Errorf("modelsource: read %s: %w", m, err)
	}
	return NewPayload(data, nil), nil
}

// String returns the minio:// reference of the object.
func (m MinIO) String() string { return "minio://" + m.Bucket + "/" + m.Object }

// MinIOSink uploads saved models under Prefix in Bucket.
type MinIOSink struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

// Store uploads r to Prefix/name. A non-positive size lets the client
// stream the upload in parts.
func (s MinIOSink) Store(ctx context.Context, name string, r io.Reader, size int64) error {
	key := path.Join(s.Prefix, name)
	if size <= 0 {
		size = -1
	}
	_, err := s.Client.PutObject(ctx, s.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("modelsource: put minio://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}

// String returns the minio:// reference of the prefix.
func (s MinIOSink) String() string { return "minio://" + path.Join(s.Bucket, s.Prefix) }
