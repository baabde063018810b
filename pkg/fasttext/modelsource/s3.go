package modelsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures the S3 client used for s3:// references.
type S3Config struct {
	Region string `yaml:"region"`
	// Endpoint overrides the S3 endpoint (LocalStack and similar). Path-style
	// addressing is enabled when it is set.
	Endpoint string `yaml:"endpoint"`
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("modelsource: load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3 reads a model object from Amazon S3.
type S3 struct {
	Client *s3.Client
	Bucket string
	Key    string
}

// Fetch downloads the object with the transfer manager. A missing key wraps
// ErrNotFound.
func (s S3) Fetch(ctx context.Context) (*Payload, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := manager.NewDownloader(s.Client).Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s)
		}
		return nil, fmt.Errorf("modelsource: download %s: %w", s, err)
	}
	return NewPayload(buf.Bytes(), nil), nil
}

// String returns the s3:// reference of the object.
func (s S3) String() string { return "s3://" + s.Bucket + "/" + s.Key }

// S3Sink uploads saved models under Prefix in Bucket.
type S3Sink struct {
	Client *s3.Client
	Bucket string
	Prefix string
}

// Store uploads r to Prefix/name with the transfer manager.
func (s S3Sink) Store(ctx context.Context, name string, r io.Reader, _ int64) error {
	key := path.Join(s.Prefix, name)
	_, err := manager.NewUploader(s.Client).Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("modelsource: upload s3://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}

// String returns the s3:// reference of the prefix.
func (s S3Sink) String() string { return "s3://" + path.Join(s.Bucket, s.Prefix) }
