// Package s3 implements a kv.Store keeping one object per key in an S3
// compatible bucket (AWS S3 or MinIO).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bodgit/pixeloverlay/kv"
)

// API is the subset of *s3.Client used by Store.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store implements kv.Store on a single bucket. Keys are stored under an
// optional prefix.
type Store struct {
	client API
	bucket string
	prefix string
}

// Config holds explicit construction parameters.
type Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"` // optional, e.g. MinIO
	PathStyle bool   `yaml:"path_style"`
}

// Environment variables:
//   PIXELOVERLAY_S3_BUCKET=<bucket> (required)
//   PIXELOVERLAY_S3_REGION=<region> (default us-east-1)
//   PIXELOVERLAY_S3_PREFIX=<prefix>
//   PIXELOVERLAY_S3_ENDPOINT=<url>
//   PIXELOVERLAY_S3_PATH_STYLE=true|false
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// ConfigFromEnv fills in any unset fields of cfg from the environment.
func ConfigFromEnv(cfg Config) Config {
	if cfg.Bucket == "" {
		cfg.Bucket = os.Getenv("PIXELOVERLAY_S3_BUCKET")
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("PIXELOVERLAY_S3_REGION")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = os.Getenv("PIXELOVERLAY_S3_PREFIX")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("PIXELOVERLAY_S3_ENDPOINT")
	}
	if !cfg.PathStyle {
		cfg.PathStyle = strings.EqualFold(os.Getenv("PIXELOVERLAY_S3_PATH_STYLE"), "true")
	}
	return cfg
}

// New creates a store using the default AWS credentials chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient returns a store using an existing client.
func NewWithClient(client API, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// Driver returns the driver identifier.
func (s *Store) Driver() kv.Driver { return kv.DriverS3 }

func (s *Store) objectKey(key string) string {
	return s.prefix + key
}

// Get returns the contents of the object for key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", fmt.Errorf("%w: %s", kv.ErrNotFound, key)
		}
		return "", err
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Set replaces the object for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	return err
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
