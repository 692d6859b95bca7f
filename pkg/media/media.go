package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/portal/pkg/content"
)

// Default configuration values.
const (
	DefaultRegion = "us-east-1"
	DefaultExpiry = 15 * time.Minute
)

// Config holds S3-compatible storage configuration.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string `env:"MEDIA_BUCKET"`

	// AccessKey is the AWS access key ID (required).
	AccessKey string `env:"MEDIA_ACCESS_KEY"`

	// SecretKey is the AWS secret access key (required).
	SecretKey string `env:"MEDIA_SECRET_KEY"`

	// Endpoint is the custom S3 endpoint URL (optional, for MinIO or other S3-compatible services).
	Endpoint string `env:"MEDIA_ENDPOINT"`

	// Region is the AWS region (default: us-east-1).
	Region string `env:"MEDIA_REGION" envDefault:"us-east-1"`

	// PublicURL is the CDN or public URL prefix. Ignored when Signed is set.
	PublicURL string `env:"MEDIA_PUBLIC_URL"`

	// Signed makes URL return presigned URLs for private buckets.
	Signed bool `env:"MEDIA_SIGNED"`

	// Expiry is the lifetime of presigned URLs (default: 15 minutes).
	Expiry time.Duration `env:"MEDIA_URL_EXPIRY" envDefault:"15m"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `env:"MEDIA_PATH_STYLE"`
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Expiry <= 0 {
		c.Expiry = DefaultExpiry
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// Info is the metadata of a stored file.
type Info struct {
	Key         string
	ContentType string
	Size        int64
}

// Store resolves attachment files in one bucket.
type Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       Config
}

// New creates a Store with the given configuration.
func New(cfg Config) (*Store, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)
		},
	}

	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	client := s3.New(s3.Options{}, opts...)
	return &Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		cfg:       cfg,
	}, nil
}

// URL returns the URL of the file attached to it.
func (s *Store) URL(ctx context.Context, it content.Item) (string, error) {
	if it.FileKey == "" {
		return "", fmt.Errorf("%w: item %d", ErrNoFile, it.ID)
	}
	key := strings.TrimPrefix(it.FileKey, "/")
	if s.cfg.Signed {
		return s.signedURL(ctx, key)
	}
	return s.publicURL(key), nil
}

// Stat returns the metadata of the file under key without downloading it.
func (s *Store) Stat(ctx context.Context, key string) (Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Info{}, wrapS3Error(err, ErrNotFound)
	}
	return Info{
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

// Healthcheck returns a readiness check that the bucket is reachable.
func (s *Store) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
		if err != nil {
			return wrapS3Error(err, ErrUnavailable)
		}
		return nil
	}
}

func (s *Store) publicURL(key string) string {
	key = escapeKey(key)
	if s.cfg.PublicURL != "" {
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + key
	}

	if s.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(s.cfg.Endpoint, "/")
		if s.cfg.PathStyle {
			return fmt.Sprintf("%s/%s/%s", endpoint, s.cfg.Bucket, key)
		}
		return fmt.Sprintf("%s/%s", endpoint, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func (s *Store) signedURL(ctx context.Context, key string) (string, error) {
	res, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = s.cfg.Expiry
	})
	if err != nil {
		return "", wrapS3Error(err, ErrPresignFailed)
	}
	return res.URL, nil
}

// escapeKey escapes each path segment of key.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
