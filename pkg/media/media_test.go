package media

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portal/pkg/content"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		s, err := New(Config{Bucket: "b", AccessKey: "a", SecretKey: "s"})
		require.NoError(t, err)
		require.NotNil(t, s.client)
		require.NotNil(t, s.presigner)
		assert.Equal(t, DefaultRegion, s.cfg.Region)
		assert.Equal(t, DefaultExpiry, s.cfg.Expiry)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		s, err := New(Config{Bucket: "b"})
		require.ErrorIs(t, err, ErrInvalidConfig)
		require.Nil(t, s)
	})
}

func TestStore_URL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	photo := content.Item{ID: 30, Type: content.TypeAttachment, FileKey: "2024/03/summer beach.jpg"}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "default S3 URL",
			cfg:  Config{Bucket: "site", Region: "eu-west-1"},
			want: "https://site.s3.eu-west-1.amazonaws.com/2024/03/summer%20beach.jpg",
		},
		{
			name: "cdn with trailing slash",
			cfg:  Config{Bucket: "site", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/2024/03/summer%20beach.jpg",
		},
		{
			name: "path style endpoint",
			cfg:  Config{Bucket: "site", Endpoint: "http://localhost:9000", PathStyle: true},
			want: "http://localhost:9000/site/2024/03/summer%20beach.jpg",
		},
		{
			name: "virtual host endpoint",
			cfg:  Config{Bucket: "site", Endpoint: "http://localhost:9000"},
			want: "http://localhost:9000/2024/03/summer%20beach.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &Store{cfg: tt.cfg}
			got, err := s.URL(ctx, photo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("item without file", func(t *testing.T) {
		t.Parallel()
		s := &Store{cfg: Config{Bucket: "site"}}
		_, err := s.URL(ctx, content.Item{ID: 10})
		require.ErrorIs(t, err, ErrNoFile)
	})

	t.Run("presigned", func(t *testing.T) {
		t.Parallel()
		s, err := New(Config{
			Bucket:    "site",
			AccessKey: "AKIDEXAMPLE",
			SecretKey: "secret",
			Endpoint:  "http://localhost:9000",
			PathStyle: true,
			Signed:    true,
		})
		require.NoError(t, err)

		raw, err := s.URL(ctx, photo)
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", u.Host)
		assert.Equal(t, "/site/2024/03/summer%20beach.jpg", u.EscapedPath())
		assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
		assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	})
}

func TestWrapS3Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no such key", &smithy.GenericAPIError{Code: "NoSuchKey"}, ErrNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrAccessDenied},
		{"other api error", &smithy.GenericAPIError{Code: "SlowDown"}, ErrUnavailable},
		{"plain error", errors.New("dial tcp"), ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, wrapS3Error(tt.err, ErrUnavailable), tt.want)
		})
	}
}
