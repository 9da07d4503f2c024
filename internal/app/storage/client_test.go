package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignDownload(t *testing.T) {
	signer, err := NewSigner(context.Background(), ServiceConfig{
		S3BucketName:      "avatars",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "AKIDEXAMPLE",
		S3SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	raw, err := signer.PresignDownload(context.Background(), "users/u1.png", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/avatars/users/u1.png", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	_, err = signer.PresignDownload(context.Background(), "", time.Minute)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestPresignDownloadClampsExpiry(t *testing.T) {
	signer, err := NewSigner(context.Background(), ServiceConfig{
		S3BucketName:      "avatars",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "AKIDEXAMPLE",
		S3SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	tests := []struct {
		ttl  time.Duration
		want string
	}{
		{0, "900"},
		{30 * 24 * time.Hour, "604800"},
	}

	for _, tt := range tests {
		raw, err := signer.PresignDownload(context.Background(), "users/u1.png", tt.ttl)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, u.Query().Get("X-Amz-Expires"), tt.ttl.String())
	}
}

func TestNewSignerRequiresBucket(t *testing.T) {
	_, err := NewSigner(context.Background(), ServiceConfig{S3Endpoint: "http://localhost:9000"})
	assert.Error(t, err)
}
