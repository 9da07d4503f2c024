/*
Package storage signs object references held by S3-compatible storage.

Avatar keys stored against users are turned into short-lived download URLs
when a message is enriched, so clients never see bucket credentials.
*/
package storage

import (
	"context"
	"errors"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Region defaults to "auto", which S3-compatible providers accept.
	Region string
}

// ErrEmptyKey is returned when asked to sign an empty object key.
var ErrEmptyKey = errors.New("object key is empty")

// Signer produces time-limited download URLs for stored objects.
type Signer interface {
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)
}

// NewSigner is the factory function for Signer.
// Currently only S3-compatible implementations are supported.
func NewSigner(ctx context.Context, cfg ServiceConfig) (Signer, error) {
	return newS3Client(ctx, cfg)
}
