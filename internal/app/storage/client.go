package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"chatcore/internal/pkg/logx"
)

// maxPresignTTL is the longest expiry SigV4 query signing accepts.
const maxPresignTTL = 7 * 24 * time.Hour

// defaultPresignTTL applies when the caller passes a non-positive duration.
const defaultPresignTTL = 15 * time.Minute

// s3Client implements Signer against an S3-compatible endpoint.
type s3Client struct {
	bucket  string
	presign *s3.PresignClient
}

// newS3Client initializes the S3 client using a custom configuration that supports S3-compatible endpoints.
func newS3Client(ctx context.Context, cfg ServiceConfig) (*s3Client, error) {
	if cfg.S3BucketName == "" || cfg.S3Endpoint == "" {
		return nil, errors.New("S3 bucket name and endpoint are required")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client configuration: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		bucket:  cfg.S3BucketName,
		presign: s3.NewPresignClient(client),
	}, nil
}

// PresignDownload generates a presigned URL for downloading the specified file key.
func (c *s3Client) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	switch {
	case duration <= 0:
		duration = defaultPresignTTL
	case duration > maxPresignTTL:
		duration = maxPresignTTL
	}

	resp, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(duration))
	if err != nil {
		logx.Error(err, "Failed to generate presigned URL", "key", key)
		return "", fmt.Errorf("presign download of %s: %w", key, err)
	}

	return resp.URL, nil
}
