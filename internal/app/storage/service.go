// Package storage provides the opaque blob store used for message images and
// avatars: bytes go in, a URL comes out.
package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3PublicBaseURL   string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// BlobStore defines the public interface for the file storage service.
type BlobStore interface {
	// Upload stores the object under key and returns the URL it is reachable at.
	Upload(ctx context.Context, key string, mimeType string, data []byte) (string, error)

	// PresignDownload generates a time-limited URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error
}

// NewBlobStore is the factory function for BlobStore. Currently only
// S3-compatible implementations are supported.
func NewBlobStore(cfg ServiceConfig) (BlobStore, error) {
	return newS3Client(cfg)
}
