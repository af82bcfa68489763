package storage

import (
	"context"
	"io"
	"time"
)

// StorageProvider persists invoice documents. Objects are private; reads
// by browsers go through time-limited URLs from GetURL.
type StorageProvider interface {
	Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error)
	Download(ctx context.Context, key string) (*DownloadResponse, error)
	Delete(ctx context.Context, key string) error
	GetURL(ctx context.Context, key string, expiration time.Duration) (string, error)
	FileExists(ctx context.Context, key string) (bool, error)
}

type UploadRequest struct {
	Key         string
	Reader      io.Reader
	Size        int64
	ContentType string
}

type UploadResponse struct {
	Key  string
	Size int64
	ETag string
}

type DownloadResponse struct {
	Reader       io.ReadCloser
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}
