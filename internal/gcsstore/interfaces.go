package gcsstore

import (
	"context"
)

// Fetcher downloads object bytes from a gs:// URI.
type Fetcher interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}

// Uploader writes object bytes to a gs:// URI.
type Uploader interface {
	UploadBytes(ctx context.Context, gcsURI string, data []byte, contentType string) error
}

// Storage provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type Storage interface {
	Fetcher
	Uploader
}

var _ Storage = (*Store)(nil)
