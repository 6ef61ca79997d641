// Package gcsstore reads and writes objects in Google Cloud Storage and
// resolves input paths that may be either local files or gs:// URIs.
package gcsstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const uriScheme = "gs://"

// Store is the concrete implementation of Storage backed by GCS.
type Store struct {
	opts []option.ClientOption
}

// New creates a Store. An empty credentialsFile uses Application Default
// Credentials.
func New(credentialsFile string) *Store {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return &Store{opts: opts}
}

// IsGCSURI reports whether s names a GCS object.
func IsGCSURI(s string) bool {
	return strings.HasPrefix(s, uriScheme)
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsGCSURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, uriScheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// ExtractFilenameFromGCSURI extracts the filename from a GCS URI.
// e.g., "gs://bucket/folder/file.csv" → "file.csv"
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, uriScheme)

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// FetchFromGCS downloads the object bytes from the given GCS URI.
func (s *Store) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}
	return data, nil
}

// UploadBytes writes data to the object named by gcsURI.
func (s *Store) UploadBytes(ctx context.Context, gcsURI string, data []byte, contentType string) error {
	bucketName, objectPath, err := ParseGCSURI(gcsURI)
	if err != nil {
		return err
	}

	client, err := storage.NewClient(ctx, s.opts...)
	if err != nil {
		return fmt.Errorf("UploadBytes: creating storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("UploadBytes: copy to GCS writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("UploadBytes: finalize upload: %w", err)
	}
	return nil
}

// ReadSource returns the bytes behind a local path or gs:// URI.
func (s *Store) ReadSource(ctx context.Context, pathOrURI string) ([]byte, error) {
	return ReadSource(ctx, s, pathOrURI)
}

// WriteTarget writes data to a local path or gs:// URI.
func (s *Store) WriteTarget(ctx context.Context, pathOrURI string, data []byte, contentType string) error {
	return WriteTarget(ctx, s, pathOrURI, data, contentType)
}

// ReadSource reads a local file, or fetches through f when pathOrURI is a
// gs:// URI.
func ReadSource(ctx context.Context, f Fetcher, pathOrURI string) ([]byte, error) {
	if IsGCSURI(pathOrURI) {
		if f == nil {
			return nil, fmt.Errorf("ReadSource: no storage client for %s", pathOrURI)
		}
		return f.FetchFromGCS(ctx, pathOrURI)
	}

	data, err := os.ReadFile(pathOrURI)
	if err != nil {
		return nil, fmt.Errorf("ReadSource: read %q: %w", pathOrURI, err)
	}
	return data, nil
}

// WriteTarget writes a local file, or uploads through u when pathOrURI is a
// gs:// URI.
func WriteTarget(ctx context.Context, u Uploader, pathOrURI string, data []byte, contentType string) error {
	if IsGCSURI(pathOrURI) {
		if u == nil {
			return fmt.Errorf("WriteTarget: no storage client for %s", pathOrURI)
		}
		return u.UploadBytes(ctx, pathOrURI, data, contentType)
	}

	if err := os.WriteFile(pathOrURI, data, 0o644); err != nil {
		return fmt.Errorf("WriteTarget: write %q: %w", pathOrURI, err)
	}
	return nil
}
