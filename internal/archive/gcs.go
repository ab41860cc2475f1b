package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSConfig captures the parameters required to archive to Cloud Storage.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// GCSArchive writes page bodies to a configured GCS bucket.
type GCSArchive struct {
	client *storage.Client
	bucket string
}

// NewGCSArchive creates a GCS-backed archive.
func NewGCSArchive(client *storage.Client, cfg GCSConfig) (*GCSArchive, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSArchive{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads the body to the configured bucket and returns a gs:// URI.
func (a *GCSArchive) Put(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	writer := a.client.Bucket(a.bucket).Object(path).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, path), nil
}
