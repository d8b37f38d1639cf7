package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/diamond-entries/internal/entries"
)

// GCSConfig names the object the dataset is mirrored to.
type GCSConfig struct {
	Bucket string
	Object string
}

// GCSSink uploads the encoded dataset to Cloud Storage.
type GCSSink struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSSink validates cfg and wraps client.
func NewGCSSink(client *storage.Client, cfg GCSConfig) (*GCSSink, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if strings.TrimSpace(cfg.Object) == "" {
		return nil, fmt.Errorf("object name is required")
	}
	return &GCSSink{client: client, bucket: cfg.Bucket, object: cfg.Object}, nil
}

// URI returns the gs:// location written by the sink.
func (s *GCSSink) URI() string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.object)
}

// Write implements Sink.
func (s *GCSSink) Write(ctx context.Context, e entries.Entries) error {
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	writer := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := io.Copy(writer, bytes.NewReader(payload)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("upload %s: %w (close writer: %v)", s.URI(), err, closeErr)
		}
		return fmt.Errorf("upload %s: %w", s.URI(), err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", s.URI(), err)
	}
	return nil
}

// Close releases the storage client.
func (s *GCSSink) Close() error {
	return s.client.Close()
}
