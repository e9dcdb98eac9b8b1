package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStore stores media objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a storage client for the given bucket. A credentials
// file is optional; without one the ambient application default credentials
// are used.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile = strings.TrimSpace(credentialsFile); credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Upload writes the object and returns its public address.
func (s *GCSStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("blob store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if r == nil {
		return "", fmt.Errorf("reader is required")
	}

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes an object by key or public address. Deleting a missing
// object is not an error.
func (s *GCSStore) Delete(ctx context.Context, keyOrURL string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("blob store is not configured")
	}
	key, err := s.keyFromAddress(keyOrURL)
	if err != nil {
		return err
	}

	err = s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Exists reports whether an object is stored in this bucket. Addresses under
// a different prefix return ErrForeignURL.
func (s *GCSStore) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	if s == nil || s.client == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	key, err := s.keyFromAddress(keyOrURL)
	if err != nil {
		return false, err
	}

	_, err = s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", key, err)
	}
	return true, nil
}

// URL returns the public address for a stored object key.
func (s *GCSStore) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", gcsPublicHost, s.bucket, key)
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *GCSStore) keyFromAddress(keyOrURL string) (string, error) {
	return resolveKey(keyOrURL, fmt.Sprintf("%s/%s/", gcsPublicHost, s.bucket))
}
