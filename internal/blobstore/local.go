package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore stores media objects as key-addressed files under a root
// directory. It is used in development runs where no bucket is configured;
// the server exposes its objects under /media/.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a local store rooted at root. baseURL is the public
// address prefix of the serving process, e.g. http://127.0.0.1:8080.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}, nil
}

func (s *LocalStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if s == nil {
		return "", fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return "", fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return s.URL(strings.TrimSpace(key)), nil
}

// Delete removes an object by key or public address. Missing files are ignored.
func (s *LocalStore) Delete(ctx context.Context, keyOrURL string) error {
	if s == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := resolveKey(keyOrURL, s.baseURL+"/media/")
	if err != nil {
		return err
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether an object is stored here. Addresses under a
// different prefix return ErrForeignURL.
func (s *LocalStore) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := resolveKey(keyOrURL, s.baseURL+"/media/")
	if err != nil {
		return false, err
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalStore) URL(key string) string {
	return fmt.Sprintf("%s/media/%s", s.baseURL, key)
}

// Open returns a reader for a stored object; the server uses it to serve /media/.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *LocalStore) pathFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("object key must be relative")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.Contains(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key")
	}
	return filepath.Join(s.root, clean), nil
}

// resolveKey turns a bare key or a full public address into a bare key.
// Addresses under a different prefix are rejected with ErrForeignURL.
func resolveKey(keyOrURL, publicPrefix string) (string, error) {
	value := strings.TrimSpace(keyOrURL)
	if value == "" {
		return "", fmt.Errorf("object key is required")
	}
	if !strings.Contains(value, "://") {
		return value, nil
	}
	if key, ok := strings.CutPrefix(value, publicPrefix); ok && key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%w: %s", ErrForeignURL, value)
}
