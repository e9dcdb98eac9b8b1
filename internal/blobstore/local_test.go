package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "http://127.0.0.1:8080")
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	return s
}

func TestLocalStoreUploadAndOpen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url, err := s.Upload(ctx, "abc123.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "http://127.0.0.1:8080/media/abc123.png" {
		t.Fatalf("unexpected url: %q", url)
	}

	rc, err := s.Open(ctx, "abc123.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestLocalStoreDeleteByKeyAndByURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"one.jpg", "two.jpg"} {
		if _, err := s.Upload(ctx, key, "image/jpeg", strings.NewReader("x")); err != nil {
			t.Fatalf("upload %s: %v", key, err)
		}
	}

	if err := s.Delete(ctx, "one.jpg"); err != nil {
		t.Fatalf("delete by key: %v", err)
	}
	if err := s.Delete(ctx, "http://127.0.0.1:8080/media/two.jpg"); err != nil {
		t.Fatalf("delete by url: %v", err)
	}

	for _, key := range []string{"one.jpg", "two.jpg"} {
		if _, err := s.Open(ctx, key); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s to be gone, got %v", key, err)
		}
	}
}

func TestLocalStoreDeleteMissingIsNoError(t *testing.T) {
	s := newTestStore(t)
	if err := s.Delete(context.Background(), "never-existed.png"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestLocalStoreRejectsForeignURL(t *testing.T) {
	s := newTestStore(t)
	err := s.Delete(context.Background(), "https://elsewhere.example.com/media/x.png")
	if !errors.Is(err, ErrForeignURL) {
		t.Fatalf("expected ErrForeignURL, got %v", err)
	}
}

func TestLocalStoreRejectsTraversalKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"../escape.png", "/abs.png", "a/../../b.png", "  "} {
		if _, err := s.Upload(ctx, key, "", strings.NewReader("x")); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}

func TestResolveKey(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		prefix  string
		want    string
		wantErr bool
	}{
		{"bare key", "abc.png", "http://h/media/", "abc.png", false},
		{"full url", "http://h/media/abc.png", "http://h/media/", "abc.png", false},
		{"nested key", "http://h/media/a/b.png", "http://h/media/", "a/b.png", false},
		{"foreign url", "http://other/media/abc.png", "http://h/media/", "", true},
		{"empty", "", "http://h/media/", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveKey(tc.in, tc.prefix)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestLocalStoreUploadCreatesNestedDirs(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root, "http://127.0.0.1:8080")
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if _, err := s.Upload(context.Background(), "2025/06/pic.gif", "image/gif", strings.NewReader("g")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "2025", "06", "pic.gif")); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
}

func TestLocalStoreExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url, err := s.Upload(ctx, "present.png", "image/png", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	t.Run("by key", func(t *testing.T) {
		ok, err := s.Exists(ctx, "present.png")
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if !ok {
			t.Fatal("stored object reported absent")
		}
	})

	t.Run("by url", func(t *testing.T) {
		ok, err := s.Exists(ctx, url)
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if !ok {
			t.Fatal("stored object reported absent by url")
		}
	})

	t.Run("missing object", func(t *testing.T) {
		ok, err := s.Exists(ctx, "never-stored.png")
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if ok {
			t.Fatal("missing object reported present")
		}
	})

	t.Run("foreign url", func(t *testing.T) {
		_, err := s.Exists(ctx, "https://elsewhere.example/media/present.png")
		if !errors.Is(err, ErrForeignURL) {
			t.Fatalf("expected ErrForeignURL, got %v", err)
		}
	})
}
