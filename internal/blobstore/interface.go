package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrForeignURL is returned when a delete target does not belong to this store.
var ErrForeignURL = errors.New("address does not belong to this blob store")

// ObjectStore is the byte-storage abstraction behind media uploads. Upload
// returns the public address of the stored object; Delete and Exists accept
// either a bare key or a full public address. Implementations must be safe
// for concurrent use.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, keyOrURL string) error
	Exists(ctx context.Context, keyOrURL string) (bool, error)
	URL(key string) string
}
