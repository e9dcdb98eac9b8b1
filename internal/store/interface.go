package store

import (
	"context"
	"errors"

	"mingle/internal/models"
)

// ErrNotFound is returned when no post matches the requested id.
var ErrNotFound = errors.New("post not found")

var (
	errInvalidPost = errors.New("post id is required")
	errDuplicateID = errors.New("post id already exists")
)

// PostStore is the persistence abstraction for posts. Implementations must
// be safe for concurrent use by multiple request handlers.
type PostStore interface {
	// Create persists a new post. The post id must already be set.
	Create(ctx context.Context, post *models.Post) error

	// List returns all posts, newest first.
	List(ctx context.Context) ([]models.Post, error)

	// Get returns the post with the given id, or nil when absent.
	Get(ctx context.Context, id string) (*models.Post, error)

	// Delete removes the post with the given id. Returns ErrNotFound when
	// no such post exists.
	Delete(ctx context.Context, id string) error

	// Exists reports whether a post with the given id exists.
	Exists(ctx context.Context, id string) (bool, error)

	// CountMediaRefs returns how many posts reference the given media
	// address.
	CountMediaRefs(ctx context.Context, mediaURL string) (int64, error)

	// Close releases underlying connections.
	Close(ctx context.Context) error
}
