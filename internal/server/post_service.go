package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"mingle/internal/blobstore"
	"mingle/internal/models"
	"mingle/internal/notify"
	"mingle/internal/store"
)

// PostService mediates all post mutations: it gates deletes on authorship
// and keeps the post record and its optional media blob consistent.
type PostService struct {
	store       store.PostStore
	blobs       blobstore.ObjectStore
	publisher   notify.Publisher
	logger      *slog.Logger
	allowedExts map[string]struct{}
}

// MediaUpload describes one inbound media file.
type MediaUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// CreatePostInput describes a post creation request. Author comes from the
// session principal, never from the request body. Media, when set, is
// uploaded as part of creation; MediaURL carries the address of a previously
// uploaded blob.
type CreatePostInput struct {
	Content  string
	Author   string
	Media    *MediaUpload
	MediaURL string
}

// NewPostService constructs a PostService.
func NewPostService(postStore store.PostStore, blobs blobstore.ObjectStore, publisher notify.Publisher, allowedExtensions []string, logger *slog.Logger) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		store:       postStore,
		blobs:       blobs,
		publisher:   publisher,
		logger:      logger,
		allowedExts: extensionSet(allowedExtensions),
	}
}

// UploadMedia validates the file against the extension allow-list, stores it
// under a collision-resistant key, and returns its public address. The
// allow-list check runs before any storage call.
func (s *PostService) UploadMedia(ctx context.Context, in MediaUpload) (string, error) {
	if s == nil || s.blobs == nil {
		return "", internalError(fmt.Errorf("blob store is not configured"))
	}

	ext, err := validateMediaExtension(in.Filename, s.allowedExts)
	if err != nil {
		return "", err
	}
	if in.Content == nil {
		return "", badRequestCode(fmt.Errorf("file content is required"), ErrCodeMissingRequired)
	}

	key := uuid.NewString() + ext
	url, err := s.blobs.Upload(ctx, key, in.ContentType, in.Content)
	if err != nil {
		return "", blobFailure(fmt.Errorf("upload %s: %w", path.Base(in.Filename), err))
	}
	s.logger.Info("media uploaded", "key", key)
	return url, nil
}

// validateMediaURL checks that a client-supplied media address points at an
// object in this blob store. A post must only ever reference a blob the store
// can serve and later remove.
func (s *PostService) validateMediaURL(ctx context.Context, mediaURL string) error {
	if s.blobs == nil {
		return internalError(fmt.Errorf("blob store is not configured"))
	}
	ok, err := s.blobs.Exists(ctx, mediaURL)
	if err != nil {
		if errors.Is(err, blobstore.ErrForeignURL) {
			return badRequestCode(fmt.Errorf("media address does not belong to this application"), ErrCodeInvalidArgument)
		}
		return blobFailure(fmt.Errorf("check media address: %w", err))
	}
	if !ok {
		return badRequestCode(fmt.Errorf("media address does not reference a stored object"), ErrCodeInvalidArgument)
	}
	return nil
}

// Create persists a new post for the author, uploading inline media first
// when present.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (models.Post, error) {
	var zero models.Post
	if s == nil || s.store == nil {
		return zero, internalError(fmt.Errorf("post service is not configured"))
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		return zero, internalError(fmt.Errorf("author identity is required"))
	}

	mediaURL := strings.TrimSpace(in.MediaURL)
	if in.Media != nil {
		url, err := s.UploadMedia(ctx, *in.Media)
		if err != nil {
			return zero, err
		}
		mediaURL = url
	} else if mediaURL != "" {
		if err := s.validateMediaURL(ctx, mediaURL); err != nil {
			return zero, err
		}
	}

	id, err := store.GeneratePostID(func(candidate string) (bool, error) {
		return s.store.Exists(ctx, candidate)
	})
	if err != nil {
		return zero, storeFailure(fmt.Errorf("generate post id: %w", err))
	}

	post := &models.Post{
		ID:        id,
		Content:   strings.TrimSpace(in.Content),
		Author:    author,
		MediaURL:  mediaURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, post); err != nil {
		return zero, storeFailure(fmt.Errorf("create post: %w", err))
	}

	s.logger.Info("post created", "post_id", post.ID, "author", author, "has_media", post.HasMedia())
	return *post, nil
}

// List returns all posts, newest first.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	if s == nil || s.store == nil {
		return nil, internalError(fmt.Errorf("post service is not configured"))
	}
	posts, err := s.store.List(ctx)
	if err != nil {
		return nil, storeFailure(fmt.Errorf("list posts: %w", err))
	}
	return posts, nil
}

// Get returns one post by id.
func (s *PostService) Get(ctx context.Context, id string) (models.Post, error) {
	var zero models.Post
	if s == nil || s.store == nil {
		return zero, internalError(fmt.Errorf("post service is not configured"))
	}

	post, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, storeFailure(fmt.Errorf("get post: %w", err))
	}
	if post == nil {
		return zero, notFound(fmt.Errorf("post %s not found", id))
	}
	return *post, nil
}

// Delete removes a post after checking that requester is its author. The
// media blob is deleted before the document: a blob failure aborts with the
// post intact, while a document failure after blob removal is logged and
// surfaced, leaving a retryable delete.
func (s *PostService) Delete(ctx context.Context, id, requester string) error {
	if s == nil || s.store == nil {
		return internalError(fmt.Errorf("post service is not configured"))
	}

	post, err := s.store.Get(ctx, id)
	if err != nil {
		return storeFailure(fmt.Errorf("get post: %w", err))
	}
	if post == nil {
		return notFound(fmt.Errorf("post %s not found", id))
	}
	if post.Author != strings.TrimSpace(requester) {
		return forbidden(fmt.Errorf("post %s belongs to another user", id))
	}

	removeBlob := false
	if post.HasMedia() {
		if s.blobs == nil {
			return internalError(fmt.Errorf("blob store is not configured"))
		}
		refs, err := s.store.CountMediaRefs(ctx, post.MediaURL)
		if err != nil {
			return storeFailure(fmt.Errorf("count media refs: %w", err))
		}
		// The blob goes only with its last referencing post.
		removeBlob = refs <= 1
		if !removeBlob {
			s.logger.Info("media still referenced, keeping blob", "post_id", id, "media_url", post.MediaURL, "refs", refs)
		}
	}

	if removeBlob {
		if err := s.blobs.Delete(ctx, post.MediaURL); err != nil {
			return blobFailure(fmt.Errorf("delete media for post %s: %w", id, err))
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost a race with a concurrent delete.
			return notFound(fmt.Errorf("post %s not found", id))
		}
		if removeBlob {
			s.logger.Error("post delete failed after media removal", "post_id", id, "media_url", post.MediaURL, "error", err)
		}
		return storeFailure(fmt.Errorf("delete post: %w", err))
	}

	s.logger.Info("post deleted", "post_id", id, "author", requester)

	if removeBlob {
		s.notifyMediaDeleted(ctx, post.MediaURL)
	}
	return nil
}

// notifyMediaDeleted publishes a best-effort notification naming the removed
// blob. Publish failures are logged, never surfaced.
func (s *PostService) notifyMediaDeleted(ctx context.Context, mediaURL string) {
	if s.publisher == nil {
		return
	}
	message, err := json.Marshal(map[string]string{"filename": path.Base(mediaURL)})
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, message); err != nil {
		s.logger.Warn("media delete notification failed", "media_url", mediaURL, "error", err)
	}
}
