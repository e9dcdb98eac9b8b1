package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mingle/internal/models"
)

// MemoryStore is an in-process PostStore used by tests and bucketless
// development runs. It honors the same contract as the Mongo store.
type MemoryStore struct {
	mu    sync.RWMutex
	posts map[string]models.Post
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{posts: make(map[string]models.Post)}
}

func (m *MemoryStore) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if post == nil || strings.TrimSpace(post.ID) == "" {
		return errInvalidPost
	}
	post.NormalizeForWrite()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[post.ID]; ok {
		return errDuplicateID
	}
	m.posts[post.ID] = *post
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUnix != out[j].CreatedAtUnix {
			return out[i].CreatedAtUnix > out[j].CreatedAtUnix
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	out := p
	return &out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.posts[id]
	return ok, nil
}

func (m *MemoryStore) CountMediaRefs(ctx context.Context, mediaURL string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if mediaURL == "" {
		return 0, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, p := range m.posts {
		if p.MediaURL == mediaURL {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}
