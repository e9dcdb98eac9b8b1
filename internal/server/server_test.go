package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mingle/internal/blobstore"
	"mingle/internal/cache"
	"mingle/internal/models"
	"mingle/internal/store"
)

// testEnv bundles a server wired to in-process backends with handles on the
// backends so tests can inspect state directly.
type testEnv struct {
	srv     *Server
	handler http.Handler
	store   *store.MemoryStore
	cache   *cache.MemoryCache
	blobs   *blobstore.LocalStore
	pub     *capturePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	postStore := store.NewMemoryStore()
	sessionCache := cache.NewMemoryCache()
	pub := &capturePublisher{}

	blobs, err := blobstore.NewLocalStore(t.TempDir(), "http://mingle.test")
	if err != nil {
		t.Fatalf("create local blob store: %v", err)
	}

	srv := New(Options{
		Addr:              "127.0.0.1:0",
		BaseURL:           "http://mingle.test",
		Store:             postStore,
		Blobs:             blobs,
		LocalMedia:        blobs,
		Cache:             sessionCache,
		Publisher:         pub,
		AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif"},
		SessionTTL:        time.Hour,
	})

	return &testEnv{
		srv:     srv,
		handler: srv.routes(),
		store:   postStore,
		cache:   sessionCache,
		blobs:   blobs,
		pub:     pub,
	}
}

// login mints a session for the principal and returns the cookie to attach.
func (env *testEnv) login(t *testing.T, principal models.Principal) *http.Cookie {
	t.Helper()
	token, _, err := env.srv.sessions.Create(context.Background(), principal)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: token}
}

func (env *testEnv) createPost(t *testing.T, author, content, mediaURL string) models.Post {
	t.Helper()
	post, err := env.srv.posts.Create(context.Background(), CreatePostInput{
		Content:  content,
		Author:   author,
		MediaURL: mediaURL,
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	return w
}

// capturePublisher records published messages and optionally fails.
type capturePublisher struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
}

func (p *capturePublisher) Publish(ctx context.Context, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, append([]byte(nil), message...))
	return nil
}

func (p *capturePublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.messages...)
}

// recordingBlobs records operations in order and optionally fails deletes.
type recordingBlobs struct {
	mu        sync.Mutex
	ops       *opLog
	uploads   []string
	deletes   []string
	deleteErr error
}

func (b *recordingBlobs) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	b.mu.Lock()
	b.uploads = append(b.uploads, key)
	b.mu.Unlock()
	b.ops.record("blob:upload")
	return b.URL(key), nil
}

func (b *recordingBlobs) Delete(ctx context.Context, keyOrURL string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.mu.Lock()
	b.deletes = append(b.deletes, keyOrURL)
	b.mu.Unlock()
	b.ops.record("blob:delete")
	return nil
}

func (b *recordingBlobs) Exists(ctx context.Context, keyOrURL string) (bool, error) {
	key := keyOrURL
	if strings.Contains(keyOrURL, "://") {
		stripped, ok := strings.CutPrefix(keyOrURL, "https://blobs.test/")
		if !ok {
			return false, blobstore.ErrForeignURL
		}
		key = stripped
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, uploaded := range b.uploads {
		if uploaded == key {
			return true, nil
		}
	}
	return false, nil
}

func (b *recordingBlobs) URL(key string) string {
	return "https://blobs.test/" + key
}

// recordingPostStore wraps a PostStore and records mutations in the shared
// operation log.
type recordingPostStore struct {
	store.PostStore
	ops *opLog
}

func (r *recordingPostStore) Delete(ctx context.Context, id string) error {
	if err := r.PostStore.Delete(ctx, id); err != nil {
		return err
	}
	r.ops.record("store:delete")
	return nil
}

type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) record(op string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
}

func (l *opLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ops...)
}

// failingStore makes Delete fail after the wrapped store's Get succeeds.
type failingStore struct {
	store.PostStore
}

func (f *failingStore) Delete(ctx context.Context, id string) error {
	return fmt.Errorf("connection reset")
}
