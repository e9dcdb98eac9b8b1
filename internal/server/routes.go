package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /health", s.handleHealth)

	// Identity/session.
	mux.HandleFunc("GET /login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleOAuthCallback)
	mux.HandleFunc("GET /logout", s.handleLogout)

	// Feed and post lifecycle.
	mux.HandleFunc("GET /{$}", s.requireBrowserSession(s.handleFeed))
	mux.HandleFunc("POST /posts", s.requireBrowserSession(s.handleCreatePost))
	mux.HandleFunc("POST /posts/media", s.requireSession(s.handleUploadMedia))
	mux.HandleFunc("GET /posts/{id}", s.requireSession(s.handleGetPost))
	mux.HandleFunc("POST /posts/{id}/delete", s.requireSession(s.handleDeletePost))

	// Notification hook.
	mux.HandleFunc("POST /api/pubsub/publish", s.handlePublish)

	// Media objects are served directly only with the local blob store.
	if s.localMedia != nil {
		mux.HandleFunc("GET /media/{key...}", s.handleMedia)
	}

	return s.withRequestLogging(mux)
}
