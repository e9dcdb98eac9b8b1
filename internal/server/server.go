package server

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"mingle/internal/blobstore"
	"mingle/internal/cache"
	"mingle/internal/notify"
	"mingle/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second

	googleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	defaultMaxUploadBytes     int64 = 16 << 20
	defaultMultipartMaxMemory int64 = 8 << 20
)

// OAuthOptions carries the identity provider client settings.
type OAuthOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Options wires the server's collaborators. Store and Cache are required;
// the rest degrade gracefully when absent.
type Options struct {
	Addr               string
	BaseURL            string
	Store              store.PostStore
	Blobs              blobstore.ObjectStore
	LocalMedia         *blobstore.LocalStore
	Cache              cache.Cache
	Publisher          notify.Publisher
	Logger             *slog.Logger
	OAuth              OAuthOptions
	AllowedExtensions  []string
	MaxUploadBytes     int64
	MultipartMaxMemory int64
	SessionTTL         time.Duration
}

// Server wraps the HTTP handlers for the mingle app.
type Server struct {
	addr               string
	baseURL            string
	localMedia         *blobstore.LocalStore
	publisher          notify.Publisher
	posts              *PostService
	sessions           *SessionService
	oauth              *oauth2.Config
	userinfoURL        string
	client             *http.Client
	logger             *slog.Logger
	maxUploadBytes     int64
	multipartMaxMemory int64
}

// New creates a new server instance.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var oauthCfg *oauth2.Config
	if opts.OAuth.ClientID != "" && opts.OAuth.ClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     opts.OAuth.ClientID,
			ClientSecret: opts.OAuth.ClientSecret,
			RedirectURL:  opts.OAuth.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}
	}

	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	multipartMemory := opts.MultipartMaxMemory
	if multipartMemory <= 0 {
		multipartMemory = defaultMultipartMaxMemory
	}

	return &Server{
		addr:               opts.Addr,
		baseURL:            opts.BaseURL,
		localMedia:         opts.LocalMedia,
		publisher:          opts.Publisher,
		posts:              NewPostService(opts.Store, opts.Blobs, opts.Publisher, opts.AllowedExtensions, logger),
		sessions:           NewSessionService(opts.Cache, opts.SessionTTL),
		oauth:              oauthCfg,
		userinfoURL:        googleUserinfoURL,
		logger:             logger,
		maxUploadBytes:     maxUpload,
		multipartMaxMemory: multipartMemory,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return server.ListenAndServe()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
