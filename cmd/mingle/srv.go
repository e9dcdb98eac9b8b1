package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mingle/internal/blobstore"
	"mingle/internal/cache"
	"mingle/internal/config"
	"mingle/internal/logging"
	"mingle/internal/notify"
	"mingle/internal/secrets"
	"mingle/internal/server"
	"mingle/internal/store"
)

func newSrvCmd(cfg config.Config) *cobra.Command {
	var devMode bool
	var mediaDir string

	cmd := &cobra.Command{
		Use:   "srv",
		Short: "Run the mingle web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			level := logLevelVar()

			logger, closeLogs := logging.Setup(ctx, cfg.Google.ProjectID, cfg.Google.LogName, cfg.Environment, level)
			defer func() { _ = closeLogs() }()

			// Overlay vault secrets onto the startup config. An unreachable
			// vault degrades to the configured values.
			if provider, err := secrets.New(ctx, logger); err != nil {
				logger.Warn("secret provider unavailable, using local configuration", "error", err)
			} else {
				cfg = provider.Apply(ctx, cfg)
				_ = provider.Close()
			}

			var postStore store.PostStore
			if devMode {
				logger.Warn("dev mode: posts are stored in memory")
				postStore = store.NewMemoryStore()
			} else {
				mongoStore, err := store.OpenMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
				if err != nil {
					return fmt.Errorf("open document store: %w", err)
				}
				postStore = mongoStore
			}
			defer func() { _ = postStore.Close(ctx) }()

			var sessionCache cache.Cache
			if cfg.Redis.URL != "" && !devMode {
				redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.URL)
				if err != nil {
					logger.Warn("cache unavailable, sessions are held in memory", "error", err)
					sessionCache = cache.NewMemoryCache()
				} else {
					defer func() { _ = redisCache.Close() }()
					sessionCache = redisCache
				}
			} else {
				sessionCache = cache.NewMemoryCache()
			}

			var blobs blobstore.ObjectStore
			var localMedia *blobstore.LocalStore
			if cfg.Google.StorageBucket != "" && !devMode {
				gcs, err := blobstore.NewGCSStore(ctx, cfg.Google.StorageBucket, cfg.Google.CredentialsFile)
				if err != nil {
					return fmt.Errorf("open blob store: %w", err)
				}
				defer func() { _ = gcs.Close() }()
				blobs = gcs
			} else {
				logger.Warn("no storage bucket configured, media is stored on local disk", "dir", mediaDir)
				local, err := blobstore.NewLocalStore(mediaDir, cfg.BaseURL)
				if err != nil {
					return fmt.Errorf("open local media store: %w", err)
				}
				localMedia = local
				blobs = local
			}

			var publisher notify.Publisher
			if cfg.Google.ProjectID != "" && !devMode {
				pub, err := notify.NewPubSubPublisher(ctx, cfg.Google.ProjectID, cfg.Google.PubSubTopic)
				if err != nil {
					logger.Warn("notification publisher unavailable", "error", err)
				} else {
					defer func() { _ = pub.Close() }()
					publisher = pub
				}
			}

			redirectURL := cfg.Google.OAuthRedirectURL
			if redirectURL == "" {
				redirectURL = cfg.BaseURL + "/auth/callback"
			}

			srv := server.New(server.Options{
				Addr:       cfg.Addr,
				BaseURL:    cfg.BaseURL,
				Store:      postStore,
				Blobs:      blobs,
				LocalMedia: localMedia,
				Cache:      sessionCache,
				Publisher:  publisher,
				Logger:     logger.With("component", "server"),
				OAuth: server.OAuthOptions{
					ClientID:     cfg.Google.ClientID,
					ClientSecret: cfg.Google.ClientSecret,
					RedirectURL:  redirectURL,
				},
				AllowedExtensions:  cfg.Media.AllowedExtensions,
				MaxUploadBytes:     cfg.Media.MaxUploadBytes,
				MultipartMaxMemory: cfg.Media.MultipartMaxMemory,
				SessionTTL:         time.Duration(cfg.Session.TTLHours) * time.Hour,
			})
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().BoolVar(&devMode, "dev", false, "run with in-memory store, cache, and local media")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "./media", "directory for locally stored media")

	return cmd
}
