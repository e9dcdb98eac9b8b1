package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultBaseURL         = "http://127.0.0.1:8080"
	DefaultEnvironment     = "development"
	DefaultLogName         = "mingle-app-logs"
	DefaultPubSubTopic     = "mingle-notifications"
	DefaultMongoURI        = "mongodb://127.0.0.1:27017"
	DefaultMongoDB         = "mingle"
	DefaultSessionTTLHours = 24

	DefaultMediaMaxUploadBytes  int64 = 16 * 1024 * 1024
	DefaultMediaMultipartMemory int64 = 8 * 1024 * 1024

	configFileName  = ".mingle.toml"
	configDirEnvKey = "MINGLE_CONFIG_DIR"
	envPrefix       = "MINGLE_"
)

// DefaultMediaExtensions is the image extension allow-list for uploads.
var DefaultMediaExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// GoogleConfig holds Google Cloud and OAuth settings.
type GoogleConfig struct {
	ProjectID        string `toml:"project_id"`
	ClientID         string `toml:"client_id"`
	ClientSecret     string `toml:"client_secret"`
	CredentialsFile  string `toml:"credentials_file"`
	StorageBucket    string `toml:"storage_bucket"`
	LogName          string `toml:"log_name"`
	PubSubTopic      string `toml:"pubsub_topic"`
	OAuthRedirectURL string `toml:"oauth_redirect_url"`
}

// MongoConfig holds document store settings.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig holds cache settings.
type RedisConfig struct {
	URL string `toml:"url"`
}

// MediaConfig holds upload policy settings.
type MediaConfig struct {
	MaxUploadBytes     int64    `toml:"max_upload_bytes"`
	MultipartMaxMemory int64    `toml:"multipart_max_memory"`
	AllowedExtensions  []string `toml:"allowed_extensions"`
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	TTLHours int `toml:"ttl_hours"`
}

// Config defines runtime configuration for mingle. It is assembled once
// during startup (file, .env, env overrides, then the secret overlay) and
// never mutated afterwards.
type Config struct {
	Addr        string        `toml:"addr"`
	BaseURL     string        `toml:"base_url"`
	Environment string        `toml:"environment"`
	Google      GoogleConfig  `toml:"google"`
	Mongo       MongoConfig   `toml:"mongo"`
	Redis       RedisConfig   `toml:"redis"`
	Media       MediaConfig   `toml:"media"`
	Session     SessionConfig `toml:"session"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		Addr:        DefaultAddr,
		BaseURL:     DefaultBaseURL,
		Environment: DefaultEnvironment,
		Google: GoogleConfig{
			LogName:     DefaultLogName,
			PubSubTopic: DefaultPubSubTopic,
		},
		Mongo: MongoConfig{
			URI:      DefaultMongoURI,
			Database: DefaultMongoDB,
		},
		Media: MediaConfig{
			MaxUploadBytes:     DefaultMediaMaxUploadBytes,
			MultipartMaxMemory: DefaultMediaMultipartMemory,
			AllowedExtensions:  append([]string(nil), DefaultMediaExtensions...),
		},
		Session: SessionConfig{TTLHours: DefaultSessionTTLHours},
	}
}

// IsDevelopment reports whether the process runs in the development environment.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "development")
}

// Path returns the config file path, honoring the MINGLE_CONFIG_DIR override.
func Path() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// Load reads config from the config file, a local .env file, and environment
// overrides, in that order of increasing precedence.
func Load() (Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, err := loadFileIfExists(path, &cfg); err != nil {
			return cfg, err
		}
	}

	// Local development convenience; absence is not an error.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	cfg.normalizeMediaDefaults()
	return cfg, nil
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Addr, "ADDR")
	setString(&cfg.BaseURL, "BASE_URL")
	setString(&cfg.Environment, "ENVIRONMENT")

	setString(&cfg.Google.ProjectID, "GOOGLE_PROJECT_ID")
	setString(&cfg.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.Google.CredentialsFile, "GOOGLE_CREDENTIALS_FILE")
	setString(&cfg.Google.StorageBucket, "GOOGLE_STORAGE_BUCKET")
	setString(&cfg.Google.LogName, "GOOGLE_LOG_NAME")
	setString(&cfg.Google.PubSubTopic, "GOOGLE_PUBSUB_TOPIC")
	setString(&cfg.Google.OAuthRedirectURL, "GOOGLE_OAUTH_REDIRECT_URL")

	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Mongo.Database, "MONGO_DATABASE")
	setString(&cfg.Redis.URL, "REDIS_URL")

	if raw := envValue("MEDIA_ALLOWED_EXTENSIONS"); raw != "" {
		cfg.Media.AllowedExtensions = splitCSV(raw)
	}
	if raw := envValue("MEDIA_MAX_UPLOAD_BYTES"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			cfg.Media.MaxUploadBytes = parsed
		}
	}
	if raw := envValue("SESSION_TTL_HOURS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.Session.TTLHours = parsed
		}
	}
}

func (c *Config) normalizeMediaDefaults() {
	if c.Media.MaxUploadBytes <= 0 {
		c.Media.MaxUploadBytes = DefaultMediaMaxUploadBytes
	}
	if c.Media.MultipartMaxMemory <= 0 {
		c.Media.MultipartMaxMemory = DefaultMediaMultipartMemory
	}
	if len(c.Media.AllowedExtensions) == 0 {
		c.Media.AllowedExtensions = append([]string(nil), DefaultMediaExtensions...)
	}
	normalized := make([]string, 0, len(c.Media.AllowedExtensions))
	for _, ext := range c.Media.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Media.AllowedExtensions = normalized
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = DefaultSessionTTLHours
	}
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func setString(dst *string, key string) {
	if value := envValue(key); value != "" {
		*dst = value
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
