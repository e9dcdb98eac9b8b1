// Package secrets overlays vault-held values onto the runtime configuration
// at startup. A missing or unreachable vault never aborts startup; the base
// configuration is used instead.
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"mingle/internal/config"
)

const defaultVersion = "latest"

// Accessor fetches one secret version payload by full resource name.
// It exists so tests can substitute a fake for the Secret Manager client.
type Accessor interface {
	AccessSecret(ctx context.Context, name string) ([]byte, error)
	Close() error
}

type gcpAccessor struct {
	client *secretmanager.Client
}

func (a *gcpAccessor) AccessSecret(ctx context.Context, name string) ([]byte, error) {
	resp, err := a.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return resp.GetPayload().GetData(), nil
}

func (a *gcpAccessor) Close() error {
	return a.client.Close()
}

// Provider fetches named secrets from the vault.
type Provider struct {
	accessor Accessor
	logger   *slog.Logger
}

// New creates a Provider backed by Secret Manager.
func New(ctx context.Context, logger *slog.Logger) (*Provider, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}
	return NewWithAccessor(&gcpAccessor{client: client}, logger), nil
}

// NewWithAccessor creates a Provider over a custom accessor.
func NewWithAccessor(accessor Accessor, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{accessor: accessor, logger: logger}
}

// Get fetches one secret value. An empty version means the latest one.
func (p *Provider) Get(ctx context.Context, projectID, name, version string) (string, error) {
	if p == nil || p.accessor == nil {
		return "", fmt.Errorf("secret provider is not configured")
	}
	projectID = strings.TrimSpace(projectID)
	name = strings.TrimSpace(name)
	if projectID == "" || name == "" {
		return "", fmt.Errorf("project id and secret name are required")
	}
	if version = strings.TrimSpace(version); version == "" {
		version = defaultVersion
	}

	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, name, version)
	payload, err := p.accessor.AccessSecret(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return string(payload), nil
}

// Apply fetches the well-known secrets for cfg's project and overlays the
// non-empty values onto a copy of cfg. Per-secret failures keep the base
// value and are logged as warnings.
func (p *Provider) Apply(ctx context.Context, cfg config.Config) config.Config {
	projectID := strings.TrimSpace(cfg.Google.ProjectID)
	if projectID == "" {
		p.log().Warn("project id not configured, skipping secret retrieval")
		return cfg
	}

	targets := []struct {
		name string
		dst  *string
	}{
		{"google-client-id", &cfg.Google.ClientID},
		{"google-client-secret", &cfg.Google.ClientSecret},
		{"storage-bucket", &cfg.Google.StorageBucket},
		{"redis-url", &cfg.Redis.URL},
	}

	p.log().Info("fetching secrets from the vault", "project", projectID)
	for _, target := range targets {
		value, err := p.Get(ctx, projectID, target.name, "")
		if err != nil {
			p.log().Warn("secret unavailable, keeping configured value", "secret", target.name, "error", err)
			continue
		}
		if strings.TrimSpace(value) == "" {
			p.log().Warn("secret is empty", "secret", target.name)
			continue
		}
		*target.dst = value
		p.log().Info("secret loaded", "secret", target.name)
	}
	return cfg
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	if p == nil || p.accessor == nil {
		return nil
	}
	return p.accessor.Close()
}

func (p *Provider) log() *slog.Logger {
	if p != nil && p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
