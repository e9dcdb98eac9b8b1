package secrets

import (
	"context"
	"fmt"
	"testing"

	"mingle/internal/config"
)

type fakeAccessor struct {
	values   map[string]string
	requests []string
	fail     bool
}

func (f *fakeAccessor) AccessSecret(ctx context.Context, name string) ([]byte, error) {
	f.requests = append(f.requests, name)
	if f.fail {
		return nil, fmt.Errorf("vault unreachable")
	}
	value, ok := f.values[name]
	if !ok {
		return nil, fmt.Errorf("secret not found: %s", name)
	}
	return []byte(value), nil
}

func (f *fakeAccessor) Close() error { return nil }

func TestGetBuildsResourceName(t *testing.T) {
	fake := &fakeAccessor{values: map[string]string{
		"projects/proj-1/secrets/google-client-id/versions/latest": "client-123",
	}}
	p := NewWithAccessor(fake, nil)

	value, err := p.Get(context.Background(), "proj-1", "google-client-id", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "client-123" {
		t.Fatalf("unexpected value: %q", value)
	}
	if len(fake.requests) != 1 || fake.requests[0] != "projects/proj-1/secrets/google-client-id/versions/latest" {
		t.Fatalf("unexpected requests: %v", fake.requests)
	}
}

func TestGetExplicitVersion(t *testing.T) {
	fake := &fakeAccessor{values: map[string]string{
		"projects/proj-1/secrets/redis-url/versions/3": "redis://somewhere:6379",
	}}
	p := NewWithAccessor(fake, nil)

	value, err := p.Get(context.Background(), "proj-1", "redis-url", "3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if value != "redis://somewhere:6379" {
		t.Fatalf("unexpected value: %q", value)
	}
}

func TestGetRequiresProjectAndName(t *testing.T) {
	p := NewWithAccessor(&fakeAccessor{}, nil)
	if _, err := p.Get(context.Background(), "", "name", ""); err == nil {
		t.Fatal("expected error for missing project")
	}
	if _, err := p.Get(context.Background(), "proj", " ", ""); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestApplyOverlaysFetchedValues(t *testing.T) {
	fake := &fakeAccessor{values: map[string]string{
		"projects/proj-1/secrets/google-client-id/versions/latest":     "vault-client-id",
		"projects/proj-1/secrets/google-client-secret/versions/latest": "vault-secret",
		"projects/proj-1/secrets/storage-bucket/versions/latest":       "vault-bucket",
	}}
	p := NewWithAccessor(fake, nil)

	cfg := config.Default()
	cfg.Google.ProjectID = "proj-1"
	cfg.Google.ClientID = "file-client-id"
	cfg.Redis.URL = "redis://local:6379"

	merged := p.Apply(context.Background(), cfg)

	if merged.Google.ClientID != "vault-client-id" {
		t.Fatalf("expected vault client id, got %q", merged.Google.ClientID)
	}
	if merged.Google.StorageBucket != "vault-bucket" {
		t.Fatalf("expected vault bucket, got %q", merged.Google.StorageBucket)
	}
	// redis-url is absent from the vault; base config value survives.
	if merged.Redis.URL != "redis://local:6379" {
		t.Fatalf("expected base redis url, got %q", merged.Redis.URL)
	}
	// The input config is not mutated.
	if cfg.Google.ClientID != "file-client-id" {
		t.Fatalf("input config was mutated: %q", cfg.Google.ClientID)
	}
}

func TestApplyWithoutProjectIsNoop(t *testing.T) {
	fake := &fakeAccessor{}
	p := NewWithAccessor(fake, nil)

	cfg := config.Default()
	merged := p.Apply(context.Background(), cfg)

	if len(fake.requests) != 0 {
		t.Fatalf("expected no vault requests, got %v", fake.requests)
	}
	if merged.Addr != cfg.Addr {
		t.Fatalf("config changed unexpectedly")
	}
}

func TestApplyDegradesWhenVaultUnreachable(t *testing.T) {
	fake := &fakeAccessor{fail: true}
	p := NewWithAccessor(fake, nil)

	cfg := config.Default()
	cfg.Google.ProjectID = "proj-1"
	cfg.Google.ClientID = "configured-id"

	merged := p.Apply(context.Background(), cfg)
	if merged.Google.ClientID != "configured-id" {
		t.Fatalf("expected configured value to survive, got %q", merged.Google.ClientID)
	}
}
