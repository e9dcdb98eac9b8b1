package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"mingle/internal/cache"
	"mingle/internal/models"
)

const (
	sessionCookieName = "mingle_session"
	sessionKeyPrefix  = "session:"
	sessionTokenBytes = 32
)

var defaultSessionTTL = 24 * time.Hour

// SessionService mints and resolves session tokens. Session records live in
// the cache under a TTL; the cookie carries only the opaque token.
type SessionService struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewSessionService creates a session service over the given cache.
func NewSessionService(c cache.Cache, ttl time.Duration) *SessionService {
	if c == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionService{cache: c, ttl: ttl}
}

// Create stores a new session for the principal and returns its token.
func (s *SessionService) Create(ctx context.Context, principal models.Principal) (string, time.Time, error) {
	if s == nil || s.cache == nil {
		return "", time.Time{}, fmt.Errorf("session service is not configured")
	}
	if !principal.Valid() {
		return "", time.Time{}, fmt.Errorf("principal subject is required")
	}

	token, err := generateSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}
	payload, err := json.Marshal(principal)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+token, string(payload), s.ttl); err != nil {
		return "", time.Time{}, fmt.Errorf("store session: %w", err)
	}
	return token, time.Now().UTC().Add(s.ttl), nil
}

// Lookup resolves a token to its principal. A missing or expired session is
// not an error.
func (s *SessionService) Lookup(ctx context.Context, token string) (models.Principal, bool, error) {
	var zero models.Principal
	if s == nil || s.cache == nil || token == "" {
		return zero, false, nil
	}

	payload, ok, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		return zero, false, fmt.Errorf("lookup session: %w", err)
	}
	if !ok {
		return zero, false, nil
	}

	var principal models.Principal
	if err := json.Unmarshal([]byte(payload), &principal); err != nil {
		return zero, false, fmt.Errorf("decode session: %w", err)
	}
	if !principal.Valid() {
		return zero, false, nil
	}
	return principal, true, nil
}

// Revoke deletes a session record. Revoking an unknown token is a no-op.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if s == nil || s.cache == nil || token == "" {
		return nil
	}
	return s.cache.Delete(ctx, sessionKeyPrefix+token)
}

// TTL returns the configured session lifetime.
func (s *SessionService) TTL() time.Duration {
	if s == nil {
		return defaultSessionTTL
	}
	return s.ttl
}

func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
