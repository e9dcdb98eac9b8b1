package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mingle/internal/models"
)

const (
	oauthStateCookieName = "mingle_oauth_state"
	oauthStateTTL        = 10 * time.Minute
)

// handleLogin starts the redirect challenge against the identity provider.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		s.writeErrorReq(w, r, http.StatusServiceUnavailable, makeAPIError(
			http.StatusServiceUnavailable, "unavailable", ErrCodeInternal,
			fmt.Errorf("login is not configured")))
		return
	}

	state, err := generateOAuthState()
	if err != nil {
		s.writeErrorReq(w, r, http.StatusInternalServerError, internalError(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthStateTTL / time.Second),
	})
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

// handleOAuthCallback validates the provider's assertion and mints a local
// session. Any failure redirects to the feed without a session.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, r, oauthStateCookieName)

	if s.oauth == nil || s.sessions == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if r.URL.Query().Get("error") != "" {
		s.log().Warn("identity provider returned an error", "error", r.URL.Query().Get("error"))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || state == "" || stateCookie.Value != state {
		s.log().Warn("oauth state mismatch", "remote_addr", r.RemoteAddr)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	token, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.log().Warn("oauth code exchange failed", "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	principal, err := s.fetchPrincipal(r, token.AccessToken)
	if err != nil || !principal.Valid() {
		s.log().Warn("userinfo fetch failed", "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	sessionToken, expiresAt, err := s.sessions.Create(r.Context(), principal)
	if err != nil {
		s.log().Error("session create failed", "error", err)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.sessions.TTL() / time.Second),
		Expires:  expiresAt,
	})
	s.log().Info("session established", "subject", principal.Subject)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && s.sessions != nil {
		if err := s.sessions.Revoke(r.Context(), cookie.Value); err != nil {
			s.log().Warn("session revoke failed", "error", err)
		}
	}
	clearCookie(w, r, sessionCookieName)
	http.Redirect(w, r, "/", http.StatusFound)
}

// fetchPrincipal pulls the claims the app needs from the provider's
// userinfo endpoint.
func (s *Server) fetchPrincipal(r *http.Request, accessToken string) (models.Principal, error) {
	var zero models.Principal

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.userinfoURL, nil)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return zero, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var claims struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, defaultJSONMaxBody)).Decode(&claims); err != nil {
		return zero, fmt.Errorf("decode userinfo: %w", err)
	}

	return models.Principal{
		Subject: claims.Sub,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	}, nil
}

func (s *Server) httpClient() *http.Client {
	if s != nil && s.client != nil {
		return s.client
	}
	return http.DefaultClient
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		return proto
	}
	return "http"
}

func clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
