package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
)

const testAccessToken = "at-test-123"

// fakeProvider stands in for the identity provider: it serves the token
// exchange and userinfo endpoints the callback handler talks to.
func fakeProvider(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": testAccessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testAccessToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":     "sub-carol",
			"name":    "Carol",
			"email":   "carol@example.com",
			"picture": "https://pics.example.com/carol.png",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func configureOAuth(env *testEnv, provider *httptest.Server) {
	env.srv.oauth = &oauth2.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://mingle.test/auth/callback",
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.URL + "/auth",
			TokenURL: provider.URL + "/token",
		},
	}
	env.srv.userinfoURL = provider.URL + "/userinfo"
	env.srv.client = provider.Client()
}

func sessionCookieFrom(w *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			return cookie
		}
	}
	return nil
}

func TestLoginUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := env.do(req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestLoginRedirectsToProvider(t *testing.T) {
	env := newTestEnv(t)
	configureOAuth(env, fakeProvider(t))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	w := env.do(req)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}

	location, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect location: %v", err)
	}
	if location.Query().Get("client_id") != "test-client" {
		t.Fatalf("redirect is missing the client id: %s", location)
	}

	state := location.Query().Get("state")
	if state == "" {
		t.Fatal("redirect has no state parameter")
	}
	var stateCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == oauthStateCookieName {
			stateCookie = cookie
		}
	}
	if stateCookie == nil {
		t.Fatal("state cookie not set")
	}
	if stateCookie.Value != state {
		t.Fatalf("state cookie %q does not match redirect state %q", stateCookie.Value, state)
	}
	if !stateCookie.HttpOnly {
		t.Fatal("state cookie must be http-only")
	}
}

func TestOAuthCallbackEstablishesSession(t *testing.T) {
	env := newTestEnv(t)
	configureOAuth(env, fakeProvider(t))

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=state-1&code=code-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "state-1"})

	w := env.do(req)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to feed, got %q", loc)
	}

	cookie := sessionCookieFrom(w)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}

	principal, ok, err := env.srv.sessions.Lookup(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("lookup session: %v", err)
	}
	if !ok {
		t.Fatal("session token does not resolve")
	}
	if principal.Subject != "sub-carol" || principal.Name != "Carol" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if principal.Email != "carol@example.com" {
		t.Fatalf("email claim not carried: %+v", principal)
	}
}

func TestOAuthCallbackRejectsStateMismatch(t *testing.T) {
	env := newTestEnv(t)
	configureOAuth(env, fakeProvider(t))

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=forged&code=code-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "state-1"})

	w := env.do(req)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to feed, got %q", loc)
	}
	if cookie := sessionCookieFrom(w); cookie != nil {
		t.Fatal("session cookie set despite state mismatch")
	}
}

func TestOAuthCallbackProviderError(t *testing.T) {
	env := newTestEnv(t)
	configureOAuth(env, fakeProvider(t))

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil)
	w := env.do(req)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if cookie := sessionCookieFrom(w); cookie != nil {
		t.Fatal("session cookie set despite provider error")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, alice)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)

	w := env.do(req)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}

	_, ok, err := env.srv.sessions.Lookup(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("lookup session: %v", err)
	}
	if ok {
		t.Fatal("session still resolves after logout")
	}

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("session cookie not cleared")
	}
}
