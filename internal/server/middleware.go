package server

import (
	"fmt"
	"net/http"

	"mingle/internal/models"
)

// requireBrowserSession resolves the session cookie to a principal; requests
// without one are redirected to the login flow.
func (s *Server) requireBrowserSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok, err := s.resolveSession(r)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusInternalServerError, storeFailure(err))
			return
		}
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r.WithContext(contextWithPrincipal(r.Context(), principal)))
	}
}

// requireSession is the JSON-surface variant: missing sessions get 401.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok, err := s.resolveSession(r)
		if err != nil {
			s.writeErrorReq(w, r, http.StatusInternalServerError, storeFailure(err))
			return
		}
		if !ok {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
			return
		}
		next(w, r.WithContext(contextWithPrincipal(r.Context(), principal)))
	}
}

func (s *Server) resolveSession(r *http.Request) (models.Principal, bool, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return models.Principal{}, false, nil
	}
	return s.sessions.Lookup(r.Context(), cookie.Value)
}
