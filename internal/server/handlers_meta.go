package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMedia serves objects from the local blob store in development runs.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("key"))
	rc, err := s.localMedia.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequest(err))
		return
	}
	defer rc.Close()

	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log().Debug("serve media interrupted", "key", key, "error", err)
	}
}
