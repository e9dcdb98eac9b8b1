package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"mingle/internal/api"
)

// handlePublish serializes the request and forwards it to the notification
// topic. The caller gets an empty object on success.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req api.PublishRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("filename is required"), ErrCodeMissingRequired))
		return
	}
	if s.publisher == nil {
		s.writeErrorReq(w, r, http.StatusInternalServerError,
			makeAPIError(http.StatusInternalServerError, "internal", ErrCodePublishFailure,
				fmt.Errorf("publisher is not configured")))
		return
	}

	message, err := json.Marshal(req)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusInternalServerError, internalError(err))
		return
	}
	if err := s.publisher.Publish(r.Context(), message); err != nil {
		s.log().Error("notification publish failed", "filename", req.Filename, "error", err)
		s.writeJSON(w, http.StatusInternalServerError,
			api.ErrorResponse{Success: false, Message: "failed to publish notification", Code: "publish_failed", ErrorCode: ErrCodePublishFailure})
		return
	}

	s.writeJSON(w, http.StatusOK, struct{}{})
}
