package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"mingle/internal/api"
)

const mediaFormField = "media"

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
		return
	}

	var media *MediaUpload
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := s.multipartFile(w, r)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if file != nil {
			defer file.Close()
			media = &MediaUpload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Content:     file,
			}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.writeErrorReq(w, r, http.StatusBadRequest, badRequest(fmt.Errorf("invalid form payload")))
			return
		}
	}

	content := strings.TrimSpace(r.FormValue("content"))
	mediaURL := strings.TrimSpace(r.FormValue("media_url"))
	if content == "" && media == nil && mediaURL == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("post needs content or media"), ErrCodeMissingRequired))
		return
	}

	_, err := s.posts.Create(r.Context(), CreatePostInput{
		Content:  content,
		Author:   principal.Identity(),
		Media:    media,
		MediaURL: mediaURL,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUploadMedia(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.multipartFile(w, r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if file == nil {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("media file is required"), ErrCodeMissingRequired))
		return
	}
	defer file.Close()

	if header.Size == 0 {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("media file is empty"), ErrCodeInvalidArgument))
		return
	}

	url, err := s.posts.UploadMedia(r.Context(), MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.MediaUploadResponse{Success: true, ImageURL: url})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if !validatePostID(id) {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("invalid post id"), ErrCodeInvalidID))
		return
	}

	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.PostFromModel(post))
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if !validatePostID(id) {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("invalid post id"), ErrCodeInvalidID))
		return
	}

	if err := s.posts.Delete(r.Context(), id, principal.Identity()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Success: true})
}

// multipartFile parses the multipart form and returns the media file when
// present. A missing file is (nil, nil, nil) so callers decide whether it is
// required.
func (s *Server) multipartFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.multipartMaxMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, nil, badRequestCode(fmt.Errorf("upload exceeds %d bytes", s.maxUploadBytes), ErrCodeRequestTooLarge)
		}
		return nil, nil, badRequest(fmt.Errorf("invalid multipart payload"))
	}

	file, header, err := r.FormFile(mediaFormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, badRequest(fmt.Errorf("invalid media field"))
	}
	return file, header, nil
}
