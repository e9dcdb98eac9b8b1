// Package api defines the JSON request and response shapes of the HTTP surface.
package api

import "mingle/internal/models"

// ErrorResponse is the uniform error payload returned on request failures.
// Code is the stable string form; ErrorCode the numeric one.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// StatusResponse acknowledges a mutation with no data to return.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// MediaUploadResponse reports the outcome of a media upload.
type MediaUploadResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl,omitempty"`
	Message  string `json:"message,omitempty"`
}

// PostResponse is the JSON view of a single post.
type PostResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content,omitempty"`
	Author    string `json:"author"`
	MediaURL  string `json:"media_url,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// PublishRequest asks the notification hook to forward a filename message.
type PublishRequest struct {
	Filename string `json:"filename"`
}

// PostFromModel converts a stored post to its response shape.
func PostFromModel(p models.Post) PostResponse {
	return PostResponse{
		ID:        p.ID,
		Content:   p.Content,
		Author:    p.Author,
		MediaURL:  p.MediaURL,
		CreatedAt: p.CreatedAt.Unix(),
	}
}
