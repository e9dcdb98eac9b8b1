package models

import "time"

// Post is a single feed entry authored by an authenticated user.
type Post struct {
	ID        string    `json:"id" bson:"id"`
	Content   string    `json:"content,omitempty" bson:"content"`
	Author    string    `json:"author" bson:"author"`
	MediaURL  string    `json:"media_url,omitempty" bson:"media_url,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"-"`

	// CreatedAtUnix is the wire form of CreatedAt: seconds since epoch.
	CreatedAtUnix int64 `json:"-" bson:"created_at"`
}

// NormalizeForWrite fills the wire timestamp from CreatedAt.
func (p *Post) NormalizeForWrite() {
	if p == nil {
		return
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.CreatedAtUnix = p.CreatedAt.Unix()
}

// NormalizeForRead restores CreatedAt from the wire timestamp.
func (p *Post) NormalizeForRead() {
	if p == nil {
		return
	}
	p.CreatedAt = time.Unix(p.CreatedAtUnix, 0).UTC()
}

// HasMedia reports whether the post references a stored blob.
func (p *Post) HasMedia() bool {
	return p != nil && p.MediaURL != ""
}
