package models

import "strings"

// Principal is the authenticated identity attached to a session. It carries
// exactly the claims the app needs from the identity provider, nothing else.
type Principal struct {
	Subject string `json:"subject"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Identity returns the value recorded as a post's author: the display name
// when present, otherwise the provider subject.
func (p Principal) Identity() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return strings.TrimSpace(p.Subject)
}

// Valid reports whether the principal identifies someone.
func (p Principal) Valid() bool {
	return strings.TrimSpace(p.Subject) != ""
}
