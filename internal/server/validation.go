package server

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var postIDRegex = regexp.MustCompile(`^po-[0-9a-z]{8}$`)

func validatePostID(id string) bool {
	return postIDRegex.MatchString(id)
}

// validateMediaExtension checks a filename against the extension allow-list.
// The check happens before any storage call.
func validateMediaExtension(filename string, allowed map[string]struct{}) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", badRequestCode(fmt.Errorf("filename is required"), ErrCodeMissingRequired)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", badRequestCode(fmt.Errorf("file %q has no extension", filename), ErrCodeUnsupportedMedia)
	}
	if _, ok := allowed[ext]; !ok {
		return "", badRequestCode(fmt.Errorf("file type %s is not allowed", ext), ErrCodeUnsupportedMedia)
	}
	return ext, nil
}

func extensionSet(extensions []string) map[string]struct{} {
	out := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}
