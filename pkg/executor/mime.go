package executor

import (
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
)

// hashedFilenameRegex matches filenames carrying a content digest, e.g.
// "2.02b14290.chunk.css". Such files never change in place, so they get
// the long cache lifetime.
var hashedFilenameRegex = regexp.MustCompile(`\.[a-f0-9]{8,32}\.`)

// CachePolicy decides the Cache-Control header per uploaded file.
type CachePolicy struct {
	DefaultSeconds int
	HashedSeconds  int
}

// CacheControl returns the Cache-Control value for a local file.
// service-worker.js must never be cached or clients would keep serving
// a stale site.
func (p CachePolicy) CacheControl(localPath string) string {
	base := filepath.Base(localPath)
	if base == "service-worker.js" {
		return "no-cache"
	}

	seconds := p.DefaultSeconds
	if hashedFilenameRegex.MatchString(base) {
		seconds = p.HashedSeconds
	}
	return fmt.Sprintf("max-age=%d, public", seconds)
}

// guessContentType resolves the Content-Type from the file extension,
// falling back to a generic binary type for unknown extensions.
func guessContentType(localPath string) string {
	ext := filepath.Ext(localPath)
	if ext != "" {
		if contentType := mime.TypeByExtension(ext); contentType != "" {
			return contentType
		}
	}
	return "binary/octet-stream"
}
