package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheControl(t *testing.T) {
	policy := CachePolicy{DefaultSeconds: 3600, HashedSeconds: 31536000}

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "regular file gets default max-age",
			path: "en-us/docs/index.html",
			want: "max-age=3600, public",
		},
		{
			name: "digest-hashed filename gets long max-age",
			path: "static/js/2.02b14290.chunk.js",
			want: "max-age=31536000, public",
		},
		{
			name: "long digest",
			path: "static/css/main.0a1b2c3d4e5f67890a1b2c3d4e5f6789.css",
			want: "max-age=31536000, public",
		},
		{
			name: "service worker is never cached",
			path: "service-worker.js",
			want: "no-cache",
		},
		{
			name: "service worker in subdirectory",
			path: "en-us/service-worker.js",
			want: "no-cache",
		},
		{
			name: "short hex run is not a digest",
			path: "static/v1.2.css",
			want: "max-age=3600, public",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CacheControl(tt.path))
		})
	}
}

func TestGuessContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "index.html", want: "text/html; charset=utf-8"},
		{path: "style.css", want: "text/css; charset=utf-8"},
		{path: "data.json", want: "application/json"},
		{path: "README", want: "binary/octet-stream"},
		{path: "blob.weirdext", want: "binary/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, guessContentType(tt.path))
		})
	}
}
