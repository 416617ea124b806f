package keymap

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CollisionError reports two distinct local paths mapping to the same
// object key. Proceeding would silently overwrite one of them, so the
// whole run aborts before any upload.
type CollisionError struct {
	Key   string
	PathA string
	PathB string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("key collision: both %q and %q map to key %q", e.PathA, e.PathB, e.Key)
}

// Mapper converts local relative paths into canonical object keys.
// It normalizes separators, applies the configured per-segment
// substitution table and prepends the deployment prefix.
type Mapper struct {
	prefix        string
	substitutions map[string]string
}

func NewMapper(prefix string, substitutions map[string]string) *Mapper {
	return &Mapper{
		prefix:        strings.Trim(prefix, "/"),
		substitutions: substitutions,
	}
}

// Map is a pure function from a slash- or OS-separated relative path to
// the full object key. Segments not present in the substitution table
// pass through unchanged.
func (m *Mapper) Map(relPath string) string {
	normalized := filepath.ToSlash(relPath)

	segments := strings.Split(normalized, "/")
	for i, segment := range segments {
		if replacement, ok := m.substitutions[segment]; ok {
			segments[i] = replacement
		}
	}

	key := strings.Join(segments, "/")
	if m.prefix == "" {
		return key
	}
	return m.prefix + "/" + key
}

// Prefix returns the deployment prefix with no surrounding slashes.
func (m *Mapper) Prefix() string {
	return m.prefix
}

// BuildTable maps every relative path to its key, returning a
// *CollisionError as soon as two paths collapse to the same key.
func (m *Mapper) BuildTable(relPaths []string) (map[string]string, error) {
	table := make(map[string]string, len(relPaths))
	sources := make(map[string]string, len(relPaths))

	for _, relPath := range relPaths {
		key := m.Map(relPath)
		if previous, exists := sources[key]; exists {
			return nil, &CollisionError{Key: key, PathA: previous, PathB: relPath}
		}
		sources[key] = relPath
		table[relPath] = key
	}

	return table, nil
}
