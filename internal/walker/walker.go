package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mdn/stumptown-deployer/internal/redirects"
)

// FileInfo represents a local build artifact to consider for upload.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // slash-normalized path relative to root
	Size    int64
}

// RedirectKind distinguishes the two redirect declaration conventions.
type RedirectKind int

const (
	// BulkFile is a _redirects.txt file with one rule per line.
	BulkFile RedirectKind = iota
	// SingleFile is an index.redirect file whose content is the target.
	SingleFile
)

// RedirectSource is a redirect declaration file found in the tree. These
// are diverted to the redirect parser and never uploaded as objects.
type RedirectSource struct {
	Kind RedirectKind
	Path string // absolute path
	// RelDir is the slash-normalized directory relative to root ("" for
	// the root itself); redirect sources are resolved against it.
	RelDir string
}

// Walker walks a build output tree, applying junk and exclude rules.
type Walker struct {
	root     string
	excludes []string
}

// New validates the root directory up front so a bad --directory fails
// before any network call.
func New(root string, excludes []string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	return &Walker{
		root:     absRoot,
		excludes: excludes,
	}, nil
}

// Root returns the absolute root directory.
func (w *Walker) Root() string {
	return w.root
}

// Walk traverses the tree and returns the upload candidates plus the
// redirect declaration files, in walk order. Symlinks and other
// non-regular files are skipped.
func (w *Walker) Walk() ([]FileInfo, []RedirectSource, error) {
	var files []FileInfo
	var redirectSources []RedirectSource

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		relPath = filepath.ToSlash(relPath)

		if isJunk(d.Name()) || w.isExcluded(relPath) {
			return nil
		}

		switch d.Name() {
		case redirects.BulkFileName:
			redirectSources = append(redirectSources, RedirectSource{
				Kind:   BulkFile,
				Path:   path,
				RelDir: relDir(relPath),
			})
			return nil
		case redirects.SingleFileName:
			redirectSources = append(redirectSources, RedirectSource{
				Kind:   SingleFile,
				Path:   path,
				RelDir: relDir(relPath),
			})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("get file info: %w", err)
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, nil, fmt.Errorf("walk directory: %w", err)
	}

	return files, redirectSources, nil
}

// isJunk matches build-system leftovers that must never deploy.
func isJunk(name string) bool {
	if name == ".DS_Store" {
		return true
	}
	return strings.HasSuffix(name, "~")
}

func (w *Walker) isExcluded(relPath string) bool {
	for _, pattern := range w.excludes {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}

func relDir(relPath string) string {
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		return ""
	}
	return dir
}
