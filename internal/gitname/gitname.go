// Package gitname derives a default deployment name from the git
// checkout enclosing the build directory, so that every branch deploys
// to its own prefix without explicit flags.
package gitname

import (
	"fmt"
	"os/user"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Derive returns "<username>-<branchname>" for the repository that
// contains dir. The build output usually sits inside the site's
// checkout, so the branch name is a natural per-deployment namespace.
func Derive(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("find git repository from %s: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve git HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		// Detached HEAD has no branch name; "HEAD" would be a useless
		// deployment namespace.
		return "", fmt.Errorf("git HEAD in %s is detached, not on a branch", dir)
	}
	branch := head.Name().Short()

	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current user: %w", err)
	}

	return sanitize(current.Username) + "-" + sanitize(branch), nil
}

// sanitize keeps the name usable as a key prefix segment.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	return strings.Trim(s, "-")
}
