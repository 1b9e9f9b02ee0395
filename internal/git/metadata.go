// Package git reads repository provenance (remote, commit, branch) for
// report headers.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// Metadata identifies the revision a scan ran against.
type Metadata struct {
	Repo   string
	Commit string
	Branch string
}

// validateRoot returns the absolute directory for root. A file root resolves
// to its parent directory.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", errors.New("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	return abs, nil
}

// Read opens the repository containing root (searching parent directories)
// and returns its metadata.
func Read(root string) (Metadata, error) {
	dir, err := validateRoot(root)
	if err != nil {
		return Metadata{}, err
	}
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Metadata{}, err
	}
	var md Metadata
	if rem, err := repo.Remote("origin"); err == nil {
		if urls := rem.Config().URLs; len(urls) > 0 {
			md.Repo = shortRepo(urls[0])
		}
	}
	head, err := repo.Head()
	if err != nil {
		// unborn branch: no commits yet
		return md, nil
	}
	md.Commit = head.Hash().String()
	if head.Name().IsBranch() {
		md.Branch = head.Name().Short()
	} else {
		md.Branch = "HEAD"
	}
	return md, nil
}

// RepoMetadata returns (repo, commit, branch) best-effort for the given root.
// Empty strings are returned when root is not inside a repository.
func RepoMetadata(root string) (string, string, string) {
	md, err := Read(root)
	if err != nil {
		return "", "", ""
	}
	return md.Repo, md.Commit, md.Branch
}

// shortRepo reduces a remote URL to owner/name when possible.
func shortRepo(url string) string {
	s := strings.TrimSuffix(strings.TrimSpace(url), ".git")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "/"); j >= 0 {
			s = s[j+1:]
		}
		return s
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
