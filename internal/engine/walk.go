package engine

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// Candidates walks cfg.Root and returns, in traversal order, the regular
// files a directory scan would dispatch. The root has depth 0; entries deeper
// than cfg.MaxDepth are not visited unless MaxDepth is negative. A file's
// extension must be in exts and its path must not match cfg.Ignore.
// Unreadable entries are skipped.
func Candidates(ctx context.Context, cfg Config, exts []string) ([]string, error) {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[e] = true
	}
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)

	var out []string
	err := filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		depth := pathDepth(rel)
		if d.IsDir() {
			if cfg.MaxDepth >= 0 && depth >= cfg.MaxDepth {
				return filepath.SkipDir
			}
			if depth > 0 && cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			if depth > 0 && cfg.Ignore.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if cfg.MaxDepth >= 0 && depth > cfg.MaxDepth {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if !allowed[extension(name)] {
			return nil
		}
		if cfg.DefaultExcludes && isDefaultFileExcluded(name) {
			return nil
		}
		if rel == "." {
			rel = name
		}
		if cfg.Ignore.Match(rel) {
			return nil
		}
		if !allowedByGlobs(rel, includes, excludes) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// pathDepth counts the components of a root-relative path; "." is 0.
func pathDepth(rel string) int {
	if rel == "." || rel == "" {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

// extension returns the dotted suffix of a file name. Names that start with
// a dot and contain no other dot (".py") have no extension.
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}
