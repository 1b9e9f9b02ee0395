package engine

import "strings"

// directories skipped when Config.DefaultExcludes is set
var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"coverage":     true,
	"bin":          true,
	"obj":          true,
}

// generated or bundled sources that carry allowed extensions
var defaultExcludeFileSuffixes = []string{
	".min.js", ".bundle.js", ".d.ts",
	".pb.go", ".gen.go", "_generated.go",
	"_pb2.py",
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

func isDefaultFileExcluded(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return strings.Contains(lower, ".gen.")
}
