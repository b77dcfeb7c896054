// Package workspace discovers templates under a root directory and keeps
// their stub artifacts in sync.
package workspace

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/typedjinja/tjls/internal/stub"
)

// FindTemplates returns every file under root matching any of the doublestar
// patterns, deduplicated and sorted. Patterns that fail to compile are
// skipped.
func FindTemplates(root string, globs []string) []string {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var out []string
	for _, g := range globs {
		matches, err := doublestar.Glob(fsys, g)
		if err != nil {
			continue
		}
		for _, m := range matches {
			path := filepath.Join(root, filepath.FromSlash(m))
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	sort.Strings(out)
	return out
}

// SyncStubs regenerates stub artifacts for every annotated template under
// root and returns the number of stubs written. Unreadable templates are
// logged and skipped.
func SyncStubs(root string, globs []string, cacheDir string, log *logrus.Logger) int {
	if log == nil {
		log = logrus.StandardLogger()
	}
	written := 0
	for _, path := range FindTemplates(root, globs) {
		content, err := os.ReadFile(path)
		if err != nil {
			log.WithField("template", path).Debugf("skipping unreadable template: %v", err)
			continue
		}
		stubPath, err := stub.Sync(path, string(content), cacheDir)
		if err != nil {
			log.WithField("template", path).Warnf("stub sync failed: %v", err)
			continue
		}
		if stubPath != "" {
			written++
		}
	}
	return written
}

// ResolveIncludePath maps an include target to a file on disk, checking the
// including template's directory first and the workspace root second.
func ResolveIncludePath(fromTemplate, root, target string) (string, bool) {
	candidates := []string{
		filepath.Join(filepath.Dir(fromTemplate), filepath.FromSlash(target)),
	}
	if root != "" {
		candidates = append(candidates, filepath.Join(root, filepath.FromSlash(target)))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}
