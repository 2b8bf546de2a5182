// internal/worktree/scan.go
package worktree

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"grit/internal/errors"
	"grit/shared/utils"
)

// Scanner walks the working tree and computes fresh content hashes for
// every eligible file.
type Scanner struct {
	root   string
	ignore map[string]bool
}

func NewScanner(root string, ignore []string) *Scanner {
	m := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		m[name] = true
	}
	return &Scanner{root: root, ignore: m}
}

// Scan returns a map from repository-relative path to blob hash for
// every file under the root, skipping ignored and hidden components.
func (s *Scanner) Scan() (map[string]string, error) {
	out := make(map[string]string)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path != s.root && s.skip(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.skip(name) {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return errors.IOFailure("reading file", relPath, err)
		}
		out[filepath.ToSlash(relPath)] = utils.HashContent(content)
		return nil
	})
	if err != nil {
		if _, ok := err.(*errors.Error); ok {
			return nil, err
		}
		return nil, errors.IOFailure("scanning working tree", s.root, err)
	}

	return out, nil
}

// Ignored reports whether a repository-relative path is excluded from
// tracking. Paths that Scan would never report must not be staged
// either, or status could not classify them.
func (s *Scanner) Ignored(relPath string) bool {
	for _, comp := range strings.Split(filepath.ToSlash(relPath), "/") {
		if comp == "" || comp == "." {
			continue
		}
		if s.skip(comp) {
			return true
		}
	}
	return false
}

func (s *Scanner) skip(name string) bool {
	return s.ignore[name] || strings.HasPrefix(name, ".")
}
