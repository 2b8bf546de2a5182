// internal/commit/store.go
package commit

import (
	"encoding/json"
	"os"
	"path/filepath"

	"grit/internal/errors"
	"grit/shared/utils"
)

// Store persists commit records as JSON files named by commit hash
// under the commits directory. Commits are write-once: there is no
// update or delete.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.IOFailure("creating commits directory", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Put writes the commit record. Writing an already-present commit is a
// no-op, since identical hashes imply identical content.
func (s *Store) Put(c *Commit) error {
	path := filepath.Join(s.dir, c.Hash)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return errors.IOFailure("writing commit", path, err)
	}
	return nil
}

// Get retrieves a commit by hash.
func (s *Store) Get(hash string) (*Commit, error) {
	if !utils.IsValidHash(hash) {
		return nil, errors.CommitNotFound(hash)
	}

	path := filepath.Join(s.dir, hash)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.CommitNotFound(hash)
		}
		return nil, errors.IOFailure("reading commit", path, err)
	}

	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Corrupt("commit record is not valid JSON", path)
	}
	if c.Blobs == nil {
		c.Blobs = make(map[string]string)
	}
	return &c, nil
}

// Walk returns a Walker over history starting at tip and following
// parent links back to the root. An empty tip yields an exhausted
// walker. Each Walk call re-reads from the given tip, so callers see
// commits made since any previous walk.
func (s *Store) Walk(tip string) *Walker {
	return &Walker{store: s, next: tip}
}

// Walker lazily yields commits newest-first.
type Walker struct {
	store *Store
	next  string
}

// Next returns the next commit in the walk, or nil once the walk has
// passed the root.
func (w *Walker) Next() (*Commit, error) {
	if w.next == "" {
		return nil, nil
	}

	c, err := w.store.Get(w.next)
	if err != nil {
		return nil, err
	}
	w.next = c.Parent
	return c, nil
}
