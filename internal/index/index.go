// internal/index/index.go
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"grit/internal/errors"
	"grit/shared/utils"
)

const (
	addFile = "STAGED_ADD"
	rmFile  = "STAGED_RM"
)

// Index is the staging area: paths staged for addition mapped to their
// blob hashes, plus the set of paths staged for removal. A path lives
// in at most one of the two at a time.
//
// The index is read fully from disk on Load and rewritten fully (via
// temp-file rename) after every mutation, so concurrent readers never
// observe a partial write.
type Index struct {
	dir     string
	Staged  map[string]string
	Removed map[string]bool
}

type addState struct {
	Blobs map[string]string `json:"blobs"`
}

type rmState struct {
	Paths []string `json:"paths"`
}

// Load reads the staging index from the repository directory.
func Load(dir string) (*Index, error) {
	idx := &Index{
		dir:     dir,
		Staged:  make(map[string]string),
		Removed: make(map[string]bool),
	}

	addPath := filepath.Join(dir, addFile)
	if data, err := os.ReadFile(addPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.IOFailure("reading staging index", addPath, err)
		}
	} else if len(data) > 0 {
		var st addState
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, errors.Corrupt("staging index is not valid JSON", addPath)
		}
		if st.Blobs != nil {
			idx.Staged = st.Blobs
		}
	}

	rmPath := filepath.Join(dir, rmFile)
	if data, err := os.ReadFile(rmPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.IOFailure("reading removal set", rmPath, err)
		}
	} else if len(data) > 0 {
		var st rmState
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, errors.Corrupt("removal set is not valid JSON", rmPath)
		}
		for _, p := range st.Paths {
			idx.Removed[p] = true
		}
	}

	return idx, nil
}

// StageAdd records path as staged for addition with the given blob
// hash, overwriting any previous entry and cancelling a pending
// removal of the same path.
func (idx *Index) StageAdd(path, hash string) error {
	idx.Staged[path] = hash
	delete(idx.Removed, path)
	return idx.save()
}

// StageRemove moves path into the removal set, dropping any staged
// addition for it.
func (idx *Index) StageRemove(path string) error {
	delete(idx.Staged, path)
	idx.Removed[path] = true
	return idx.save()
}

// Unstage drops a pending addition without scheduling a removal.
func (idx *Index) Unstage(path string) error {
	delete(idx.Staged, path)
	return idx.save()
}

// Snapshot returns a copy of the staged path->hash mapping.
func (idx *Index) Snapshot() map[string]string {
	out := make(map[string]string, len(idx.Staged))
	for k, v := range idx.Staged {
		out[k] = v
	}
	return out
}

// Removals returns the paths staged for removal, sorted.
func (idx *Index) Removals() []string {
	return utils.SortedKeys(idx.Removed)
}

// IsStaged reports whether path has a pending addition.
func (idx *Index) IsStaged(path string) bool {
	_, ok := idx.Staged[path]
	return ok
}

// Empty reports whether nothing is staged for addition or removal.
func (idx *Index) Empty() bool {
	return len(idx.Staged) == 0 && len(idx.Removed) == 0
}

// Clear empties both the add mapping and the removal set. Called once,
// immediately after a commit is durably recorded.
func (idx *Index) Clear() error {
	idx.Staged = make(map[string]string)
	idx.Removed = make(map[string]bool)
	return idx.save()
}

func (idx *Index) save() error {
	addData, err := json.Marshal(addState{Blobs: idx.Staged})
	if err != nil {
		return err
	}
	addPath := filepath.Join(idx.dir, addFile)
	if err := utils.WriteFileAtomic(addPath, addData, 0644); err != nil {
		return errors.IOFailure("writing staging index", addPath, err)
	}

	paths := make([]string, 0, len(idx.Removed))
	for p := range idx.Removed {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rmData, err := json.Marshal(rmState{Paths: paths})
	if err != nil {
		return err
	}
	rmPath := filepath.Join(idx.dir, rmFile)
	if err := utils.WriteFileAtomic(rmPath, rmData, 0644); err != nil {
		return errors.IOFailure("writing removal set", rmPath, err)
	}

	return nil
}
