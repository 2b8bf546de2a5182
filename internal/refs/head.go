// internal/refs/head.go
package refs

import (
	"encoding/json"
	"os"

	"grit/internal/errors"
	"grit/shared/utils"
)

// Head is the persisted pointer to the current branch and its tip
// commit hash. Tip is empty until the first commit. Exactly one branch
// exists today, so Head is a single-entry branch mapping.
type Head struct {
	Branch string `json:"branch"`
	Tip    string `json:"tip"`
}

// Load reads the head pointer from the given file path.
func Load(path string) (*Head, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNotARepository
		}
		return nil, errors.IOFailure("reading HEAD", path, err)
	}

	var h Head
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, errors.Corrupt("HEAD is not valid JSON", path)
	}
	if h.Branch == "" {
		return nil, errors.Corrupt("HEAD has no branch name", path)
	}
	return &h, nil
}

// Save writes the head pointer atomically; the tip only ever advances
// by way of this rename, so readers see either the old tip or the new
// one, never a torn write.
func (h *Head) Save(path string) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return errors.IOFailure("writing HEAD", path, err)
	}
	return nil
}
