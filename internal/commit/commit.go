// internal/commit/commit.go
package commit

import (
	"encoding/json"
	"time"

	"grit/shared/utils"
)

// Commit is one immutable record in the linear history. Blobs is the
// complete tracked path->hash snapshot at this point, not a diff
// against the parent. Parent is empty only for the root commit.
type Commit struct {
	Hash      string            `json:"hash"`
	Parent    string            `json:"parent"`
	Message   string            `json:"message"`
	Timestamp int64             `json:"timestamp"` // unix nanoseconds
	Blobs     map[string]string `json:"blobs"`
}

// hashPayload is the exact set of fields the commit hash is derived
// from. encoding/json emits map keys in sorted order, which makes the
// serialization canonical and the hash a pure function of these fields.
type hashPayload struct {
	Parent    string            `json:"parent"`
	Message   string            `json:"message"`
	Timestamp int64             `json:"timestamp"`
	Blobs     map[string]string `json:"blobs"`
}

// New builds a commit and derives its content hash.
func New(parent, message string, timestamp int64, blobs map[string]string) (*Commit, error) {
	if blobs == nil {
		blobs = make(map[string]string)
	}
	c := &Commit{
		Parent:    parent,
		Message:   message,
		Timestamp: timestamp,
		Blobs:     blobs,
	}

	data, err := json.Marshal(hashPayload{
		Parent:    c.Parent,
		Message:   c.Message,
		Timestamp: c.Timestamp,
		Blobs:     c.Blobs,
	})
	if err != nil {
		return nil, err
	}
	c.Hash = utils.HashContent(data)

	return c, nil
}

// Time returns the commit timestamp as wall-clock time.
func (c *Commit) Time() time.Time {
	return time.Unix(0, c.Timestamp)
}

// IsRoot reports whether the commit has no parent.
func (c *Commit) IsRoot() bool {
	return c.Parent == ""
}
