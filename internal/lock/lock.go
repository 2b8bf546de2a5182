// internal/lock/lock.go
package lock

import (
	"encoding/json"
	"os"
	"time"

	"grit/internal/errors"

	"github.com/google/uuid"
)

// Lock is an advisory file lock guarding the staging-mutate and commit
// sequences against interleaved writers from other invocations. It is
// taken by creating the lock file exclusively; a crash can leave a
// stale lock behind, which the owner of the repository removes by hand.
type Lock struct {
	path string
	id   string
}

type payload struct {
	ID        string    `json:"id"`
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
}

// Acquire takes the lock or fails immediately if another process holds it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Locked(path)
		}
		return nil, errors.IOFailure("creating lock file", path, err)
	}

	l := &Lock{path: path, id: uuid.New().String()}
	data, _ := json.Marshal(payload{
		ID:        l.id,
		PID:       os.Getpid(),
		CreatedAt: time.Now(),
	})
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.IOFailure("writing lock file", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, errors.IOFailure("closing lock file", path, err)
	}

	return l, nil
}

// Release removes the lock file. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.IOFailure("removing lock file", l.path, err)
	}
	return nil
}
