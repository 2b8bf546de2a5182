package errors

import "fmt"

type ErrorType string

const (
	ErrorTypeNotARepository   ErrorType = "NOT_A_REPOSITORY"
	ErrorTypeObjectNotFound   ErrorType = "OBJECT_NOT_FOUND"
	ErrorTypeCommitNotFound   ErrorType = "COMMIT_NOT_FOUND"
	ErrorTypeEmptyStagingArea ErrorType = "EMPTY_STAGING_AREA"
	ErrorTypeEmptyMessage     ErrorType = "EMPTY_MESSAGE"
	ErrorTypeNoReasonToRemove ErrorType = "NO_REASON_TO_REMOVE"
	ErrorTypeIgnored          ErrorType = "IGNORED"
	ErrorTypeLocked           ErrorType = "LOCKED"
	ErrorTypeCorrupt          ErrorType = "CORRUPT"
	ErrorTypeIOFailure        ErrorType = "IO_FAILURE"
)

// Error is the failure type surfaced by every repository operation.
// Path carries the offending file where one exists.
type Error struct {
	Type    ErrorType
	Message string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Path)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two Errors by Type, so sentinel-style checks like
// errors.Is(err, ErrEmptyStagingArea) work across wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

var (
	ErrNotARepository   = &Error{Type: ErrorTypeNotARepository, Message: "not a grit repository (no .grit directory found)"}
	ErrObjectNotFound   = &Error{Type: ErrorTypeObjectNotFound, Message: "object not found"}
	ErrCommitNotFound   = &Error{Type: ErrorTypeCommitNotFound, Message: "commit not found"}
	ErrEmptyStagingArea = &Error{Type: ErrorTypeEmptyStagingArea, Message: "No changes added to the commit."}
	ErrEmptyMessage     = &Error{Type: ErrorTypeEmptyMessage, Message: "Please enter a commit message."}
	ErrNoReasonToRemove = &Error{Type: ErrorTypeNoReasonToRemove, Message: "No reason to remove the file."}
)

func ObjectNotFound(hash string) *Error {
	return &Error{Type: ErrorTypeObjectNotFound, Message: "object not found", Path: hash}
}

func CommitNotFound(hash string) *Error {
	return &Error{Type: ErrorTypeCommitNotFound, Message: "commit not found", Path: hash}
}

func Ignored(path string) *Error {
	return &Error{Type: ErrorTypeIgnored, Message: "path is excluded by ignore rules", Path: path}
}

func Locked(path string) *Error {
	return &Error{Type: ErrorTypeLocked, Message: "repository is locked by another process", Path: path}
}

// Corrupt signals an internal-consistency violation: a hash reachable
// from the index or a commit snapshot has no stored object, or stored
// bytes no longer match their address. Never recovered silently.
func Corrupt(message, path string) *Error {
	return &Error{Type: ErrorTypeCorrupt, Message: message, Path: path}
}

func IOFailure(op, path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeIOFailure,
		Message: fmt.Sprintf("%s failed: %v", op, err),
		Path:    path,
		Err:     err,
	}
}
