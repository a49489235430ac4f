package storage

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidPath marks a malformed document or folder path. Always a client bug.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotFound means no document exists at the path. Folder reads never produce it.
	ErrNotFound = errors.New("document not found")

	// ErrNotModified is the success-shaped outcome of an If-None-Match read that matched.
	ErrNotModified = errors.New("not modified")

	// ErrPreconditionFailed means an If-Match/If-None-Match header did not match the
	// current state of the target. No mutation was performed.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrIsFolder means the path holds a folder where a document operation was requested.
	ErrIsFolder = errors.New("path holds a folder")

	// ErrIsDocument means the path holds a document where a folder read was requested.
	ErrIsDocument = errors.New("path holds a document")

	// ErrDocumentBlocksPath means an ancestor segment of the path is itself a document,
	// so no folder can exist there.
	ErrDocumentBlocksPath = errors.New("an ancestor of the path is a document")

	// ErrUpdateRace means a concurrent writer changed the same document while its
	// ancestor folders were being brought up to date. Distinct from a precondition
	// failure: the blob write itself succeeded, but the newer write owns the final
	// state of the ancestor chain.
	ErrUpdateRace = errors.New("another request is updating this document")

	// ErrUploadTimeout means the blob upload did not complete within the deadline.
	// The object store may still complete the write afterwards.
	ErrUploadTimeout = errors.New("upload timed out")
)

// IsConflict reports whether err is one of the 409-class outcomes.
func IsConflict(err error) bool {
	return errors.Is(err, ErrIsFolder) ||
		errors.Is(err, ErrIsDocument) ||
		errors.Is(err, ErrDocumentBlocksPath) ||
		errors.Is(err, ErrUpdateRace)
}

// BackendError wraps an opaque object-store failure. The core never inspects the
// wrapped error beyond logging it; callers map it to a 502-class response.
type BackendError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("object store %s: bucket=%s key=%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ThrottledError is the backend's capacity signal (e.g. S3 SlowDown). Retryable.
// RetryAfter is an advisory pause hint for subsequent calls against the same bucket.
type ThrottledError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("backend throttled (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ThrottledError) Unwrap() error {
	return e.Err
}
