package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the flat key/value blob store the document tree is persisted in.
// Implementations must translate their native failure shapes into the package's
// typed errors (ErrNotFound, ErrNotModified, ErrPreconditionFailed, ThrottledError,
// BackendError) so nothing above this boundary branches on backend-specific error
// fields. A missing key reported as a permission failure is mapped to ErrNotFound.
type ObjectStore interface {
	// HeadObject returns the metadata for a key without its body.
	HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// GetObject fetches a key, optionally qualified by a conditional.
	GetObject(ctx context.Context, bucket, key string, cond *Conditional) (*Object, error)

	// PutObject writes a key and returns its new ETag. A negative ContentLength
	// means the size is unknown and the implementation must stream with bounded
	// buffering.
	PutObject(ctx context.Context, bucket, key string, params *PutObjectParams) (*PutObjectResult, error)

	// DeleteObject removes a key, optionally fenced by an If-Match conditional,
	// in which case ErrPreconditionFailed is returned and the key is kept when
	// the ETag no longer matches. An unconditional delete of an absent key is
	// not an error.
	DeleteObject(ctx context.Context, bucket, key string, cond *Conditional) error

	// CreateBucket provisions a per-user bucket. Used at account lifecycle
	// boundaries, never per-request.
	CreateBucket(ctx context.Context, bucket string) error

	// DeleteBucket deprovisions a per-user bucket, removing any remaining keys.
	DeleteBucket(ctx context.Context, bucket string) error
}

// ===================================================================================================

// ObjectInfo is the per-key metadata the store maintains.
type ObjectInfo struct {
	ETag          string
	ContentType   string
	ContentLength int64
	LastModified  time.Time
}

// IsFolder reports whether the key holds a folder descriptor, per the type sentinel.
func (o *ObjectInfo) IsFolder() bool {
	return o.ContentType == FolderContentType
}

// Object is a fetched key. Callers own Body and must close it.
type Object struct {
	ObjectInfo
	Body io.ReadCloser
}

// ===================================================================================================

type PutObjectParams struct {
	ContentType   string
	ContentLength int64 // -1 when unknown
	Body          io.Reader

	// Conditional makes the write a single-key compare-and-act: ErrPreconditionFailed
	// is returned and nothing is written when it does not hold. Only honored on the
	// single-shot path; streamed uploads are unconditional.
	Conditional *Conditional
}

type PutObjectResult struct {
	ETag         string
	LastModified time.Time
}
