package storage

import (
	"io"
	"time"
)

// Document is the streamed result of a document read. Callers own Body.
type Document struct {
	Body          io.ReadCloser
	ETag          string
	ContentType   string
	ContentLength int64
	LastModified  time.Time
}

// ===================================================================================================

// GetResult holds the outcome of a read: exactly one of Document or Folder is set.
type GetResult struct {
	Document *Document

	Folder     *FolderDescriptor
	FolderETag string
}

// IsFolder reports whether the read produced a folder listing.
func (r *GetResult) IsFolder() bool {
	return r.Folder != nil
}

// ===================================================================================================

// PutResult holds the outcome of a document write.
type PutResult struct {
	ETag         string
	Created      bool // the document did not exist before this write
	LastModified time.Time
}

// DeleteResult echoes the deleted document's now-stale ETag as a debugging and
// caching aid.
type DeleteResult struct {
	ETag string
}
