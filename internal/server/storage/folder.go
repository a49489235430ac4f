package storage

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

const (
	// FolderContext is the fixed @context of every persisted folder descriptor.
	FolderContext = "http://remotestorage.io/spec/folder-description"

	// FolderContentType is the reserved internal content type marking a key as a
	// folder descriptor. It is the only thing that distinguishes a folder key
	// from a document key; clients can never declare it for their own documents.
	FolderContentType = "application/x.hoard-folder"

	// FolderMIMEType is the external content type folder listings are served with.
	FolderMIMEType = "application/ld+json"

	// DefaultContentType is assumed for documents written without a declared type.
	DefaultContentType = "application/binary"
)

// FolderEntry is the cached metadata a folder records for one immediate child.
// For a document child all fields are set; for a sub-folder child only ETag is,
// holding the sub-folder's own descriptor ETag (no recursive content hashing).
type FolderEntry struct {
	ETag          string `json:"ETag"`
	ContentType   string `json:"Content-Type,omitempty"`
	ContentLength *int64 `json:"Content-Length,omitempty"`
	LastModified  string `json:"Last-Modified,omitempty"`
}

// Equal reports whether two entries carry identical metadata. Used to skip
// descriptor rewrites when nothing actually changed.
func (e *FolderEntry) Equal(other *FolderEntry) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.ETag != other.ETag || e.ContentType != other.ContentType || e.LastModified != other.LastModified {
		return false
	}
	if (e.ContentLength == nil) != (other.ContentLength == nil) {
		return false
	}
	return e.ContentLength == nil || *e.ContentLength == *other.ContentLength
}

// FolderDescriptor is the persisted JSON representation of a folder: a map of its
// immediate children keyed by name. Document children have no trailing slash,
// sub-folder children do.
type FolderDescriptor struct {
	Context string                  `json:"@context"`
	Items   map[string]*FolderEntry `json:"items"`
}

func NewFolderDescriptor() *FolderDescriptor {
	return &FolderDescriptor{
		Context: FolderContext,
		Items:   map[string]*FolderEntry{},
	}
}

// DecodeFolder parses a folder descriptor from a fetched blob body.
func DecodeFolder(r io.Reader) (*FolderDescriptor, error) {
	var fd FolderDescriptor
	if err := json.NewDecoder(r).Decode(&fd); err != nil {
		return nil, fmt.Errorf("decode folder descriptor: %w", err)
	}
	if fd.Items == nil {
		fd.Items = map[string]*FolderEntry{}
	}
	return &fd, nil
}

// Encode renders the canonical JSON form of the descriptor.
func (f *FolderDescriptor) Encode() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode folder descriptor: %w", err)
	}
	return data, nil
}

// IsEmpty reports whether the folder has no children.
func (f *FolderDescriptor) IsEmpty() bool {
	return len(f.Items) == 0
}

// DocumentEntry builds the items entry for a document child.
func DocumentEntry(etag, contentType string, contentLength int64, lastModified time.Time) *FolderEntry {
	entry := &FolderEntry{
		ETag:         etag,
		ContentType:  contentType,
		LastModified: lastModified.UTC().Format(time.RFC1123),
	}
	if contentLength >= 0 {
		length := contentLength
		entry.ContentLength = &length
	}
	return entry
}

// FolderChildEntry builds the items entry for a sub-folder child.
func FolderChildEntry(etag string) *FolderEntry {
	return &FolderEntry{ETag: etag}
}

var (
	emptyFolderJSON []byte
	emptyFolderETag string
)

// EmptyFolderJSON returns the canonical serialization of a childless folder.
func EmptyFolderJSON() []byte {
	return emptyFolderJSON
}

// EmptyFolderETag returns the ETag synthesized for absent folders. It is derived
// from the canonical empty descriptor JSON, so every synthesis of the same empty
// listing yields the same token.
func EmptyFolderETag() string {
	return emptyFolderETag
}

func init() {
	data, err := NewFolderDescriptor().Encode()
	if err != nil {
		panic("encode empty folder descriptor: " + err.Error())
	}
	sum := md5.Sum(data)
	emptyFolderJSON = data
	emptyFolderETag = hex.EncodeToString(sum[:])
}
