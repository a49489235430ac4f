package storage

import (
	"fmt"
	"strings"

	"github.com/hoardhq/hoard/internal/utils"
)

const (
	// BlobPrefix namespaces every document and folder descriptor inside a user's
	// bucket, leaving room for other key families later.
	BlobPrefix = "blob/"

	// MaxKeyLength is the backend's key size limit (S3: 1024 bytes).
	MaxKeyLength = 1024

	// MaxBucketLength is the backend's bucket name limit (S3: 63 chars).
	MaxBucketLength = 63

	// DefaultBucketSuffix is appended to the username to form the bucket name.
	DefaultBucketSuffix = "-hoard"
)

// KeyMapper converts remoteStorage paths and usernames into object store
// coordinates. The mapping is total and deterministic: the same path always maps
// to the same key. Paths longer than the backend limit are truncated rather than
// rejected, so two sufficiently long distinct paths can alias to one key. That is
// a deliberate, documented limitation of the scheme, not a bug.
type KeyMapper struct {
	bucketSuffix string
}

func NewKeyMapper(bucketSuffix string) *KeyMapper {
	if bucketSuffix == "" {
		bucketSuffix = DefaultBucketSuffix
	}
	return &KeyMapper{bucketSuffix: bucketSuffix}
}

// Key maps a document or folder path to its blob key. Folder paths are stored
// without their trailing slash, so a folder and a document at the same path
// contend for the same key; the type sentinel tells them apart. The root folder
// (empty path) maps to the bare prefix.
func (m *KeyMapper) Key(path string) string {
	key := BlobPrefix + strings.TrimSuffix(path, "/")
	if len(key) > MaxKeyLength {
		key = key[:MaxKeyLength]
	}
	return key
}

// Bucket maps a username to its per-user bucket name.
func (m *KeyMapper) Bucket(username string) (string, error) {
	if err := utils.ValidateUsername(username); err != nil {
		return "", err
	}
	bucket := strings.ToLower(username) + m.bucketSuffix
	if len(bucket) > MaxBucketLength {
		return "", fmt.Errorf("%w: bucket name %q exceeds %d chars", utils.ErrUsernameInvalid, bucket, MaxBucketLength)
	}
	return bucket, nil
}
