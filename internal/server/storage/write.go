package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// Put writes a document. The write itself is a single unconditional blob upload;
// the precondition is evaluated against the ETag observed just before it, and the
// ancestor chain is repaired afterwards. A detected mid-repair race surfaces as
// ErrUpdateRace without undoing the blob write.
func (s *StorageService) Put(ctx context.Context, username, path, contentType string, contentLength int64, body io.Reader, cond *Conditional) (*PutResult, error) {
	if IsFolderPath(path) {
		// a folder can never be written directly
		return nil, ErrIsFolder
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	if contentType == FolderContentType {
		// the sentinel is reserved for descriptors this service writes itself
		return nil, ErrInvalidPath
	}

	bucket, err := s.bucketFor(username)
	if err != nil {
		return nil, err
	}
	key := s.keys.Key(path)

	current, err := s.headOrAbsent(ctx, bucket, key)
	if err != nil {
		s.noteThrottle(bucket, err)
		return nil, err
	}
	if current != nil && current.IsFolder() {
		return nil, ErrIsFolder
	}

	if err := s.checkAncestorsAreFolders(ctx, bucket, path); err != nil {
		s.noteThrottle(bucket, err)
		return nil, err
	}

	currentETag := ""
	if current != nil {
		currentETag = current.ETag
	}
	if err := cond.Check(currentETag); err != nil {
		return nil, err
	}

	result, err := s.upload(ctx, bucket, key, contentType, contentLength, body)
	if err != nil {
		s.noteThrottle(bucket, err)
		return nil, err
	}
	slog.Debug("document written",
		"bucket", bucket, "key", key,
		"size", humanize.Bytes(uint64(max(contentLength, 0))),
		"etag", result.ETag)

	entry := DocumentEntry(result.ETag, contentType, contentLength, result.LastModified)
	if err := s.maintainAncestors(ctx, bucket, path, entry); err != nil {
		return nil, err
	}

	return &PutResult{
		ETag:         result.ETag,
		Created:      current == nil,
		LastModified: result.LastModified,
	}, nil
}

// upload picks the blob upload strategy: a deadline-bounded single put for small
// known sizes, the store's streamed/multipart mode otherwise.
func (s *StorageService) upload(ctx context.Context, bucket, key, contentType string, contentLength int64, body io.Reader) (*PutObjectResult, error) {
	params := &PutObjectParams{
		ContentType:   contentType,
		ContentLength: contentLength,
		Body:          body,
	}

	if contentLength >= 0 && contentLength <= s.config.SinglePutMax {
		putCtx, cancel := context.WithTimeout(ctx, s.config.UploadTimeout)
		defer cancel()

		result, err := s.store.PutObject(putCtx, bucket, key, params)
		if err != nil {
			if putCtx.Err() == context.DeadlineExceeded {
				// the store may still complete the write after the deadline;
				// no cleanup is attempted
				return nil, ErrUploadTimeout
			}
			return nil, err
		}
		return result, nil
	}

	return s.store.PutObject(ctx, bucket, key, params)
}

// checkAncestorsAreFolders walks from the target's parent to the root and fails
// when any existing ancestor key is a document rather than a folder. Absent
// ancestors are fine; they materialize during ancestor maintenance.
func (s *StorageService) checkAncestorsAreFolders(ctx context.Context, bucket, path string) error {
	for _, parent := range parentPaths(path) {
		if parent == "" {
			// the root is a folder axiomatically
			break
		}
		info, err := s.headOrAbsent(ctx, bucket, s.keys.Key(parent))
		if err != nil {
			return err
		}
		if info != nil && !info.IsFolder() {
			return ErrDocumentBlocksPath
		}
	}
	return nil
}

// headOrAbsent heads a key, folding ErrNotFound into a nil info.
func (s *StorageService) headOrAbsent(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	info, err := s.store.HeadObject(ctx, bucket, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return info, nil
}
