package storage

import (
	"context"
	"log/slog"
)

// Delete removes a document and propagates the removal up the ancestor chain,
// deleting each folder that becomes empty along the way (the root excepted).
func (s *StorageService) Delete(ctx context.Context, username, path string, cond *Conditional) (*DeleteResult, error) {
	if IsFolderPath(path) {
		// folders disappear when their last child does; they are never deleted directly
		return nil, ErrIsFolder
	}
	if err := ValidatePath(path); err != nil {
		return nil, err
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
	if current == nil {
		return nil, ErrNotFound
	}
	if current.IsFolder() {
		return nil, ErrIsFolder
	}

	// an existing document implies folder ancestors unless a concurrent
	// write replaced one since the head above
	if err := s.checkAncestorsAreFolders(ctx, bucket, path); err != nil {
		s.noteThrottle(bucket, err)
		return nil, err
	}

	if err := cond.Check(current.ETag); err != nil {
		return nil, err
	}

	if err := s.store.DeleteObject(ctx, bucket, key, nil); err != nil {
		s.noteThrottle(bucket, err)
		return nil, err
	}
	slog.Debug("document deleted", "bucket", bucket, "key", key, "etag", current.ETag)

	// nil entry = removal marker
	if err := s.maintainAncestors(ctx, bucket, path, nil); err != nil {
		return nil, err
	}

	return &DeleteResult{ETag: current.ETag}, nil
}
