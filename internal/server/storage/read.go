package storage

import (
	"context"
	"errors"
	"fmt"
)

// Get serves a document or folder read. A trailing slash (or the empty path)
// addresses a folder. Folder reads never return ErrNotFound: an absent folder is
// indistinguishable from an empty one and both synthesize an empty listing with a
// deterministic ETag.
func (s *StorageService) Get(ctx context.Context, username, path string, cond *Conditional) (*GetResult, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	bucket, err := s.bucketFor(username)
	if err != nil {
		return nil, err
	}

	wantFolder := IsFolderPath(path)
	key := s.keys.Key(path)

	obj, err := s.store.GetObject(ctx, bucket, key, cond)
	switch {
	case err == nil:
		return s.decodeResult(obj, wantFolder)

	case errors.Is(err, ErrNotFound):
		if !wantFolder {
			return nil, ErrNotFound
		}
		return synthesizeEmptyFolder(cond)

	case errors.Is(err, ErrNotModified), errors.Is(err, ErrPreconditionFailed):
		return nil, err

	default:
		s.noteThrottle(bucket, err)
		return nil, err
	}
}

// Head returns document or folder metadata without a body. Same folder synthesis
// rules as Get.
func (s *StorageService) Head(ctx context.Context, username, path string) (*ObjectInfo, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	bucket, err := s.bucketFor(username)
	if err != nil {
		return nil, err
	}

	wantFolder := IsFolderPath(path)
	info, err := s.store.HeadObject(ctx, bucket, s.keys.Key(path))
	switch {
	case err == nil:
		if info.IsFolder() != wantFolder {
			if wantFolder {
				return nil, ErrIsDocument
			}
			return nil, ErrIsFolder
		}
		return info, nil

	case errors.Is(err, ErrNotFound):
		if !wantFolder {
			return nil, ErrNotFound
		}
		return &ObjectInfo{
			ETag:          EmptyFolderETag(),
			ContentType:   FolderContentType,
			ContentLength: int64(len(EmptyFolderJSON())),
		}, nil

	default:
		s.noteThrottle(bucket, err)
		return nil, err
	}
}

// decodeResult classifies a fetched blob once, by its type sentinel, into the
// document/folder variant the caller asked for.
func (s *StorageService) decodeResult(obj *Object, wantFolder bool) (*GetResult, error) {
	if obj.IsFolder() != wantFolder {
		obj.Body.Close()
		if wantFolder {
			return nil, ErrIsDocument
		}
		return nil, ErrIsFolder
	}

	if !wantFolder {
		return &GetResult{
			Document: &Document{
				Body:          obj.Body,
				ETag:          obj.ETag,
				ContentType:   obj.ContentType,
				ContentLength: obj.ContentLength,
				LastModified:  obj.LastModified,
			},
		}, nil
	}

	defer obj.Body.Close()
	folder, err := DecodeFolder(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("folder at key is unreadable: %w", err)
	}
	return &GetResult{Folder: folder, FolderETag: obj.ETag}, nil
}

// synthesizeEmptyFolder produces the canonical empty listing for an absent folder
// key, honoring a conditional against the synthesized ETag so cached clients
// still get their 304.
func synthesizeEmptyFolder(cond *Conditional) (*GetResult, error) {
	if cond != nil && cond.IfNoneMatch == EmptyFolderETag() {
		return nil, ErrNotModified
	}
	if cond != nil && cond.IfMatch != "" && cond.IfMatch != "*" && cond.IfMatch != EmptyFolderETag() {
		return nil, ErrPreconditionFailed
	}
	return &GetResult{
		Folder:     NewFolderDescriptor(),
		FolderETag: EmptyFolderETag(),
	}, nil
}
