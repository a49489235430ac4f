package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
)

// ancestorState is what one repair pass knows about a single ancestor depth.
type ancestorState struct {
	etag   string // descriptor ETag; meaningful only when known && !absent
	known  bool
	absent bool // the descriptor key does not exist (folder has no children)
}

// maxRepairPasses bounds retries when sibling writers contend on a shared
// ancestor descriptor. Contention resolves per pass, so a handful suffices.
const maxRepairPasses = 8

// maintainAncestors brings every folder descriptor from the document's parent up
// to the root in line with the document's new state. docEntry carries the new
// document metadata; nil is the removal marker.
//
// The object store has no multi-key transactions, so the chain cannot move
// atomically. Two races are handled separately:
//
// Sibling writers contending on a shared ancestor are serialized by conditional
// descriptor writes (If-Match the descriptor ETag the pass read, If-None-Match *
// when creating). A precondition failure means a sibling rewrote the folder
// first; the pass is re-run against the fresh state, with per-depth ETag
// observations carried across passes so unchanged ancestors cost no re-fetch.
//
// A concurrent writer of the same document is detected with the just-written
// leaf as a fence: after a pass that changed any ancestor, the document's
// current ETag is re-checked against the one this invocation was called with.
// A mismatch means a newer write superseded this one mid-repair; the repair
// already performed stands (it is a valid state for some version of the tree),
// but this invocation reports ErrUpdateRace, leaving the final consistent state
// to the newer write's own maintenance pass.
func (s *StorageService) maintainAncestors(ctx context.Context, bucket, docPath string, docEntry *FolderEntry) error {
	parents := parentPaths(docPath)
	states := make([]ancestorState, len(parents))

	didChange := false
	for pass := 0; ; pass++ {
		if pass == maxRepairPasses {
			slog.Warn("ancestor repair starved by folder contention", "bucket", bucket, "path", docPath)
			return ErrUpdateRace
		}

		changed, err := s.repairPass(ctx, bucket, docPath, docEntry, parents, states)
		if changed {
			didChange = true
		}
		if errors.Is(err, ErrPreconditionFailed) {
			// a sibling won the descriptor write; re-run against fresh state
			continue
		}
		if err != nil {
			return err
		}
		break
	}

	if !didChange {
		// chain was already consistent
		return nil
	}

	converged, err := s.leafUnchanged(ctx, bucket, docPath, docEntry)
	if err != nil {
		return err
	}
	if !converged {
		slog.Warn("ancestor repair superseded by concurrent write", "bucket", bucket, "path", docPath)
		return ErrUpdateRace
	}
	return nil
}

// repairPass walks the ancestor chain once, bottom up, applying the child change
// at each depth and reporting whether any descriptor was actually rewritten.
// states carries per-depth ETag observations; a depth whose ETag is already known
// is read with If-None-Match so an unchanged descriptor costs no re-fetch.
func (s *StorageService) repairPass(ctx context.Context, bucket, docPath string, docEntry *FolderEntry, parents []string, states []ancestorState) (bool, error) {
	childName := baseName(docPath)
	childEntry := docEntry
	didChange := false

	for i, parent := range parents {
		state, changed, err := s.repairFolder(ctx, bucket, parent, childName, childEntry, states[i])
		if err != nil {
			return didChange, err
		}
		states[i] = state
		if changed {
			didChange = true
		}

		// this folder's own state is the child entry one level up
		if state.absent {
			childEntry = nil
		} else {
			childEntry = FolderChildEntry(state.etag)
		}
		childName = baseName(parent) + "/"
	}

	return didChange, nil
}

// repairFolder applies one child change to one folder descriptor and returns the
// folder's resulting state. An empty result deletes the descriptor key, except at
// the root, which always keeps one. Descriptor writes and deletes are conditional
// on the ETag the pass read, so a sibling's interleaved rewrite surfaces as
// ErrPreconditionFailed instead of a lost update.
func (s *StorageService) repairFolder(ctx context.Context, bucket, folderPath, childName string, childEntry *FolderEntry, prev ancestorState) (ancestorState, bool, error) {
	key := s.keys.Key(folderPath)

	var cond *Conditional
	if prev.known && !prev.absent {
		cond = &Conditional{IfNoneMatch: prev.etag}
	}

	folder, etag, err := s.fetchFolder(ctx, bucket, key, cond)
	switch {
	case errors.Is(err, ErrNotModified):
		// unchanged since last observed; nothing to rewrite here
		return prev, false, nil
	case errors.Is(err, ErrNotFound):
		folder = NewFolderDescriptor()
		etag = ""
	case err != nil:
		s.noteThrottle(bucket, err)
		return prev, false, err
	}

	changed := applyChildChange(folder, childName, childEntry)
	if !changed {
		return ancestorState{etag: etag, known: true, absent: etag == ""}, false, nil
	}

	if folder.IsEmpty() && folderPath != "" {
		// fenced on the ETag this pass read, so a sibling entry written after
		// the read is not destroyed with the descriptor
		err := s.store.DeleteObject(ctx, bucket, key, &Conditional{IfMatch: etag})
		if errors.Is(err, ErrPreconditionFailed) {
			return ancestorState{etag: etag, known: true}, false, err
		}
		if err != nil {
			s.noteThrottle(bucket, err)
			return prev, false, err
		}
		return ancestorState{known: true, absent: true}, true, nil
	}

	data, err := folder.Encode()
	if err != nil {
		return prev, false, err
	}
	writeCond := &Conditional{IfNoneMatch: "*"}
	if etag != "" {
		writeCond = &Conditional{IfMatch: etag}
	}
	result, err := s.store.PutObject(ctx, bucket, key, &PutObjectParams{
		ContentType:   FolderContentType,
		ContentLength: int64(len(data)),
		Body:          bytes.NewReader(data),
		Conditional:   writeCond,
	})
	if errors.Is(err, ErrPreconditionFailed) {
		// remember what we read so the retry can conditional-get past it
		return ancestorState{etag: etag, known: true, absent: etag == ""}, false, err
	}
	if err != nil {
		s.noteThrottle(bucket, err)
		return prev, false, err
	}
	return ancestorState{etag: result.ETag, known: true}, true, nil
}

// fetchFolder reads and decodes a folder descriptor, returning its ETag alongside.
// A document sitting at the key means an ancestor invariant was violated by a
// concurrent writer.
func (s *StorageService) fetchFolder(ctx context.Context, bucket, key string, cond *Conditional) (*FolderDescriptor, string, error) {
	obj, err := s.store.GetObject(ctx, bucket, key, cond)
	if err != nil {
		return nil, "", err
	}
	defer obj.Body.Close()

	if !obj.IsFolder() {
		return nil, "", ErrDocumentBlocksPath
	}
	folder, err := DecodeFolder(obj.Body)
	if err != nil {
		return nil, "", err
	}
	return folder, obj.ETag, nil
}

// applyChildChange upserts or removes one items entry, reporting whether the
// descriptor actually changed. An upsert whose metadata already matches is a
// no-op so untouched chains cost no rewrites.
func applyChildChange(folder *FolderDescriptor, childName string, childEntry *FolderEntry) bool {
	existing, exists := folder.Items[childName]
	if childEntry == nil {
		if !exists {
			return false
		}
		delete(folder.Items, childName)
		return true
	}
	if exists && existing.Equal(childEntry) {
		return false
	}
	folder.Items[childName] = childEntry
	return true
}

// leafUnchanged re-reads the document and reports whether it still matches the
// state this maintenance invocation was triggered for.
func (s *StorageService) leafUnchanged(ctx context.Context, bucket, docPath string, docEntry *FolderEntry) (bool, error) {
	current, err := s.headOrAbsent(ctx, bucket, s.keys.Key(docPath))
	if err != nil {
		s.noteThrottle(bucket, err)
		return false, err
	}
	if docEntry == nil {
		return current == nil, nil
	}
	return current != nil && current.ETag == docEntry.ETag, nil
}
