package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hoardhq/hoard/internal/server/storage"
)

type memObject struct {
	data         []byte
	contentType  string
	etag         string
	lastModified time.Time
}

func (o *memObject) info() *storage.ObjectInfo {
	return &storage.ObjectInfo{
		ETag:          o.etag,
		ContentType:   o.contentType,
		ContentLength: int64(len(o.data)),
		LastModified:  o.lastModified,
	}
}

// memStore is a minimal in-memory ObjectStore good enough to exercise the
// handlers end to end.
type memStore struct {
	mu      sync.Mutex
	buckets map[string]map[string]*memObject
	seq     int
}

func newMemStore() *memStore {
	return &memStore{buckets: map[string]map[string]*memObject{}}
}

func (m *memStore) bucket(name string) (map[string]*memObject, error) {
	b, ok := m.buckets[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (m *memStore) HeadObject(ctx context.Context, bucket, key string) (*storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	obj, ok := b[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return obj.info(), nil
}

func (m *memStore) GetObject(ctx context.Context, bucket, key string, cond *storage.Conditional) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}
	obj, ok := b[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	if !cond.IsZero() {
		if cond.IfNoneMatch != "" && (cond.IfNoneMatch == "*" || cond.IfNoneMatch == obj.etag) {
			return nil, storage.ErrNotModified
		}
		if cond.IfMatch != "" && cond.IfMatch != "*" && cond.IfMatch != obj.etag {
			return nil, storage.ErrPreconditionFailed
		}
	}

	return &storage.Object{
		ObjectInfo: *obj.info(),
		Body:       io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

func (m *memStore) PutObject(ctx context.Context, bucket, key string, params *storage.PutObjectParams) (*storage.PutObjectResult, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(bucket)
	if err != nil {
		return nil, err
	}

	current := ""
	if obj, ok := b[key]; ok {
		current = obj.etag
	}
	if err := params.Conditional.Check(current); err != nil {
		return nil, err
	}

	m.seq++
	sum := md5.Sum(append(data, []byte(fmt.Sprintf("#%d", m.seq))...))
	obj := &memObject{
		data:         data,
		contentType:  params.ContentType,
		etag:         hex.EncodeToString(sum[:]),
		lastModified: time.Now().UTC(),
	}
	b[key] = obj

	return &storage.PutObjectResult{ETag: obj.etag, LastModified: obj.lastModified}, nil
}

func (m *memStore) DeleteObject(ctx context.Context, bucket, key string, cond *storage.Conditional) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.bucket(bucket)
	if err != nil {
		return err
	}
	if !cond.IsZero() {
		obj, ok := b[key]
		if !ok || (cond.IfMatch != "" && cond.IfMatch != "*" && cond.IfMatch != obj.etag) {
			return storage.ErrPreconditionFailed
		}
	}
	delete(b, key)
	return nil
}

func (m *memStore) CreateBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = map[string]*memObject{}
	}
	return nil
}

func (m *memStore) DeleteBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buckets, bucket)
	return nil
}

var _ storage.ObjectStore = (*memStore)(nil)
