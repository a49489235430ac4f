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
)

// fakeObject is one stored blob.
type fakeObject struct {
	data         []byte
	contentType  string
	etag         string
	lastModified time.Time
}

// fakeStore is an in-memory ObjectStore with per-key ETags and real conditional
// semantics. Hooks let tests interleave a concurrent writer at suspension points.
type fakeStore struct {
	mu      sync.Mutex
	buckets map[string]map[string]*fakeObject
	seq     int

	// hooks, invoked outside the lock
	beforeGet    func(bucket, key string)
	beforePut    func(bucket, key string)
	beforeDelete func(bucket, key string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		buckets: map[string]map[string]*fakeObject{},
	}
}

func (f *fakeStore) bucket(name string) (map[string]*fakeObject, error) {
	b, ok := f.buckets[name]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) nextETag(data []byte) string {
	f.seq++
	sum := md5.Sum(append(data, []byte(fmt.Sprintf("#%d", f.seq))...))
	return hex.EncodeToString(sum[:])
}

func (f *fakeStore) HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.bucket(bucket)
	if err != nil {
		return nil, err
	}
	obj, ok := b[key]
	if !ok {
		return nil, ErrNotFound
	}
	return obj.info(), nil
}

func (f *fakeStore) GetObject(ctx context.Context, bucket, key string, cond *Conditional) (*Object, error) {
	if f.beforeGet != nil {
		f.beforeGet(bucket, key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.bucket(bucket)
	if err != nil {
		return nil, err
	}
	obj, ok := b[key]
	if !ok {
		return nil, ErrNotFound
	}

	if !cond.IsZero() {
		if cond.IfNoneMatch != "" && (cond.IfNoneMatch == "*" || cond.IfNoneMatch == obj.etag) {
			return nil, ErrNotModified
		}
		if cond.IfMatch != "" && cond.IfMatch != "*" && cond.IfMatch != obj.etag {
			return nil, ErrPreconditionFailed
		}
	}

	return &Object{
		ObjectInfo: *obj.info(),
		Body:       io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

func (f *fakeStore) PutObject(ctx context.Context, bucket, key string, params *PutObjectParams) (*PutObjectResult, error) {
	if f.beforePut != nil {
		f.beforePut(bucket, key)
	}

	if err := ctx.Err(); err != nil {
		return nil, &BackendError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, &BackendError{Op: "put", Bucket: bucket, Key: key, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.bucket(bucket)
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

	obj := &fakeObject{
		data:         data,
		contentType:  params.ContentType,
		etag:         f.nextETag(data),
		lastModified: time.Now().UTC(),
	}
	b[key] = obj

	return &PutObjectResult{ETag: obj.etag, LastModified: obj.lastModified}, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, bucket, key string, cond *Conditional) error {
	if f.beforeDelete != nil {
		f.beforeDelete(bucket, key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := f.bucket(bucket)
	if err != nil {
		return err
	}
	if !cond.IsZero() {
		obj, ok := b[key]
		if !ok || (cond.IfMatch != "" && cond.IfMatch != "*" && cond.IfMatch != obj.etag) {
			return ErrPreconditionFailed
		}
	}
	delete(b, key)
	return nil
}

func (f *fakeStore) CreateBucket(ctx context.Context, bucket string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.buckets[bucket]; !ok {
		f.buckets[bucket] = map[string]*fakeObject{}
	}
	return nil
}

func (f *fakeStore) DeleteBucket(ctx context.Context, bucket string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.buckets[bucket]; !ok {
		return ErrNotFound
	}
	delete(f.buckets, bucket)
	return nil
}

// keys returns a snapshot of the bucket's key set.
func (f *fakeStore) keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for key := range f.buckets[bucket] {
		out = append(out, key)
	}
	return out
}

func (o *fakeObject) info() *ObjectInfo {
	return &ObjectInfo{
		ETag:          o.etag,
		ContentType:   o.contentType,
		ContentLength: int64(len(o.data)),
		LastModified:  o.lastModified,
	}
}

var _ ObjectStore = (*fakeStore)(nil)
