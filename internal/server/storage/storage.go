package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// StorageService synthesizes the remoteStorage document/folder model on top of a
// flat per-user object store. Folders are implicit: they exist exactly while they
// have children, persisted as JSON descriptors that this service alone maintains.
// All cross-request coordination happens through the store's per-key ETags; the
// service itself holds no per-path state.
type StorageService struct {
	store    ObjectStore
	keys     *KeyMapper
	throttle *Throttle
	config   Config
}

func NewStorageService(store ObjectStore, config Config) *StorageService {
	cfg := config.withDefaults()
	return &StorageService{
		store:    store,
		keys:     NewKeyMapper(cfg.BucketSuffix),
		throttle: NewThrottle(),
		config:   cfg,
	}
}

// Store returns the underlying object store.
func (s *StorageService) Store() ObjectStore {
	return s.store
}

// Throttle returns the pause-hint collaborator so the HTTP layer can consult it.
func (s *StorageService) Throttle() *Throttle {
	return s.throttle
}

// Bucket maps a username to its bucket name.
func (s *StorageService) Bucket(username string) (string, error) {
	return s.keys.Bucket(username)
}

// ProvisionUser creates the user's bucket. Called at account creation.
func (s *StorageService) ProvisionUser(ctx context.Context, username string) error {
	bucket, err := s.keys.Bucket(username)
	if err != nil {
		return err
	}
	slog.Info("provision bucket", "user", username, "bucket", bucket)
	if err := s.store.CreateBucket(ctx, bucket); err != nil {
		return fmt.Errorf("provision %q: %w", username, err)
	}
	return nil
}

// DeprovisionUser removes the user's bucket and everything in it. Called at
// account deletion.
func (s *StorageService) DeprovisionUser(ctx context.Context, username string) error {
	bucket, err := s.keys.Bucket(username)
	if err != nil {
		return err
	}
	slog.Info("deprovision bucket", "user", username, "bucket", bucket)
	if err := s.store.DeleteBucket(ctx, bucket); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("deprovision %q: %w", username, err)
	}
	return nil
}

// bucketFor resolves the bucket and applies any live backend pause hint.
func (s *StorageService) bucketFor(username string) (string, error) {
	bucket, err := s.keys.Bucket(username)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if pause := s.throttle.PauseFor(bucket); pause > 0 {
		return "", &ThrottledError{RetryAfter: pause, Err: errors.New("bucket is backing off")}
	}
	return bucket, nil
}

// noteThrottle records the pause hint carried by a backend throttle signal.
func (s *StorageService) noteThrottle(bucket string, err error) {
	var throttled *ThrottledError
	if errors.As(err, &throttled) {
		s.throttle.Pause(bucket, throttled.RetryAfter)
	}
}
