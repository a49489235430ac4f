package accounts

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardhq/hoard/internal/db"
	"github.com/hoardhq/hoard/internal/server/storage"
)

// bucketStore tracks bucket lifecycle calls; object operations are never
// reached from the account service.
type bucketStore struct {
	buckets map[string]bool
}

func (b *bucketStore) HeadObject(ctx context.Context, bucket, key string) (*storage.ObjectInfo, error) {
	return nil, storage.ErrNotFound
}

func (b *bucketStore) GetObject(ctx context.Context, bucket, key string, cond *storage.Conditional) (*storage.Object, error) {
	return nil, storage.ErrNotFound
}

func (b *bucketStore) PutObject(ctx context.Context, bucket, key string, params *storage.PutObjectParams) (*storage.PutObjectResult, error) {
	return nil, storage.ErrNotFound
}

func (b *bucketStore) DeleteObject(ctx context.Context, bucket, key string, cond *storage.Conditional) error {
	return nil
}

func (b *bucketStore) CreateBucket(ctx context.Context, bucket string) error {
	b.buckets[bucket] = true
	return nil
}

func (b *bucketStore) DeleteBucket(ctx context.Context, bucket string) error {
	delete(b.buckets, bucket)
	return nil
}

var _ storage.ObjectStore = (*bucketStore)(nil)

func newTestAccounts(t *testing.T) (*AccountService, *bucketStore, *sqlx.DB) {
	t.Helper()

	sqldb, err := db.NewSqliteDB(db.WithPath(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	store := &bucketStore{buckets: map[string]bool{}}
	svc := storage.NewStorageService(store, storage.Config{BucketSuffix: "-test"})

	accounts, err := NewAccountService(sqldb, svc)
	require.NoError(t, err)
	return accounts, store, sqldb
}

func TestCreateProvisionsBucket(t *testing.T) {
	accounts, store, _ := newTestAccounts(t)
	ctx := context.Background()

	account, err := accounts.Create(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.Len(t, account.Secret, secretBytes*2) // hex encoded
	assert.True(t, store.buckets["alice-test"])

	got, err := accounts.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, account.Secret, got.Secret)
}

func TestCreateDuplicate(t *testing.T) {
	accounts, _, _ := newTestAccounts(t)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "alice")
	require.NoError(t, err)

	_, err = accounts.Create(ctx, "alice")
	assert.ErrorIs(t, err, ErrAccountExists)

	// usernames are case-insensitive
	_, err = accounts.Create(ctx, "ALICE")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestCreateInvalidUsername(t *testing.T) {
	accounts, _, _ := newTestAccounts(t)
	ctx := context.Background()

	for _, name := range []string{"", "a", "has space", "trailing-", "double..dot"} {
		_, err := accounts.Create(ctx, name)
		assert.Error(t, err, "username %q", name)
	}
}

func TestVerify(t *testing.T) {
	accounts, _, _ := newTestAccounts(t)
	ctx := context.Background()

	account, err := accounts.Create(ctx, "alice")
	require.NoError(t, err)

	assert.NoError(t, accounts.Verify(ctx, "alice", account.Secret))
	assert.ErrorIs(t, accounts.Verify(ctx, "alice", "wrong"), ErrBadCredentials)
	assert.ErrorIs(t, accounts.Verify(ctx, "nobody", account.Secret), ErrBadCredentials)
}

func TestDeleteDeprovisionsBucket(t *testing.T) {
	accounts, store, _ := newTestAccounts(t)
	ctx := context.Background()

	_, err := accounts.Create(ctx, "alice")
	require.NoError(t, err)
	require.True(t, store.buckets["alice-test"])

	require.NoError(t, accounts.Delete(ctx, "alice"))
	assert.False(t, store.buckets["alice-test"])

	_, err = accounts.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	assert.ErrorIs(t, accounts.Delete(ctx, "alice"), ErrAccountNotFound)
}

func TestExists(t *testing.T) {
	accounts, _, _ := newTestAccounts(t)
	ctx := context.Background()

	assert.False(t, accounts.Exists(ctx, "alice"))
	_, err := accounts.Create(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, accounts.Exists(ctx, "alice"))
}
