package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardhq/hoard/internal/db"
	"github.com/hoardhq/hoard/internal/server/accounts"
	"github.com/hoardhq/hoard/internal/server/auth"
	"github.com/hoardhq/hoard/internal/server/storage"
)

type noopStore struct{}

func (noopStore) HeadObject(ctx context.Context, bucket, key string) (*storage.ObjectInfo, error) {
	return nil, storage.ErrNotFound
}

func (noopStore) GetObject(ctx context.Context, bucket, key string, cond *storage.Conditional) (*storage.Object, error) {
	return nil, storage.ErrNotFound
}

func (noopStore) PutObject(ctx context.Context, bucket, key string, params *storage.PutObjectParams) (*storage.PutObjectResult, error) {
	return nil, storage.ErrNotFound
}

func (noopStore) DeleteObject(ctx context.Context, bucket, key string, cond *storage.Conditional) error {
	return nil
}

func (noopStore) CreateBucket(ctx context.Context, bucket string) error { return nil }

func (noopStore) DeleteBucket(ctx context.Context, bucket string) error { return nil }

func newAuthedRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqldb, err := db.NewSqliteDB(db.WithPath(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	storageSvc := storage.NewStorageService(noopStore{}, storage.Config{BucketSuffix: "-test"})
	accountsSvc, err := accounts.NewAccountService(sqldb, storageSvc)
	require.NoError(t, err)

	account, err := accountsSvc.Create(context.Background(), "alice")
	require.NoError(t, err)

	authCfg := &auth.Config{
		Enabled:           true,
		TokenIssuer:       "hoard-test",
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Minute,
	}
	authSvc := auth.NewAuthService(authCfg, accountsSvc)

	token, err := authSvc.IssueToken(context.Background(), "alice", account.Secret, []string{"notes:rw"})
	require.NoError(t, err)

	r := gin.New()
	handler := func(ctx *gin.Context) { ctx.Status(http.StatusOK) }
	group := r.Group("/storage/:username")
	group.Use(StorageAuth(authSvc))
	group.GET("/*path", handler)
	group.PUT("/*path", handler)
	group.DELETE("/*path", handler)

	return r, token
}

func request(r *gin.Engine, method, target, bearer string) int {
	req := httptest.NewRequest(method, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestStorageAuth_ScopedAccess(t *testing.T) {
	r, token := newAuthedRouter(t)

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/storage/alice/notes/today", token))
	assert.Equal(t, http.StatusOK, request(r, http.MethodPut, "/storage/alice/notes/today", token))
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/storage/alice/public/notes/today", token))

	// outside the granted category
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodGet, "/storage/alice/contacts/card", token))

	// root listing needs the root scope
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodGet, "/storage/alice/", token))
}

func TestStorageAuth_MissingOrBadToken(t *testing.T) {
	r, _ := newAuthedRouter(t)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/storage/alice/notes/today", ""))
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/storage/alice/notes/today", "garbage"))
}

func TestStorageAuth_WrongSubject(t *testing.T) {
	r, token := newAuthedRouter(t)

	assert.Equal(t, http.StatusForbidden, request(r, http.MethodGet, "/storage/bob/notes/today", token))
}

func TestStorageAuth_PublicDocuments(t *testing.T) {
	r, _ := newAuthedRouter(t)

	// anonymous reads of public documents pass through
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/storage/alice/public/notes/today", ""))

	// public folder listings and writes still need a token
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/storage/alice/public/notes/", ""))
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPut, "/storage/alice/public/notes/today", ""))
}
