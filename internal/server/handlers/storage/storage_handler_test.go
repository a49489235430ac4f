package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardhq/hoard/internal/server/storage"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	svc := storage.NewStorageService(store, storage.Config{BucketSuffix: "-test"})
	require.NoError(t, svc.ProvisionUser(context.Background(), "alice"))

	h := New(svc)
	r := gin.New()
	r.GET("/storage/:username/*path", h.Get)
	r.HEAD("/storage/:username/*path", h.Head)
	r.PUT("/storage/:username/*path", h.Put)
	r.DELETE("/storage/:username/*path", h.Delete)
	return r
}

func doRequest(r *gin.Engine, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.ContentLength = int64(len(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload.Code
}

func TestPutThenGetDocument(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/notes/today.txt", "buy milk",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusCreated, w.Code)
	etag := w.Header().Get("ETag")
	assert.Regexp(t, `^".+"$`, etag)

	w = doRequest(r, http.MethodGet, "/storage/alice/notes/today.txt", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "buy milk", w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, etag, w.Header().Get("ETag"))
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))
}

func TestPutOverwriteReturnsOK(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/doc", "v1",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodPut, "/storage/alice/doc", "v2",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetFolderListing(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/notes/today.txt", "buy milk",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/storage/alice/notes/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, storage.FolderMIMEType, w.Header().Get("Content-Type"))

	folder, err := storage.DecodeFolder(w.Body)
	require.NoError(t, err)
	assert.Contains(t, folder.Items, "today.txt")
}

func TestGetEmptyFolderSynthesized(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/storage/alice/nothing/here/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, quoteETag(storage.EmptyFolderETag()), w.Header().Get("ETag"))

	folder, err := storage.DecodeFolder(w.Body)
	require.NoError(t, err)
	assert.Empty(t, folder.Items)

	// a matching If-None-Match on the synthesized listing still gets its 304
	w = doRequest(r, http.MethodGet, "/storage/alice/nothing/here/", "",
		map[string]string{"If-None-Match": quoteETag(storage.EmptyFolderETag())})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Equal(t, quoteETag(storage.EmptyFolderETag()), w.Header().Get("ETag"))
}

func TestPutPreservesContentTypeParams(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/readme.txt", "hi",
		map[string]string{"Content-Type": "text/plain; charset=utf-8"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/storage/alice/readme.txt", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestGetMissingDocument(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/storage/alice/ghost.txt", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "E_STORAGE_NOT_FOUND", errorCode(t, w))
}

func TestConditionalRequests(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/doc", "v1",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusCreated, w.Code)
	etag := w.Header().Get("ETag")

	// cached read; the 304 names the revision it confirms
	w = doRequest(r, http.MethodGet, "/storage/alice/doc", "",
		map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Equal(t, etag, w.Header().Get("ETag"))

	// stale update
	w = doRequest(r, http.MethodPut, "/storage/alice/doc", "v2",
		map[string]string{"Content-Type": "text/plain", "If-Match": `"stale-etag"`})
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "E_STORAGE_PRECONDITION", errorCode(t, w))

	// fresh update
	w = doRequest(r, http.MethodPut, "/storage/alice/doc", "v2",
		map[string]string{"Content-Type": "text/plain", "If-Match": etag})
	assert.Equal(t, http.StatusOK, w.Code)

	// create-only over an existing document
	w = doRequest(r, http.MethodPut, "/storage/alice/doc", "v3",
		map[string]string{"Content-Type": "text/plain", "If-None-Match": "*"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestPutPathConflicts(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/album/cover.jpg", "jpeg",
		map[string]string{"Content-Type": "image/jpeg"})
	require.Equal(t, http.StatusCreated, w.Code)

	// a folder path cannot be written as a document
	w = doRequest(r, http.MethodPut, "/storage/alice/album/", "data",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "E_STORAGE_CONFLICT", errorCode(t, w))

	// a document cannot shadow an existing folder
	w = doRequest(r, http.MethodPut, "/storage/alice/album", "data",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusConflict, w.Code)

	// descendants of a document are unreachable
	w = doRequest(r, http.MethodPut, "/storage/alice/album/cover.jpg/thumb", "data",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestInvalidPath(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/a//b", "data",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "E_STORAGE_INVALID_PATH", errorCode(t, w))
}

func TestDelete(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/doc", "v1",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusCreated, w.Code)
	etag := w.Header().Get("ETag")

	w = doRequest(r, http.MethodDelete, "/storage/alice/doc", "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, etag, w.Header().Get("ETag"))

	w = doRequest(r, http.MethodDelete, "/storage/alice/doc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHeadDocument(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPut, "/storage/alice/doc", "hello",
		map[string]string{"Content-Type": "text/plain"})
	require.Equal(t, http.StatusCreated, w.Code)
	etag := w.Header().Get("ETag")

	w = doRequest(r, http.MethodHead, "/storage/alice/doc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, etag, w.Header().Get("ETag"))
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, "5", w.Header().Get("Content-Length"))
	assert.Empty(t, w.Body.String())
}

func TestUnknownUser(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/storage/nobody/doc", "", nil)
	// bucket is gone, so the document is gone
	assert.Equal(t, http.StatusNotFound, w.Code)
}
