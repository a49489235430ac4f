package storage

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoardhq/hoard/internal/server/handlers/api"
	"github.com/hoardhq/hoard/internal/server/storage"
)

type StorageHandler struct {
	storage *storage.StorageService
}

func New(storage *storage.StorageService) *StorageHandler {
	return &StorageHandler{storage: storage}
}

// requestPath extracts the storage path from the wildcard route param,
// preserving a trailing slash so folder requests stay folder requests.
func requestPath(ctx *gin.Context) string {
	return strings.TrimPrefix(ctx.Param("path"), "/")
}

// requestConditional builds the conditional from If-Match/If-None-Match
// headers. ETags travel quoted on the wire and unquoted in the core.
func requestConditional(ctx *gin.Context) *storage.Conditional {
	ifMatch := ctx.GetHeader("If-Match")
	ifNoneMatch := ctx.GetHeader("If-None-Match")
	if ifMatch == "" && ifNoneMatch == "" {
		return nil
	}

	return &storage.Conditional{
		IfMatch:     unquoteETag(ifMatch),
		IfNoneMatch: unquoteETag(ifNoneMatch),
	}
}

func unquoteETag(header string) string {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return header
	}
	// clients only ever send a single ETag; a list is reduced to its first entry
	if first, _, ok := strings.Cut(header, ","); ok {
		header = strings.TrimSpace(first)
	}
	header = strings.TrimPrefix(header, "W/")
	return strings.Trim(header, `"`)
}

func quoteETag(etag string) string {
	return `"` + etag + `"`
}

// abortStorageError translates core storage errors to their HTTP shape.
func abortStorageError(ctx *gin.Context, err error) {
	var throttled *storage.ThrottledError
	switch {
	case errors.Is(err, storage.ErrNotModified):
		// a 304 carries the ETag the full response would have had, which is
		// the revision the client presented
		if etag := unquoteETag(ctx.GetHeader("If-None-Match")); etag != "" && etag != "*" {
			ctx.Header("ETag", quoteETag(etag))
		}
		ctx.Status(http.StatusNotModified)
		ctx.Abort()

	case errors.Is(err, storage.ErrInvalidPath):
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeStorageInvalidPath, err)

	case errors.Is(err, storage.ErrNotFound):
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeStorageNotFound, err)

	case errors.Is(err, storage.ErrPreconditionFailed):
		api.AbortWithError(ctx, http.StatusPreconditionFailed, api.CodeStoragePrecondition, err)

	case errors.Is(err, storage.ErrUpdateRace):
		api.AbortWithError(ctx, http.StatusConflict, api.CodeStorageUpdateRace, err)

	case storage.IsConflict(err):
		api.AbortWithError(ctx, http.StatusConflict, api.CodeStorageConflict, err)

	case errors.Is(err, storage.ErrUploadTimeout):
		api.AbortWithError(ctx, http.StatusGatewayTimeout, api.CodeStorageTimeout, err)

	case errors.As(err, &throttled):
		ctx.Header("Retry-After", strconv.Itoa(int(math.Ceil(throttled.RetryAfter.Seconds()))))
		api.AbortWithError(ctx, http.StatusServiceUnavailable, api.CodeStorageThrottled, err)

	default:
		api.AbortWithError(ctx, http.StatusBadGateway, api.CodeStorageUnavailable,
			fmt.Errorf("storage backend: %w", err))
	}
}
