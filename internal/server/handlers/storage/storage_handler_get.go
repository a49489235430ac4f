package storage

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hoardhq/hoard/internal/server/handlers/api"
	"github.com/hoardhq/hoard/internal/server/storage"
)

func (h *StorageHandler) Get(ctx *gin.Context) {
	username := ctx.Param("username")
	path := requestPath(ctx)

	result, err := h.storage.Get(ctx.Request.Context(), username, path, requestConditional(ctx))
	if err != nil {
		abortStorageError(ctx, err)
		return
	}

	if result.IsFolder() {
		body, err := result.Folder.Encode()
		if err != nil {
			api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError,
				fmt.Errorf("encode folder: %w", err))
			return
		}
		ctx.Header("ETag", quoteETag(result.FolderETag))
		ctx.Header("Cache-Control", "no-cache")
		ctx.Data(http.StatusOK, storage.FolderMIMEType, body)
		return
	}

	doc := result.Document
	ctx.Header("ETag", quoteETag(doc.ETag))
	ctx.Header("Cache-Control", "no-cache")
	if !doc.LastModified.IsZero() {
		ctx.Header("Last-Modified", doc.LastModified.UTC().Format(http.TimeFormat))
	}
	ctx.DataFromReader(http.StatusOK, doc.ContentLength, doc.ContentType, doc.Body, nil)
}

func (h *StorageHandler) Head(ctx *gin.Context) {
	username := ctx.Param("username")
	path := requestPath(ctx)

	info, err := h.storage.Head(ctx.Request.Context(), username, path)
	if err != nil {
		abortStorageError(ctx, err)
		return
	}

	contentType := info.ContentType
	if info.IsFolder() {
		contentType = storage.FolderMIMEType
	}

	ctx.Header("ETag", quoteETag(info.ETag))
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Content-Type", contentType)
	ctx.Header("Content-Length", strconv.FormatInt(info.ContentLength, 10))
	if !info.LastModified.IsZero() {
		ctx.Header("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	ctx.Status(http.StatusOK)
}
