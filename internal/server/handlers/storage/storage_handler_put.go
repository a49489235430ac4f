package storage

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *StorageHandler) Put(ctx *gin.Context) {
	username := ctx.Param("username")
	path := requestPath(ctx)

	// raw header, not ctx.ContentType(): media type parameters such as
	// charset are part of the stored type
	contentType := ctx.GetHeader("Content-Type")
	contentLength := ctx.Request.ContentLength

	result, err := h.storage.Put(
		ctx.Request.Context(),
		username,
		path,
		contentType,
		contentLength,
		ctx.Request.Body,
		requestConditional(ctx),
	)
	if err != nil {
		abortStorageError(ctx, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}

	ctx.Header("ETag", quoteETag(result.ETag))
	ctx.Header("Last-Modified", result.LastModified.UTC().Format(http.TimeFormat))
	ctx.Status(status)
}
