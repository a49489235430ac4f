package storage

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *StorageHandler) Delete(ctx *gin.Context) {
	username := ctx.Param("username")
	path := requestPath(ctx)

	result, err := h.storage.Delete(ctx.Request.Context(), username, path, requestConditional(ctx))
	if err != nil {
		abortStorageError(ctx, err)
		return
	}

	// the ETag names the revision that was removed
	ctx.Header("ETag", quoteETag(result.ETag))
	ctx.Status(http.StatusNoContent)
}
