package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoardhq/hoard/internal/server/auth"
	"github.com/hoardhq/hoard/internal/server/handlers/api"
)

type AuthHandler struct {
	auth *auth.AuthService
}

func New(auth *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		auth: auth,
	}
}

func (h *AuthHandler) Token(ctx *gin.Context) {
	var req TokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			fmt.Errorf("failed to bind json: %w", err))
		return
	}

	token, err := h.auth.IssueToken(ctx.Request.Context(), req.Username, req.Secret, req.Scopes)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidScope):
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeAuthInvalidScope, err)
		case errors.Is(err, auth.ErrInvalidCredentials):
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, err)
		default:
			api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeAuthTokenGenerationFailed, err)
		}
		return
	}

	ctx.PureJSON(http.StatusOK, &TokenResponse{
		AccessToken: token,
	})
}
