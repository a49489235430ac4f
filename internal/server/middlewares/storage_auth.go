package middlewares

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoardhq/hoard/internal/server/auth"
	"github.com/hoardhq/hoard/internal/server/handlers/api"
)

const (
	bearerPrefix   = "Bearer "
	authHeader     = "Authorization"
	UserContextKey = "user"
)

// StorageAuth validates the bearer token on storage routes and authorizes the
// request against the token's scopes. Documents under public/ may be read
// without credentials; everything else requires a token whose subject is the
// storage owner and whose scopes cover the path.
func StorageAuth(authService *auth.AuthService) gin.HandlerFunc {
	if !authService.IsEnabled() {
		slog.Info("storage auth middleware disabled")
		return func(ctx *gin.Context) {
			ctx.Next()
		}
	}
	slog.Info("storage auth middleware enabled")

	return func(ctx *gin.Context) {
		username := ctx.Param("username")
		path := strings.TrimPrefix(ctx.Param("path"), "/")
		write := ctx.Request.Method == http.MethodPut || ctx.Request.Method == http.MethodDelete

		headerValue := ctx.GetHeader(authHeader)
		if headerValue == "" {
			if !write && auth.IsPublicDocument(path) {
				ctx.Next()
				return
			}
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials,
				errors.New("authorization header is missing"))
			return
		}

		tokenString, ok := strings.CutPrefix(headerValue, bearerPrefix)
		if !ok || tokenString == "" {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials,
				errors.New("authorization header format must be Bearer {token}"))
			return
		}

		claims, err := authService.ValidateAccessToken(ctx.Request.Context(), tokenString)
		if err != nil {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, err)
			return
		}

		if !strings.EqualFold(claims.Subject, username) {
			api.AbortWithError(ctx, http.StatusForbidden, api.CodeAccessDenied,
				errors.New("token does not belong to this storage"))
			return
		}

		scopes, err := claims.GrantedScopes()
		if err != nil {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, err)
			return
		}

		if !auth.Authorized(scopes, path, write) {
			api.AbortWithError(ctx, http.StatusForbidden, api.CodeAccessDenied,
				errors.New("token scopes do not cover this path"))
			return
		}

		ctx.Set(UserContextKey, claims.Subject)
		ctx.Next()
	}
}
