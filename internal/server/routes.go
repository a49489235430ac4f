package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoardhq/hoard/internal/server/handlers/account"
	"github.com/hoardhq/hoard/internal/server/handlers/auth"
	"github.com/hoardhq/hoard/internal/server/handlers/storage"
	"github.com/hoardhq/hoard/internal/server/handlers/webfinger"
	"github.com/hoardhq/hoard/internal/server/middlewares"
	"github.com/hoardhq/hoard/internal/version"
)

func SetupRoutes(config *Config, svc *Services) http.Handler {
	r := gin.New()

	storageH := storage.New(svc.Storage)
	authH := auth.New(svc.Auth)
	accountH := account.New(svc.Accounts, config.Accounts.InviteCode)
	webfingerH := webfinger.New(svc.Accounts, config.HTTP.BaseURL)

	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(middlewares.GZIP())
	r.Use(middlewares.CORS())

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)
	r.GET("/.well-known/webfinger", webfingerH.Lookup)

	r.POST("/auth/token", middlewares.RateLimiter("10-M"), authH.Token)

	if config.Accounts.SignupEnabled {
		r.POST("/account", middlewares.RateLimiter("5-M"), accountH.Signup)
	}

	st := r.Group("/storage/:username")
	st.Use(middlewares.StorageAuth(svc.Auth))
	{
		st.GET("/*path", storageH.Get)
		st.HEAD("/*path", storageH.Head)
		st.PUT("/*path", storageH.Put)
		st.DELETE("/*path", storageH.Delete)
	}

	r.NoRoute(func(c *gin.Context) {
		c.PureJSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.PureJSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
