package middlewares

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows browser apps on any origin to talk to the storage API. Clients
// are web apps served from arbitrary origins, so the policy is deliberately
// permissive; authorization happens via bearer tokens, never cookies.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "HEAD", "PUT", "DELETE", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Authorization", "Content-Type", "Content-Length",
			"If-Match", "If-None-Match", "Origin",
		},
		ExposeHeaders:    []string{"ETag", "Content-Length", "Last-Modified", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
