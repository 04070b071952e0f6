// Package middleware carries the cross-cutting gin middleware: request
// logging and CORS.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"realnews/logger"
)

// RequestLogger logs one structured line per request. Server errors log at
// error level so they stand out of the access log.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logger.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.ErrorWithFields("http request", fields)
			return
		}
		logger.InfoWithFields("http request", fields)
	}
}

// CORS adapts rs/cors onto gin. Open policy: the API serves a public
// frontend and the admin panel from other origins.
func CORS() gin.HandlerFunc {
	mw := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return func(c *gin.Context) {
		mw.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
