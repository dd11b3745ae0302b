package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request ID.
	RequestIDKey = "request_id"
)

// quietPaths are health endpoints left out of the access log unless they fail.
var quietPaths = map[string]bool{"/healthz": true, "/readyz": true}

// RequestID reuses the caller's X-Request-ID or mints one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// Logger writes one access line per request: route pattern, status, size,
// latency and, on session routes, the session ID. Query strings are never
// logged.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if quietPaths[c.Request.URL.Path] && status < http.StatusBadRequest {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "(unmatched)"
		}
		requestID := c.GetString(RequestIDKey)
		if sid := c.Param("id"); sid != "" {
			log.Printf("[%s] %s %s session=%s %d %dB %s",
				requestID, c.Request.Method, route, sid, status, c.Writer.Size(), time.Since(start))
			return
		}
		log.Printf("[%s] %s %s %d %dB %s",
			requestID, c.Request.Method, route, status, c.Writer.Size(), time.Since(start))
	}
}

// Recovery turns a handler panic into a 500 in the API envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("[%s] panic recovered on %s %s: %v",
			c.GetString(RequestIDKey), c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"code": "INTERNAL_ERROR", "message": "an internal error occurred"},
		})
	})
}
