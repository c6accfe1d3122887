package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"mercury/backend/internal/constants"
)

const callerKey = "caller"

// RequestLogger logs one line per request, at a level chosen by status
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if caller := c.GetString(callerKey); caller != "" {
			fields = append(fields, zap.String("caller_id", caller))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP Request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}
	}
}

// CORS allows the configured browser origins
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", constants.UserIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequireCaller rejects requests whose authenticated caller, taken from the
// X-User-ID header set by the auth proxy, is not the user named by param.
func RequireCaller(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetHeader(constants.UserIDHeader)
		if caller == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "unauthorized"})
			return
		}
		c.Set(callerKey, caller)
		if caller != c.Param(param) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": "forbidden"})
			return
		}
		c.Next()
	}
}
