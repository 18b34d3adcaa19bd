// Package middleware holds the gin middleware shared by every catalog route:
// request correlation, access logging, panic recovery, idempotency keys,
// rate limiting, security headers and Prometheus metrics.
//
// RequestID must run before Logger, and Logger before Recovery, so that
// access lines and panic reports carry the correlation ID.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID carries the correlation ID on requests and responses.
const HeaderRequestID = "X-Request-ID"

const (
	requestIDKey = "requestID"
	loggerKey    = "logger"

	maxLoggedQuery = 2048
	maxLoggedKey   = 64
)

// RequestID adopts the caller's X-Request-ID, or mints a UUID, and echoes it
// on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger stores a request-scoped zerolog logger (see LoggerFrom) and writes
// one access line per request once the chain has run.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		lc := log.With().
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxLoggedQuery)).
			Int64("bytes_in", c.Request.ContentLength)
		if key := c.GetHeader(HeaderIdempotencyKey); key != "" {
			lc = lc.Str("idempotency_key", truncate(key, maxLoggedKey))
		}
		l := lc.Logger()
		c.Set(loggerKey, &l)

		c.Next()

		ev := l.WithLevel(accessLevel(c)).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size())
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Msg("request")
	}
}

// accessLevel is error for 5xx or recorded gin errors, warn for 4xx and info
// for everything else.
func accessLevel(c *gin.Context) zerolog.Level {
	status := c.Writer.Status()
	switch {
	case len(c.Errors) > 0, status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// Recovery converts a panic into a 500. The JSON envelope is only written
// when the handler had not started its response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := requestID(c)
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", rid).
				Str("route", c.FullPath()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(HeaderRequestID, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the logger stored by Logger, falling back to the global
// logger. Never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok {
		return lg
	}
	l := log.Logger
	return &l
}

// truncate cuts s to limit bytes plus an ellipsis; limit <= 0 keeps s whole.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
