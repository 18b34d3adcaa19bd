// Package handlers implements the catalog's HTTP endpoints.
//
// Every failure is written as ErrorResponse with a stable code from
// errors.go; every success is the endpoint's DTO as plain JSON.
//
//	HTTP/1.1 404 Not Found
//	{"request_id": "123e4567-…", "code": "not_found", "message": "movie not found"}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/http/middleware"
)

// ErrorResponse is the error envelope shared by all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID; matches the server's access log line.
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"movie not found"`
}

// fail aborts with the envelope. 5xx are logged through the request logger
// together with the matched route.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("route", c.FullPath()).
			Str("error", msg).
			Msg("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get(middleware.HeaderRequestID),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for callers outside the package (router fallbacks).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// notFound answers 404 "<what> not found".
func notFound(c *gin.Context, what string) {
	fail(c, http.StatusNotFound, ErrCodeNotFound, what+" not found")
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
