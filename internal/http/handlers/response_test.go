package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnvelopeRouter(rid string, lg *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", rid)
		if lg != nil {
			c.Set("logger", lg)
		}
		c.Next()
	})
	return r
}

func TestFail_ServerErrorIsLoggedWithRoute(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	r := newEnvelopeRouter("rid-500", &lg)
	r.GET("/movies/:id/", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "db unavailable")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/movies/3/", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorResponse{RequestID: "rid-500", Code: ErrCodeInternal, Message: "db unavailable"}, resp)

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"route":"/movies/:id/"`)
}

func TestFail_ClientErrorIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	r := newEnvelopeRouter("rid-400", &lg)
	r.GET("/x", func(c *gin.Context) { Fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nope") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, buf.String())
}

func TestNotFoundAndOK(t *testing.T) {
	r := newEnvelopeRouter("rid-404", nil)
	r.GET("/missing", func(c *gin.Context) { notFound(c, "review") })
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"id": 1}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	assert.Equal(t, "rid-404", er.RequestID)
	assert.Equal(t, ErrCodeNotFound, er.Code)
	assert.Equal(t, "review not found", er.Message)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())
}
