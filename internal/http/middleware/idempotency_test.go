package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct {
	scope, key string
	now        time.Time
}

// idemRouter records every lookup and reports what the handler observed in
// the response body as "<key>|<replay>|<bypass>".
func idemRouter(opts IdempotencyOptions, found bool, err error) (*gin.Engine, *[]lookupCall) {
	gin.SetMode(gin.TestMode)
	var calls []lookupCall
	lookup := func(_ context.Context, scope, key string, now time.Time) (bool, error) {
		calls = append(calls, lookupCall{scope, key, now})
		return found, err
	}
	r := gin.New()
	r.Use(IdempotencyValidator(opts, lookup))
	observe := func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.String(http.StatusOK, "%s|%t|%t", key, IsReplay(c), IsRateBypass(c))
	}
	r.POST("/reviews/create/", observe)
	r.POST("/movies/create/", observe)
	return r, &calls
}

func postKey(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyValidator_NoHeader(t *testing.T) {
	r, calls := idemRouter(IdempotencyOptions{}, true, nil)
	w := postKey(r, "/reviews/create/", "")

	if w.Body.String() != "|false|false" {
		t.Fatalf("observed %q", w.Body.String())
	}
	if len(*calls) != 0 {
		t.Fatalf("lookup called without a key: %v", *calls)
	}
}

func TestIdempotencyValidator_RejectsMalformedKeys(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]+$`)
	tests := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"default max", IdempotencyOptions{}, strings.Repeat("a", defaultKeyMaxLen+1)},
		{"custom pattern", IdempotencyOptions{Pattern: digits}, "abc123"},
		{"default pattern", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, calls := idemRouter(tc.opts, false, nil)
			w := postKey(r, "/movies/create/", tc.key)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["code"] != "bad_idempotency_key" {
				t.Fatalf("body = %v", body)
			}
			if len(*calls) != 0 {
				t.Fatal("lookup must not run for a rejected key")
			}
		})
	}
}

func TestIdempotencyValidator_Lookup(t *testing.T) {
	tests := []struct {
		name  string
		found bool
		err   error
		want  string
	}{
		{"miss", false, nil, "key-1|false|false"},
		{"hit", true, nil, "key-1|true|true"},
		{"error is a miss", true, errors.New("db down"), "key-1|false|false"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, calls := idemRouter(IdempotencyOptions{}, tc.found, tc.err)
			w := postKey(r, "/reviews/create/", "key-1")

			if w.Code != http.StatusOK || w.Body.String() != tc.want {
				t.Fatalf("got %d %q, want %q", w.Code, w.Body.String(), tc.want)
			}
			if len(*calls) != 1 {
				t.Fatalf("lookup calls = %d", len(*calls))
			}
			call := (*calls)[0]
			if call.scope != "/reviews/create/" || call.key != "key-1" {
				t.Fatalf("lookup call = %+v", call)
			}
			if call.now.Location() != time.UTC || time.Since(call.now) > time.Minute {
				t.Fatalf("lookup time = %v", call.now)
			}
		})
	}
}

func TestIdempotencyValidator_ScopeIsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var scope string
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, func(_ context.Context, s, _ string, _ time.Time) (bool, error) {
		scope = s
		return false, nil
	}))
	r.POST("/movies/:id/", func(c *gin.Context) { c.Status(http.StatusOK) })

	postKey(r, "/movies/42/", "k-9")
	if scope != "/movies/:id/" {
		t.Fatalf("scope = %q", scope)
	}
}

func TestContextHelpers_IgnoreForeignTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Set(ctxKeyIdemKey, 123)
	c.Set(ctxKeyIdemReplay, "yes")
	if k, ok := GetIdempotencyKey(c); ok || k != "" {
		t.Fatalf("GetIdempotencyKey = %q, %v", k, ok)
	}
	if IsReplay(c) {
		t.Fatal("IsReplay true for non-bool")
	}
}
