package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limitedRouter(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header(HeaderRequestID, "rid-rl"); c.Next() })
	r.Use(pre...)
	r.Use(rl.Handler())
	r.POST("/movies/create/", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func postFrom(r http.Handler, addr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/movies/create/", nil)
	req.RemoteAddr = addr
	r.ServeHTTP(w, req)
	return w
}

func TestKeyByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.9:12345"

	if key := KeyByIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("key = %q", key)
	}
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(2, -3, nil)
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want 1", rl.burst)
	}
	if rl.keyFn == nil || rl.ttl != bucketTTL {
		t.Fatalf("defaults not applied: %+v", rl)
	}
	now := time.Now()
	if rl.limiterFor("a", now) != rl.limiterFor("a", now) {
		t.Fatal("bucket for the same key must be reused")
	}
	if rl.limiterFor("a", now) == rl.limiterFor("b", now) {
		t.Fatal("different keys must not share a bucket")
	}
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	start := time.Now()
	rl.limiterFor("idle", start)
	rl.limiterFor("busy", start)

	later := start.Add(bucketTTL + time.Second)
	rl.mu.Lock()
	rl.buckets["busy"].seen = later
	rl.lookups = sweepEvery - 1
	rl.mu.Unlock()

	rl.limiterFor("fresh", later)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["idle"]; ok {
		t.Fatal("idle bucket survived sweep")
	}
	for _, k := range []string{"busy", "fresh"} {
		if _, ok := rl.buckets[k]; !ok {
			t.Fatalf("bucket %q missing after sweep", k)
		}
	}
	if rl.lookups != 0 {
		t.Fatalf("lookups = %d after sweep", rl.lookups)
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	for _, tc := range []struct {
		val  any
		want bool
	}{
		{nil, false},
		{true, true},
		{false, false},
		{"true", false},
	} {
		if tc.val != nil {
			c.Set(ctxKeyRateBypass, tc.val)
		}
		if got := IsRateBypass(c); got != tc.want {
			t.Fatalf("IsRateBypass with %v = %v", tc.val, got)
		}
	}
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	r := limitedRouter(NewRateLimiter(0.001, 1, nil))

	if w := postFrom(r, "198.51.100.1:1000"); w.Code != http.StatusCreated {
		t.Fatalf("first = %d", w.Code)
	}
	w := postFrom(r, "198.51.100.1:1001")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != "too_many_requests" || body["request_id"] != "rid-rl" {
		t.Fatalf("body = %v", body)
	}

	// another client still has its own token
	if w := postFrom(r, "198.51.100.2:1000"); w.Code != http.StatusCreated {
		t.Fatalf("other client = %d", w.Code)
	}
}

func TestRateLimiter_ReplaysBypass(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, nil)
	replay := func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() }
	r := limitedRouter(rl, replay)

	for i := 0; i < 3; i++ {
		if w := postFrom(r, "198.51.100.3:1000"); w.Code != http.StatusCreated {
			t.Fatalf("replay %d = %d", i, w.Code)
		}
	}
	// replays consumed nothing
	if !rl.limiterFor("ip:198.51.100.3", time.Now()).Allow() {
		t.Fatal("bucket drained by bypassed requests")
	}
}
