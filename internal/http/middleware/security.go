package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
//
// Caching: NoStore marks every response no-store. Otherwise, with
// CacheMaxAge of at least a second, GET and HEAD get
// "private, max-age=N" and every other method gets no-store. With neither
// set no cache headers are written.
type SecurityOptions struct {
	EnableHSTS   bool          // HTTPS requests only
	HSTSMaxAge   time.Duration // 180 days when zero
	NoStore      bool
	CacheMaxAge  time.Duration
	EnablePolicy bool // Permissions-Policy, X-Permitted-Cross-Domain-Policies
}

type headerPair struct{ name, value string }

// SecurityHeaders sets hardening headers on every response and makes sure
// browsers may read X-Request-ID.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := []headerPair{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		static = append(static,
			headerPair{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			headerPair{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}

	hstsAge := opt.HSTSMaxAge
	if hstsAge <= 0 {
		hstsAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(hstsAge.Seconds())) + "; includeSubDomains; preload"

	var readCache string
	if secs := int(opt.CacheMaxAge.Seconds()); secs > 0 {
		readCache = "private, max-age=" + strconv.Itoa(secs)
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, p := range static {
			h.Set(p.name, p.value)
		}

		switch {
		case opt.NoStore:
			setNoStore(h)
		case readCache == "":
		case isRead(c.Request.Method):
			h.Set("Cache-Control", readCache)
		default:
			setNoStore(h)
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(HeaderRequestID) != "" {
			exposeHeader(h, HeaderRequestID)
		}
		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers unless listed.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}

func setNoStore(h http.Header) {
	h.Set("Cache-Control", "no-store")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// isHTTPS trusts X-Forwarded-Proto from the fronting proxy.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
