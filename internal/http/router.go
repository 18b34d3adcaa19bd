// Package httpapi wires the Gin transport to the catalog services. It owns
// middleware ordering, CORS and security posture, operational endpoints and
// the public movie and review routes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/docs"
	"github.com/tbourn/go-movie-catalog/internal/config"
	"github.com/tbourn/go-movie-catalog/internal/http/handlers"
	"github.com/tbourn/go-movie-catalog/internal/http/middleware"
	"github.com/tbourn/go-movie-catalog/internal/services"
)

// maxBodyBytes caps request bodies for every route.
const maxBodyBytes = 1 << 20

// RegisterRoutes installs middleware and all endpoints on r.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. Logger
//  4. Recovery
//  5. body size limit
//  6. Metrics
//  7. gzip (GZIP_ENABLED)
//  8. CORS and security headers
//
// Rate limiting applies to the write routes. Create routes also validate
// Idempotency-Key, ahead of the limiter so replays are never throttled.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())
	if cfg.GzipEnabled {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		CacheMaxAge:  cfg.Security.CacheMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ratings := services.NewRatingAggregator()
	movieSvc := services.NewMovieService(db, ratings)
	reviewSvc := services.NewReviewService(db, ratings)
	idemSvc := services.NewIdempotencyService(db, cfg.IdempotencyTTL)

	h := handlers.New(movieSvc, reviewSvc, idemSvc)
	if cfg.PageSize > 0 {
		h.DefaultPageSize = cfg.PageSize
	}
	if cfg.MaxPageSize > 0 {
		h.MaxPageSize = cfg.MaxPageSize
	}

	limit := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).Handler()
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idemSvc.Exists)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/movies/", h.ListMovies)
		api.GET("/movies/search/", h.SearchMovies)
		api.GET("/movies/genre/:genre/", h.MoviesByGenre)
		api.GET("/movies/year/:year/", h.MoviesByYear)
		api.POST("/movies/create/", idem, limit, h.CreateMovie)
		api.GET("/movies/:id/", h.GetMovie)
		api.DELETE("/movies/:id/delete/", limit, h.DeleteMovie)

		api.GET("/reviews/", h.ListReviews)
		api.POST("/reviews/create/", idem, limit, h.CreateReview)
		api.GET("/reviews/movie/:movie_id/", h.ReviewsByMovie)
		api.GET("/reviews/:id/", h.GetReview)
		api.DELETE("/reviews/:id/delete/", limit, h.DeleteReview)
	}
}

// corsMiddleware allows every origin when the allowlist is empty, otherwise
// only the listed origins. Credentials are never allowed.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{middleware.HeaderRequestID, "ETag", handlers.HeaderIdempotentReplay, "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// limitBody caps the request body at maxBytes; larger bodies fail to bind.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
