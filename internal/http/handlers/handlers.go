package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/http/middleware"
	"github.com/tbourn/go-movie-catalog/internal/services"
	"github.com/tbourn/go-movie-catalog/internal/utils"
)

//
// Service contracts (context-aware)
//

// MovieService defines the catalog operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MovieService interface {
	// ListPage returns a page of movies and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Movie, int64, error)
	// Get returns one movie with its review count.
	Get(ctx context.Context, id uint) (*services.MovieDetail, error)
	// Search matches q against titles and synopses.
	Search(ctx context.Context, q string) ([]domain.Movie, error)
	// ByGenre returns movies of one genre (case-insensitive).
	ByGenre(ctx context.Context, genre string) ([]domain.Movie, error)
	// ByYear returns movies released in year.
	ByYear(ctx context.Context, year int) ([]domain.Movie, error)
	// Create validates and stores a new movie.
	Create(ctx context.Context, in services.MovieInput) (*domain.Movie, error)
	// Delete removes a movie and its reviews.
	Delete(ctx context.Context, id uint) error
	// Stats returns the row count and latest change, used for ETags.
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// ReviewService defines review operations consumed by HTTP handlers.
type ReviewService interface {
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Review, int64, error)
	Get(ctx context.Context, id uint) (*domain.Review, error)
	Create(ctx context.Context, in services.ReviewInput) (*domain.Review, error)
	Delete(ctx context.Context, id uint) error
	ListForMovie(ctx context.Context, movieID uint) (*services.MovieReviews, error)
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// IdempotencyStore persists and replays create outcomes keyed by
// (route, Idempotency-Key).
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (*domain.Idempotency, error)
	Remember(ctx context.Context, scope, key string, resourceID uint, status int) error
}

//
// Handler wiring
//

// HeaderIdempotentReplay marks a response served from a stored create outcome.
const HeaderIdempotentReplay = "Idempotent-Replay"

// Handlers groups HTTP endpoints for movies and reviews. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	movieSvc  MovieService
	reviewSvc ReviewService
	idem      IdempotencyStore

	// DefaultPageSize and MaxPageSize bound ?page_size on list endpoints.
	DefaultPageSize int
	MaxPageSize     int
}

// New constructs a Handlers instance bound to the given services. idem may be
// nil, which disables idempotent replay.
func New(movieSvc MovieService, reviewSvc ReviewService, idem IdempotencyStore) *Handlers {
	mustRegisterValidators()
	return &Handlers{
		movieSvc:        movieSvc,
		reviewSvc:       reviewSvc,
		idem:            idem,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// MessageResponse is a bare confirmation message.
type MessageResponse struct {
	Message string `json:"message" example:"Review deleted successfully."`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params,
// returning (page, pageSize).
func (h *Handlers) clampPagination(c *gin.Context) (page, pageSize int) {
	def, limit := h.DefaultPageSize, h.MaxPageSize
	if def < 1 {
		def = 20
	}
	if limit < def {
		limit = def
	}
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), def), 1, limit)
	return
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// checkETag sets a weak ETag derived from (name, count, last change, page
// window) and reports whether the request's If-None-Match already matches,
// in which case a 304 has been written. Stats failures skip the check.
func checkETag(c *gin.Context, name string, stats func(context.Context) (int64, *time.Time, error), page, pageSize int) bool {
	count, maxTS, err := stats(c.Request.Context())
	if err != nil {
		return false
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d:%d:%d"`, name, count, ts, page, pageSize)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// pathID parses a positive integer path parameter. Anything else is treated
// as an unknown resource.
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// idempotencyKey returns the validated Idempotency-Key and the route scope it
// applies to. found is false when replay is disabled or no key was sent.
func (h *Handlers) idempotencyKey(c *gin.Context) (scope, key string, found bool) {
	if h.idem == nil {
		return "", "", false
	}
	key, found = middleware.GetIdempotencyKey(c)
	if !found {
		return "", "", false
	}
	return c.FullPath(), key, true
}

// rememberCreate stores a create outcome for later replay. Failures are logged
// and never fail the request.
func (h *Handlers) rememberCreate(c *gin.Context, scope, key string, id uint, status int) {
	if err := h.idem.Remember(c.Request.Context(), scope, key, id, status); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency record not stored")
	}
}
