// Review HTTP handlers.
//
// This file exposes REST endpoints for reviews:
//   - GET    /reviews/                    (list, newest first, ETag support)
//   - GET    /reviews/{id}/               (detail)
//   - POST   /reviews/create/             (create, recomputes the movie average)
//   - DELETE /reviews/{id}/delete/        (delete, recomputes the movie average)
//   - GET    /reviews/movie/{movie_id}/   (all reviews of one movie)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// create exists for (route, key), the handler returns the recorded review
// with its original status and sets `Idempotent-Replay: true`. No second row
// is written and the movie average is not recomputed again.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/services"
)

//
// DTOs
//

// CreateReviewRequest is the JSON payload for submitting a review.
type CreateReviewRequest struct {
	// ReviewerName is trimmed before its length is checked, by the service.
	ReviewerName string `json:"reviewer_name" binding:"required,notblank" example:"Ana"`
	// Movie is the id of the reviewed movie.
	Movie   uint   `json:"movie" binding:"required" example:"1"`
	Score   int    `json:"score" binding:"required,min=1,max=5" example:"5"`
	Comment string `json:"comment" example:"Masterpiece."`
}

// CreateReviewResponse confirms a created review.
type CreateReviewResponse struct {
	Message string         `json:"message" example:"Review created successfully."`
	Review  *domain.Review `json:"review"`
}

// ListReviewsResponse wraps a page of reviews and pagination information.
type ListReviewsResponse struct {
	Results    []domain.Review `json:"results"`
	Pagination Pagination      `json:"pagination"`
}

// MovieReviewsResponse lists the reviews of one movie with its cached average.
type MovieReviewsResponse struct {
	Movie         string          `json:"movie" example:"Cidade de Deus"`
	AverageRating domain.Rating   `json:"average_rating" swaggertype:"string" example:"4.5"`
	ReviewCount   int             `json:"review_count" example:"2"`
	Reviews       []domain.Review `json:"reviews"`
}

const reviewCreatedMessage = "Review created successfully."

//
// Handlers
//

// ListReviews godoc
// @ID          listReviews
// @Summary     List reviews (paginated)
// @Description Returns a page of reviews, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Reviews
// @Produce     json
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListReviewsResponse
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/ [get]
func (h *Handlers) ListReviews(c *gin.Context) {
	page, pageSize := h.clampPagination(c)
	if checkETag(c, "reviews", h.reviewSvc.Stats, page, pageSize) {
		return
	}

	items, total, err := h.reviewSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListReviewsResponse{
		Results:    items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetReview godoc
// @ID          getReview
// @Summary     Get a review
// @Tags        Reviews
// @Produce     json
// @Param       id   path     int  true  "Review ID"
// @Success     200  {object} domain.Review
// @Failure     404  {object} handlers.ErrorResponse "Review not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/{id}/ [get]
func (h *Handlers) GetReview(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		notFound(c, "review")
		return
	}
	r, err := h.reviewSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrReviewNotFound) {
			notFound(c, "review")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, r)
}

// CreateReview godoc
// @ID          createReview
// @Summary     Submit a review
// @Description Stores a review and recomputes the movie's average rating in the same transaction.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Reviews
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateReviewRequest  true  "Review payload"
// @Success     201  {object} handlers.CreateReviewResponse
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/create/ [post]
func (h *Handlers) CreateReview(c *gin.Context) {
	ctx := c.Request.Context()

	scope, key, idem := h.idempotencyKey(c)
	if idem {
		if rec, err := h.idem.Lookup(ctx, scope, key); err == nil && rec != nil {
			if prev, err := h.reviewSvc.Get(ctx, rec.ResourceID); err == nil {
				c.Header(HeaderIdempotentReplay, "true")
				ok(c, rec.Status, CreateReviewResponse{Message: reviewCreatedMessage, Review: prev})
				return
			}
		}
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, bindMessage(err))
		return
	}

	r, err := h.reviewSvc.Create(ctx, services.ReviewInput{
		ReviewerName: req.ReviewerName,
		MovieID:      req.Movie,
		Score:        req.Score,
		Comment:      req.Comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMovieNotFound):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "movie does not exist")
		case errors.Is(err, services.ErrInvalidScore),
			errors.Is(err, services.ErrBlankReviewer),
			errors.Is(err, services.ErrReviewerTooLong):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	if idem {
		h.rememberCreate(c, scope, key, r.ID, http.StatusCreated)
	}
	ok(c, http.StatusCreated, CreateReviewResponse{Message: reviewCreatedMessage, Review: r})
}

// DeleteReview godoc
// @ID          deleteReview
// @Summary     Delete a review
// @Description Deletes a review and recomputes the movie's average rating from the remaining reviews.
// @Tags        Reviews
// @Produce     json
// @Param       id   path     int  true  "Review ID"
// @Success     200  {object} handlers.MessageResponse
// @Failure     404  {object} handlers.ErrorResponse "Review not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/{id}/delete/ [delete]
func (h *Handlers) DeleteReview(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		notFound(c, "review")
		return
	}
	if err := h.reviewSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrReviewNotFound) {
			notFound(c, "review")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Review deleted successfully."})
}

// ReviewsByMovie godoc
// @ID          reviewsByMovie
// @Summary     Reviews of a movie
// @Description Returns the movie title, its cached average rating and all of its reviews, newest first.
// @Tags        Reviews
// @Produce     json
// @Param       movie_id  path     int  true  "Movie ID"
// @Success     200       {object} handlers.MovieReviewsResponse
// @Failure     404       {object} handlers.ErrorResponse "Movie not found"
// @Failure     500       {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/movie/{movie_id}/ [get]
func (h *Handlers) ReviewsByMovie(c *gin.Context) {
	id, found := pathID(c, "movie_id")
	if !found {
		notFound(c, "movie")
		return
	}
	mr, err := h.reviewSvc.ListForMovie(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			notFound(c, "movie")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, MovieReviewsResponse{
		Movie:         mr.MovieTitle,
		AverageRating: mr.AverageRating,
		ReviewCount:   len(mr.Reviews),
		Reviews:       mr.Reviews,
	})
}
