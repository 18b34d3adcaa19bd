// Movie HTTP handlers.
//
// This file exposes REST endpoints for the movie catalog:
//   - GET    /movies/                  (list, paginated, ETag support)
//   - GET    /movies/{id}/             (detail with review_count)
//   - GET    /movies/search/?q=        (title/synopsis substring search)
//   - GET    /movies/genre/{genre}/    (exact genre, case-insensitive)
//   - GET    /movies/year/{year}/      (exact release year)
//   - POST   /movies/create/           (create, Idempotency-Key aware)
//   - DELETE /movies/{id}/delete/      (delete with its reviews)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/services"
)

//
// DTOs
//

// CreateMovieRequest is the JSON payload for creating a movie. Derived fields
// (id, average_rating, timestamps) are not accepted. Poster and backdrop are
// free text, so relative media paths are fine; only the trailer must be a URL.
type CreateMovieRequest struct {
	Title           string   `json:"title" binding:"required,notblank,max=255" example:"Cidade de Deus"`
	Year            int      `json:"year" binding:"required,gte=1888,lte=2030" example:"2002"`
	Genre           string   `json:"genre" binding:"required,notblank,max=100" example:"Drama"`
	Synopsis        string   `json:"synopsis"`
	PosterURL       string   `json:"poster_url"`
	BackdropURL     string   `json:"backdrop_url"`
	Cast            []string `json:"cast"`
	TrailerURL      string   `json:"trailer_url" binding:"omitempty,url"`
	DurationMinutes *int     `json:"duration_minutes"`
}

// MovieSummary is the list projection of a movie.
type MovieSummary struct {
	ID            uint          `json:"id" example:"1"`
	Title         string        `json:"title" example:"Cidade de Deus"`
	Year          int           `json:"year" example:"2002"`
	Genre         string        `json:"genre" example:"Drama"`
	PosterURL     string        `json:"poster_url"`
	AverageRating domain.Rating `json:"average_rating" swaggertype:"string" example:"4.5"`
}

// MovieDetailResponse is the full projection of a movie plus its number of
// reviews.
type MovieDetailResponse struct {
	domain.Movie
	ReviewCount int64 `json:"review_count" example:"12"`
}

// ListMoviesResponse wraps a page of movies and pagination information.
type ListMoviesResponse struct {
	Results    []MovieSummary `json:"results"`
	Pagination Pagination     `json:"pagination"`
}

// SearchMoviesResponse is the result of a catalog search.
type SearchMoviesResponse struct {
	Count   int            `json:"count"`
	Results []MovieSummary `json:"results"`
}

// GenreMoviesResponse lists the movies of one genre.
type GenreMoviesResponse struct {
	Genre   string         `json:"genre" example:"Drama"`
	Count   int            `json:"count"`
	Results []MovieSummary `json:"results"`
}

// YearMoviesResponse lists the movies of one release year.
type YearMoviesResponse struct {
	Year    int            `json:"year" example:"2002"`
	Count   int            `json:"count"`
	Results []MovieSummary `json:"results"`
}

func summarize(ms []domain.Movie) []MovieSummary {
	out := make([]MovieSummary, len(ms))
	for i, m := range ms {
		out[i] = MovieSummary{
			ID:            m.ID,
			Title:         m.Title,
			Year:          m.Year,
			Genre:         m.Genre,
			PosterURL:     m.PosterURL,
			AverageRating: m.AverageRating,
		}
	}
	return out
}

//
// Handlers
//

// ListMovies godoc
// @ID          listMovies
// @Summary     List movies (paginated)
// @Description Returns a page of movies ordered by year (newest first) then title. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Movies
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMoviesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/ [get]
func (h *Handlers) ListMovies(c *gin.Context) {
	page, pageSize := h.clampPagination(c)
	if checkETag(c, "movies", h.movieSvc.Stats, page, pageSize) {
		return
	}

	items, total, err := h.movieSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListMoviesResponse{
		Results:    summarize(items),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetMovie godoc
// @ID          getMovie
// @Summary     Get a movie
// @Description Returns the full movie record with its review count.
// @Tags        Movies
// @Produce     json
// @Param       id   path     int  true  "Movie ID"
// @Success     200  {object} handlers.MovieDetailResponse
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/{id}/ [get]
func (h *Handlers) GetMovie(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		notFound(c, "movie")
		return
	}
	m, err := h.movieSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			notFound(c, "movie")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, MovieDetailResponse{Movie: m.Movie, ReviewCount: m.ReviewCount})
}

// SearchMovies godoc
// @ID          searchMovies
// @Summary     Search movies
// @Description Case-insensitive substring match on title or synopsis.
// @Tags        Movies
// @Produce     json
// @Param       q    query    string  true  "Search text"
// @Success     200  {object} handlers.SearchMoviesResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/search/ [get]
func (h *Handlers) SearchMovies(c *gin.Context) {
	items, err := h.movieSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter 'q' is required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	res := summarize(items)
	ok(c, http.StatusOK, SearchMoviesResponse{Count: len(res), Results: res})
}

// MoviesByGenre godoc
// @ID          moviesByGenre
// @Summary     Movies by genre
// @Description Exact, case-insensitive genre match. Returns 404 when nothing matches.
// @Tags        Movies
// @Produce     json
// @Param       genre  path     string  true  "Genre"
// @Success     200    {object} handlers.GenreMoviesResponse
// @Failure     404    {object} handlers.ErrorResponse "No movies for genre"
// @Failure     500    {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/genre/{genre}/ [get]
func (h *Handlers) MoviesByGenre(c *gin.Context) {
	genre := strings.TrimSpace(c.Param("genre"))
	items, err := h.movieSvc.ByGenre(c.Request.Context(), genre)
	if err != nil {
		if errors.Is(err, services.ErrNoMoviesForGenre) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no movies found for genre "+genre)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	res := summarize(items)
	ok(c, http.StatusOK, GenreMoviesResponse{Genre: genre, Count: len(res), Results: res})
}

// MoviesByYear godoc
// @ID          moviesByYear
// @Summary     Movies by year
// @Description Exact release-year match. Returns 400 for a non-integer year and 404 when nothing matches.
// @Tags        Movies
// @Produce     json
// @Param       year  path     int  true  "Release year"
// @Success     200   {object} handlers.YearMoviesResponse
// @Failure     400   {object} handlers.ErrorResponse "Invalid year"
// @Failure     404   {object} handlers.ErrorResponse "No movies for year"
// @Failure     500   {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/year/{year}/ [get]
func (h *Handlers) MoviesByYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "year must be an integer")
		return
	}
	items, err := h.movieSvc.ByYear(c.Request.Context(), year)
	if err != nil {
		if errors.Is(err, services.ErrNoMoviesForYear) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no movies found for year "+strconv.Itoa(year))
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	res := summarize(items)
	ok(c, http.StatusOK, YearMoviesResponse{Year: year, Count: len(res), Results: res})
}

// CreateMovie godoc
// @ID          createMovie
// @Summary     Create a movie
// @Description Creates a movie with average_rating 0.0.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Movies
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateMovieRequest  true  "Movie payload"
// @Success     201  {object} domain.Movie
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/create/ [post]
func (h *Handlers) CreateMovie(c *gin.Context) {
	ctx := c.Request.Context()

	scope, key, idem := h.idempotencyKey(c)
	if idem {
		if rec, err := h.idem.Lookup(ctx, scope, key); err == nil && rec != nil {
			if prev, err := h.movieSvc.Get(ctx, rec.ResourceID); err == nil {
				c.Header(HeaderIdempotentReplay, "true")
				ok(c, rec.Status, prev.Movie)
				return
			}
		}
	}

	var req CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, bindMessage(err))
		return
	}

	m, err := h.movieSvc.Create(ctx, services.MovieInput{
		Title:           req.Title,
		Year:            req.Year,
		Genre:           req.Genre,
		Synopsis:        req.Synopsis,
		PosterURL:       req.PosterURL,
		BackdropURL:     req.BackdropURL,
		Cast:            req.Cast,
		TrailerURL:      req.TrailerURL,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidYear), errors.Is(err, services.ErrInvalidMovie):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	if idem {
		h.rememberCreate(c, scope, key, m.ID, http.StatusCreated)
	}
	ok(c, http.StatusCreated, m)
}

// DeleteMovie godoc
// @ID          deleteMovie
// @Summary     Delete a movie
// @Description Deletes a movie together with all of its reviews.
// @Tags        Movies
// @Produce     json
// @Param       id   path     int  true  "Movie ID"
// @Success     200  {object} handlers.MessageResponse
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/{id}/delete/ [delete]
func (h *Handlers) DeleteMovie(c *gin.Context) {
	id, found := pathID(c, "id")
	if !found {
		notFound(c, "movie")
		return
	}
	if err := h.movieSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			notFound(c, "movie")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Movie deleted successfully."})
}
