// Package services – MovieService
//
// This file implements MovieService, the catalog query surface plus movie
// creation and deletion. It validates and normalizes input, translates
// repository not-found results into service errors, and keeps the
// asymmetric "empty" semantics of the API:
//
//   - ListPage with no rows is a normal, empty page.
//   - ByGenre and ByYear with no rows return ErrNoMoviesForGenre and
//     ErrNoMoviesForYear so the handler can answer 404.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"
	"github.com/tbourn/go-movie-catalog/internal/search"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxTitleRunes = 255
	maxGenreRunes = 100
)

// MovieInput carries the client-writable fields of a movie. Derived fields
// (id, average_rating, timestamps) are never accepted from callers.
type MovieInput struct {
	Title           string
	Year            int
	Genre           string
	Synopsis        string
	PosterURL       string
	BackdropURL     string
	Cast            []string
	TrailerURL      string
	DurationMinutes *int
}

// MovieDetail is a movie with its current number of reviews.
type MovieDetail struct {
	domain.Movie
	ReviewCount int64
}

// MovieService provides catalog queries and movie lifecycle operations.
type MovieService struct {
	DB *gorm.DB
	// Ratings serializes movie deletion against review writes on the same
	// movie. Optional.
	Ratings *RatingAggregator
	// DefaultPageSize applies when ListPage receives pageSize <= 0.
	DefaultPageSize int
}

// NewMovieService constructs a MovieService with the default page size.
func NewMovieService(db *gorm.DB, ratings *RatingAggregator) *MovieService {
	return &MovieService{DB: db, Ratings: ratings, DefaultPageSize: 20}
}

func (s *MovieService) tracer() trace.Tracer { return otel.Tracer("services/MovieService") }

// ListPage returns a page of movies ordered by year desc, title asc, plus the
// total count. Invalid page or pageSize fall back to defaults.
func (s *MovieService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Movie, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
		if pageSize <= 0 {
			pageSize = 20
		}
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountMovies(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Movie{}, 0, nil
	}

	items, err := repo.ListMoviesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Get returns a movie and its review count, or ErrMovieNotFound.
func (s *MovieService) Get(ctx context.Context, id uint) (*MovieDetail, error) {
	ctx, span := s.tracer().Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("movie.id", int64(id))),
	)
	defer span.End()

	m, err := repo.GetMovie(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Review{}).Where("movie_id = ?", id).Count(&n).Error; err != nil {
		return nil, err
	}
	return &MovieDetail{Movie: *m, ReviewCount: n}, nil
}

// Search returns movies whose title or synopsis contains q, compared
// case-insensitively (Unicode case folding). q is trimmed; a blank q yields
// ErrEmptyQuery. An empty result is not an error.
func (s *MovieService) Search(ctx context.Context, q string) ([]domain.Movie, error) {
	ctx, span := s.tracer().Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", q)),
	)
	defer span.End()

	pattern := search.ContainsPattern(q)
	if pattern == "" {
		return nil, ErrEmptyQuery
	}
	items, err := repo.SearchMovies(ctx, s.DB, pattern)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(items)))
	return items, nil
}

// ByGenre returns movies whose genre equals genre case-insensitively.
// No matches yields ErrNoMoviesForGenre.
func (s *MovieService) ByGenre(ctx context.Context, genre string) ([]domain.Movie, error) {
	ctx, span := s.tracer().Start(ctx, "ByGenre",
		trace.WithAttributes(attribute.String("genre", genre)),
	)
	defer span.End()

	folded := search.Fold(genre)
	if folded == "" {
		return nil, ErrNoMoviesForGenre
	}
	items, err := repo.MoviesByGenre(ctx, s.DB, folded)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoMoviesForGenre
	}
	return items, nil
}

// ByYear returns movies released in year. No matches yields
// ErrNoMoviesForYear.
func (s *MovieService) ByYear(ctx context.Context, year int) ([]domain.Movie, error) {
	ctx, span := s.tracer().Start(ctx, "ByYear",
		trace.WithAttributes(attribute.Int("year", year)),
	)
	defer span.End()

	items, err := repo.MoviesByYear(ctx, s.DB, year)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoMoviesForYear
	}
	return items, nil
}

// Create validates in and inserts a new movie with average_rating 0.0.
//
// Validation:
//   - Title and Genre are trimmed and must be non-blank (ErrInvalidMovie).
//   - Title is at most 255 and Genre at most 100 characters (ErrInvalidMovie).
//   - Year must lie in [1888, 2030] (ErrInvalidYear).
//
// Duplicate (title, year) pairs are allowed.
func (s *MovieService) Create(ctx context.Context, in MovieInput) (*domain.Movie, error) {
	ctx, span := s.tracer().Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("movie.title", in.Title),
			attribute.Int("movie.year", in.Year),
		),
	)
	defer span.End()

	title := strings.TrimSpace(in.Title)
	genre := strings.TrimSpace(in.Genre)
	if title == "" || genre == "" ||
		utf8.RuneCountInString(title) > maxTitleRunes ||
		utf8.RuneCountInString(genre) > maxGenreRunes {
		return nil, ErrInvalidMovie
	}
	if in.Year < domain.MinYear || in.Year > domain.MaxYear {
		return nil, ErrInvalidYear
	}

	m := &domain.Movie{
		Title:           title,
		Year:            in.Year,
		Genre:           genre,
		Synopsis:        strings.TrimSpace(in.Synopsis),
		PosterURL:       strings.TrimSpace(in.PosterURL),
		BackdropURL:     strings.TrimSpace(in.BackdropURL),
		Cast:            datatypes.JSONSlice[string](cleanCast(in.Cast)),
		TrailerURL:      strings.TrimSpace(in.TrailerURL),
		DurationMinutes: in.DurationMinutes,
	}
	if err := repo.CreateMovie(ctx, s.DB, m); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("movie.id", int64(m.ID)))
	return m, nil
}

// Delete removes a movie and all of its reviews in one transaction.
// No recompute happens: the aggregate disappears with its owner.
func (s *MovieService) Delete(ctx context.Context, id uint) error {
	ctx, span := s.tracer().Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("movie.id", int64(id))),
	)
	defer span.End()

	if s.Ratings != nil {
		unlock := s.Ratings.Lock(id)
		defer unlock()
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.DeleteMovie(ctx, tx, id)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMovieNotFound
	}
	return err
}

// Stats returns the catalog size and latest modification time, used for
// conditional list responses.
func (s *MovieService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.MoviesStats(ctx, s.DB)
}

// cleanCast trims names and drops blanks. The result is never nil.
func cleanCast(in []string) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
