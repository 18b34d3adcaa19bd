// Package services – ReviewService
//
// This file implements ReviewService, which owns the review lifecycle and
// drives the rating aggregation rule. Every write to a movie's review set
// runs in one transaction together with the recompute of that movie's
// average, under the movie's aggregator lock:
//
//	lock(movie) → BEGIN → insert/delete review → Recompute → COMMIT → unlock
//
// so a successful Create or Delete is only reported once the new average is
// durable. Reviews have no update operation.
//
// Service-level errors (ErrInvalidScore, ErrBlankReviewer, ErrMovieNotFound,
// ErrReviewNotFound) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxReviewerRunes = 100

// ReviewInput carries the client-writable fields of a review.
type ReviewInput struct {
	ReviewerName string
	MovieID      uint
	Score        int
	Comment      string
}

// MovieReviews is the review listing of one movie together with its
// cached aggregate.
type MovieReviews struct {
	MovieID       uint
	MovieTitle    string
	AverageRating domain.Rating
	Reviews       []domain.Review
}

// ReviewService implements review use-cases and keeps movie averages current.
type ReviewService struct {
	DB      *gorm.DB
	Ratings *RatingAggregator
	// DefaultPageSize applies when ListPage receives pageSize <= 0.
	DefaultPageSize int
}

// NewReviewService constructs a ReviewService. A nil aggregator gets a
// private one.
func NewReviewService(db *gorm.DB, ratings *RatingAggregator) *ReviewService {
	if ratings == nil {
		ratings = NewRatingAggregator()
	}
	return &ReviewService{DB: db, Ratings: ratings, DefaultPageSize: 20}
}

func (s *ReviewService) tracer() trace.Tracer { return otel.Tracer("services/ReviewService") }

// ListPage returns a page of reviews (newest first) and the total count.
func (s *ReviewService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Review, int64, error) {
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

	total, err := repo.CountReviews(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Review{}, 0, nil
	}
	items, err := repo.ListReviewsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Get returns a review or ErrReviewNotFound.
func (s *ReviewService) Get(ctx context.Context, id uint) (*domain.Review, error) {
	ctx, span := s.tracer().Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("review.id", int64(id))),
	)
	defer span.End()

	r, err := repo.GetReview(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return r, nil
}

// Create validates in, stores the review and recomputes the movie's average
// in the same transaction.
//
// Validation:
//   - Score must be within [1,5] (ErrInvalidScore); it is never clamped.
//   - ReviewerName is trimmed and must be non-blank (ErrBlankReviewer) and
//     at most 100 characters (ErrReviewerTooLong).
//   - The movie must exist (ErrMovieNotFound).
func (s *ReviewService) Create(ctx context.Context, in ReviewInput) (*domain.Review, error) {
	ctx, span := s.tracer().Start(ctx, "Create",
		trace.WithAttributes(
			attribute.Int64("movie.id", int64(in.MovieID)),
			attribute.Int("review.score", in.Score),
		),
	)
	defer span.End()

	if in.Score < domain.MinScore || in.Score > domain.MaxScore {
		return nil, ErrInvalidScore
	}
	name := strings.TrimSpace(in.ReviewerName)
	if name == "" {
		return nil, ErrBlankReviewer
	}
	if utf8.RuneCountInString(name) > maxReviewerRunes {
		return nil, ErrReviewerTooLong
	}

	unlock := s.Ratings.Lock(in.MovieID)
	defer unlock()

	var created *domain.Review
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.MovieExists(ctx, tx, in.MovieID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrMovieNotFound
		}

		r := &domain.Review{
			ReviewerName: name,
			MovieID:      in.MovieID,
			Score:        in.Score,
			Comment:      in.Comment,
		}
		if err := repo.CreateReview(ctx, tx, r); err != nil {
			return err
		}
		if _, err := s.Ratings.Recompute(ctx, tx, in.MovieID, TriggerReviewCreated); err != nil {
			return err
		}

		created, err = repo.GetReview(ctx, tx, r.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("review.id", int64(created.ID)))
	return created, nil
}

// Delete removes a review and recomputes its movie's average against the
// remaining reviews in the same transaction. A missing review yields
// ErrReviewNotFound.
func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	ctx, span := s.tracer().Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("review.id", int64(id))),
	)
	defer span.End()

	r, err := repo.GetReview(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	unlock := s.Ratings.Lock(r.MovieID)
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteReview(ctx, tx, id); err != nil {
			return err
		}
		_, err := s.Ratings.Recompute(ctx, tx, r.MovieID, TriggerReviewDeleted)
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		// Deleted concurrently between the lookup and the lock.
		return ErrReviewNotFound
	}
	if errors.Is(err, ErrMovieNotFound) {
		// The movie (and with it this review) was deleted concurrently.
		return ErrReviewNotFound
	}
	return err
}

// ListForMovie returns all reviews of movieID newest first, with the movie's
// title and current cached average. A missing movie yields ErrMovieNotFound.
func (s *ReviewService) ListForMovie(ctx context.Context, movieID uint) (*MovieReviews, error) {
	ctx, span := s.tracer().Start(ctx, "ListForMovie",
		trace.WithAttributes(attribute.Int64("movie.id", int64(movieID))),
	)
	defer span.End()

	m, err := repo.GetMovie(ctx, s.DB, movieID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	reviews, err := repo.ListReviewsForMovie(ctx, s.DB, movieID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return &MovieReviews{
		MovieID:       m.ID,
		MovieTitle:    m.Title,
		AverageRating: m.AverageRating,
		Reviews:       reviews,
	}, nil
}

// Stats returns the number of reviews and the newest creation time, used
// for conditional list responses.
func (s *ReviewService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.ReviewsStats(ctx, s.DB)
}
