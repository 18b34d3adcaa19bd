// Package services – RatingAggregator
//
// This file implements the rating aggregation rule: a movie's cached
// average_rating always equals the mean of its current review scores,
// rounded half-up to one decimal place, or exactly 0.0 when the movie has no
// reviews. The average is recomputed from the full review set on every change
// of that set and is never patched incrementally, so any interleaving of
// writes converges to the correct value once the last write commits.
//
// Writers additionally serialize per movie through Lock, so within one
// process a review write and its recompute are never interleaved with
// another write to the same movie. Different movies proceed in parallel.
package services

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/observability"
	"github.com/tbourn/go-movie-catalog/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Trigger names the change that caused a recompute. It is used as the
// catalog_rating_recomputes_total label.
type Trigger string

const (
	TriggerReviewCreated Trigger = "review_created"
	TriggerReviewDeleted Trigger = "review_deleted"
	TriggerManual        Trigger = "manual"
)

// RatingAggregator recomputes and persists movie averages.
// The zero value is ready to use.
type RatingAggregator struct {
	locks keyedMutex
}

// NewRatingAggregator returns a ready RatingAggregator.
func NewRatingAggregator() *RatingAggregator { return &RatingAggregator{} }

// Lock acquires the per-movie write lock and returns its release function.
func (a *RatingAggregator) Lock(movieID uint) (unlock func()) {
	return a.locks.Lock(movieID)
}

// Recompute reads the count and sum of movieID's review scores through tx,
// derives the rounded mean and writes it onto the movie row through tx.
// Callers pass the transaction that performed the triggering write so both
// commit together.
func (a *RatingAggregator) Recompute(ctx context.Context, tx *gorm.DB, movieID uint, trigger Trigger) (domain.Rating, error) {
	tr := otel.Tracer("services/RatingAggregator")
	ctx, span := tr.Start(ctx, "Recompute",
		trace.WithAttributes(
			attribute.Int64("movie.id", int64(movieID)),
			attribute.String("trigger", string(trigger)),
		),
	)
	defer span.End()

	count, sum, err := repo.ScoreTotals(ctx, tx, movieID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score totals")
		return domain.Rating{}, err
	}
	avg := domain.MeanRating(sum, count)

	if err := repo.SetAverageRating(ctx, tx, movieID, avg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist average")
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Rating{}, ErrMovieNotFound
		}
		return domain.Rating{}, err
	}

	span.SetAttributes(
		attribute.Int64("reviews.count", count),
		attribute.Float64("rating.average", avg.Float64()),
	)
	observability.RatingRecomputes.WithLabelValues(string(trigger)).Inc()
	return avg, nil
}

// keyedMutex hands out one mutex per key. Entries are reference counted and
// dropped when the last holder or waiter releases, so the map only holds
// keys that are currently in use.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

// Lock blocks until the lock for key is held and returns its release function.
func (k *keyedMutex) Lock(key uint) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uint]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size reports the number of tracked keys.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
