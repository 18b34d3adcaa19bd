package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
)

// MoviesStats returns the movie count and the newest updated_at. Rating
// recomputes touch updated_at, so the pair moves whenever a list page could
// change. An empty table yields (0, nil, nil).
func MoviesStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return tableStats(ctx, db, &domain.Movie{}, "updated_at")
}

// ReviewsStats returns the review count and the newest created_at; reviews
// are never edited.
func ReviewsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return tableStats(ctx, db, &domain.Review{}, "created_at")
}

// tableStats orders by column instead of taking MAX(column), which SQLite
// hands back as TEXT.
func tableStats(ctx context.Context, db *gorm.DB, model any, column string) (int64, *time.Time, error) {
	var n int64
	if err := db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, nil
	}

	var latest []time.Time
	err := db.WithContext(ctx).Model(model).
		Order(column+" DESC").
		Limit(1).
		Pluck(column, &latest).Error
	if err != nil {
		return 0, nil, err
	}
	if len(latest) == 0 {
		return n, nil, nil
	}
	return n, &latest[0], nil
}
