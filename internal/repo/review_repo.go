// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Review model.
//
// Reads join the parent movie so each review carries its movie_title.
// Multi-row reads are newest-first ("created_at DESC, id DESC").
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
)

const reviewOrder = "reviews.created_at DESC, reviews.id DESC"

func reviewsWithTitle(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("reviews.*, movies.title AS movie_title").
		Joins("JOIN movies ON movies.id = reviews.movie_id")
}

// CreateReview inserts r. The caller validates score and reviewer name.
func CreateReview(ctx context.Context, db *gorm.DB, r *domain.Review) error {
	return db.WithContext(ctx).Omit("Movie").Create(r).Error
}

// GetReview fetches a review (with movie_title) or returns ErrNotFound.
func GetReview(ctx context.Context, db *gorm.DB, id uint) (*domain.Review, error) {
	var r domain.Review
	if err := reviewsWithTitle(ctx, db).Where("reviews.id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountReviews returns the total number of reviews.
func CountReviews(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Review{}).Count(&total).Error
	return total, err
}

// ListReviewsPage returns a page of reviews, newest first.
func ListReviewsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Review, error) {
	var out []domain.Review
	err := reviewsWithTitle(ctx, db).
		Order(reviewOrder).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListReviewsForMovie returns every review of movieID, newest first.
func ListReviewsForMovie(ctx context.Context, db *gorm.DB, movieID uint) ([]domain.Review, error) {
	var out []domain.Review
	err := reviewsWithTitle(ctx, db).
		Where("reviews.movie_id = ?", movieID).
		Order(reviewOrder).
		Find(&out).Error
	return out, err
}

// DeleteReview removes a review by id or returns ErrNotFound.
func DeleteReview(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ScoreTotals returns the number of reviews of movieID and the sum of their
// scores. A movie without reviews yields (0, 0).
func ScoreTotals(ctx context.Context, db *gorm.DB, movieID uint) (count, sum int64, err error) {
	var row struct {
		Cnt   int64
		Total int64
	}
	err = db.WithContext(ctx).
		Model(&domain.Review{}).
		Select("COUNT(*) AS cnt, COALESCE(SUM(score), 0) AS total").
		Where("movie_id = ?", movieID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Cnt, row.Total, nil
}
