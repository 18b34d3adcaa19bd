// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Movie model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a movie is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Ordering:
//
//	Every multi-row movie query uses the catalog order
//	"year DESC, title ASC, id ASC" so pages are stable.
//
// Case-insensitive matching relies on the folded shadow columns maintained
// by domain.Movie.BeforeSave; callers pass already-folded input (see the
// search package).
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/search"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

const movieOrder = "year DESC, title ASC, id ASC"

// CreateMovie inserts m. ID and timestamps are assigned by the store.
func CreateMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	return db.WithContext(ctx).Create(m).Error
}

// SaveMovie writes every column of an existing movie (hooks included).
func SaveMovie(ctx context.Context, db *gorm.DB, m *domain.Movie) error {
	return db.WithContext(ctx).Save(m).Error
}

// GetMovie fetches a movie by primary key or returns ErrNotFound.
func GetMovie(ctx context.Context, db *gorm.DB, id uint) (*domain.Movie, error) {
	var m domain.Movie
	if err := db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// MovieExists reports whether a movie with id exists.
func MovieExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Movie{}).Where("id = ?", id).Limit(1).Count(&n).Error
	return n > 0, err
}

// FindMovieByTitleYear returns the oldest movie with exactly this title and
// year, or ErrNotFound.
func FindMovieByTitleYear(ctx context.Context, db *gorm.DB, title string, year int) (*domain.Movie, error) {
	var m domain.Movie
	err := db.WithContext(ctx).
		Where("title = ? AND year = ?", title, year).
		Order("id ASC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMovies returns the number of rows in the catalog.
func CountMovies(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Movie{}).Count(&total).Error
	return total, err
}

// ListMoviesPage returns a page of movies in catalog order. Use CountMovies
// for pagination metadata.
func ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Movie, error) {
	var out []domain.Movie
	err := db.WithContext(ctx).
		Order(movieOrder).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SearchMovies returns movies whose folded title or synopsis matches the
// LIKE pattern (built with search.ContainsPattern).
func SearchMovies(ctx context.Context, db *gorm.DB, pattern string) ([]domain.Movie, error) {
	var out []domain.Movie
	esc := "ESCAPE '" + search.LikeEscape + "'"
	err := db.WithContext(ctx).
		Where("title_folded LIKE ? "+esc+" OR synopsis_folded LIKE ? "+esc, pattern, pattern).
		Order(movieOrder).
		Find(&out).Error
	return out, err
}

// MoviesByGenre returns movies whose folded genre equals foldedGenre.
func MoviesByGenre(ctx context.Context, db *gorm.DB, foldedGenre string) ([]domain.Movie, error) {
	var out []domain.Movie
	err := db.WithContext(ctx).
		Where("genre_folded = ?", foldedGenre).
		Order(movieOrder).
		Find(&out).Error
	return out, err
}

// MoviesByYear returns movies released in year.
func MoviesByYear(ctx context.Context, db *gorm.DB, year int) ([]domain.Movie, error) {
	var out []domain.Movie
	err := db.WithContext(ctx).
		Where("year = ?", year).
		Order(movieOrder).
		Find(&out).Error
	return out, err
}

// SetAverageRating overwrites the cached aggregate without running model
// hooks. updated_at is bumped with the connection's NowFunc, the same clock
// GORM uses for autoUpdateTime, so conditional GETs see the change.
func SetAverageRating(ctx context.Context, db *gorm.DB, id uint, r domain.Rating) error {
	res := db.WithContext(ctx).
		Model(&domain.Movie{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"average_rating": r,
			"updated_at":     db.NowFunc(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMovie removes a movie and its reviews. Reviews are deleted
// explicitly so the cascade does not depend on foreign-key enforcement
// being enabled on the connection; run it inside a transaction.
func DeleteMovie(ctx context.Context, db *gorm.DB, id uint) error {
	if err := db.WithContext(ctx).Where("movie_id = ?", id).Delete(&domain.Review{}).Error; err != nil {
		return err
	}
	res := db.WithContext(ctx).Delete(&domain.Movie{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
