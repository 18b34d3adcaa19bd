package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
)

// ErrDuplicate is returned when a live record already holds (scope, key).
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the record for (scope, key) that expires after now.
// Blank scope or key, missing and expired records all yield ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("scope = ? AND key = ?", scope, key).
		Where("expires_at > ?", now).
		Take(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency stores the outcome of a create for ttl. An expired
// record under the same (scope, key) is cleared first; a live one makes the
// insert fail with ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key string, resourceID uint, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		Scope:      scope,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Where("scope = ? AND key = ? AND expires_at <= ?", scope, key, now)
		if err := stale.Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// isUniqueViolation also matches the plain-text errors of the pure-Go SQLite
// driver, which gorm does not translate.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"unique constraint failed", "constraint failed: unique", "duplicate key value"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
