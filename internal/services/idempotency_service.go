package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/repo"
)

// DefaultIdempotencyTTL is used when IdempotencyService.TTL is not positive.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyService records and looks up completed create requests so that a
// retried POST carrying the same Idempotency-Key returns the original
// resource. Records are scoped per route.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewIdempotencyService constructs an IdempotencyService.
func NewIdempotencyService(db *gorm.DB, ttl time.Duration) *IdempotencyService {
	return &IdempotencyService{DB: db, TTL: ttl}
}

func (s *IdempotencyService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Lookup returns the live record for (scope, key). A miss returns (nil, nil).
func (s *IdempotencyService) Lookup(ctx context.Context, scope, key string) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, scope, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Exists reports whether a live record exists. It matches the middleware
// lookup signature.
func (s *IdempotencyService) Exists(ctx context.Context, scope, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.DB, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Remember stores the outcome of a create request. A concurrent duplicate
// (another request with the same key finished first) is not an error.
func (s *IdempotencyService) Remember(ctx context.Context, scope, key string, resourceID uint, status int) error {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	_, err := repo.CreateIdempotency(ctx, s.DB, scope, key, resourceID, status, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}
