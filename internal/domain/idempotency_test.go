package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_UniqueScopeKey(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_idem_scope_key") {
		t.Fatalf("expected unique index ux_idem_scope_key")
	}

	now := time.Now().UTC()
	first := &Idempotency{ID: "i1", Scope: "/api/reviews/create/", Key: "k1", ResourceID: 3, Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be set automatically")
	}

	dup := &Idempotency{ID: "i2", Scope: "/api/reviews/create/", Key: "k1", ResourceID: 4, Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation for same scope+key")
	}

	// Same key under another scope is a different operation.
	other := &Idempotency{ID: "i3", Scope: "/api/movies/create/", Key: "k1", ResourceID: 9, Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("insert other scope: %v", err)
	}
}
