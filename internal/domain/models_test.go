package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (Movie{}).TableName() != "movies" {
		t.Fatalf("Movie.TableName() = %q; want %q", (Movie{}).TableName(), "movies")
	}
	if (Review{}).TableName() != "reviews" {
		t.Fatalf("Review.TableName() = %q; want %q", (Review{}).TableName(), "reviews")
	}
	if (Idempotency{}).TableName() != "idempotency" {
		t.Fatalf("Idempotency.TableName() = %q; want %q", (Idempotency{}).TableName(), "idempotency")
	}
}

func TestMovieString(t *testing.T) {
	m := Movie{Title: "Cidade de Deus", Year: 2002}
	if got := m.String(); got != "Cidade de Deus (2002)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Movie{}, &Review{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, tbl := range []any{&Movie{}, &Review{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	for _, idx := range []string{"idx_movies_title", "idx_movies_year", "idx_movies_genre", "idx_movies_title_year", "idx_movies_genre_folded"} {
		if !m.HasIndex(&Movie{}, idx) {
			t.Fatalf("expected index %s on movies", idx)
		}
	}
	if !m.HasIndex(&Review{}, "idx_movie_reviews") {
		t.Fatalf("expected index idx_movie_reviews on reviews")
	}
	// movie_title is a read-only projection, never a column.
	if m.HasColumn(&Review{}, "movie_title") {
		t.Fatalf("movie_title must not be migrated")
	}

	mv := &Movie{Title: "Matrix", Year: 1999, Genre: "Sci-Fi"}
	if err := db.Create(mv).Error; err != nil {
		t.Fatalf("insert movie: %v", err)
	}
	for i, s := range []int{4, 5} {
		r := &Review{ReviewerName: fmt.Sprintf("r%d", i), MovieID: mv.ID, Score: s}
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("insert review: %v", err)
		}
	}

	// CASCADE: deleting the movie removes its reviews.
	if err := db.Delete(&Movie{}, mv.ID).Error; err != nil {
		t.Fatalf("delete movie: %v", err)
	}
	var cnt int64
	if err := db.Model(&Review{}).Where("movie_id = ?", mv.ID).Count(&cnt).Error; err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected reviews to cascade-delete with movie, got %d", cnt)
	}
}

func TestReview_ScoreCheckConstraint(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Movie{}, &Review{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	mv := &Movie{Title: "Up", Year: 2009, Genre: "Animation"}
	if err := db.Create(mv).Error; err != nil {
		t.Fatalf("insert movie: %v", err)
	}
	for _, s := range []int{0, 6} {
		err := db.Create(&Review{ReviewerName: "x", MovieID: mv.ID, Score: s}).Error
		if err == nil {
			t.Fatalf("score %d should violate the check constraint", s)
		}
		if !strings.Contains(strings.ToLower(err.Error()), "constraint") {
			t.Fatalf("unexpected error for score %d: %v", s, err)
		}
	}
}

func TestMovie_BeforeSave_FoldsAndDefaultsCast(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Movie{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	mv := &Movie{Title: "  O AUTO da Compadecida ", Year: 2000, Genre: "COMÉDIA", Synopsis: "João Grilo"}
	if err := db.Create(mv).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	var got Movie
	if err := db.First(&got, mv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TitleFolded != "o auto da compadecida" {
		t.Fatalf("TitleFolded = %q", got.TitleFolded)
	}
	if got.GenreFolded != "comédia" {
		t.Fatalf("GenreFolded = %q", got.GenreFolded)
	}
	if got.SynopsisFolded != "joão grilo" {
		t.Fatalf("SynopsisFolded = %q", got.SynopsisFolded)
	}
	if got.Cast == nil || len(got.Cast) != 0 {
		t.Fatalf("Cast should default to an empty list, got %#v", got.Cast)
	}
	if !got.AverageRating.IsZero() {
		t.Fatalf("AverageRating should default to 0, got %s", got.AverageRating)
	}
}

func TestMovie_JSONShape(t *testing.T) {
	d := 136
	mv := Movie{
		ID:              7,
		Title:           "Matrix",
		Year:            1999,
		Genre:           "Sci-Fi",
		Cast:            []string{"Keanu Reeves", "Carrie-Anne Moss"},
		AverageRating:   MeanRating(9, 2),
		DurationMinutes: &d,
		TitleFolded:     "matrix",
	}
	b, err := json.Marshal(mv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["average_rating"] != "4.5" {
		t.Fatalf("average_rating = %v", out["average_rating"])
	}
	if _, leaked := out["TitleFolded"]; leaked {
		t.Fatalf("folded columns must not be serialized")
	}
	cast, ok := out["cast"].([]any)
	if !ok || len(cast) != 2 || cast[0] != "Keanu Reeves" {
		t.Fatalf("cast = %#v", out["cast"])
	}
	if out["duration_minutes"].(float64) != 136 {
		t.Fatalf("duration_minutes = %v", out["duration_minutes"])
	}
}
