// Package domain defines the persistence models for movies and reviews.
// These types are mapped with GORM and form the core data layer of the
// catalog service.
package domain

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/search"
)

// Year bounds accepted when a movie is created through the API.
const (
	MinYear = 1888
	MaxYear = 2030
)

// Score bounds for a review.
const (
	MinScore = 1
	MaxScore = 5
)

// DefaultGenre is used by the importer when a record carries no genre.
const DefaultGenre = "Unknown"

// Movie is a catalog record. AverageRating is a cached aggregate owned by the
// rating aggregator; it is never written from client payloads.
//
// The *Folded columns hold Unicode case-folded copies of the searchable text
// so that case-insensitive matching works for non-ASCII titles and genres on
// every driver. They are maintained by the BeforeSave hook.
type Movie struct {
	ID              uint                        `json:"id"               gorm:"primaryKey"`
	Title           string                      `json:"title"            gorm:"type:varchar(255);not null;index:idx_movies_title;index:idx_movies_title_year,priority:1"`
	Year            int                         `json:"year"             gorm:"not null;index:idx_movies_year;index:idx_movies_title_year,priority:2"`
	Genre           string                      `json:"genre"            gorm:"type:varchar(100);not null;index:idx_movies_genre"`
	Synopsis        string                      `json:"synopsis"         gorm:"type:text;not null;default:''"`
	PosterURL       string                      `json:"poster_url"       gorm:"type:text;not null;default:''"`
	BackdropURL     string                      `json:"backdrop_url"     gorm:"type:text;not null;default:''"`
	Cast            datatypes.JSONSlice[string] `json:"cast"`
	TrailerURL      string                      `json:"trailer_url"      gorm:"type:text;not null;default:''"`
	AverageRating   Rating                      `json:"average_rating"   gorm:"type:decimal(3,1);not null;default:0"`
	DurationMinutes *int                        `json:"duration_minutes"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`

	TitleFolded    string `json:"-" gorm:"type:varchar(255);not null;default:''"`
	GenreFolded    string `json:"-" gorm:"type:varchar(100);not null;default:'';index:idx_movies_genre_folded"`
	SynopsisFolded string `json:"-" gorm:"type:text;not null;default:''"`
}

// TableName returns the database table name for Movie.
func (Movie) TableName() string { return "movies" }

// BeforeSave refreshes the folded shadow columns and normalizes Cast so the
// column never stores JSON null.
func (m *Movie) BeforeSave(*gorm.DB) error {
	m.TitleFolded = search.Fold(m.Title)
	m.GenreFolded = search.Fold(m.Genre)
	m.SynopsisFolded = search.Fold(m.Synopsis)
	if m.Cast == nil {
		m.Cast = datatypes.JSONSlice[string]{}
	}
	return nil
}

// String renders the movie the way it is shown in logs: "Title (Year)".
func (m Movie) String() string {
	return m.Title + " (" + strconv.Itoa(m.Year) + ")"
}

// Review is a single user rating of a movie.
//
// Fields:
//   - ReviewerName: display name, trimmed before storage.
//   - MovieID: owning movie; the row is cascade-deleted with it.
//   - Score: integer in [1,5] (also enforced by a DB check constraint).
//   - MovieTitle: read-only projection filled by queries that join movies.
type Review struct {
	ID           uint      `json:"id"            gorm:"primaryKey"`
	ReviewerName string    `json:"reviewer_name" gorm:"type:varchar(100);not null"`
	MovieID      uint      `json:"movie"         gorm:"not null;index:idx_movie_reviews,priority:1"`
	MovieTitle   string    `json:"movie_title"   gorm:"->;-:migration"`
	Score        int       `json:"score"         gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 5"`
	Comment      string    `json:"comment"       gorm:"type:text;not null;default:''"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_movie_reviews,priority:2"`

	// Movie is the reviewed movie. Reviews are cascade-deleted with it.
	Movie Movie `json:"-" gorm:"foreignKey:MovieID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }
