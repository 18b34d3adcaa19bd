// Package services defines the business logic for the movie catalog: movie
// queries and creation, reviews with rating aggregation, the bulk importer
// and idempotent create support. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Movie-related errors.
var (
	// ErrMovieNotFound indicates that the requested movie does not exist.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrEmptyQuery is returned when a search is requested with a blank query.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrNoMoviesForGenre is returned when a genre filter matches nothing.
	ErrNoMoviesForGenre = errors.New("no movies found for genre")

	// ErrNoMoviesForYear is returned when a year filter matches nothing.
	ErrNoMoviesForYear = errors.New("no movies found for year")

	// ErrInvalidYear is returned when a created movie's year is outside
	// [domain.MinYear, domain.MaxYear].
	ErrInvalidYear = errors.New("year must be between 1888 and 2030")

	// ErrInvalidMovie is returned when required movie fields are blank or
	// exceed their column size.
	ErrInvalidMovie = errors.New("invalid movie")
)

// Review-related errors.
var (
	// ErrReviewNotFound indicates that the requested review does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrInvalidScore is returned when a score is outside [1,5]. Scores are
	// rejected, never clamped.
	ErrInvalidScore = errors.New("score must be between 1 and 5")

	// ErrBlankReviewer is returned when the reviewer name is empty after trimming.
	ErrBlankReviewer = errors.New("reviewer name is required")

	// ErrReviewerTooLong is returned when the reviewer name exceeds 100 characters.
	ErrReviewerTooLong = errors.New("reviewer name too long")
)

// Import errors. Both abort the batch before any record is written.
var (
	// ErrImportSourceNotFound is returned when the import file does not exist.
	ErrImportSourceNotFound = errors.New("import source not found")

	// ErrImportSourceInvalid is returned when the import file cannot be parsed
	// or its top level is not a list.
	ErrImportSourceInvalid = errors.New("import source is not a valid list of movies")
)
