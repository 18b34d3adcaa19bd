// Package services – Importer
//
// This file implements the bulk movie importer. It reads a list of movie
// records from a JSON or YAML file and upserts each one by (title, year).
// Records may use either the English or the Portuguese field naming scheme;
// for every logical field an ordered list of candidate keys is tried and the
// first present, non-empty value wins.
//
// The batch is not transactional across records: each record is written in
// its own transaction, a failing record is counted and logged, and the run
// continues. Only an unreadable source aborts the batch.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/observability"
	"github.com/tbourn/go-movie-catalog/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Candidate source keys per logical field, in priority order.
var (
	titleKeys    = []string{"title", "titulo"}
	yearKeys     = []string{"year", "ano", "Ano"}
	genreKeys    = []string{"genre", "genero", "Gênero"}
	synopsisKeys = []string{"synopsis", "sinopse"}
	posterKeys   = []string{"poster_url", "poster"}
	backdropKeys = []string{"backdrop_url", "backdrop"}
	castKeys     = []string{"cast", "elenco"}
	trailerKeys  = []string{"trailer_url", "trailer", "Trailer"}
	durationKeys = []string{"duration_minutes", "duracao", "duration"}
)

var (
	errMissingTitleOrYear = errors.New("record has no title or year")
	errNotAnObject        = errors.New("record is not an object")
)

// ImportSummary reports the outcome of one import run. Total is the number of
// movies in the store after the run.
type ImportSummary struct {
	Created int
	Updated int
	Errors  int
	Total   int64
}

// Importer loads movie records from a file into the catalog.
type Importer struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

// NewImporter constructs an Importer that logs through the global logger.
func NewImporter(db *gorm.DB) *Importer {
	return &Importer{DB: db, Log: log.Logger}
}

// Run imports every record in the file at path. The format is chosen by
// extension: .yaml and .yml are parsed as YAML, anything else as JSON.
//
// A missing file yields ErrImportSourceNotFound and a file that does not
// parse to a list yields ErrImportSourceInvalid; in both cases nothing is
// written. Per-record failures are reported in the summary, not as an error.
func (im *Importer) Run(ctx context.Context, path string) (ImportSummary, error) {
	ctx, span := otel.Tracer("services/Importer").Start(ctx, "Run",
		trace.WithAttributes(attribute.String("import.path", path)),
	)
	defer span.End()

	var sum ImportSummary

	records, err := readImportSource(path)
	if err != nil {
		im.Log.Error().Err(err).Str("path", path).Msg("import source unreadable")
		return sum, err
	}
	im.Log.Info().Str("path", path).Int("records", len(records)).Msg("import started")

	for i, raw := range records {
		m, created, err := im.importRecord(ctx, raw)
		switch {
		case err != nil:
			sum.Errors++
			observability.ImportRecords.WithLabelValues("error").Inc()
			im.Log.Warn().Err(err).Int("index", i).Msg("import record failed")
		case created:
			sum.Created++
			observability.ImportRecords.WithLabelValues("created").Inc()
			im.Log.Info().Uint("movie_id", m.ID).Str("movie", m.String()).Msg("movie created")
		default:
			sum.Updated++
			observability.ImportRecords.WithLabelValues("updated").Inc()
			im.Log.Info().Uint("movie_id", m.ID).Str("movie", m.String()).Msg("movie updated")
		}
	}

	total, err := repo.CountMovies(ctx, im.DB)
	if err != nil {
		return sum, err
	}
	sum.Total = total

	span.SetAttributes(
		attribute.Int("import.created", sum.Created),
		attribute.Int("import.updated", sum.Updated),
		attribute.Int("import.errors", sum.Errors),
	)
	im.Log.Info().
		Int("created", sum.Created).
		Int("updated", sum.Updated).
		Int("errors", sum.Errors).
		Int64("total", sum.Total).
		Msg("import finished")
	return sum, nil
}

// importRecord resolves one raw record and upserts it in its own transaction.
func (im *Importer) importRecord(ctx context.Context, raw any) (*domain.Movie, bool, error) {
	rec, ok := asObject(raw)
	if !ok {
		return nil, false, errNotAnObject
	}
	fields, err := resolveRecord(rec)
	if err != nil {
		return nil, false, err
	}

	var (
		out     *domain.Movie
		created bool
	)
	err = im.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repo.FindMovieByTitleYear(ctx, tx, fields.Title, fields.Year)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			m := fields.movie()
			if err := repo.CreateMovie(ctx, tx, m); err != nil {
				return err
			}
			out, created = m, true
			return nil
		case err != nil:
			return err
		}
		fields.applyTo(existing)
		if err := repo.SaveMovie(ctx, tx, existing); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// readImportSource loads and parses the file into a list of raw records.
func readImportSource(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrImportSourceNotFound, path)
		}
		return nil, err
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportSourceInvalid, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportSourceInvalid, err)
		}
	}

	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not a list", ErrImportSourceInvalid)
	}
	return list, nil
}

// importFields are the resolved, typed values of one record.
type importFields struct {
	Title       string
	Year        int
	Genre       string
	Synopsis    string
	PosterURL   string
	BackdropURL string
	Cast        []string
	TrailerURL  string
	Duration    *int
}

func resolveRecord(rec map[string]any) (importFields, error) {
	var f importFields

	f.Title = strings.TrimSpace(asString(firstPresent(rec, titleKeys)))
	yv := firstPresent(rec, yearKeys)
	if f.Title == "" || yv == nil {
		return f, errMissingTitleOrYear
	}
	year, err := asInt(yv)
	if err != nil {
		return f, fmt.Errorf("year: %w", err)
	}
	f.Year = year

	f.Genre = strings.TrimSpace(asString(firstPresent(rec, genreKeys)))
	if f.Genre == "" {
		f.Genre = domain.DefaultGenre
	}
	f.Synopsis = strings.TrimSpace(asString(firstPresent(rec, synopsisKeys)))
	f.PosterURL = strings.TrimSpace(asString(firstPresent(rec, posterKeys)))
	f.BackdropURL = strings.TrimSpace(asString(firstPresent(rec, backdropKeys)))
	f.TrailerURL = strings.TrimSpace(asString(firstPresent(rec, trailerKeys)))
	f.Cast = asCast(firstPresent(rec, castKeys))

	if dv := firstPresent(rec, durationKeys); dv != nil {
		d, err := asInt(dv)
		if err != nil {
			return f, fmt.Errorf("duration: %w", err)
		}
		f.Duration = &d
	}
	return f, nil
}

func (f importFields) movie() *domain.Movie {
	m := &domain.Movie{Title: f.Title, Year: f.Year}
	f.applyTo(m)
	return m
}

// applyTo overwrites the non-key, non-derived fields of m.
func (f importFields) applyTo(m *domain.Movie) {
	m.Genre = f.Genre
	m.Synopsis = f.Synopsis
	m.PosterURL = f.PosterURL
	m.BackdropURL = f.BackdropURL
	m.Cast = datatypes.JSONSlice[string](f.Cast)
	m.TrailerURL = f.TrailerURL
	m.DurationMinutes = f.Duration
}

// firstPresent returns the value of the first key whose value is present and
// non-empty, or nil.
func firstPresent(rec map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && !isEmpty(v) {
			return v
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	}
	return false
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}

// asInt accepts integral numbers and numeric strings. Fractional values are
// rejected rather than truncated.
func asInt(v any) (int, error) {
	var f float64
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		x, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t.String())
		}
		f = x
	case float64:
		f = t
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", s)
		}
		f = x
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("not an integer: %v", v)
	}
	return int(f), nil
}

// asCast accepts a list of names or a comma-separated string.
func asCast(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := strings.TrimSpace(asString(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
