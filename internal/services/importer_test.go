package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-movie-catalog/internal/domain"
	"github.com/tbourn/go-movie-catalog/internal/observability"
)

func writeSource(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func newTestImporter(t *testing.T) *Importer {
	t.Helper()
	im := NewImporter(newServiceDB(t))
	im.Log = zerolog.Nop()
	return im
}

func findMovie(t *testing.T, im *Importer, title string) domain.Movie {
	t.Helper()
	var m domain.Movie
	require.NoError(t, im.DB.Where("title = ?", title).First(&m).Error)
	return m
}

func TestImporter_BothNamingSchemes(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "movies.json", `[
		{"title": "Alpha", "year": 2001, "genre": "Drama", "synopsis": "s",
		 "poster_url": "p", "backdrop_url": "b", "cast": ["Ann", "Bob"],
		 "trailer_url": "t", "duration_minutes": 120},
		{"titulo": "Cidade", "Ano": "2002", "Gênero": "Ação", "sinopse": "x",
		 "poster": "pp", "elenco": "Carla, Davi", "Trailer": "tt", "duracao": 95.0}
	]`)

	before := testutil.ToFloat64(observability.ImportRecords.WithLabelValues("created"))
	sum, err := im.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Created: 2, Total: 2}, sum)
	assert.Equal(t, before+2, testutil.ToFloat64(observability.ImportRecords.WithLabelValues("created")))

	a := findMovie(t, im, "Alpha")
	assert.Equal(t, 2001, a.Year)
	assert.Equal(t, "Drama", a.Genre)
	assert.Equal(t, []string{"Ann", "Bob"}, []string(a.Cast))
	require.NotNil(t, a.DurationMinutes)
	assert.Equal(t, 120, *a.DurationMinutes)

	c := findMovie(t, im, "Cidade")
	assert.Equal(t, 2002, c.Year)
	assert.Equal(t, "Ação", c.Genre)
	assert.Equal(t, "x", c.Synopsis)
	assert.Equal(t, "pp", c.PosterURL)
	assert.Equal(t, "tt", c.TrailerURL)
	assert.Equal(t, []string{"Carla", "Davi"}, []string(c.Cast))
	require.NotNil(t, c.DurationMinutes)
	assert.Equal(t, 95, *c.DurationMinutes)
}

func TestImporter_FirstNonEmptyKeyWins(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "m.json", `[
		{"title": "", "titulo": "Fallback", "year": 0, "ano": 1999, "genre": null, "genero": "Drama"}
	]`)
	sum, err := im.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)

	m := findMovie(t, im, "Fallback")
	assert.Equal(t, 1999, m.Year)
	assert.Equal(t, "Drama", m.Genre)
}

func TestImporter_UpsertKeepsAverageRating(t *testing.T) {
	im := newTestImporter(t)
	existing := seedMovie(t, im.DB, "Alpha", 2001, "Drama")
	seedReview(t, im.DB, existing.ID, 4)
	_, err := NewRatingAggregator().Recompute(context.Background(), im.DB, existing.ID, TriggerManual)
	require.NoError(t, err)

	src := writeSource(t, "m.json", `[{"title": "Alpha", "year": 2001, "synopsis": "new"}]`)
	sum, err := im.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Updated: 1, Total: 1}, sum)

	m := findMovie(t, im, "Alpha")
	assert.Equal(t, existing.ID, m.ID)
	assert.Equal(t, "new", m.Synopsis)
	assert.Equal(t, domain.DefaultGenre, m.Genre, "missing genre falls back to the default")
	assert.Equal(t, "4.0", m.AverageRating.String())
	assert.NotNil(t, m.Cast)
	assert.Empty(t, m.Cast)
}

func TestImporter_RecordErrorsDoNotAbort(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "m.json", `[
		{"year": 2001},
		{"title": "NoYear"},
		{"title": "BadYear", "year": "soon"},
		{"title": "FracYear", "year": 2001.5},
		{"title": "BadDuration", "year": 2001, "duration": "long"},
		"not an object",
		{"title": "Good", "year": 2001}
	]`)
	sum, err := im.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Created: 1, Errors: 6, Total: 1}, sum)
}

func TestImporter_YAMLSource(t *testing.T) {
	im := newTestImporter(t)
	src := writeSource(t, "movies.yaml", `
- titulo: Cidade
  ano: 2002
  genero: Drama
  elenco: [Carla, Davi]
- title: Alpha
  year: "2001"
`)
	sum, err := im.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Created: 2, Total: 2}, sum)
	assert.Equal(t, []string{"Carla", "Davi"}, []string(findMovie(t, im, "Cidade").Cast))
}

func TestImporter_SourceErrorsAbortBeforeWriting(t *testing.T) {
	im := newTestImporter(t)
	ctx := context.Background()

	_, err := im.Run(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrImportSourceNotFound)

	_, err = im.Run(ctx, writeSource(t, "bad.json", `[{"title": `))
	assert.ErrorIs(t, err, ErrImportSourceInvalid)

	_, err = im.Run(ctx, writeSource(t, "obj.json", `{"title": "Alpha", "year": 2001}`))
	assert.ErrorIs(t, err, ErrImportSourceInvalid)

	_, err = im.Run(ctx, writeSource(t, "obj.yml", "title: Alpha\n"))
	assert.ErrorIs(t, err, ErrImportSourceInvalid)

	var n int64
	require.NoError(t, im.DB.Model(&domain.Movie{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAsInt(t *testing.T) {
	cases := []struct {
		in      any
		want    int
		wantErr bool
	}{
		{1999, 1999, false},
		{int64(2001), 2001, false},
		{float64(2002), 2002, false},
		{" 2003 ", 2003, false},
		{"2004.0", 2004, false},
		{2004.5, 0, true},
		{"abc", 0, true},
		{true, 0, true},
	}
	for _, tc := range cases {
		got, err := asInt(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "%v", tc.in)
			continue
		}
		require.NoError(t, err, "%v", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestAsCast(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, asCast([]any{" A ", "", "B"}))
	assert.Equal(t, []string{"A", "B"}, asCast("A, ,B"))
	assert.Equal(t, []string{}, asCast(nil))
}
