package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCoversAllMirrorTables(t *testing.T) {
	expected := []string{
		"movie", "movie_collections", "movie_genres", "movie_genres_assoc",
		"movie_production_companies", "movie_companies_assoc",
		"movie_production_countries", "movie_countries_assoc",
		"movie_spoken_languages", "movie_languages_assoc",
		"movie_alternative_titles", "movie_cast_members", "movie_cast_assoc",
		"movie_external_ids", "movie_keywords", "movie_keywords_assoc",
		"movie_release_dates", "movie_videos",
		"series", "series_created_by", "series_created_by_assoc",
		"series_genres", "series_genres_assoc", "series_networks",
		"series_networks_assoc", "series_production_companies",
		"series_companies_assoc", "series_production_countries",
		"series_countries_assoc", "series_spoken_languages",
		"series_languages_assoc", "series_alternative_titles",
		"series_cast_members", "series_cast_assoc", "series_external_ids",
		"series_keywords", "series_keywords_assoc", "series_seasons",
		"series_last_episode_to_air", "series_next_episode_to_air",
		"series_videos",
	}

	have := map[string]bool{}
	for _, tb := range append(append([]Table{}, MovieTables...), SeriesTables...) {
		have[tb.Name] = true
	}
	for _, name := range expected {
		assert.True(t, have[name], "missing table %s", name)
	}
	assert.Len(t, have, len(expected))
}

func TestDependenciesPrecedeDependents(t *testing.T) {
	for _, family := range []string{"movie", "series"} {
		pos := map[string]int{}
		for i, tb := range FamilyTables(family) {
			pos[tb.Name] = i
		}
		for _, tb := range FamilyTables(family) {
			for _, dep := range tb.DependsOn {
				depPos, ok := pos[dep]
				require.True(t, ok, "%s depends on unknown table %s", tb.Name, dep)
				assert.Less(t, depPos, pos[tb.Name],
					"%s must come after its dependency %s", tb.Name, dep)
			}
		}
	}
}

func TestCreateDDLQuotesReservedColumns(t *testing.T) {
	tb, ok := TableByName("movie_cast_members")
	require.True(t, ok)

	ddl := tb.CreateDDL("movie_cast_members")
	assert.Contains(t, ddl, `"character" TEXT`)
	assert.Contains(t, ddl, `PRIMARY KEY ("id")`)
	assert.True(t, strings.HasPrefix(ddl, `CREATE TABLE IF NOT EXISTS "movie_cast_members"`))
}

func TestCreateDDLSerialSurrogate(t *testing.T) {
	tb, ok := TableByName("movie_release_dates")
	require.True(t, ok)

	ddl := tb.CreateDDL("staging_movie_release_dates")
	assert.Contains(t, ddl, `"id" BIGSERIAL`)
	assert.NotContains(t, tb.ColumnNames(), "id",
		"surrogate id must not appear in insert columns")
}

func TestInsertSQLDimensionConflict(t *testing.T) {
	tb, ok := TableByName("movie_genres")
	require.True(t, ok)

	sql := InsertSQL(tb, "staging_movie_genres", 2)
	assert.Equal(t,
		`INSERT INTO "staging_movie_genres" ("id", "name") VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING`,
		sql)
}

func TestInsertSQLPlainAssociation(t *testing.T) {
	tb, ok := TableByName("movie_genres_assoc")
	require.True(t, ok)

	sql := InsertSQL(tb, "movie_genres_assoc", 1)
	assert.Equal(t,
		`INSERT INTO "movie_genres_assoc" ("movie_id", "genre_id") VALUES ($1, $2)`,
		sql)
}

func TestInsertSQLEpisodeUpsert(t *testing.T) {
	tb, ok := TableByName("series_last_episode_to_air")
	require.True(t, ok)

	sql := InsertSQL(tb, "series_last_episode_to_air", 1)
	assert.Contains(t, sql, `ON CONFLICT ("id") DO UPDATE SET`)
	assert.Contains(t, sql, `"name" = EXCLUDED."name"`)
	assert.NotContains(t, sql, `"id" = EXCLUDED."id"`)
}

func TestKeywordAssocKeepsUpstreamColumnName(t *testing.T) {
	tb, ok := TableByName("movie_keywords_assoc")
	require.True(t, ok)
	assert.Equal(t, []string{"movie_id", "id"}, tb.ColumnNames())
}
