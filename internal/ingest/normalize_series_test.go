package ingest

import (
	"encoding/json"
	"testing"

	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFromJSON(t *testing.T, body string) *tmdb.SeriesRecord {
	t.Helper()
	var rec tmdb.SeriesRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	return &rec
}

func TestNormalizeSeriesBasics(t *testing.T) {
	rs := NormalizeSeries(seriesFromJSON(t, `{
		"id": 1399,
		"name": "Game of Thrones",
		"created_by": [{"id": 9813, "name": "David Benioff"}],
		"genres": [{"id": 10765, "name": "Sci-Fi & Fantasy"}],
		"networks": [{"id": 49, "name": "HBO", "origin_country": "US"}],
		"seasons": [{"id": 3624, "season_number": 1, "episode_count": 10}],
		"keywords": {"results": [{"id": 6091, "name": "war"}]},
		"external_ids": {"imdb_id": "tt0944947"}
	}`))

	require.Len(t, rs.Rows("series"), 1)
	assert.Len(t, rs.Rows("series_created_by"), 1)
	assert.Len(t, rs.Rows("series_created_by_assoc"), 1)
	assert.Len(t, rs.Rows("series_genres"), 1)
	assert.Len(t, rs.Rows("series_networks"), 1)
	assert.Len(t, rs.Rows("series_networks_assoc"), 1)
	assert.Len(t, rs.Rows("series_keywords"), 1)

	seasons := rs.Rows("series_seasons")
	require.Len(t, seasons, 1)
	assert.Equal(t, int64(3624), seasons[0][0])
	assert.Equal(t, int64(1399), seasons[0][8], "season rows carry the series fk")

	ext := rs.Rows("series_external_ids")
	require.Len(t, ext, 1)
	assert.Equal(t, "tt0944947", ext[0][1])
}

func TestNormalizeSeriesEpisodesToAir(t *testing.T) {
	rs := NormalizeSeries(seriesFromJSON(t, `{
		"id": 1399,
		"last_episode_to_air": {"id": 63056, "name": "The Iron Throne", "season_number": 8, "episode_number": 6},
		"next_episode_to_air": null
	}`))

	require.Len(t, rs.Rows("series_last_episode_to_air"), 1)
	assert.Empty(t, rs.Rows("series_next_episode_to_air"))

	root := rs.Rows("series")[0]
	// Columns 21 and 22 are last_/next_episode_to_air_id.
	assert.Equal(t, int64(63056), root[21])
	assert.Nil(t, root[22])
}

func TestNormalizeSeriesExternalIDSubsets(t *testing.T) {
	for name, body := range map[string]string{
		"missing": `{"id": 5}`,
		"partial": `{"id": 5, "external_ids": {"facebook_id": "GameOfThrones"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			rs := NormalizeSeries(seriesFromJSON(t, body))
			rows := rs.Rows("series_external_ids")
			require.Len(t, rows, 1)
			assert.Equal(t, int64(5), rows[0][0])
		})
	}
}

func TestNormalizeSeriesAlternativeTitlesUseResultsKey(t *testing.T) {
	rs := NormalizeSeries(seriesFromJSON(t, `{
		"id": 1399,
		"alternative_titles": {"results": [{"iso_3166_1": "DE", "title": "GoT"}]}
	}`))

	alts := rs.Rows("series_alternative_titles")
	require.Len(t, alts, 1)
	assert.Equal(t, int64(1399), alts[0][3])
}
