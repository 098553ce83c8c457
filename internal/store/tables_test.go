package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return &DB{
		DB:  sqlx.NewDb(raw, "sqlmock"),
		sem: semaphore.NewWeighted(5),
	}, mock
}

func TestSwapStagingToLiveIsOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	for _, tb := range MovieTables {
		mock.ExpectExec(`DROP TABLE IF EXISTS "` + tb.Name + `_old"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(tb.Name).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectExec(`ALTER TABLE "` + tb.Name + `" RENAME TO "` + tb.Name + `_old"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`ALTER TABLE "staging_` + tb.Name + `" RENAME TO "` + tb.Name + `"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, db.SwapStagingToLive(context.Background(), "movie"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapSkipsRenameWhenLiveMissing(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	for _, tb := range SeriesTables {
		mock.ExpectExec(`DROP TABLE IF EXISTS`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(tb.Name).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`ALTER TABLE "staging_` + tb.Name + `" RENAME TO "` + tb.Name + `"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	require.NoError(t, db.SwapStagingToLive(context.Background(), "series"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	assert.Error(t, db.SwapStagingToLive(context.Background(), "movie"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSafeToSwapBlocksLargeShrink(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "movie"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1000))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "staging_movie"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(100))

	safe, err := db.SafeToSwap(context.Background(), "movie")
	require.NoError(t, err)
	assert.False(t, safe)
}

func TestSafeToSwapAllowsFreshDatabase(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "movie"`).
		WillReturnError(assert.AnError)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "staging_movie"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5000))

	safe, err := db.SafeToSwap(context.Background(), "movie")
	require.NoError(t, err)
	assert.True(t, safe)
}

func TestDeleteRecordsClearsOwnedRows(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	// Owned child and association tables first, then the root.
	for _, tb := range MovieTables {
		if tb.Name == "movie" || tb.Dimension {
			continue
		}
		mock.ExpectExec(`DELETE FROM "` + tb.Name + `" WHERE "movie_id" = ANY`).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`DELETE FROM "movie" WHERE id = ANY`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := db.DeleteRecords(context.Background(), "movie", []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSeriesResolvesEpisodeRows(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "series_last_episode_to_air" WHERE id IN`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "series_next_episode_to_air" WHERE id IN`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	for _, tb := range SeriesTables {
		if tb.Name == "series" || tb.Dimension || !tb.hasColumn("series_id") {
			continue
		}
		mock.ExpectExec(`DELETE FROM "` + tb.Name + `" WHERE "series_id" = ANY`).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(`DELETE FROM "series" WHERE id = ANY`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := db.DeleteRecords(context.Background(), "series", []int64{1399})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
