package ingest

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestLoaderDedupesDimensionsAcrossRecords(t *testing.T) {
	db, mock := newMockDB(t)
	loader := NewLoader(db, "movie", 1000)

	movieRow := func(id int64) []any {
		row := make([]any, 21)
		row[0] = id
		return row
	}

	// Two movies sharing genre 28.
	first := RowSet{}
	first.Add("movie", movieRow(1)...)
	first.Add("movie_genres", int64(28), "Action")
	first.Add("movie_genres_assoc", int64(1), int64(28))

	second := RowSet{}
	second.Add("movie", movieRow(2)...)
	second.Add("movie_genres", int64(28), "Action")
	second.Add("movie_genres_assoc", int64(2), int64(28))

	require.NoError(t, loader.Add(context.Background(), first))
	require.NoError(t, loader.Add(context.Background(), second))

	// One dimension row, two roots, two associations.
	mock.ExpectExec(`INSERT INTO "staging_movie_genres"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "staging_movie"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "staging_movie_genres_assoc"`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, loader.Finalize(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderFlushesDependenciesFirst(t *testing.T) {
	db, mock := newMockDB(t)
	// Batch size 2: the dimension and association buffers both reach the
	// batch size within the same Add.
	loader := NewLoader(db, "movie", 2)

	rs := RowSet{}
	rs.Add("movie_genres", int64(28), "Action")
	rs.Add("movie_genres_assoc", int64(1), int64(28))
	rs.Add("movie_genres_assoc", int64(1), int64(878))
	rs.Add("movie_genres", int64(878), "Science Fiction")

	// The dimension flushes before the association referencing it.
	mock.ExpectExec(`INSERT INTO "staging_movie_genres" .+ ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "staging_movie_genres_assoc"`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, loader.Add(context.Background(), rs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderCountsInsertedRows(t *testing.T) {
	db, mock := newMockDB(t)
	loader := NewLoader(db, "movie", 100)

	rs := RowSet{}
	rs.Add("movie_keywords", int64(1), "dystopia")
	rs.Add("movie_keywords", int64(2), "cyberpunk")
	require.NoError(t, loader.Add(context.Background(), rs))

	mock.ExpectExec(`INSERT INTO "staging_movie_keywords"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, loader.Finalize(context.Background()))

	assert.Equal(t, int64(2), loader.Inserted())
	assert.NoError(t, mock.ExpectationsWereMet())
}
