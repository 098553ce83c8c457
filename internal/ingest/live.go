package ingest

import (
	"context"
	"fmt"

	"github.com/andresuchdata/tmdb-mirror/internal/store"
	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
	"github.com/jmoiron/sqlx"
)

// upsertRecord replaces one record in the live tables: the root row and its
// owned child/association rows are deleted and re-inserted inside a single
// transaction, so readers always see a complete record. Dimension rows are
// inserted with ON CONFLICT DO NOTHING and shared rows are left in place.
func upsertRecord(ctx context.Context, db *store.DB, family string, id int64, rs RowSet) error {
	return db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := store.DeleteRecordsTx(ctx, tx, family, []int64{id}); err != nil {
			return err
		}
		for _, t := range store.FamilyTables(family) {
			rows := rs.Rows(t.Name)
			if len(rows) == 0 {
				continue
			}
			if err := insertRows(ctx, tx, t, t.Name, rows); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertMovie normalizes and replaces one movie in the live tables.
func UpsertMovie(ctx context.Context, db *store.DB, rec *tmdb.MovieRecord) error {
	if rec.ID == 0 {
		return fmt.Errorf("movie record without id")
	}
	return upsertRecord(ctx, db, "movie", rec.ID, NormalizeMovie(rec))
}

// UpsertSeries normalizes and replaces one series in the live tables.
func UpsertSeries(ctx context.Context, db *store.DB, rec *tmdb.SeriesRecord) error {
	if rec.ID == 0 {
		return fmt.Errorf("series record without id")
	}
	return upsertRecord(ctx, db, "series", rec.ID, NormalizeSeries(rec))
}
