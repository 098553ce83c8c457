package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const jobQueueDDL = `
CREATE TABLE IF NOT EXISTS job_queue (
    id SERIAL PRIMARY KEY,
    job_type TEXT NOT NULL,
    payload TEXT,
    created_at TIMESTAMP DEFAULT now()
);

CREATE OR REPLACE FUNCTION notify_new_job() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('new_job', NEW.id::text);
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS job_insert_notify ON job_queue;
CREATE TRIGGER job_insert_notify
AFTER INSERT ON job_queue
FOR EACH ROW EXECUTE FUNCTION notify_new_job();`

const metadataDDL = `
CREATE TABLE IF NOT EXISTS service_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// CreateTables creates every mirror table plus the job queue and metadata
// tables. Safe to run repeatedly.
func (db *DB) CreateTables(ctx context.Context) error {
	for _, t := range append(append([]Table{}, MovieTables...), SeriesTables...) {
		if _, err := db.ExecContext(ctx, t.CreateDDL(t.Name)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	if _, err := db.ExecContext(ctx, metadataDDL); err != nil {
		return fmt.Errorf("create service_metadata: %w", err)
	}
	if _, err := db.ExecContext(ctx, jobQueueDDL); err != nil {
		return fmt.Errorf("create job_queue: %w", err)
	}
	return nil
}

// ApplyUnaccent installs the unaccent text-search extension.
func (db *DB) ApplyUnaccent(ctx context.Context) error {
	_, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS unaccent")
	return err
}

// CreateStagingTables drops and recreates the staging_* set for a family so
// every sweep starts from empty tables.
func (db *DB) CreateStagingTables(ctx context.Context, family string) error {
	for _, t := range FamilyTables(family) {
		staging := "staging_" + t.Name
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(staging))); err != nil {
			return fmt.Errorf("drop %s: %w", staging, err)
		}
		if _, err := db.ExecContext(ctx, t.CreateDDL(staging)); err != nil {
			return fmt.Errorf("create %s: %w", staging, err)
		}
	}
	return nil
}

// SwapStagingToLive promotes the staging generation in one transaction: any
// pre-existing *_old is dropped, live is renamed to *_old, staging to live.
// Readers see either the previous catalog or the new one, never a mix.
func (db *DB) SwapStagingToLive(ctx context.Context, family string) error {
	return db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, t := range FamilyTables(family) {
			old := t.Name + "_old"
			staging := "staging_" + t.Name

			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(old))); err != nil {
				return fmt.Errorf("drop %s: %w", old, err)
			}
			exists, err := tableExistsTx(ctx, tx, t.Name)
			if err != nil {
				return err
			}
			if exists {
				if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(t.Name), quoteIdent(old))); err != nil {
					return fmt.Errorf("rename %s to %s: %w", t.Name, old, err)
				}
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(staging), quoteIdent(t.Name))); err != nil {
				return fmt.Errorf("rename %s to %s: %w", staging, t.Name, err)
			}
		}
		return nil
	})
}

func tableExistsTx(ctx context.Context, tx *sqlx.Tx, name string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("table existence check for %s: %w", name, err)
	}
	return exists, nil
}

// SafeToSwap compares live and staging root row counts. A staging count more
// than 50% below live aborts the swap; a sweep over a fresh database always
// passes.
func (db *DB) SafeToSwap(ctx context.Context, family string) (bool, error) {
	root := family
	liveCount, liveErr := db.rowCount(ctx, root)
	stagingCount, err := db.rowCount(ctx, "staging_"+root)
	if err != nil {
		return false, err
	}
	if liveErr != nil {
		// Live table likely doesn't exist yet; nothing to protect.
		log.Debug().Str("table", root).Err(liveErr).Msg("skipping row count check")
		return true, nil
	}
	if liveCount > 0 && stagingCount < liveCount {
		change := float64(liveCount-stagingCount) / float64(liveCount)
		if change > 0.5 {
			log.Error().
				Str("table", root).
				Int64("live", liveCount).
				Int64("staging", stagingCount).
				Float64("decrease", change).
				Msg("row count would decrease past threshold")
			return false, nil
		}
	}
	log.Info().Str("table", root).Int64("live", liveCount).Int64("staging", stagingCount).Msg("row count check OK")
	return true, nil
}

func (db *DB) rowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))).Scan(&n)
	return n, err
}

// RootIDs returns the live root primary key set for a family.
func (db *DB) RootIDs(ctx context.Context, family string) (map[int64]struct{}, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s", quoteIdent(family)))
	if err != nil {
		return nil, fmt.Errorf("select %s ids: %w", family, err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// DeleteRecords removes the given roots and every owned child/association
// row from the live tables. Dimension rows are shared across records and are
// left in place.
func (db *DB) DeleteRecords(ctx context.Context, family string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		n, err := DeleteRecordsTx(ctx, tx, family, ids)
		deleted = n
		return err
	})
	return deleted, err
}

func (t Table) hasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// DeleteRecordsTx issues the per-table DELETEs for a set of roots inside an
// existing transaction. Owned tables are cleared before the root rows;
// episode-to-air rows are resolved through the root's FK columns since they
// carry no back-reference.
func DeleteRecordsTx(ctx context.Context, tx *sqlx.Tx, family string, ids []int64) (int64, error) {
	fk := family + "_id"
	if family == "series" {
		for _, pair := range [][2]string{
			{"series_last_episode_to_air", "last_episode_to_air_id"},
			{"series_next_episode_to_air", "next_episode_to_air_id"},
		} {
			q := fmt.Sprintf(
				"DELETE FROM %s WHERE id IN (SELECT %s FROM series WHERE id = ANY($1) AND %s IS NOT NULL)",
				quoteIdent(pair[0]), quoteIdent(pair[1]), quoteIdent(pair[1]))
			if _, err := tx.ExecContext(ctx, q, pq.Array(ids)); err != nil {
				return 0, fmt.Errorf("delete from %s: %w", pair[0], err)
			}
		}
	}
	for _, t := range FamilyTables(family) {
		if t.Name == family || t.Dimension || !t.hasColumn(fk) {
			continue
		}
		q := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1)", quoteIdent(t.Name), quoteIdent(fk))
		if _, err := tx.ExecContext(ctx, q, pq.Array(ids)); err != nil {
			return 0, fmt.Errorf("delete from %s: %w", t.Name, err)
		}
	}
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", quoteIdent(family)), pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", family, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// InsertSQL renders the multi-row INSERT for a batch. Dimension tables get
// ON CONFLICT DO NOTHING on the natural key; Upsert tables get ON CONFLICT
// on the primary key DO UPDATE; other tables assume uniqueness within a
// build.
func InsertSQL(t Table, tableName string, rowCount int) string {
	cols := t.ColumnNames()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", quoteIdent(tableName), strings.Join(quoted, ", "))
	arg := 1
	for r := 0; r < rowCount; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", arg)
			arg++
		}
		b.WriteString(")")
	}
	switch {
	case t.Dimension:
		b.WriteString(" ON CONFLICT DO NOTHING")
	case t.Upsert:
		pk := make([]string, len(t.PK))
		for i, c := range t.PK {
			pk[i] = quoteIdent(c)
		}
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET ", strings.Join(pk, ", "))
		first := true
		for _, c := range cols {
			if contains(t.PK, c) {
				continue
			}
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%s = EXCLUDED.%s", quoteIdent(c), quoteIdent(c))
		}
	}
	return b.String()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
