package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/andresuchdata/tmdb-mirror/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Postgres caps bind parameters per statement at 65535; statements are
// chunked below that regardless of the configured batch size.
const maxParamsPerStatement = 60000

// Loader buffers normalized rows per destination table and flushes a table
// as one multi-row INSERT into its staging sibling when the buffer reaches
// the batch size or the build ends. Dimension and root rows referenced by an
// association are always flushed before the association itself. Shared
// dimension rows and repeated associations are deduplicated across the whole
// build.
type Loader struct {
	db        sqlx.ExecerContext
	family    string
	batchSize int

	mu     sync.Mutex
	buf    map[string][][]any
	seen   map[string]map[string]struct{}
	tables map[string]store.Table
	order  []string

	inserted int64
}

// NewLoader builds a loader writing the staging tables of one family.
func NewLoader(db sqlx.ExecerContext, family string, batchSize int) *Loader {
	l := &Loader{
		db:        db,
		family:    family,
		batchSize: batchSize,
		buf:       make(map[string][][]any),
		seen:      make(map[string]map[string]struct{}),
		tables:    make(map[string]store.Table),
	}
	for _, t := range store.FamilyTables(family) {
		l.tables[t.Name] = t
		l.order = append(l.order, t.Name)
		l.seen[t.Name] = make(map[string]struct{})
	}
	return l
}

// Inserted reports the number of rows flushed so far.
func (l *Loader) Inserted() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inserted
}

// Add merges one record's rows into the buffers, flushing any table whose
// buffer reached the batch size. Safe for concurrent producers; flushes are
// serialized.
func (l *Loader) Add(ctx context.Context, rs RowSet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, name := range l.order {
		rows := rs.Rows(name)
		if len(rows) == 0 {
			continue
		}
		t := l.tables[name]
		for _, row := range rows {
			// Every table with a natural key is deduplicated across the
			// build; surrogate-id tables have no identity to collapse on.
			if !t.Serial {
				key := dedupKey(t, row)
				if _, dup := l.seen[name][key]; dup {
					continue
				}
				l.seen[name][key] = struct{}{}
			}
			l.buf[name] = append(l.buf[name], row)
		}
	}

	for _, name := range l.order {
		if len(l.buf[name]) >= l.batchSize {
			if err := l.flushWithDeps(ctx, name, make(map[string]bool)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Finalize flushes every remaining buffer in dependency order.
func (l *Loader) Finalize(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, name := range l.order {
		if err := l.flushWithDeps(ctx, name, make(map[string]bool)); err != nil {
			return err
		}
	}
	return nil
}

// flushWithDeps flushes the tables this table references first, then the
// table itself. Caller holds the lock.
func (l *Loader) flushWithDeps(ctx context.Context, name string, visiting map[string]bool) error {
	if visiting[name] {
		return nil
	}
	visiting[name] = true

	for _, dep := range l.tables[name].DependsOn {
		if err := l.flushWithDeps(ctx, dep, visiting); err != nil {
			return err
		}
	}
	return l.flushTable(ctx, name)
}

func (l *Loader) flushTable(ctx context.Context, name string) error {
	rows := l.buf[name]
	if len(rows) == 0 {
		return nil
	}
	t := l.tables[name]
	if err := insertRows(ctx, l.db, t, "staging_"+name, rows); err != nil {
		return err
	}
	l.inserted += int64(len(rows))
	log.Debug().Str("table", name).Int("rows", len(rows)).Msg("flushed batch")
	l.buf[name] = nil
	return nil
}

// insertRows executes chunked multi-row INSERTs for one table.
func insertRows(ctx context.Context, ex sqlx.ExecerContext, t store.Table, tableName string, rows [][]any) error {
	cols := len(t.ColumnNames())
	maxRows := maxParamsPerStatement / cols
	if maxRows < 1 {
		maxRows = 1
	}

	for start := 0; start < len(rows); start += maxRows {
		end := start + maxRows
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*cols)
		for _, row := range chunk {
			if len(row) != cols {
				return fmt.Errorf("table %s: row has %d values, want %d", tableName, len(row), cols)
			}
			args = append(args, row...)
		}

		query := store.InsertSQL(t, tableName, len(chunk))
		if _, err := ex.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", tableName, err)
		}
	}
	return nil
}

// dedupKey builds the per-build identity of a row from its primary key
// columns.
func dedupKey(t store.Table, row []any) string {
	cols := t.ColumnNames()
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	parts := make([]string, 0, len(t.PK))
	for _, pk := range t.PK {
		i, ok := idx[pk]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", row[i]))
	}
	return strings.Join(parts, "|")
}
