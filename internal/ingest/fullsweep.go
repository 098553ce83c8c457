package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FullSweep rebuilds the entire mirror: for each family it enumerates the
// daily export, pulls every record, loads the staging tables and atomically
// promotes them. Per-record failures never abort the sweep. With force set,
// the row-count safety check before the swap is skipped.
func (e *Engine) FullSweep(ctx context.Context, force bool) error {
	e.Notifier.Announce(ctx, "**TMDB Mirror:** Running full sweep.")

	for _, family := range families {
		if err := e.sweepFamily(ctx, family, force); err != nil {
			return fmt.Errorf("full sweep %s: %w", familyName(family), err)
		}
	}

	e.Notifier.Announce(ctx, "**TMDB Mirror:** Full sweep completed.")
	return nil
}

func (e *Engine) sweepFamily(ctx context.Context, family tmdb.Family, force bool) error {
	name := familyName(family)
	progress := NewProgress("full_sweep_" + name)

	ids, err := e.Exports.FetchIDs(ctx, family, time.Now())
	if err != nil {
		return err
	}
	progress.AddEnumerated(int64(len(ids)))
	log.Info().Str("family", name).Int("ids", len(ids)).Msg("starting full sweep build")

	if err := e.DB.CreateStagingTables(ctx, name); err != nil {
		return err
	}

	loader := NewLoader(e.DB, name, e.BatchInsert)
	if err := e.fetchInto(ctx, family, ids, loader, progress); err != nil {
		return err
	}
	if err := loader.Finalize(ctx); err != nil {
		return err
	}
	progress.AddInserted(loader.Inserted())

	if !force {
		safe, err := e.DB.SafeToSwap(ctx, name)
		if err != nil {
			return err
		}
		if !safe {
			report := progress.Snapshot()
			e.Notifier.Report(ctx, report)
			return fmt.Errorf("aborting %s swap: staging row count dropped past threshold", name)
		}
	}

	if err := e.DB.SwapStagingToLive(ctx, name); err != nil {
		return err
	}
	if err := e.DB.SetMetadataTime(ctx, metaLastFullSweep(family), time.Now()); err != nil {
		return err
	}

	report := progress.Snapshot()
	e.Notifier.Report(ctx, report)
	log.Info().Str("family", name).
		Int64("fetched", report.Fetched).
		Int64("inserted", report.Inserted).
		Int64("not_found", report.NotFound).
		Int64("errored", report.Errored).
		Msg("full sweep family completed")
	return nil
}

// fetchInto pulls every id concurrently, bounded by the connection limit,
// normalizes each record and hands the rows to the loader. 404s and
// per-record errors are counted and skipped.
func (e *Engine) fetchInto(ctx context.Context, family tmdb.Family, ids []int64, loader *Loader, progress *Progress) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.MaxConnections)

	total := len(ids)
	for i, id := range ids {
		id := id
		seq := i + 1
		g.Go(func() error {
			rs, err := e.fetchNormalized(gctx, family, id)
			if errors.Is(err, tmdb.ErrNotFound) {
				progress.AddNotFound(1)
				return nil
			}
			if errors.Is(err, tmdb.ErrUnauthorized) || errors.Is(err, context.Canceled) {
				return err
			}
			if err != nil {
				progress.AddErrored(1)
				log.Warn().Err(err).Int64("id", id).Str("family", familyName(family)).Msg("skipping record")
				return nil
			}
			progress.AddFetched(1)
			if seq%1000 == 0 {
				log.Info().Str("family", familyName(family)).Int("done", seq).Int("total", total).Msg("sweep progress")
			}
			return loader.Add(gctx, rs)
		})
	}
	return g.Wait()
}

func (e *Engine) fetchNormalized(ctx context.Context, family tmdb.Family, id int64) (RowSet, error) {
	if family == tmdb.FamilySeries {
		rec, err := e.Client.FetchSeries(ctx, id)
		if err != nil {
			return nil, err
		}
		return NormalizeSeries(rec), nil
	}
	rec, err := e.Client.FetchMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	return NormalizeMovie(rec), nil
}
