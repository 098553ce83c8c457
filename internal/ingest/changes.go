package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// changesRetention is how far back the upstream /changes feed reaches.
const changesRetention = 14 * 24 * time.Hour

// ChangesWindow computes the adaptive look-back window. A recent run keeps
// the default day of look-back; a long outage widens the window up to the
// upstream's 14-day retention.
func ChangesWindow(now, lastRun time.Time) (time.Time, time.Time) {
	if lastRun.IsZero() || now.Sub(lastRun) > changesRetention {
		return now.Add(-changesRetention), now
	}
	if now.Sub(lastRun) <= 24*time.Hour {
		return now.Add(-24 * time.Hour), now
	}
	return lastRun, now
}

// ChangesSync reconciles the mirror against the upstream delta feed. Changed
// records that still exist are re-fetched and replaced in the live tables;
// ids that now 404 are deleted. A family whose full sweep completed within
// the last 24h is skipped, and the sync timestamp still advances.
func (e *Engine) ChangesSync(ctx context.Context) error {
	for _, family := range families {
		if err := e.syncFamily(ctx, family); err != nil {
			return fmt.Errorf("changes sync %s: %w", familyName(family), err)
		}
	}
	e.Notifier.Announce(ctx, "**TMDB Mirror:** Changes sync completed.")
	return nil
}

func (e *Engine) syncFamily(ctx context.Context, family tmdb.Family) error {
	name := familyName(family)
	now := time.Now().UTC()

	lastSweep, err := e.DB.GetMetadataTime(ctx, metaLastFullSweep(family))
	if err != nil {
		return err
	}
	if !lastSweep.IsZero() && now.Sub(lastSweep) < 24*time.Hour {
		log.Info().Str("family", name).Msg("skipping changes sync: full sweep ran within the last 24 hours")
		return e.DB.SetMetadataTime(ctx, metaLastChangesSync(family), now)
	}

	lastRun, err := e.DB.GetMetadataTime(ctx, metaLastChangesSync(family))
	if err != nil {
		return err
	}
	start, end := ChangesWindow(now, lastRun)

	ids, err := e.Client.FetchChanges(ctx, family, start, end)
	if err != nil {
		return err
	}

	progress := NewProgress("changes_sync_" + name)
	progress.AddEnumerated(int64(len(ids)))
	log.Info().Str("family", name).
		Int("changed", len(ids)).
		Time("window_start", start).
		Time("window_end", end).
		Msg("processing upstream changes")

	var (
		mu      sync.Mutex
		deleted []int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.MaxConnections)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := e.upsertOne(gctx, family, id)
			switch {
			case errors.Is(err, tmdb.ErrNotFound):
				mu.Lock()
				deleted = append(deleted, id)
				mu.Unlock()
				return nil
			case errors.Is(err, tmdb.ErrUnauthorized) || errors.Is(err, context.Canceled):
				return err
			case err != nil:
				progress.AddErrored(1)
				log.Warn().Err(err).Int64("id", id).Str("family", name).Msg("skipping changed record")
				return nil
			}
			progress.AddFetched(1)
			progress.AddUpdated(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(deleted) > 0 {
		n, err := e.DB.DeleteRecords(ctx, name, deleted)
		if err != nil {
			return err
		}
		progress.AddDeleted(n)
		log.Info().Str("family", name).Int64("deleted", n).Msg("removed records deleted upstream")
	}

	if err := e.DB.SetMetadataTime(ctx, metaLastChangesSync(family), now); err != nil {
		return err
	}
	e.Notifier.Report(ctx, progress.Snapshot())
	return nil
}

// upsertOne re-fetches one changed record and replaces it in the live
// tables.
func (e *Engine) upsertOne(ctx context.Context, family tmdb.Family, id int64) error {
	if family == tmdb.FamilySeries {
		rec, err := e.Client.FetchSeries(ctx, id)
		if err != nil {
			return err
		}
		return UpsertSeries(ctx, e.DB, rec)
	}
	rec, err := e.Client.FetchMovie(ctx, id)
	if err != nil {
		return err
	}
	return UpsertMovie(ctx, e.DB, rec)
}
