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

// MissingIDs ingests export-file ids that are absent from the live root
// tables. Complements ChangesSync for records the delta feed never surfaced.
func (e *Engine) MissingIDs(ctx context.Context) error {
	e.Notifier.Announce(ctx, "**TMDB Mirror:** Running missing IDs sweep.")

	for _, family := range families {
		if err := e.missingFamily(ctx, family); err != nil {
			return fmt.Errorf("missing ids %s: %w", familyName(family), err)
		}
	}

	e.Notifier.Announce(ctx, "**TMDB Mirror:** Missing IDs sweep completed.")
	return nil
}

func (e *Engine) missingFamily(ctx context.Context, family tmdb.Family) error {
	name := familyName(family)

	exportIDs, liveIDs, err := e.idSets(ctx, family)
	if err != nil {
		return err
	}

	var missing []int64
	for _, id := range exportIDs {
		if _, ok := liveIDs[id]; !ok {
			missing = append(missing, id)
		}
	}
	log.Info().Str("family", name).Int("missing", len(missing)).Msg("export diff computed")
	if len(missing) == 0 {
		return nil
	}

	progress := NewProgress("missing_ids_" + name)
	progress.AddEnumerated(int64(len(missing)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.MaxConnections)
	for _, id := range missing {
		id := id
		g.Go(func() error {
			err := e.upsertOne(gctx, family, id)
			switch {
			case errors.Is(err, tmdb.ErrNotFound):
				progress.AddNotFound(1)
				return nil
			case errors.Is(err, tmdb.ErrUnauthorized) || errors.Is(err, context.Canceled):
				return err
			case err != nil:
				progress.AddErrored(1)
				log.Warn().Err(err).Int64("id", id).Str("family", name).Msg("skipping missing record")
				return nil
			}
			progress.AddFetched(1)
			progress.AddInserted(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.Notifier.Report(ctx, progress.Snapshot())
	return nil
}

// PruneDeleted removes live records whose ids no longer appear in the daily
// export files.
func (e *Engine) PruneDeleted(ctx context.Context) error {
	e.Notifier.Announce(ctx, "**TMDB Mirror:** Running prune task.")

	for _, family := range families {
		if err := e.pruneFamily(ctx, family); err != nil {
			return fmt.Errorf("prune %s: %w", familyName(family), err)
		}
	}

	e.Notifier.Announce(ctx, "**TMDB Mirror:** Prune task completed.")
	return nil
}

func (e *Engine) pruneFamily(ctx context.Context, family tmdb.Family) error {
	name := familyName(family)

	exportIDs, liveIDs, err := e.idSets(ctx, family)
	if err != nil {
		return err
	}

	inExport := make(map[int64]struct{}, len(exportIDs))
	for _, id := range exportIDs {
		inExport[id] = struct{}{}
	}
	var orphaned []int64
	for id := range liveIDs {
		if _, ok := inExport[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	log.Info().Str("family", name).Int("orphaned", len(orphaned)).Msg("export diff computed")
	if len(orphaned) == 0 {
		return nil
	}

	progress := NewProgress("prune_deleted_" + name)
	progress.AddEnumerated(int64(len(orphaned)))

	n, err := e.DB.DeleteRecords(ctx, name, orphaned)
	if err != nil {
		return err
	}
	progress.AddDeleted(n)
	log.Info().Str("family", name).Int64("deleted", n).Msg("pruned records absent from export")

	e.Notifier.Report(ctx, progress.Snapshot())
	return nil
}

func (e *Engine) idSets(ctx context.Context, family tmdb.Family) ([]int64, map[int64]struct{}, error) {
	exportIDs, err := e.Exports.FetchIDs(ctx, family, time.Now())
	if err != nil {
		return nil, nil, err
	}
	liveIDs, err := e.DB.RootIDs(ctx, familyName(family))
	if err != nil {
		return nil, nil, err
	}
	return exportIDs, liveIDs, nil
}
