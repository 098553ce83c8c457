package ingest

import (
	"context"
	"errors"

	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
	"github.com/rs/zerolog/log"
)

// AddMovie fetches one movie and replaces it in the live tables. A 404 is a
// skip, not an error.
func (e *Engine) AddMovie(ctx context.Context, id int64) error {
	rec, err := e.Client.FetchMovie(ctx, id)
	if errors.Is(err, tmdb.ErrNotFound) {
		log.Warn().Int64("id", id).Msg("movie not found upstream, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	if err := UpsertMovie(ctx, e.DB, rec); err != nil {
		return err
	}
	log.Info().Int64("id", id).Msg("movie ingested")
	return nil
}

// AddSeries fetches one series and replaces it in the live tables.
func (e *Engine) AddSeries(ctx context.Context, id int64) error {
	rec, err := e.Client.FetchSeries(ctx, id)
	if errors.Is(err, tmdb.ErrNotFound) {
		log.Warn().Int64("id", id).Msg("series not found upstream, skipping")
		return nil
	}
	if err != nil {
		return err
	}
	if err := UpsertSeries(ctx, e.DB, rec); err != nil {
		return err
	}
	log.Info().Int64("id", id).Msg("series ingested")
	return nil
}
