package ingest

import (
	"context"

	"github.com/andresuchdata/tmdb-mirror/internal/store"
	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
)

// Notifier receives job boundary announcements. Failures to notify never
// fail a job.
type Notifier interface {
	Announce(ctx context.Context, message string)
	Report(ctx context.Context, report Report)
}

// Engine runs the ingestion and reconciliation jobs. All process-wide
// collaborators are explicit dependencies constructed at startup.
type Engine struct {
	DB       *store.DB
	Client   *tmdb.Client
	Exports  *tmdb.ExportFetcher
	Notifier Notifier

	BatchInsert    int
	MaxConnections int
}

// Families in sweep order.
var families = []tmdb.Family{tmdb.FamilyMovie, tmdb.FamilySeries}

func familyName(f tmdb.Family) string {
	if f == tmdb.FamilySeries {
		return "series"
	}
	return "movie"
}

func metaLastFullSweep(f tmdb.Family) string {
	if f == tmdb.FamilySeries {
		return store.MetaLastFullSweepSeries
	}
	return store.MetaLastFullSweepMovie
}

func metaLastChangesSync(f tmdb.Family) string {
	if f == tmdb.FamilySeries {
		return store.MetaLastChangesSyncSeries
	}
	return store.MetaLastChangesSyncMovie
}
