package ingest

import (
	"sync/atomic"
	"time"
)

// Progress tracks per-phase counts for one job. Counters are updated from
// concurrent fetch workers.
type Progress struct {
	Job     string
	started time.Time

	enumerated atomic.Int64
	fetched    atomic.Int64
	inserted   atomic.Int64
	updated    atomic.Int64
	deleted    atomic.Int64
	errored    atomic.Int64
	notFound   atomic.Int64
}

func NewProgress(job string) *Progress {
	return &Progress{Job: job, started: time.Now()}
}

func (p *Progress) AddEnumerated(n int64) { p.enumerated.Add(n) }
func (p *Progress) AddFetched(n int64)    { p.fetched.Add(n) }
func (p *Progress) AddInserted(n int64)   { p.inserted.Add(n) }
func (p *Progress) AddUpdated(n int64)    { p.updated.Add(n) }
func (p *Progress) AddDeleted(n int64)    { p.deleted.Add(n) }
func (p *Progress) AddErrored(n int64)    { p.errored.Add(n) }
func (p *Progress) AddNotFound(n int64)   { p.notFound.Add(n) }

// Report is the JSON document shape handed to the notifier.
type Report struct {
	Job        string  `json:"job"`
	Enumerated int64   `json:"ids_enumerated"`
	Fetched    int64   `json:"fetched"`
	Inserted   int64   `json:"inserted"`
	Updated    int64   `json:"updated"`
	Deleted    int64   `json:"deleted"`
	Errored    int64   `json:"errored"`
	NotFound   int64   `json:"not_found"`
	Elapsed    string  `json:"elapsed"`
	ErrorRate  float64 `json:"error_rate"`
	Degraded   bool    `json:"degraded"`
}

// Snapshot freezes the counters. The job is flagged degraded when more than
// 5% of enumerated ids failed with non-404 errors.
func (p *Progress) Snapshot() Report {
	enumerated := p.enumerated.Load()
	errored := p.errored.Load()
	var rate float64
	if enumerated > 0 {
		rate = float64(errored) / float64(enumerated)
	}
	return Report{
		Job:        p.Job,
		Enumerated: enumerated,
		Fetched:    p.fetched.Load(),
		Inserted:   p.inserted.Load(),
		Updated:    p.updated.Load(),
		Deleted:    p.deleted.Load(),
		Errored:    errored,
		NotFound:   p.notFound.Load(),
		Elapsed:    time.Since(p.started).Round(time.Second).String(),
		ErrorRate:  rate,
		Degraded:   rate > 0.05,
	}
}
