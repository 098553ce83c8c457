package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ErrAlreadyRunning is returned when a job is rejected by the single-flight
// policy. The duplicate is not queued behind the running instance.
var ErrAlreadyRunning = errors.New("job already running")

// Job kinds.
const (
	JobFullSweep    = "full_sweep"
	JobMissingIDs   = "missing_ids"
	JobPruneDeleted = "prune_deleted"
	JobChangesSync  = "changes_sync"
	JobCreateTables = "create_tables"
	JobAddMovie     = "add_movie"
	JobAddSeries    = "add_series"
	JobTestWebhook  = "test_webhook"
)

var globalJobs = map[string]bool{
	JobFullSweep:    true,
	JobMissingIDs:   true,
	JobPruneDeleted: true,
	JobChangesSync:  true,
}

// Handler executes one job. The payload is the raw queue payload: a force
// flag for full_sweep, an id for add_movie/add_series, a message for
// test_webhook.
type Handler func(ctx context.Context, payload string) error

// Scheduler owns the job table: single-flight locks, the CRON loop and the
// dispatch of queued jobs onto worker goroutines.
type Scheduler struct {
	ctx      context.Context
	handlers map[string]Handler

	// OnFailure, when set, is invoked after a job handler returns an error
	// (auth failures, aborted swaps). Used to surface failures to the
	// notifier.
	OnFailure func(kind string, err error)

	mu      sync.Mutex
	running map[string]bool

	wg   sync.WaitGroup
	cron *cron.Cron
}

// New builds a scheduler dispatching within the given base context; cancel
// it to stop all running jobs.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		ctx:      ctx,
		handlers: make(map[string]Handler),
		running:  make(map[string]bool),
	}
}

// Register installs the handler for a job kind.
func (s *Scheduler) Register(kind string, h Handler) {
	s.handlers[kind] = h
}

// lockKey serializes global jobs by kind and per-id jobs by kind+id.
func lockKey(kind, payload string) string {
	if globalJobs[kind] {
		return kind
	}
	if _, err := strconv.ParseInt(payload, 10, 64); err == nil {
		return kind + ":" + payload
	}
	return kind
}

// Submit runs a job unless its single-flight lock is held. Duplicates are
// rejected immediately with ErrAlreadyRunning.
func (s *Scheduler) Submit(kind, payload string) error {
	h, ok := s.handlers[kind]
	if !ok {
		return fmt.Errorf("unknown job kind %q", kind)
	}

	key := lockKey(kind, payload)
	s.mu.Lock()
	if s.running[key] {
		s.mu.Unlock()
		log.Warn().Str("job", kind).Str("key", key).Msg("job already running, rejecting duplicate")
		return ErrAlreadyRunning
	}
	s.running[key] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.running, key)
			s.mu.Unlock()
		}()

		started := time.Now()
		log.Info().Str("job", kind).Str("payload", payload).Msg("job started")
		if err := h(s.ctx, payload); err != nil {
			log.Error().Err(err).Str("job", kind).Msg("job failed")
			if s.OnFailure != nil {
				s.OnFailure(kind, err)
			}
			return
		}
		log.Info().Str("job", kind).Dur("elapsed", time.Since(started)).Msg("job finished")
	}()
	return nil
}

// disableTokens deactivate a CRON schedule.
var disableTokens = map[string]bool{
	"":         true,
	"false":    true,
	"off":      true,
	"disable":  true,
	"disabled": true,
	"no":       true,
}

// ScheduleDisabled reports whether the schedule string is a disable token.
func ScheduleDisabled(schedule string) bool {
	return disableTokens[strings.ToLower(strings.TrimSpace(schedule))]
}

// StartCron parses the configured schedule strings and installs submissions
// for the active ones. Invalid expressions are logged and skipped so one bad
// schedule does not take the service down.
func (s *Scheduler) StartCron(schedules map[string]string) {
	s.cron = cron.New()
	for kind, schedule := range schedules {
		if ScheduleDisabled(schedule) {
			log.Info().Str("job", kind).Msg("schedule disabled")
			continue
		}
		kind := kind
		if _, err := s.cron.AddFunc(schedule, func() {
			if err := s.Submit(kind, ""); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				log.Error().Err(err).Str("job", kind).Msg("scheduled submission failed")
			}
		}); err != nil {
			log.Error().Err(err).Str("job", kind).Str("cron", schedule).Msg("failed to schedule task")
			continue
		}
		log.Info().Str("job", kind).Str("cron", schedule).Msg("scheduled task")
	}
	s.cron.Start()
}

// Shutdown stops the CRON loop and waits for running jobs up to the grace
// period.
func (s *Scheduler) Shutdown(grace time.Duration) {
	if s.cron != nil {
		s.cron.Stop()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Msg("all jobs drained")
	case <-time.After(grace):
		log.Warn().Dur("grace", grace).Msg("grace period elapsed, aborting remaining jobs")
	}
}
