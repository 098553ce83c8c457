package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Queue is the cross-process job queue: a Postgres table with an insert
// trigger that fires pg_notify. The CLI enqueues rows; the worker listens and
// pops them atomically. The REST surface submits to the scheduler directly.
type Queue struct {
	db  *sqlx.DB
	uri string
}

func NewQueue(db *sqlx.DB, uri string) *Queue {
	return &Queue{db: db, uri: uri}
}

// Enqueue inserts one job; the table trigger notifies the listener.
func (q *Queue) Enqueue(ctx context.Context, kind, payload string) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO job_queue (job_type, payload) VALUES ($1, $2)", kind, payload)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return nil
}

// pop atomically claims one queued job by id.
func (q *Queue) pop(ctx context.Context, id int64) (string, string, bool, error) {
	var kind string
	var payload sql.NullString
	err := q.db.QueryRowContext(ctx,
		"DELETE FROM job_queue WHERE id = $1 RETURNING job_type, payload", id).
		Scan(&kind, &payload)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return kind, payload.String, true, nil
}

// popOldest drains jobs that were enqueued while no worker was listening.
func (q *Queue) popOldest(ctx context.Context) (string, string, bool, error) {
	var kind string
	var payload sql.NullString
	err := q.db.QueryRowContext(ctx, `
		DELETE FROM job_queue
		WHERE id = (SELECT id FROM job_queue ORDER BY id LIMIT 1)
		RETURNING job_type, payload`).
		Scan(&kind, &payload)
	if err == sql.ErrNoRows {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return kind, payload.String, true, nil
}

// Listen blocks on LISTEN new_job over a dedicated connection, submitting
// each popped job to the scheduler until the context is cancelled. Already-
// running rejections are logged by the scheduler and dropped.
func (q *Queue) Listen(ctx context.Context, s *Scheduler) error {
	conn, err := pgx.Connect(ctx, q.uri)
	if err != nil {
		return fmt.Errorf("queue listener connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN new_job"); err != nil {
		return fmt.Errorf("LISTEN new_job: %w", err)
	}
	log.Info().Msg("listening for new jobs")

	// Backlog from before this listener attached.
	for {
		kind, payload, ok, err := q.popOldest(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		q.submit(s, kind, payload)
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		var id int64
		if _, err := fmt.Sscanf(notification.Payload, "%d", &id); err != nil {
			log.Warn().Str("payload", notification.Payload).Msg("ignoring malformed job notification")
			continue
		}

		kind, payload, ok, err := q.pop(ctx, id)
		if err != nil {
			log.Error().Err(err).Int64("job_id", id).Msg("failed to pop job")
			continue
		}
		if !ok {
			// Claimed by another worker.
			continue
		}
		q.submit(s, kind, payload)
	}
}

func (q *Queue) submit(s *Scheduler, kind, payload string) {
	if err := s.Submit(kind, payload); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		log.Warn().Err(err).Str("job", kind).Msg("ignoring unknown queued job")
	}
}
