package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/andresuchdata/tmdb-mirror/internal/config"
	"github.com/andresuchdata/tmdb-mirror/internal/scheduler"
	"github.com/andresuchdata/tmdb-mirror/internal/store"
	"github.com/andresuchdata/tmdb-mirror/pkg/logger"
	"github.com/urfave/cli/v2"
)

// The jobs CLI enqueues work onto the shared Postgres queue; the worker
// process picks it up through LISTEN/NOTIFY. Exit code 0 means the job was
// enqueued, not that it ran.
func main() {
	app := &cli.App{
		Name:  "jobs",
		Usage: "Enqueue TMDB mirror jobs",
		Commands: []*cli.Command{
			simpleCommand(scheduler.JobMissingIDs, "Sync missing ids from the latest export"),
			simpleCommand(scheduler.JobPruneDeleted, "Prune records absent from the latest export"),
			simpleCommand(scheduler.JobChangesSync, "Sync recent changes from the upstream delta feed"),
			simpleCommand(scheduler.JobCreateTables, "Create database tables"),
			{
				Name:  scheduler.JobFullSweep,
				Usage: "Rebuild the whole mirror from the daily exports",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Swap staging to live regardless of row counts",
					},
				},
				Action: func(c *cli.Context) error {
					return enqueue(scheduler.JobFullSweep, strconv.FormatBool(c.Bool("force")))
				},
			},
			idCommand(scheduler.JobAddMovie, "Add or update a single movie"),
			idCommand(scheduler.JobAddSeries, "Add or update a single series"),
			{
				Name:  scheduler.JobTestWebhook,
				Usage: "Send a test message through the webhook",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "message",
						Usage: "Custom message to send",
						Value: "Test webhook message from TMDB Mirror",
					},
				},
				Action: func(c *cli.Context) error {
					return enqueue(scheduler.JobTestWebhook, c.String("message"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("failed to enqueue job")
		os.Exit(1)
	}
}

func simpleCommand(kind, usage string) *cli.Command {
	return &cli.Command{
		Name:  kind,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return enqueue(kind, "")
		},
	}
}

func idCommand(kind, usage string) *cli.Command {
	return &cli.Command{
		Name:  kind,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "id",
				Usage:    "Upstream id",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			id := c.Int64("id")
			if id <= 0 {
				return cli.Exit("--id must be a positive integer", 2)
			}
			return enqueue(kind, strconv.FormatInt(id, 10))
		},
	}
}

func enqueue(kind, payload string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := store.NewDB(cfg.Database.URI, cfg.TMDB.MaxConnections)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	queue := scheduler.NewQueue(db.DB, cfg.Database.URI)
	if err := queue.Enqueue(context.Background(), kind, payload); err != nil {
		return err
	}
	logger.Log.Info().Str("job", kind).Str("payload", payload).Msg("job enqueued")
	return nil
}
