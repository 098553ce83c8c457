package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/andresuchdata/tmdb-mirror/internal/api"
	"github.com/andresuchdata/tmdb-mirror/internal/cache"
	"github.com/andresuchdata/tmdb-mirror/internal/config"
	"github.com/andresuchdata/tmdb-mirror/internal/ingest"
	"github.com/andresuchdata/tmdb-mirror/internal/notify"
	"github.com/andresuchdata/tmdb-mirror/internal/scheduler"
	"github.com/andresuchdata/tmdb-mirror/internal/storage"
	"github.com/andresuchdata/tmdb-mirror/internal/store"
	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
	"github.com/andresuchdata/tmdb-mirror/pkg/logger"
	"github.com/gin-gonic/gin"
)

const shutdownGrace = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.ToConsole)
	log := logger.Log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(cfg.Database.URI, cfg.TMDB.MaxConnections)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Starting TMDB Mirror worker")
	if err := db.CreateTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create tables")
	}
	if cfg.Database.EnableUnaccent {
		log.Info().Msg("Adding extension unaccent if not added already")
		if err := db.ApplyUnaccent(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create unaccent extension")
		}
	}

	limiter := tmdb.NewLimiter(cfg.TMDB.RateLimit, cfg.TMDB.MaxConnections)
	client := tmdb.NewClient(cfg.TMDB.ReadAccessToken, limiter)

	var exportSink tmdb.ExportSink
	if cfg.Archive.Enabled {
		archive, err := storage.NewExportArchive(cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize export archive")
		}
		exportSink = archive
	}

	var exportCache tmdb.ExportCache
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("export cache unavailable, running uncached")
		} else {
			exportCache = c
			defer c.Close()
		}
	}

	exports := tmdb.NewExportFetcher(client, exportSink, exportCache)
	webhook := notify.NewWebhook(cfg.Webhook)

	engine := &ingest.Engine{
		DB:             db,
		Client:         client,
		Exports:        exports,
		Notifier:       webhook,
		BatchInsert:    cfg.TMDB.BatchInsert,
		MaxConnections: cfg.TMDB.MaxConnections,
	}

	sched := scheduler.New(ctx)
	sched.OnFailure = func(kind string, err error) {
		webhook.Announce(context.Background(), fmt.Sprintf("**TMDB Mirror Error in %s:**\n```%v```", kind, err))
	}
	registerJobs(sched, engine, db, webhook, cfg)
	sched.StartCron(map[string]string{
		scheduler.JobFullSweep:    cfg.Cron.FullSweep,
		scheduler.JobMissingIDs:   cfg.Cron.MissingOnly,
		scheduler.JobPruneDeleted: cfg.Cron.Prune,
		scheduler.JobChangesSync:  cfg.Cron.ChangesSync,
	})

	queue := scheduler.NewQueue(db.DB, cfg.Database.URI)
	go func() {
		if err := queue.Listen(ctx, sched); err != nil {
			log.Error().Err(err).Msg("queue listener stopped")
			cancel()
		}
	}()

	var apiServer *http.Server
	if cfg.API.Enabled {
		gin.SetMode(gin.ReleaseMode)
		if cfg.API.Key == "" {
			log.Warn().Msg("API key authentication is DISABLED; set API_KEY to secure the API")
		}
		router := api.NewServer(sched).Router(cfg.API.Key)
		apiServer = &http.Server{
			Addr:         ":" + cfg.API.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			log.Info().Str("port", cfg.API.Port).Msg("Starting API server")
			if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("API server failed")
				cancel()
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down TMDB Mirror worker...")

	cancel()
	sched.Shutdown(shutdownGrace)

	if apiServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API server forced to shutdown")
		}
	}
	log.Info().Msg("Worker exiting")
}

func registerJobs(sched *scheduler.Scheduler, engine *ingest.Engine, db *store.DB, webhook *notify.Webhook, cfg *config.Config) {
	sched.Register(scheduler.JobFullSweep, func(ctx context.Context, payload string) error {
		force := payload == "true" || payload == "True"
		return engine.FullSweep(ctx, force)
	})
	sched.Register(scheduler.JobMissingIDs, func(ctx context.Context, _ string) error {
		return engine.MissingIDs(ctx)
	})
	sched.Register(scheduler.JobPruneDeleted, func(ctx context.Context, _ string) error {
		return engine.PruneDeleted(ctx)
	})
	sched.Register(scheduler.JobChangesSync, func(ctx context.Context, _ string) error {
		return engine.ChangesSync(ctx)
	})
	sched.Register(scheduler.JobCreateTables, func(ctx context.Context, _ string) error {
		if err := db.CreateTables(ctx); err != nil {
			return err
		}
		if cfg.Database.EnableUnaccent {
			return db.ApplyUnaccent(ctx)
		}
		return nil
	})
	sched.Register(scheduler.JobAddMovie, func(ctx context.Context, payload string) error {
		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return fmt.Errorf("add_movie: invalid id %q", payload)
		}
		return engine.AddMovie(ctx, id)
	})
	sched.Register(scheduler.JobAddSeries, func(ctx context.Context, payload string) error {
		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return fmt.Errorf("add_series: invalid id %q", payload)
		}
		return engine.AddSeries(ctx, id)
	})
	sched.Register(scheduler.JobTestWebhook, func(ctx context.Context, payload string) error {
		if payload == "" {
			payload = "Test webhook message from TMDB Mirror"
		}
		webhook.Announce(ctx, payload)
		return nil
	})
}
