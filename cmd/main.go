// job-automation-agent
//
// Autonomous job application orchestrator. Discovers postings through an
// AI provider (or a free job board when no credential is configured),
// walks each posting through extraction, matching, drafting and dispatch,
// and runs a daily autonomous discovery cycle with a persisted checkpoint.
//
// Redis and Postgres are optional: without them the service runs fully
// in memory and logs what durability it is giving up.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/DK01git/JobAutomation/internal/agentlog"
	"github.com/DK01git/JobAutomation/internal/api"
	"github.com/DK01git/JobAutomation/internal/checkpoint"
	"github.com/DK01git/JobAutomation/internal/config"
	"github.com/DK01git/JobAutomation/internal/db"
	"github.com/DK01git/JobAutomation/internal/dispatch"
	"github.com/DK01git/JobAutomation/internal/lifecycle"
	"github.com/DK01git/JobAutomation/internal/logging"
	"github.com/DK01git/JobAutomation/internal/profile"
	"github.com/DK01git/JobAutomation/internal/provider"
	"github.com/DK01git/JobAutomation/internal/scheduler"
	"github.com/DK01git/JobAutomation/internal/store"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[agent] Config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Optional backends ───────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warnw("redis unavailable, checkpoint will not survive restarts", "err", err)
			rdb = nil
		} else {
			defer rdb.Close()
			logger.Infow("redis connected")
		}
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warnw("postgres unavailable, job set will not survive restarts", "err", err)
			pool = nil
		} else {
			defer pool.Close()
			logger.Infow("postgres connected")
		}
	}

	// ── Core state ──────────────────────────────────────────────────────────
	profiles, err := profile.Load(cfg.ProfilePath, logger)
	if err != nil {
		log.Fatalf("[agent] Profile error: %v", err)
	}

	jobs := store.NewMemory()
	var archive lifecycle.Archiver
	if pool != nil {
		pg := store.NewArchive(pool, logger)
		archive = pg
		if restored, err := pg.LoadSnapshot(ctx); err != nil {
			logger.Warnw("job snapshot restore failed, starting empty", "err", err)
		} else if len(restored) > 0 {
			jobs.Replace(restored)
			logger.Infow("job set restored", "jobs", len(restored))
		}
	}

	events := agentlog.New(logger, rdb)
	gateway := provider.New(logger)
	dispatcher := dispatch.New(logger)
	svc := lifecycle.NewService(jobs, gateway, dispatcher, profiles, events, logger, archive)
	cp := checkpoint.New(ctx, rdb, logger)

	sched := scheduler.New(scheduler.Deps{
		Provider:   gateway,
		Jobs:       svc,
		Dispatcher: dispatcher,
		Profiles:   profiles,
		Checkpoint: cp,
		Events:     events,
		Logger:     logger,
	}, cfg.PollInterval, cfg.CycleEvery, cfg.DigestJobs)

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[agent] Scheduler error: %v", err)
	}
	defer sched.Stop()

	events.Append(agentlog.AgentOrchestrator, agentlog.LevelInfo,
		fmt.Sprintf("Agent v%s online. Provider preference: %s.",
			version, profiles.Get().Preferences.AIProvider))

	// ── HTTP server ─────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	h := api.NewHandler(svc, jobs, sched, events, profiles, logger)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // provider calls can be slow
	}

	go func() {
		logger.Infow("listening", "version", version, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[agent] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infow("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("shutdown error", "err", err)
	}
	cp.Flush(shutdownCtx)
	logger.Infow("stopped")
}
