package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/newsgraph/internal/config"
	"github.com/OFFIS-RIT/newsgraph/internal/db"
	"github.com/OFFIS-RIT/newsgraph/internal/pipeline"
	"github.com/OFFIS-RIT/newsgraph/internal/queue"
	"github.com/OFFIS-RIT/newsgraph/internal/timing"
	"github.com/OFFIS-RIT/newsgraph/internal/util"
	"github.com/OFFIS-RIT/newsgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger/console"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Format: util.GetEnv("LOG_FORMAT"),
	})
	logger.Init(consoleLogger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	p, err := pipeline.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to set up pipeline", "err", err)
	}
	defer p.Close(context.Background())

	var runner queue.StageRunner = p

	// Stage timings and the cross-worker lease need Postgres.
	if dbURL := util.GetEnv("DATABASE_URL"); dbURL != "" {
		if err := db.Migrate(dbURL); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
		pgConn, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("Unable to connect to database", "err", err)
		}
		defer pgConn.Close()
		p.SetTimings(&timing.Recorder{Conn: pgConn})

		hostname, _ := os.Hostname()
		runner = &pipeline.LockedRunner{
			Runner: p,
			Locks:  leaselock.New(pgConn),
			TTL:    util.GetEnvDuration("STAGE_LOCK_TTL", 5*time.Minute),
			Holder: hostname + ":",
		}
	}

	conn, err := queue.Connect(config.LoadQueue().URL)
	if err != nil {
		logger.Fatal("Failed to connect to queue", "err", err)
	}
	defer conn.Close()

	worker := queue.NewWorker(conn, runner)
	worker.AIClient = p.AIClient()
	if err := worker.Run(ctx); err != nil {
		logger.Fatal("Worker stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
