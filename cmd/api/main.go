// Package main is the entry point for the reservation API server.
// Its sole responsibility is wiring dependencies together and starting the
// server and the background jobs. No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/config"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/handler"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/jobs"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/middleware"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/publisher"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/repo"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/service"
	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use the default logger before ours is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.AutoMigrate {
		db := stdlib.OpenDBFromPool(pool)
		n, err := migrations.Up(context.Background(), db)
		_ = db.Close()
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", n)
	}

	// --- Services ---------------------------------------------------------
	repos := repo.NewRepos(pool)
	tx := repo.NewTxRunner(pool)
	clock := service.SystemClock{Location: cfg.BusinessLocation}

	reservations := service.NewReservationService(repos, tx, clock, logger)
	projections := service.NewProjectionService(repos, tx, reservations, clock, logger)

	// --- Background jobs --------------------------------------------------
	var pub publisher.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			slog.Error("failed to create kafka publisher", "error", err)
			os.Exit(1)
		}
		pub = kp
		slog.Info("publishing reservation events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		pub = publisher.NewLogPublisher(logger)
		slog.Info("KAFKA_BROKERS not set; reservation events go to the log")
	}
	defer pub.Close()

	runner := jobs.NewJobRunner(tx, pub, projections, cfg.OutboxBatchSize, logger)
	scheduler, err := jobs.NewScheduler(runner, jobs.Schedules{
		OutboxRelay: cfg.OutboxRelaySchedule,
		NoShowSweep: cfg.NoShowSweepSchedule,
	}, cfg.BusinessLocation, logger)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	// Register handlers. NewStrictHandler binds each request into its request
	// object and writes the ResponseObject the Server returns.
	server := handler.NewServer(reservations, projections, logger)
	handler.HandlerFromMux(handler.NewStrictHandler(server, nil), r)

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	scheduler.Start()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	scheduler.Stop()
	slog.Info("server stopped")
}
