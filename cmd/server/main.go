package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akovacs/vizsgadrill/internal/api"
	"github.com/akovacs/vizsgadrill/internal/bank"
	"github.com/akovacs/vizsgadrill/internal/clock"
	"github.com/akovacs/vizsgadrill/internal/config"
	"github.com/akovacs/vizsgadrill/internal/db"
	"github.com/akovacs/vizsgadrill/internal/jobs"
	"github.com/akovacs/vizsgadrill/internal/logger"
	"github.com/akovacs/vizsgadrill/internal/services"
	"github.com/akovacs/vizsgadrill/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Vizsgadrill Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("questions_path=%s", cfg.QuestionsPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("summary_worker_count=%d", cfg.SummaryWorkerCount)
	log.Debug("summary_queue_size=%d", cfg.SummaryQueueSize)
	log.Debug("reminder_hour=%d", cfg.ReminderHour)
	log.Debug("exam_questions_per_topic=%d", cfg.Exam.QuestionsPerTopic)
	log.Debug("exam_duration=%v", cfg.Exam.Duration)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Load the question bank
	questions, err := bank.Load(cfg.QuestionsPath)
	if err != nil {
		log.Error("failed to load question bank: %v", err)
		os.Exit(1)
	}

	clk := clock.System{}

	// Initialize background workers
	summaryPool := worker.NewPool(cfg.SummaryWorkerCount, cfg.SummaryQueueSize)

	// Initialize services
	sessionService := services.NewSessionService(database, questions, clk, summaryPool, cfg.Exam)
	statsService := services.NewStatsService(database, questions, clk)

	srv := api.NewServer(sessionService, statsService, questions)

	ctx, cancel := context.WithCancel(context.Background())
	summaryPool.Start(ctx)

	reminder := jobs.NewReminder(database, clk)
	if err := reminder.Start(cfg.ReminderHour); err != nil {
		log.Error("failed to start daily reminder: %v", err)
		os.Exit(1)
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping reminder scheduler")
	reminder.Stop()

	log.Debug("stopping worker pool")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping summary pool")
	summaryPool.Stop()

	log.Info("===========================================")
	log.Info("Vizsgadrill Server Stopped")
	log.Info("===========================================")
}
