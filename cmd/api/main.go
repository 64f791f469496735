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

	"github.com/go-secret-switch/internal/config"
	"github.com/go-secret-switch/internal/infrastructure/dynamo"
	"github.com/go-secret-switch/internal/infrastructure/google"
	"github.com/go-secret-switch/internal/infrastructure/jsonfile"
	"github.com/go-secret-switch/internal/infrastructure/smtp"
	webpushinfra "github.com/go-secret-switch/internal/infrastructure/webpush"
	"github.com/go-secret-switch/internal/pkg/clock"
	"github.com/go-secret-switch/internal/scheduler"
	"github.com/go-secret-switch/internal/storage"
	transporthttp "github.com/go-secret-switch/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	var store storage.Store
	switch cfg.StorageBackend {
	case config.StorageDynamo:
		// Bootstrap DynamoDB tables (creates them if they don't exist).
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), client, cfg.DynamoTables)
		store = dynamo.NewStore(client, cfg.DynamoTables, clock.System)
	case config.StorageFile:
		s, err := jsonfile.New(cfg.FileStorePath, clock.System)
		if err != nil {
			log.Fatalf("cannot open file store at %s: %v", cfg.FileStorePath, err)
		}
		store = s
	default:
		log.Fatalf("unknown storage backend %q", cfg.StorageBackend)
	}

	pusher, err := webpushinfra.NewPusher(cfg)
	if err != nil {
		log.Fatalf("cannot initialize web push: %v", err)
	}

	// Email fallback is optional; nil disables it.
	mailer := smtp.NewMailer(cfg)

	verifier := google.NewVerifier(cfg.GoogleClientID)

	period := time.Duration(cfg.SchedulerPeriodSeconds) * time.Second
	sched := scheduler.New(store, pusher, mailer, clock.System, period)

	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if cfg.SchedulerToken != "" {
		log.Println("serverless mode: sweeps run only via the trigger endpoint")
	} else {
		go sched.Run(schedCtx)
	}

	deps := &transporthttp.Deps{
		Store:     store,
		Verifier:  verifier,
		Pusher:    pusher,
		Scheduler: sched,
	}
	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, storage=%s)", cfg.AppPort, cfg.AppEnv, cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopScheduler()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
