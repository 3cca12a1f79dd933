/*
Package main is the entry point for the duochat server.

It is responsible for loading configuration, initializing the global logging
system, opening the database, wiring the chat core, and gracefully handling
operating system interrupt signals (SIGINT, SIGTERM).
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duochat/internal/app/chat"
	"duochat/internal/app/db"
	"duochat/internal/app/services"
	"duochat/internal/app/storage"
	"duochat/internal/app/store/sqlstore"
	"duochat/internal/configs"
	"duochat/internal/handler"
	"duochat/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("database_driver", cfg.DatabaseDriver).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to open database")
	}
	defer sqlDB.Close()

	st := sqlstore.New(sqlDB, cfg.DatabaseDriver)

	var blobs storage.BlobStore
	if cfg.HasBlobStore() {
		blobs, err = storage.NewBlobStore(storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3PublicBaseURL:   cfg.S3PublicBaseURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize blob store")
		}
	} else {
		logx.Warn("No blob store configured, image sends will fail")
	}

	registry := chat.NewRegistry()
	chatRouter := chat.NewRouter(registry)
	svc := services.NewChatService(st, blobs, chatRouter)

	deps := &handler.AppDeps{
		Config:    cfg,
		Store:     st,
		Service:   svc,
		Registry:  registry,
		Router:    chatRouter,
		BlobStore: blobs,
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("duochat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
