package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nguyentantai21042004/speech-to-text/internal/api"
	"github.com/nguyentantai21042004/speech-to-text/internal/config"
	"github.com/nguyentantai21042004/speech-to-text/internal/jobs"
	"github.com/nguyentantai21042004/speech-to-text/internal/queue"
	"github.com/nguyentantai21042004/speech-to-text/internal/storage"
	"github.com/nguyentantai21042004/speech-to-text/internal/transcription"
	"github.com/nguyentantai21042004/speech-to-text/internal/whisper"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("redis unavailable", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Model loading is fatal on purpose: a server that cannot transcribe
	// must never pass readiness.
	engine, err := whisper.New(whisper.Config{
		ModelSize:        cfg.Whisper.ModelSize,
		ArtifactsDir:     cfg.Whisper.ArtifactsDir,
		Threads:          cfg.Whisper.Threads,
		TempDir:          cfg.Whisper.TempDir,
		ChunkingEnabled:  cfg.Chunk.Enabled,
		ChunkDuration:    cfg.Chunk.Duration,
		ChunkOverlap:     cfg.Chunk.Overlap,
		MinChunkDuration: cfg.Chunk.MinChunkDuration,
		SeamWords:        cfg.Chunk.SeamWords,
		SilencePeak:      cfg.Chunk.SilencePeak,
		NoiseStdDev:      cfg.Chunk.NoiseStdDev,
	})
	if err != nil {
		slog.Error("failed to initialize speech engine", "model", cfg.Whisper.ModelSize, "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	downloader := storage.NewObjectDownloader(
		cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.API.MaxDownloadMB)
	jobStore := jobs.NewStore(rdb, cfg.Jobs.TTL)
	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	svc := transcription.NewService(
		engine, downloader, jobStore, queueClient,
		cfg.Whisper.TempDir, cfg.Whisper.Language, cfg.API.TranscribeTimeout)

	router := api.NewRouter(rdb, cfg, svc, engine.Ready)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // sync transcription of long audio
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr(), "model", cfg.Whisper.ModelSize)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
