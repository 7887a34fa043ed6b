package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/nguyentantai21042004/speech-to-text/internal/config"
	"github.com/nguyentantai21042004/speech-to-text/internal/jobs"
	"github.com/nguyentantai21042004/speech-to-text/internal/queue"
	"github.com/nguyentantai21042004/speech-to-text/internal/queue/workers"
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

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	downloader := storage.NewObjectDownloader(
		cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.API.MaxDownloadMB)
	jobStore := jobs.NewStore(rdb, cfg.Jobs.TTL)
	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	svc := transcription.NewService(
		engine, downloader, jobStore, queueClient,
		cfg.Whisper.TempDir, cfg.Whisper.Language, cfg.API.TranscribeTimeout)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// One native inference at a time is enforced downstream; extra
			// asynq concurrency only overlaps downloads and decoding.
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()
	transcriptionWorker := workers.NewTranscriptionWorker(svc)
	registry.Register(queue.TypeTranscribe, asynq.HandlerFunc(transcriptionWorker.ProcessTask))

	slog.Info("starting worker", "model", cfg.Whisper.ModelSize, "concurrency", 2)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
