// Package bootstrap wires configuration, infrastructure adapters and use
// cases into a runnable application for both the API and the worker.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akozlenkov/videoqa/internal/config"
	"github.com/akozlenkov/videoqa/internal/core/ports"
	"github.com/akozlenkov/videoqa/internal/core/usecase"
	"github.com/akozlenkov/videoqa/internal/infrastructure/chunking"
	"github.com/akozlenkov/videoqa/internal/infrastructure/llm/openai"
	natsqueue "github.com/akozlenkov/videoqa/internal/infrastructure/queue/nats"
	"github.com/akozlenkov/videoqa/internal/infrastructure/repository/postgres"
	"github.com/akozlenkov/videoqa/internal/infrastructure/resilience"
	"github.com/akozlenkov/videoqa/internal/infrastructure/transcript"
	"github.com/akozlenkov/videoqa/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue

	AnswerUC   ports.QuestionAnswerer
	ScheduleUC ports.IndexScheduler
	StatusUC   ports.IndexReader
	IndexUC    *usecase.IndexVideoUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewVideoIndexRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		RetryMaxBackoff:     cfg.RetryMaxBackoff,
		BreakerEnabled:      cfg.BreakerEnabled,
	})

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llmClient := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIGenModel, cfg.OpenAIEmbedModel, executor)
	embedder := openai.NewEmbedder(llmClient)
	generator := openai.NewGenerator(llmClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	transcripts := transcript.New(cfg.TranscriptBaseURL)

	dense := usecase.NewDenseRetriever(embedder, vectorDB, cfg.QATopK)
	rewriting := usecase.NewRewritingRetriever(dense, generator, logger)
	hybrid, err := usecase.NewHybridRetriever(dense, cfg.QADenseWeight, cfg.QASparseWeight, cfg.QATopK, logger)
	if err != nil {
		return nil, fmt.Errorf("init hybrid retriever: %w", err)
	}

	answerUC := usecase.NewAnswerUseCase(dense, rewriting, hybrid, generator, usecase.AnswerConfig{
		TopK:             cfg.QATopK,
		Temperature:      cfg.QATemperature,
		MaxTokens:        cfg.QAMaxTokens,
		MaxPromptTokens:  cfg.QAMaxPromptTokens,
		DefaultRetriever: cfg.QADefaultRetriever,
	}, logger)

	scheduleUC := usecase.NewScheduleIndexUseCase(repo, queue, usecase.ScheduleConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})
	statusUC := usecase.NewIndexStatusUseCase(repo, vectorDB)
	indexUC := usecase.NewIndexVideoUseCase(
		repo,
		transcripts,
		func(chunkSize, chunkOverlap int) ports.Chunker {
			return chunking.NewSplitter(chunkSize, chunkOverlap)
		},
		embedder,
		vectorDB,
		cfg.TranscriptLanguages,
		logger,
	)

	return &App{
		Config: cfg,
		Logger: logger,
		Queue:  queue,

		AnswerUC:   answerUC,
		ScheduleUC: scheduleUC,
		StatusUC:   statusUC,
		IndexUC:    indexUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
