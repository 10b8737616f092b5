package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kirillkom/personal-ai-assistant/internal/cache"
	"github.com/kirillkom/personal-ai-assistant/internal/config"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/core/usecase"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/personal-ai-assistant/internal/observability/logging"
	"github.com/kirillkom/personal-ai-assistant/internal/observability/metrics"
)

// App wires every adapter and use case for both the API and worker
// processes, mirroring the teacher's single-App/closeFn shape.
type App struct {
	Config config.Config
	Logger zerolog.Logger

	Metrics *metrics.HTTPServerMetrics
	Worker  *metrics.WorkerMetrics

	Queue     ports.MessageQueue
	Documents ports.DocumentRepository
	Sessions  ports.SessionStore

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	QueryUC   ports.QueryService
	SessionUC ports.SessionAdmin
	DocumentUC ports.DocumentReader

	sessionUseCase *usecase.SessionUseCase

	closeFn func()
}

const serviceName = "ranac"

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.New(serviceName, cfg.LogLevel)

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	resilienceCfg.BreakerEnabled = cfg.BreakerEnabled
	executor := resilience.NewExecutor(resilienceCfg)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	documentRepo := postgres.NewDocumentRepository(db)
	if err := documentRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	sessionRepo := postgres.NewSessionRepository(db)
	if err := sessionRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure sessions schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	natsQueue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	completer := ollama.NewCompleter(ollamaClient, executor)
	embedder := ollama.NewEmbedder(ollamaClient, executor)

	vectorDB, err := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantVectorSize, executor)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	splitter := chunking.NewSplitter(cfg.ChunkSizeTokens, cfg.ChunkOverlapTokens)
	extractor := pdf.New()

	stringsCache, err := cache.NewStrings(cfg.CacheStringsSize)
	if err != nil {
		return nil, fmt.Errorf("init strings cache: %w", err)
	}
	vectorsCache, err := cache.NewVectors(cfg.CacheVectorsSize)
	if err != nil {
		return nil, fmt.Errorf("init vectors cache: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	enricher := usecase.NewEnricher(completer)
	ingestUC := usecase.NewIngestUseCase(documentRepo, storage, natsQueue)
	processUC := usecase.NewProcessUseCase(documentRepo, storage, extractor, splitter, enricher, embedder, vectorDB)

	sessionUC := usecase.NewSessionUseCase(sessionRepo)
	rewriter := usecase.NewRewriter(completer)
	entityExtractor := usecase.NewEntityExtractor(completer)
	selfQuery := usecase.NewSelfQueryParser(completer)
	expander := usecase.NewQueryExpander(completer, stringsCache)
	retriever := usecase.NewRetriever(vectorDB, embedder, vectorsCache, httpMetrics, serviceName, usecase.RetrievalConfig{
		TopK:                cfg.RetrievalTopK,
		CandidateMultiplier: cfg.RetrievalCandidateMult,
		FallbackThreshold:   cfg.RetrievalFallbackT,
	})
	synth := usecase.NewSynthesizer(completer)
	queryUC := usecase.NewQueryUseCase(sessionUC, rewriter, entityExtractor, selfQuery, expander, retriever, synth, httpMetrics, logger, serviceName)

	documentUC := usecase.NewDocumentUseCase(documentRepo, vectorDB)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: httpMetrics,
		Worker:  workerMetrics,

		Queue:     natsQueue,
		Documents: documentRepo,
		Sessions:  sessionRepo,

		IngestUC:   ingestUC,
		ProcessUC:  processUC,
		QueryUC:    queryUC,
		SessionUC:  sessionUC,
		DocumentUC: documentUC,

		sessionUseCase: sessionUC,

		closeFn: func() {
			natsQueue.Close()
			_ = db.Close()
			_ = vectorDB.Close()
		},
	}, nil
}

// SessionJanitor exposes the sweep operation for cmd/janitor without
// widening ports.SessionAdmin's public surface.
func (a *App) SessionJanitor() *usecase.SessionUseCase {
	return a.sessionUseCase
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
