package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/config"
	"github.com/kailas-cloud/docsearch/internal/db/postgres"
	dbredis "github.com/kailas-cloud/docsearch/internal/db/redis"
	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/metrics"
	documentrepo "github.com/kailas-cloud/docsearch/internal/repository/document"
	"github.com/kailas-cloud/docsearch/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/docsearch/internal/repository/search"
	"github.com/kailas-cloud/docsearch/internal/splitter"
	"github.com/kailas-cloud/docsearch/internal/transport/hashembed"
	openaiEmb "github.com/kailas-cloud/docsearch/internal/transport/openai"
	documentuc "github.com/kailas-cloud/docsearch/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/docsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/internal/usecase/processing"
	searchuc "github.com/kailas-cloud/docsearch/internal/usecase/search"
)

// app is the composition root shared by serve and the one-shot commands.
type app struct {
	store     *postgres.Store
	cache     *dbredis.Store
	documents *documentuc.Service
	search    *searchuc.Service
	health    *healthuc.Service
}

// provider is an embedding backend that can report its own health.
type provider interface {
	domain.Embedder
	domain.HealthChecker
}

// openStore connects to Postgres and waits until it answers.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.Store, error) {
	store, err := postgres.Open(postgres.Config{
		DSN:             cfg.Database.DSN,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime(),
		SlowQuery:       cfg.Database.SlowQuery(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")
	return store, nil
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.Register()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{store: store}

	if cfg.Cache.Enabled {
		cache, err := dbredis.NewStore(dbredis.Config{Addrs: cfg.Cache.Addrs, Password: cfg.Cache.Password})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("create cache: %w", err)
		}
		a.cache = cache
		if err := cache.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			// Cache failures degrade to misses.
			logger.Warn("Embedding cache not ready, continuing", zap.Error(err))
		}
	}

	base, err := buildProvider(cfg.Embedding, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	docEmbedder := buildEmbedder(base, cfg, cfg.Embedding.DocumentInstruction, a.cache, logger)
	queryEmbedder := buildEmbedder(base, cfg, cfg.Embedding.QueryInstruction, a.cache, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", a.cache != nil),
	)

	sp, err := splitter.New(
		splitter.WithChunkSize(cfg.Splitter.ChunkSize),
		splitter.WithChunkOverlap(cfg.Splitter.ChunkOverlap),
		splitter.WithSeparators(cfg.Splitter.Separators...),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create splitter: %w", err)
	}
	proc := processing.New(sp, docEmbedder, queryEmbedder)

	a.documents = documentuc.New(documentrepo.New(store), proc, store).
		WithPersistence(documentuc.PersistencePolicy(cfg.Ingestion.Persistence)).
		WithPagination(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize).
		WithBackfillLimit(cfg.Ingestion.BackfillLimit)
	a.search = searchuc.New(searchrepo.New(store, searchrepo.WithEfSearch(cfg.Index.HNSWEFSearch)), proc).
		WithMaxLimit(cfg.Index.MaxSearchLimit)

	a.health = healthuc.New(store, base).WithTimeout(cfg.HTTP.HealthTimeout())
	if a.cache != nil {
		a.health.WithCache(a.cache)
	}
	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

func buildProvider(cfg config.EmbeddingConfig, logger *zap.Logger) (provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderOllama:
		apiKey := cfg.APIKey
		if apiKey == "" && cfg.Provider == config.ProviderOllama {
			apiKey = "ollama"
		}
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: providerDimensions(cfg),
			Provider:   cfg.Provider,
			Timeout:    time.Duration(cfg.TimeoutSec) * time.Second,
			Logger:     logger,
		}), nil
	case config.ProviderMock:
		e, err := hashembed.New(cfg.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("create mock embedder: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// providerDimensions returns the dimensions request parameter. Ollama rejects it.
func providerDimensions(cfg config.EmbeddingConfig) int {
	if cfg.Provider == config.ProviderOllama {
		return 0
	}
	return cfg.Dimensions
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented -> instruction.
func buildEmbedder(
	base provider,
	cfg config.Config,
	instruction string,
	cache *dbredis.Store,
	logger *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(base, cache, cfg.Embedding.Model, cfg.Cache.TTL(), metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger).
		WithMaxBatchSize(cfg.Embedding.MaxBatchSize)

	// Outermost, so cache keys include the instruction.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}
