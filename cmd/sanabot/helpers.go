package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/sanabot/internal/bot"
	"github.com/at-ishikawa/sanabot/internal/config"
	"github.com/at-ishikawa/sanabot/internal/database"
	"github.com/at-ishikawa/sanabot/internal/dictionary"
	"github.com/at-ishikawa/sanabot/internal/dictionary/fintwol"
)

type analysisStore interface {
	dictionary.AnalysisRepository
	CreateSchema(ctx context.Context) error
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loader.Load() > %w", err)
	}
	return cfg, nil
}

// openStore opens the configured backend. The returned function releases it.
func openStore(ctx context.Context, cfg *config.Config) (analysisStore, func() error, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		repo, err := dictionary.NewRedisAnalysisRepository(ctx, cfg.Store.RedisURL, cfg.Store.KeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("dictionary.NewRedisAnalysisRepository() > %w", err)
		}
		return repo, repo.Close, nil
	default:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("database.Open() > %w", err)
		}
		repo, err := dictionary.NewDBAnalysisRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("dictionary.NewDBAnalysisRepository() > %w", err)
		}
		return repo, db.Close, nil
	}
}

// openSchemaStore opens the store and makes sure its schema exists.
func openSchemaStore(ctx context.Context, cfg *config.Config) (analysisStore, func() error, error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := store.CreateSchema(ctx); err != nil {
		_ = closeStore()
		return nil, nil, fmt.Errorf("store.CreateSchema() > %w", err)
	}
	return store, closeStore, nil
}

func newFetcher(cfg *config.Config, charset fintwol.Charset) (*fintwol.Client, error) {
	if charset == "" {
		parsed, err := fintwol.ParseCharset(cfg.Analyzer.QueryCharset)
		if err != nil {
			return nil, fmt.Errorf("fintwol.ParseCharset() > %w", err)
		}
		charset = parsed
	}
	client, err := fintwol.NewClient(fintwol.Config{
		BaseURL:   cfg.Analyzer.BaseURL,
		Charset:   charset,
		Timeout:   cfg.Analyzer.Timeout,
		UserAgent: cfg.Analyzer.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("fintwol.NewClient() > %w", err)
	}
	return client, nil
}

func newHandler(cfg *config.Config, store dictionary.AnalysisRepository, fetcher dictionary.Fetcher) *bot.Handler {
	reader := dictionary.NewReader(store, fetcher, dictionary.Config{
		NotFoundMessage: cfg.Lookup.NotFoundMessage,
		ErrorMessage:    cfg.Lookup.ErrorMessage,
		MaxRetries:      cfg.Lookup.MaxRetries,
		RetryDelay:      cfg.Lookup.RetryDelay,
		CacheTTL:        cfg.Lookup.CacheTTL,
	}, slog.Default())
	return bot.NewHandler(reader, bot.Config{
		Separator: cfg.Bot.Separator,
		MaxWords:  cfg.Bot.MaxWords,
	}, slog.Default())
}
