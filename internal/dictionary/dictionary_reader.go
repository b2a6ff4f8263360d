package dictionary

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/text/cases"
)

type Status string

const (
	StatusCached   Status = "cached"
	StatusFetched  Status = "fetched"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Result is what a lookup returns to the chat layer. Text is always user-presentable.
type Result struct {
	Word   string
	Text   string
	Status Status
}

type Config struct {
	NotFoundMessage string
	ErrorMessage    string
	MaxRetries      uint
	RetryDelay      time.Duration
	CacheTTL        time.Duration
}

// Reader serves analyses from the repository and falls back to the fetcher on a miss.
// Concurrent lookups of the same uncached word may each fetch; the last write wins.
type Reader struct {
	config     Config
	repository AnalysisRepository
	fetcher    Fetcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewReader(repository AnalysisRepository, fetcher Fetcher, config Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		config:     config,
		repository: repository,
		fetcher:    fetcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Normalize returns the cache key of word.
func Normalize(word string) string {
	// Casers are stateful, so one is created per call
	return cases.Fold().String(strings.TrimSpace(word))
}

// Lookup never fails: every error is logged and turned into a configured message.
func (r *Reader) Lookup(ctx context.Context, word string) Result {
	key := Normalize(word)
	if key == "" {
		return Result{Word: key, Text: r.config.NotFoundMessage, Status: StatusNotFound}
	}
	logger := r.logger.With("word", key)

	entry, err := r.repository.FindByWord(ctx, key)
	if err != nil {
		logger.Warn("failed to read cached analysis, fetching instead", "error", err)
	} else if r.isFresh(entry) {
		logger.Debug("cache hit")
		return Result{Word: key, Text: entry.Analysis, Status: StatusCached}
	}

	analysis, found, err := r.fetch(ctx, key)
	if err != nil {
		logger.Error("failed to fetch analysis", "error", err)
		return Result{Word: key, Text: r.config.ErrorMessage, Status: StatusFailed}
	}
	if !found {
		logger.Debug("word not recognized by the analysis service")
		return Result{Word: key, Text: r.config.NotFoundMessage, Status: StatusNotFound}
	}

	if err := r.repository.Upsert(ctx, &AnalysisEntry{
		Word:      key,
		Analysis:  analysis,
		CreatedAt: r.now().UTC(),
	}); err != nil {
		logger.Warn("failed to store analysis", "error", err)
	}
	return Result{Word: key, Text: analysis, Status: StatusFetched}
}

func (r *Reader) isFresh(entry *AnalysisEntry) bool {
	if entry == nil || strings.TrimSpace(entry.Analysis) == "" {
		return false
	}
	if r.config.CacheTTL <= 0 {
		return true
	}
	return r.now().Sub(entry.CreatedAt) < r.config.CacheTTL
}

func (r *Reader) fetch(ctx context.Context, word string) (string, bool, error) {
	var (
		analysis string
		found    bool
	)
	err := retry.Do(
		func() error {
			a, f, err := r.fetcher.Fetch(ctx, word)
			if err != nil {
				return err
			}
			analysis, found = a, f
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.config.MaxRetries+1),
		retry.Delay(r.config.RetryDelay),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if n >= r.config.MaxRetries {
				return
			}
			r.logger.Info("retrying analysis fetch", "word", word, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", false, err
	}
	return analysis, found, nil
}
