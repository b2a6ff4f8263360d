package dictionary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisFieldAnalysis  = "analysis"
	redisFieldCreatedAt = "created_at"
	redisScanCount      = 100
)

// RedisAnalysisRepository implements AnalysisRepository with one Redis hash per word.
type RedisAnalysisRepository struct {
	rdb       redis.UniversalClient
	keyPrefix string
	now       func() time.Time
}

// NewRedisAnalysisRepository connects to redisURL and verifies connectivity.
func NewRedisAnalysisRepository(ctx context.Context, redisURL, keyPrefix string) (*RedisAnalysisRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL > %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rdb.Ping > %w", err)
	}

	return newRedisAnalysisRepository(rdb, keyPrefix), nil
}

func newRedisAnalysisRepository(rdb redis.UniversalClient, keyPrefix string) *RedisAnalysisRepository {
	return &RedisAnalysisRepository{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (r *RedisAnalysisRepository) key(word string) string {
	return r.keyPrefix + word
}

// CreateSchema is a no-op; Redis hashes need no schema.
func (r *RedisAnalysisRepository) CreateSchema(ctx context.Context) error {
	return nil
}

// Close releases the underlying client.
func (r *RedisAnalysisRepository) Close() error {
	return r.rdb.Close()
}

// FindByWord returns an analysis entry by word, or nil if not found.
func (r *RedisAnalysisRepository) FindByWord(ctx context.Context, word string) (*AnalysisEntry, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key(word)).Result()
	if err != nil {
		return nil, &StorageError{Op: OpRead, Word: word, Err: fmt.Errorf("rdb.HGetAll > %w", err)}
	}
	return entryFromHash(word, fields)
}

// Upsert replaces the hash for entry.Word.
func (r *RedisAnalysisRepository) Upsert(ctx context.Context, entry *AnalysisEntry) error {
	if strings.TrimSpace(entry.Analysis) == "" {
		return &StorageError{Op: OpWrite, Word: entry.Word, Err: ErrEmptyAnalysis}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	err := r.rdb.HSet(ctx, r.key(entry.Word),
		redisFieldAnalysis, entry.Analysis,
		redisFieldCreatedAt, entry.CreatedAt.Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return &StorageError{Op: OpWrite, Word: entry.Word, Err: fmt.Errorf("rdb.HSet > %w", err)}
	}
	return nil
}

// FindAll scans every key under the prefix and returns the entries ordered by word.
func (r *RedisAnalysisRepository) FindAll(ctx context.Context) ([]AnalysisEntry, error) {
	var entries []AnalysisEntry
	iter := r.rdb.Scan(ctx, 0, r.keyPrefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		word := strings.TrimPrefix(iter.Val(), r.keyPrefix)
		entry, err := r.FindByWord(ctx, word)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, &StorageError{Op: OpRead, Err: fmt.Errorf("rdb.Scan > %w", err)}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Word < entries[j].Word
	})
	return entries, nil
}

func entryFromHash(word string, fields map[string]string) (*AnalysisEntry, error) {
	analysis, ok := fields[redisFieldAnalysis]
	if !ok || analysis == "" {
		return nil, nil
	}

	entry := &AnalysisEntry{Word: word, Analysis: analysis}
	if raw := fields[redisFieldCreatedAt]; raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, &StorageError{Op: OpRead, Word: word, Err: errors.Join(errors.New("invalid created_at"), err)}
		}
		entry.CreatedAt = createdAt
	}
	return entry, nil
}
