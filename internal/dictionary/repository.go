package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:generate mockgen -source=repository.go -destination=../mocks/dictionary/mock_repository.go -package=mock_dictionary

// AnalysisRepository defines operations for managing cached analyses.
type AnalysisRepository interface {
	FindAll(ctx context.Context) ([]AnalysisEntry, error)
	FindByWord(ctx context.Context, word string) (*AnalysisEntry, error)
	Upsert(ctx context.Context, entry *AnalysisEntry) error
}

type dialect struct {
	createTable string
	upsert      string
}

var dialects = map[string]dialect{
	"sqlite": {
		createTable: `CREATE TABLE IF NOT EXISTS analysis_entries (
			word TEXT NOT NULL PRIMARY KEY,
			analysis TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		upsert: `INSERT INTO analysis_entries (word, analysis, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET analysis = excluded.analysis, created_at = excluded.created_at`,
	},
	"mysql": {
		createTable: `CREATE TABLE IF NOT EXISTS analysis_entries (
			word VARCHAR(255) NOT NULL PRIMARY KEY,
			analysis MEDIUMTEXT NOT NULL,
			created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
		) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin`,
		upsert: `INSERT INTO analysis_entries (word, analysis, created_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE analysis = VALUES(analysis), created_at = VALUES(created_at)`,
	},
}

// DBAnalysisRepository implements AnalysisRepository using SQLite or MySQL.
type DBAnalysisRepository struct {
	db      *sqlx.DB
	dialect dialect
	now     func() time.Time
}

// NewDBAnalysisRepository creates a new DBAnalysisRepository for the driver of db.
func NewDBAnalysisRepository(db *sqlx.DB) (*DBAnalysisRepository, error) {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}
	return &DBAnalysisRepository{
		db:      db,
		dialect: d,
		now:     time.Now,
	}, nil
}

// CreateSchema creates the analysis_entries table if it does not exist yet.
func (r *DBAnalysisRepository) CreateSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.createTable); err != nil {
		return fmt.Errorf("db.ExecContext(create analysis_entries) > %w", err)
	}
	return nil
}

// FindAll returns all analysis entries ordered by word.
func (r *DBAnalysisRepository) FindAll(ctx context.Context) ([]AnalysisEntry, error) {
	var entries []AnalysisEntry
	if err := r.db.SelectContext(ctx, &entries, "SELECT word, analysis, created_at FROM analysis_entries ORDER BY word"); err != nil {
		return nil, &StorageError{Op: OpRead, Err: fmt.Errorf("db.SelectContext(analysis_entries) > %w", err)}
	}
	return entries, nil
}

// FindByWord returns an analysis entry by word, or nil if not found.
func (r *DBAnalysisRepository) FindByWord(ctx context.Context, word string) (*AnalysisEntry, error) {
	var entry AnalysisEntry
	err := r.db.GetContext(ctx, &entry, "SELECT word, analysis, created_at FROM analysis_entries WHERE word = ?", word)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: OpRead, Word: word, Err: fmt.Errorf("db.GetContext(analysis_entry) > %w", err)}
	}
	return &entry, nil
}

// Upsert inserts or replaces the analysis entry for entry.Word.
// A zero CreatedAt is set to the current time.
func (r *DBAnalysisRepository) Upsert(ctx context.Context, entry *AnalysisEntry) error {
	if strings.TrimSpace(entry.Analysis) == "" {
		return &StorageError{Op: OpWrite, Word: entry.Word, Err: ErrEmptyAnalysis}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx, r.dialect.upsert, entry.Word, entry.Analysis, entry.CreatedAt)
	if err != nil {
		return &StorageError{Op: OpWrite, Word: entry.Word, Err: fmt.Errorf("db.ExecContext(upsert analysis_entry) > %w", err)}
	}
	return nil
}
