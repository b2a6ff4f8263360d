package dictionary

import (
	"errors"
	"fmt"
	"time"
)

// AnalysisEntry represents a cached morphological analysis of a word.
type AnalysisEntry struct {
	Word      string    `db:"word" yaml:"word"`
	Analysis  string    `db:"analysis" yaml:"analysis"`
	CreatedAt time.Time `db:"created_at" yaml:"created_at"`
}

// ErrEmptyAnalysis is returned when an entry without analysis text is written.
var ErrEmptyAnalysis = errors.New("analysis is empty")

const (
	OpRead  = "read"
	OpWrite = "write"
)

// StorageError reports a failure of the persistent store.
type StorageError struct {
	Op   string
	Word string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Word == "" {
		return fmt.Sprintf("storage %s > %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q > %v", e.Op, e.Word, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
