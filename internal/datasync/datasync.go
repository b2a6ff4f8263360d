// Package datasync provides import/export of cached analyses between YAML files and the store.
package datasync

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/at-ishikawa/sanabot/internal/dictionary"
)

// ImportResult tracks counts for each import operation.
type ImportResult struct {
	New     int
	Skipped int
	Updated int
	Invalid int
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun         bool
	UpdateExisting bool
}

// Importer writes analysis entries read from YAML into the store.
type Importer struct {
	repository dictionary.AnalysisRepository
	writer     io.Writer
}

func NewImporter(repository dictionary.AnalysisRepository, writer io.Writer) *Importer {
	return &Importer{
		repository: repository,
		writer:     writer,
	}
}

// ImportAnalyses stores entries keyed by their normalized word.
// Entries with an empty word or analysis are reported and skipped.
func (imp *Importer) ImportAnalyses(ctx context.Context, entries []dictionary.AnalysisEntry, opts ImportOptions) (*ImportResult, error) {
	var result ImportResult

	for _, entry := range entries {
		entry.Word = dictionary.Normalize(entry.Word)
		if entry.Word == "" || strings.TrimSpace(entry.Analysis) == "" {
			_, _ = fmt.Fprintf(imp.writer, "skipping invalid entry %q: word and analysis are required\n", entry.Word)
			result.Invalid++
			continue
		}

		existing, err := imp.repository.FindByWord(ctx, entry.Word)
		if err != nil {
			return nil, fmt.Errorf("FindByWord(%s) > %w", entry.Word, err)
		}
		if existing != nil && !opts.UpdateExisting {
			result.Skipped++
			continue
		}

		if !opts.DryRun {
			if err := imp.repository.Upsert(ctx, &entry); err != nil {
				return nil, fmt.Errorf("Upsert(%s) > %w", entry.Word, err)
			}
		}
		if existing != nil {
			result.Updated++
		} else {
			result.New++
		}
	}

	return &result, nil
}

// Exporter reads all cached analyses from the store.
type Exporter struct {
	repository dictionary.AnalysisRepository
}

func NewExporter(repository dictionary.AnalysisRepository) *Exporter {
	return &Exporter{repository: repository}
}

func (e *Exporter) Export(ctx context.Context) ([]dictionary.AnalysisEntry, error) {
	entries, err := e.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.FindAll() > %w", err)
	}
	return entries, nil
}
