package datasync

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/sanabot/internal/dictionary"
)

// AnalysisEntriesFile is the file name used by the YAML sink and source.
const AnalysisEntriesFile = "analysis_entries.yml"

// YAMLAnalysisSink writes analysis entries to a YAML file.
type YAMLAnalysisSink struct {
	outputDir string
}

func NewYAMLAnalysisSink(outputDir string) *YAMLAnalysisSink {
	return &YAMLAnalysisSink{outputDir: outputDir}
}

// WriteAll writes entries to analysis_entries.yml in the output directory.
func (s *YAMLAnalysisSink) WriteAll(entries []dictionary.AnalysisEntry) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if entries == nil {
		entries = []dictionary.AnalysisEntry{}
	}
	if err := writeYAML(filepath.Join(s.outputDir, AnalysisEntriesFile), entries); err != nil {
		return fmt.Errorf("write %s: %w", AnalysisEntriesFile, err)
	}
	return nil
}

// ReadAnalysisEntries reads entries written by YAMLAnalysisSink.
func ReadAnalysisEntries(path string) ([]dictionary.AnalysisEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var entries []dictionary.AnalysisEntry
	if err := yaml.NewDecoder(f).Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml.Decode(%s) > %w", path, err)
	}
	return entries, nil
}

func writeYAML(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := yaml.NewEncoder(f)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}
