package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/sanabot/internal/datasync"
)

func newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Cached analysis commands",
	}

	cacheCmd.AddCommand(newCacheExportCommand())
	cacheCmd.AddCommand(newCacheImportCommand())

	return cacheCmd
}

func newCacheExportCommand() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cached analyses to YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, closeStore, err := openSchemaStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			entries, err := datasync.NewExporter(store).Export(ctx)
			if err != nil {
				return fmt.Errorf("exporter.Export() > %w", err)
			}
			if err := datasync.NewYAMLAnalysisSink(outputDir).WriteAll(entries); err != nil {
				return fmt.Errorf("sink.WriteAll() > %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d analyses to %s\n", len(entries), filepath.Join(outputDir, datasync.AnalysisEntriesFile))
			return err
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", ".", "Directory to write analysis_entries.yml to")
	return cmd
}

func newCacheImportCommand() *cobra.Command {
	var (
		dryRun         bool
		updateExisting bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import analyses from a YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			entries, err := datasync.ReadAnalysisEntries(args[0])
			if err != nil {
				return fmt.Errorf("datasync.ReadAnalysisEntries() > %w", err)
			}

			store, closeStore, err := openSchemaStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			out := cmd.OutOrStdout()
			opts := datasync.ImportOptions{
				DryRun:         dryRun,
				UpdateExisting: updateExisting,
			}
			result, err := datasync.NewImporter(store, out).ImportAnalyses(ctx, entries, opts)
			if err != nil {
				return fmt.Errorf("importer.ImportAnalyses() > %w", err)
			}

			_, _ = fmt.Fprintln(out, "Import Summary:")
			if opts.DryRun {
				_, _ = fmt.Fprintln(out, "  (dry-run mode, no changes made)")
			}
			_, err = fmt.Fprintf(out, "  Analyses: %d new, %d skipped, %d updated, %d invalid\n", result.New, result.Skipped, result.Updated, result.Invalid)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without modifying the store")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "Replace analyses that are already cached")
	return cmd
}
