package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/sanabot/internal/datasync"
	"github.com/at-ishikawa/sanabot/internal/dictionary/fintwol"
	"github.com/at-ishikawa/sanabot/internal/testutil"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		wantLevel slog.Level
	}{
		{
			name:      "debug mode enabled",
			debugMode: true,
			wantLevel: slog.LevelDebug,
		},
		{
			name:      "debug mode disabled",
			debugMode: false,
			wantLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupLogger(tt.debugMode)
			logger := slog.Default()
			assert.NotNil(t, logger)
			assert.Equal(t, tt.wantLevel <= slog.LevelDebug, logger.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

func TestNewRootCommand(t *testing.T) {
	cmd := newRootCommand()

	assert.Equal(t, "sanabot", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "lookup", "migrate", "cache"}, names)
}

func TestNewCacheCommand(t *testing.T) {
	cmd := newCacheCommand()

	assert.Equal(t, "cache", cmd.Use)
	assert.True(t, cmd.HasSubCommands())
}

func TestCharsetFlag(t *testing.T) {
	tests := []struct {
		value   string
		want    CharsetFlag
		wantErr bool
	}{
		{value: "utf-8", want: CharsetFlag(fintwol.CharsetUTF8)},
		{value: "latin1", want: CharsetFlag(fintwol.CharsetLatin1)},
		{value: "ISO-8859-1", want: CharsetFlag(fintwol.CharsetLatin1)},
		{value: "shift_jis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var got CharsetFlag
			err := got.Set(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "charset", got.Type())
		})
	}
}

var analyses = map[string]string{"kala": `"kala" N NOM SG`}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLookupCommand(t *testing.T) {
	srv := testutil.NewFintwolServer(t, analyses)
	cfgPath := testutil.SetupTestConfig(t, t.TempDir(), srv.URL)

	got, err := execute(t, "--config", cfgPath, "lookup", "kala", "Kala", "xyzzyqq")
	require.NoError(t, err)
	assert.Equal(t, "kala\n\"kala\" N NOM SG\n--\nxyzzyqq\nNOT FOUND\n", got)
	assert.Equal(t, 2, srv.Requests())

	got, err = execute(t, "--config", cfgPath, "lookup", "--status", "kala")
	require.NoError(t, err)
	assert.Contains(t, got, "kala")
	assert.Contains(t, got, "[cached]")
	assert.Contains(t, got, `"kala" N NOM SG`)
	assert.Equal(t, 2, srv.Requests())
}

func TestLookupCommand_InvalidCharset(t *testing.T) {
	_, err := execute(t, "lookup", "--charset", "shift_jis", "kala")
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	srv := testutil.NewFintwolServer(t, analyses)
	cfgPath := testutil.SetupTestConfig(t, t.TempDir(), srv.URL)

	for i := 0; i < 2; i++ {
		got, err := execute(t, "--config", cfgPath, "migrate")
		require.NoError(t, err)
		assert.Equal(t, "Schema is up to date (sql store)\n", got)
	}
	assert.Zero(t, srv.Requests())
}

func TestCacheExportImportCommands(t *testing.T) {
	srv := testutil.NewFintwolServer(t, analyses)
	srcConfig := testutil.SetupTestConfig(t, t.TempDir(), srv.URL)
	dstConfig := testutil.SetupTestConfig(t, t.TempDir(), srv.URL)
	exportDir := filepath.Join(t.TempDir(), "export")

	_, err := execute(t, "--config", srcConfig, "lookup", "kala")
	require.NoError(t, err)

	got, err := execute(t, "--config", srcConfig, "cache", "export", "--output", exportDir)
	require.NoError(t, err)
	exportPath := filepath.Join(exportDir, datasync.AnalysisEntriesFile)
	assert.Equal(t, fmt.Sprintf("Exported 1 analyses to %s\n", exportPath), got)

	got, err = execute(t, "--config", dstConfig, "cache", "import", exportPath)
	require.NoError(t, err)
	assert.Contains(t, got, "Analyses: 1 new, 0 skipped, 0 updated, 0 invalid")

	got, err = execute(t, "--config", dstConfig, "cache", "import", exportPath)
	require.NoError(t, err)
	assert.Contains(t, got, "Analyses: 0 new, 1 skipped, 0 updated, 0 invalid")

	got, err = execute(t, "--config", dstConfig, "lookup", "--status", "kala")
	require.NoError(t, err)
	assert.Contains(t, got, "[cached]")
	assert.Equal(t, 1, srv.Requests())
}

func TestServeCommand_MissingCredentials(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("TELEGRAM_APP_ID", "")
	t.Setenv("TELEGRAM_APP_HASH", "")

	srv := testutil.NewFintwolServer(t, analyses)
	cfgPath := testutil.SetupTestConfig(t, t.TempDir(), srv.URL)

	_, err := execute(t, "--config", cfgPath, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_APP_ID, TELEGRAM_APP_HASH, BOT_TOKEN")
}
