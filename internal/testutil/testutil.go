// Package testutil provides shared test helpers for config files and a stub analysis service.
package testutil

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig writes a config file that points the analyzer at baseURL and keeps
// the SQLite store inside tmpDir. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir, baseURL string) string {
	t.Helper()

	configContent := fmt.Sprintf(`analyzer:
  base_url: %s/cgi-bin/fintwol
  query_charset: utf-8
  timeout: 5s
lookup:
  not_found_message: NOT FOUND
  error_message: SERVICE ERROR
bot:
  separator: "\n--\n"
database:
  driver: sqlite
  path: %s
telegram:
  session_file: %s
`,
		baseURL,
		filepath.Join(tmpDir, "data", "sanabot.db"),
		filepath.Join(tmpDir, "session.json"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// FintwolPage renders an analysis result page the way the upstream does.
// An empty analysis renders a page without a pre block.
func FintwolPage(analysis string) string {
	if analysis == "" {
		return "<html><head><title>FINTWOL</title></head><body><p>No analysis.</p></body></html>"
	}
	return "<html><head><title>FINTWOL</title></head><body><h2>Analysis</h2><pre>\n" +
		html.EscapeString(analysis) + "\n</pre></body></html>"
}

// FintwolServer is a stub of the analysis service answering from a fixed table.
type FintwolServer struct {
	*httptest.Server
	requests atomic.Int32
}

// NewFintwolServer starts a stub that serves analyses keyed by the decoded word query.
// Unknown words get a page without analysis. The server is closed on test cleanup.
func NewFintwolServer(t *testing.T, analyses map[string]string) *FintwolServer {
	t.Helper()

	s := &FintwolServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, FintwolPage(analyses[r.URL.Query().Get("word")]))
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns how many requests the stub has served.
func (s *FintwolServer) Requests() int {
	return int(s.requests.Load())
}
