package testutil

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestConfig(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := SetupTestConfig(t, tmpDir, "http://127.0.0.1:8080")

	assert.Equal(t, filepath.Join(tmpDir, "config.yml"), cfgPath)
	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "base_url: http://127.0.0.1:8080/cgi-bin/fintwol")
	assert.Contains(t, string(content), filepath.Join(tmpDir, "data", "sanabot.db"))
}

func TestFintwolPage(t *testing.T) {
	t.Run("analysis is escaped inside pre", func(t *testing.T) {
		got := FintwolPage(`"<kala>" N NOM SG`)
		assert.Contains(t, got, "<pre>\n&#34;&lt;kala&gt;&#34; N NOM SG\n</pre>")
	})

	t.Run("empty analysis has no pre block", func(t *testing.T) {
		assert.NotContains(t, FintwolPage(""), "<pre>")
	})
}

func TestNewFintwolServer(t *testing.T) {
	srv := NewFintwolServer(t, map[string]string{"pöytä": "TABLE"})

	get := func(word string) string {
		resp, err := http.Get(srv.URL + "?word=" + url.QueryEscape(word))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Contains(t, get("pöytä"), "<pre>\nTABLE\n</pre>")
	assert.NotContains(t, get("xyzzyqq"), "<pre>")
	assert.Equal(t, 2, srv.Requests())
}
