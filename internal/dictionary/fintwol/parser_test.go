package fintwol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		contentType  string
		wantAnalysis string
		wantFound    bool
	}{
		{
			name:         "first pre block is used",
			body:         "<html><body><pre>\n  kala N NOM SG\n</pre><pre>second</pre></body></html>",
			contentType:  "text/html; charset=utf-8",
			wantAnalysis: "kala N NOM SG",
			wantFound:    true,
		},
		{
			name:         "nested markup contributes its text",
			body:         "<pre><b>kala</b> N NOM SG</pre>",
			contentType:  "text/html",
			wantAnalysis: "kala N NOM SG",
			wantFound:    true,
		},
		{
			name:         "latin-1 body is decoded from the header",
			body:         "<pre>p\xf6yt\xe4 N NOM SG</pre>",
			contentType:  "text/html; charset=iso-8859-1",
			wantAnalysis: "pöytä N NOM SG",
			wantFound:    true,
		},
		{
			name:         "latin-1 body is decoded from a meta tag",
			body:         "<html><head><meta charset=\"iso-8859-1\"></head><body><pre>\xe5</pre></body></html>",
			contentType:  "",
			wantAnalysis: "å",
			wantFound:    true,
		},
		{
			name:        "no pre block",
			body:        "<html><body><p>Unknown word</p></body></html>",
			contentType: "text/html",
		},
		{
			name:        "whitespace only pre block",
			body:        "<pre>\n\t \n</pre>",
			contentType: "text/html",
		},
		{
			name:        "empty body",
			body:        "",
			contentType: "text/html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, found, err := parseAnalysis([]byte(tt.body), tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantAnalysis, analysis)
		})
	}
}
