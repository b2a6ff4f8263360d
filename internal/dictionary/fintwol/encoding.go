package fintwol

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

type Charset string

const (
	// CharsetLatin1 is the legacy query encoding expected by the FINTWOL CGI.
	CharsetLatin1 Charset = "iso-8859-1"
	CharsetUTF8   Charset = "utf-8"
)

// specialRunes are the Finnish and Swedish letters the upstream must receive in
// its own encoding. They are mapped explicitly instead of trusting generic escaping.
var specialRunes = map[Charset]map[rune]string{
	CharsetLatin1: {
		'ä': "%E4",
		'ö': "%F6",
		'å': "%E5",
		'Ä': "%C4",
		'Ö': "%D6",
		'Å': "%C5",
	},
	CharsetUTF8: {
		'ä': "%C3%A4",
		'ö': "%C3%B6",
		'å': "%C3%A5",
		'Ä': "%C3%84",
		'Ö': "%C3%96",
		'Å': "%C3%85",
	},
}

func ParseCharset(s string) (Charset, error) {
	switch c := Charset(strings.ToLower(strings.TrimSpace(s))); c {
	case CharsetLatin1, CharsetUTF8:
		return c, nil
	case "latin1", "latin-1":
		return CharsetLatin1, nil
	case "utf8":
		return CharsetUTF8, nil
	}
	return "", fmt.Errorf("unsupported charset: %s", s)
}

// EncodeWord percent-encodes word for the query string of the analysis service.
// Every byte of the result is in charset; a Latin-1 word with a letter outside
// ISO 8859-1 is rejected.
func EncodeWord(word string, charset Charset) (string, error) {
	table, ok := specialRunes[charset]
	if !ok {
		return "", fmt.Errorf("unsupported charset: %s", charset)
	}

	var b strings.Builder
	for _, r := range word {
		if encoded, ok := table[r]; ok {
			b.WriteString(encoded)
			continue
		}
		s := string(r)
		if charset == CharsetLatin1 && r >= utf8.RuneSelf {
			latin1, err := charmap.ISO8859_1.NewEncoder().String(s)
			if err != nil {
				return "", fmt.Errorf("%q is not representable in %s > %w", r, charset, err)
			}
			s = latin1
		}
		b.WriteString(url.QueryEscape(s))
	}
	return b.String(), nil
}
