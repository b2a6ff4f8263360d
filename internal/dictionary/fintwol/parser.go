package fintwol

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// parseAnalysis returns the trimmed text of the first <pre> element.
// found is false when the document has no <pre> or it is blank.
func parseAnalysis(body []byte, contentType string) (analysis string, found bool, err error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", false, fmt.Errorf("charset.NewReader > %w", err)
	}

	doc, err := html.Parse(reader)
	if err != nil {
		return "", false, fmt.Errorf("html.Parse > %w", err)
	}

	pre := findElement(doc, atom.Pre)
	if pre == nil {
		return "", false, nil
	}

	analysis = strings.TrimSpace(textContent(pre))
	if analysis == "" {
		return "", false, nil
	}
	return analysis, true, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
