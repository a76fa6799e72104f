// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// extract.go turns fetched HTML into the title and visible text stored on
// a Page. Chrome (scripts, styles, navigation, headers, footers) is
// skipped so the research context carries content, not boilerplate.
package fetch

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are subtrees that never contribute visible content.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"iframe":   true,
	"svg":      true,
}

// blockElements end a line of text when closed, so extracted text keeps
// the page's line structure (the pattern index searches line by line).
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "td": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "section": true, "article": true, "table": true,
	"ul": true, "ol": true, "blockquote": true,
}

// ExtractText parses HTML and returns the document title and the visible
// text, one block element per line.
func ExtractText(body []byte) (title, text string, err error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	var b strings.Builder
	var walker func(*html.Node)
	walker = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
			if n.Data == "title" && title == "" && n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
				return
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString(" ")
				}
				b.WriteString(t)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walker(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] && b.Len() > 0 {
			b.WriteString("\n")
		}
	}
	walker(doc)

	return title, collapseBlankLines(b.String()), nil
}

// collapseBlankLines squeezes runs of blank lines down to one.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
