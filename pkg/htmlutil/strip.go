// Package htmlutil flattens (X)HTML and XML documents to plain text.
package htmlutil

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

// inlineElements do not break the line they appear on. Every other element
// ends with a newline so that adjacent blocks, or adjacent XML fields like
// dc:title and dc:identifier, never run together.
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true,
	"code": true, "em": true, "font": true, "i": true, "img": true, "kbd": true,
	"mark": true, "q": true, "s": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "time": true, "u": true,
	"var": true, "wbr": true,
}

// skippedElements never carry readable text.
var skippedElements = map[string]bool{
	"script": true, "style": true,
}

// Text reads a document from r and returns its text content, one block per
// line, with entities decoded and whitespace collapsed.
func Text(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", errors.WithStack(err)
	}

	var b strings.Builder
	for _, n := range doc.Nodes {
		writeText(&b, n)
	}
	return normalize(b.String()), nil
}

// StripTags removes all markup from a string and normalizes whitespace.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	text, err := Text(strings.NewReader(s))
	if err != nil {
		return normalize(s)
	}
	return text
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}

	if n.Type == html.ElementNode && !inlineElements[n.Data] {
		b.WriteString("\n")
	}
}

// normalize collapses runs of whitespace inside each line and drops empty
// lines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
