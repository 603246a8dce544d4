package ai

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// boilerplateSelector matches elements whose text never belongs in a summary.
const boilerplateSelector = "script, style, meta, link, header, footer, nav, noscript"

// ExtractText returns the visible text of an HTML document with boilerplate
// elements removed and whitespace collapsed. Input that fails to parse is
// treated as plain text.
func ExtractText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return collapseWhitespace(rawHTML)
	}
	doc.Find(boilerplateSelector).Remove()

	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	return collapseWhitespace(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*parts = append(*parts, s)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
