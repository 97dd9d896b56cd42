// Package cleaner turns feed description HTML into plain text.
package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Normalize strips markup from raw and returns its text nodes joined by single
// spaces with all whitespace runs collapsed. Script and style contents are
// dropped. Entities are decoded, so the result is plain text, not HTML.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript, template").Remove()

	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	return collapseSpaces(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
