package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText returns the visible text of an HTML document with whitespace
// collapsed, skipping script, style, noscript, and iframe subtrees. Used by
// the bulk-import path to collect from saved pages. Malformed markup is
// tolerated; the parser recovers rather than fails.
func VisibleText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return collapseWhitespace(buf.String())
}
