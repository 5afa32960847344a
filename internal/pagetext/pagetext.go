// Package pagetext renders the visible text of saved HTML pages. It stands in
// for a live browser when a quote page has been captured to disk.
package pagetext

import (
	"strings"

	"golang.org/x/net/html"
)

// FindFirst returns the first element named tag in depth-first order.
func FindFirst(n *html.Node, tag string) *html.Node {
	return find(n, func(cur *html.Node) bool {
		return cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag)
	})
}

// FindByID returns the first element whose id attribute equals id.
func FindByID(n *html.Node, id string) *html.Node {
	return find(n, func(cur *html.Node) bool {
		if cur.Type != html.ElementNode {
			return false
		}
		for _, a := range cur.Attr {
			if a.Key == "id" && a.Val == id {
				return true
			}
		}
		return false
	})
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if match(cur) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

// Visible returns the text a reader would see inside n: scripts, styles and
// hidden elements are skipped, block elements start new lines and runs of
// whitespace collapse to single spaces.
func Visible(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(&b, n)
	return normalizeWhitespace(b.String())
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		if isHidden(n) {
			return
		}
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template", "head":
			return
		case "br":
			b.WriteString("\n")
		}
		if isBlock(n.Data) {
			b.WriteString("\n")
		}
	}

	if n.Type == html.TextNode {
		data := strings.ReplaceAll(n.Data, "\t", " ")
		data = strings.ReplaceAll(data, "\r", " ")
		b.WriteString(data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}

	if n.Type == html.ElementNode && isBlock(n.Data) {
		b.WriteString("\n")
	}
}

func isBlock(tag string) bool {
	switch strings.ToLower(tag) {
	case "div", "section", "article", "main", "header", "footer", "nav", "aside",
		"p", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr",
		"dl", "dt", "dd", "pre", "blockquote", "form":
		return true
	}
	return false
}

// isHidden reports elements a browser would not render.
func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(strings.TrimSpace(a.Val), "true") {
				return true
			}
		case "style":
			v := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
			if strings.Contains(v, "display:none") || strings.Contains(v, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		// collapse internal whitespace runs to single spaces
		if trimmed := strings.Join(strings.Fields(line), " "); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
