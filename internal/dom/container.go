package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// FindContainer locates the main article container for reader mode. Site
// profiles take precedence; the generic path prefers semantic containers and
// falls back to the densest text block, then to <body>.
func FindContainer(doc *html.Node, profile string) *html.Node {
	if doc == nil {
		return nil
	}

	switch strings.ToLower(profile) {
	case "wikipedia":
		if n := findByAttr(doc, "id", "mw-content-text"); n != nil {
			return n
		}
		if n := findByAttr(doc, "class", "mw-parser-output"); n != nil {
			return n
		}
	}

	for _, tag := range []string{"article", "main"} {
		if n := findByTag(doc, tag); n != nil {
			return n
		}
	}
	for _, id := range []string{"content", "main-content", "article"} {
		if n := findByAttr(doc, "id", id); n != nil {
			return n
		}
	}

	if n := densestBlock(doc); n != nil {
		return n
	}
	if body := findByTag(doc, "body"); body != nil {
		return body
	}
	return doc
}

func findByTag(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByTag(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByAttr(n *html.Node, key, value string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key == key && containsToken(attr.Val, value) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByAttr(c, key, value); found != nil {
			return found
		}
	}
	return nil
}

func containsToken(attrVal, token string) bool {
	for _, f := range strings.Fields(attrVal) {
		if f == token {
			return true
		}
	}
	return false
}

// densestBlock returns the div with the most direct paragraph text, a crude
// stand-in for readability extraction on pages without semantic markup.
func densestBlock(doc *html.Node) *html.Node {
	var best *html.Node
	bestLen := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "div" || n.Data == "section") {
			l := paragraphTextLen(n)
			if l > bestLen {
				best, bestLen = n, l
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	// Require a meaningful amount of paragraph text before trusting it.
	if bestLen < 200 {
		return nil
	}
	return best
}

func paragraphTextLen(n *html.Node) int {
	total := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "p" {
			total += textLen(c)
		}
	}
	return total
}

func textLen(n *html.Node) int {
	total := 0
	if n.Type == html.TextNode {
		total += len(strings.TrimSpace(n.Data))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		total += textLen(c)
	}
	return total
}
