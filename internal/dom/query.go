package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Query returns the first descendant of n matching m in document order.
// n itself is never returned.
func Query(n *html.Node, m cascadia.Matcher) *html.Node {
	if n == nil {
		return nil
	}
	return cascadia.Query(n, m)
}

// QueryAll returns every descendant of n matching m in document order.
func QueryAll(n *html.Node, m cascadia.Matcher) []*html.Node {
	if n == nil {
		return nil
	}
	return cascadia.QueryAll(n, m)
}

// Closest returns n or its nearest ancestor element matching m.
func Closest(n *html.Node, m cascadia.Matcher) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if c.Type == html.ElementNode && m.Match(c) {
			return c
		}
	}
	return nil
}

// Contains reports whether n is ancestor itself or one of its descendants.
func Contains(ancestor, n *html.Node) bool {
	if ancestor == nil {
		return false
	}
	for c := n; c != nil; c = c.Parent {
		if c == ancestor {
			return true
		}
	}
	return false
}

// Text returns the concatenated text content of n with runs of whitespace
// collapsed.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
			return
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	if n != nil {
		walk(n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// All combines matchers; a node matches when every one of them does.
type All []cascadia.Matcher

// Match implements cascadia.Matcher.
func (a All) Match(n *html.Node) bool {
	for _, m := range a {
		if !m.Match(n) {
			return false
		}
	}
	return len(a) > 0
}
