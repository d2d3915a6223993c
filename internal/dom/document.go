// Package dom is a small live-document layer over golang.org/x/net/html.
// Attribute writes made through a Document are recorded for mutation
// observers, and events dispatched on a node bubble through its ancestors.
//
// A Document is not safe for concurrent use. It is meant to be confined to a
// single event loop (see internal/host).
package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree.
type Document struct {
	Root *html.Node

	observers []*Observer
	queued    []*Observer
	listeners map[*html.Node][]*listener
}

// NewDocument wraps an existing node tree.
func NewDocument(root *html.Node) *Document {
	return &Document{
		Root:      root,
		listeners: make(map[*html.Node][]*listener),
	}
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return NewDocument(root), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the document back out as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.Root)
}

// String renders the document, returning "" on failure.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// Attr returns the value of the non-namespaced attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// HasClass reports whether the class attribute of n contains class.
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// SetAttr sets attribute key on n. Writes that do not change the value are
// not recorded.
func (d *Document) SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			if a.Val == val {
				return
			}
			n.Attr[i].Val = val
			d.record(Mutation{Target: n, Attr: key, OldValue: a.Val, HadValue: true})
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	d.record(Mutation{Target: n, Attr: key})
}

// RemoveAttr removes attribute key from n if present.
func (d *Document) RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			d.record(Mutation{Target: n, Attr: key, OldValue: a.Val, HadValue: true})
			return
		}
	}
}

// AddClass adds class to the class list of n.
func (d *Document) AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	v, _ := Attr(n, "class")
	d.SetAttr(n, "class", strings.TrimSpace(v+" "+class))
}

// RemoveClass removes every occurrence of class from the class list of n.
func (d *Document) RemoveClass(n *html.Node, class string) {
	if !HasClass(n, class) {
		return
	}
	v, _ := Attr(n, "class")
	fields := strings.Fields(v)
	kept := fields[:0]
	for _, c := range fields {
		if c != class {
			kept = append(kept, c)
		}
	}
	d.SetAttr(n, "class", strings.Join(kept, " "))
}
