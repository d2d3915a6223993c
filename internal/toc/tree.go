package toc

import (
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/tocsync/internal/dom"
)

// Tree is one TOC root inside a live document.
type Tree struct {
	doc    *dom.Document
	root   *html.Node
	schema *Schema
	log    *zap.Logger
}

// NewTree wraps root, which must belong to doc.
func (s *Schema) NewTree(doc *dom.Document, root *html.Node, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tree{doc: doc, root: root, schema: s, log: log}
}

// Root returns the TOC root node.
func (t *Tree) Root() *html.Node { return t.root }

// Items returns every TOC item below the root in document order.
func (t *Tree) Items() []*html.Node {
	return dom.QueryAll(t.root, t.schema.item)
}

// Level counts the nesting lists between item and the root, starting at 1.
// Wrappers that are not lists do not count.
func (t *Tree) Level(item *html.Node) int {
	depth := 1
	for p := item.Parent; p != nil && p != t.root; p = p.Parent {
		if p.Type == html.ElementNode && t.schema.list.Match(p) {
			depth++
		}
	}
	return depth
}

// Annotate writes the depth attribute on every item. Running it again
// rewrites the same values.
func (t *Tree) Annotate() {
	attr := t.schema.conv.LevelAttr
	for _, item := range t.Items() {
		t.doc.SetAttr(item, attr, strconv.Itoa(t.Level(item)))
	}
}

// Resolve picks the active item without touching the tree. The first
// marked node, in document order, that sits inside an item wins; otherwise
// the first item whose link targets fragment exactly. A fragment that
// cannot be used as a lookup key resolves to nothing.
func (t *Tree) Resolve(fragment string) *html.Node {
	for _, marked := range dom.QueryAll(t.root, t.schema.active) {
		if item := t.itemOf(marked); item != nil {
			return item
		}
	}
	if fragment == "" {
		return nil
	}
	link := t.schema.FindLink(t.root, fragment)
	if link == nil {
		t.log.Debug("no toc link for fragment", zap.String("fragment", fragment))
		return nil
	}
	return t.itemOf(link)
}

// Collapse clears the expanded marker from every item carrying it.
func (t *Tree) Collapse() {
	attr := t.schema.conv.ExpandedAttr
	for _, item := range t.Items() {
		if dom.HasAttr(item, attr) {
			t.doc.RemoveAttr(item, attr)
		}
	}
}

// ExpandPath marks item and every enclosing item below the root as expanded.
func (t *Tree) ExpandPath(item *html.Node) {
	attr := t.schema.conv.ExpandedAttr
	for cur := item; cur != nil && t.isItem(cur); cur = t.itemOf(cur.Parent) {
		t.doc.SetAttr(cur, attr, "true")
	}
}

// Sync collapses the tree and re-expands the path to the active item. It
// returns the active item, or nil when the tree ends fully collapsed.
func (t *Tree) Sync(fragment string) *html.Node {
	t.Collapse()
	active := t.Resolve(fragment)
	if active != nil {
		t.ExpandPath(active)
	}
	return active
}

// Activate is the click path: the given item becomes the expanded branch
// without consulting the highlight marker or the fragment.
func (t *Tree) Activate(item *html.Node) {
	t.Collapse()
	t.ExpandPath(item)
}

// Expanded reports whether item carries the expanded marker.
func (t *Tree) Expanded(item *html.Node) bool {
	return dom.HasAttr(item, t.schema.conv.ExpandedAttr)
}

func (t *Tree) isItem(n *html.Node) bool {
	return n != t.root && n.Type == html.ElementNode && t.schema.item.Match(n) && dom.Contains(t.root, n)
}

// itemOf returns the closest item enclosing n that still lies below the root.
func (t *Tree) itemOf(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	item := dom.Closest(n, t.schema.item)
	if item == nil || !t.isItem(item) {
		return nil
	}
	return item
}
