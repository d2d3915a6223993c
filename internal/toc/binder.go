package toc

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/tocsync/internal/dom"
)

// Binder attaches TOC behaviour to roots, at most once per root.
//
// A Binder is confined to the event loop that owns the documents it binds.
type Binder struct {
	schema   *Schema
	fragment func() string
	log      *zap.Logger
	bound    map[*html.Node]*binding
}

type binding struct {
	tree     *Tree
	observer *dom.Observer
	unlisten func()
}

// NewBinder returns a Binder reading the current URL fragment through
// fragment. A nil fragment func means no fragment.
func NewBinder(schema *Schema, fragment func() string, log *zap.Logger) *Binder {
	if fragment == nil {
		fragment = func() string { return "" }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Binder{
		schema:   schema,
		fragment: fragment,
		log:      log,
		bound:    make(map[*html.Node]*binding),
	}
}

// Init locates the TOC root of doc and binds it. It returns the bound tree,
// or nil when the document has no TOC.
func (b *Binder) Init(doc *dom.Document) *Tree {
	if doc == nil {
		return nil
	}
	root := b.schema.FindRoot(doc.Root)
	if root == nil {
		b.log.Debug("document has no toc root")
		return nil
	}
	b.Bind(doc, root)
	return b.Tree(root)
}

// Bind annotates depths, runs the initial sync and starts reacting to clicks
// and highlight changes under root. It returns false if root was already
// bound.
func (b *Binder) Bind(doc *dom.Document, root *html.Node) bool {
	if root == nil {
		return false
	}
	if _, ok := b.bound[root]; ok {
		return false
	}

	tree := b.schema.NewTree(doc, root, b.log)
	bd := &binding{tree: tree}
	b.bound[root] = bd

	tree.Annotate()
	tree.Sync(b.fragment())

	bd.unlisten = doc.AddEventListener(root, "click", func(ev *dom.Event) {
		link := dom.Closest(ev.Target, b.schema.link)
		if link == nil || !dom.Contains(root, link) {
			return
		}
		item := tree.itemOf(link)
		if item == nil {
			return
		}
		tree.Activate(item)
	})

	bd.observer = doc.Observe(root, dom.ObserveOptions{
		Subtree:         true,
		AttributeFilter: []string{b.schema.conv.WatchAttr},
	}, func([]dom.Mutation) {
		tree.Sync(b.fragment())
	})

	b.log.Debug("toc bound", zap.Int("items", len(tree.Items())))
	return true
}

// Release detaches root and forgets it, so a later Bind starts fresh.
func (b *Binder) Release(root *html.Node) {
	bd, ok := b.bound[root]
	if !ok {
		return
	}
	bd.observer.Disconnect()
	bd.unlisten()
	delete(b.bound, root)
}

// Tree returns the bound tree for root, or nil.
func (b *Binder) Tree(root *html.Node) *Tree {
	if bd, ok := b.bound[root]; ok {
		return bd.tree
	}
	return nil
}

// Bound reports whether root is bound.
func (b *Binder) Bound(root *html.Node) bool {
	_, ok := b.bound[root]
	return ok
}
