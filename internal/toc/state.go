package toc

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/tocsync/internal/dom"
)

// Item is a flat view of one TOC entry.
type Item struct {
	Target   string `json:"target"`
	Title    string `json:"title"`
	Depth    int    `json:"depth"`
	Expanded bool   `json:"expanded"`
	Active   bool   `json:"active"`
	// Parent is the index of the enclosing item, -1 at the top level.
	Parent int `json:"parent"`
}

// State is the TOC state of one page.
type State struct {
	Page     string `json:"page"`
	Fragment string `json:"fragment"`
	Bound    bool   `json:"bound"`
	Items    []Item `json:"items"`
}

// Active returns the index of the active item, or -1.
func (s State) Active() int {
	for i, it := range s.Items {
		if it.Active {
			return i
		}
	}
	return -1
}

// ExpandedTargets lists the link targets of expanded items in document order.
func (s State) ExpandedTargets() []string {
	var out []string
	for _, it := range s.Items {
		if it.Expanded {
			out = append(out, it.Target)
		}
	}
	return out
}

// Visible reports whether item i is shown, i.e. every enclosing item is
// expanded.
func (s State) Visible(i int) bool {
	for p := s.Items[i].Parent; p >= 0; p = s.Items[p].Parent {
		if !s.Items[p].Expanded {
			return false
		}
	}
	return true
}

// Snapshot flattens the tree. Active is computed with Resolve and does not
// modify anything.
func (t *Tree) Snapshot(fragment string) []Item {
	items := t.Items()
	index := make(map[*html.Node]int, len(items))
	active := t.Resolve(fragment)

	out := make([]Item, 0, len(items))
	for i, n := range items {
		index[n] = i
		it := Item{
			Depth:    t.Level(n),
			Expanded: t.Expanded(n),
			Active:   n == active,
			Parent:   -1,
		}
		if v, ok := dom.Attr(n, t.schema.conv.LevelAttr); ok {
			if d, err := strconv.Atoi(v); err == nil {
				it.Depth = d
			}
		}
		if link := t.ownLink(n); link != nil {
			it.Target, _ = dom.Attr(link, "href")
			it.Title = dom.Text(link)
		}
		if p := t.itemOf(n.Parent); p != nil {
			if pi, ok := index[p]; ok {
				it.Parent = pi
			}
		}
		out = append(out, it)
	}
	return out
}

// ownLink returns the first link of item that is not inside a nested item.
func (t *Tree) ownLink(item *html.Node) *html.Node {
	for _, link := range dom.QueryAll(item, t.schema.link) {
		if t.itemOf(link) == item {
			return link
		}
	}
	return nil
}
