// Package toc keeps the secondary-sidebar table of contents of a rendered
// page expanded along exactly one path: from the active heading up to the
// top of the tree. Everything else stays collapsed.
package toc

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/tocsync/internal/dom"
)

// Conventions names the markup the host theme uses for its TOC.
type Conventions struct {
	Root         string `yaml:"root" koanf:"root"`
	Item         string `yaml:"item" koanf:"item"`
	List         string `yaml:"list" koanf:"list"`
	Link         string `yaml:"link" koanf:"link"`
	ActiveClass  string `yaml:"active_class" koanf:"active_class"`
	LevelAttr    string `yaml:"level_attr" koanf:"level_attr"`
	ExpandedAttr string `yaml:"expanded_attr" koanf:"expanded_attr"`
	WatchAttr    string `yaml:"watch_attr" koanf:"watch_attr"`
}

// DefaultConventions matches Material for MkDocs.
func DefaultConventions() Conventions {
	return Conventions{
		Root:         ".md-sidebar--secondary [data-md-component='toc']",
		Item:         "li.md-nav__item",
		List:         "ul.md-nav__list",
		Link:         "a.md-nav__link",
		ActiveClass:  "md-nav__link--active",
		LevelAttr:    "data-toc-level",
		ExpandedAttr: "data-toc-expanded",
		WatchAttr:    "class",
	}
}

// Schema is a compiled set of Conventions.
type Schema struct {
	conv   Conventions
	root   cascadia.Selector
	item   cascadia.Selector
	list   cascadia.Selector
	link   cascadia.Selector
	active cascadia.Selector
}

// Compile validates the conventions and compiles their selectors.
func (c Conventions) Compile() (*Schema, error) {
	if c.ActiveClass == "" || strings.ContainsAny(c.ActiveClass, " \t\n") {
		return nil, fmt.Errorf("toc: invalid active class %q", c.ActiveClass)
	}
	for name, attr := range map[string]string{
		"level_attr":    c.LevelAttr,
		"expanded_attr": c.ExpandedAttr,
		"watch_attr":    c.WatchAttr,
	} {
		if attr == "" {
			return nil, fmt.Errorf("toc: %s is required", name)
		}
	}

	s := &Schema{conv: c}
	for _, sel := range []struct {
		name string
		src  string
		dst  *cascadia.Selector
	}{
		{"root", c.Root, &s.root},
		{"item", c.Item, &s.item},
		{"list", c.List, &s.list},
		{"link", c.Link, &s.link},
		{"active_class", "." + CSSEscape(c.ActiveClass), &s.active},
	} {
		compiled, err := cascadia.Compile(sel.src)
		if err != nil {
			return nil, fmt.Errorf("toc: compiling %s selector %q: %w", sel.name, sel.src, err)
		}
		*sel.dst = compiled
	}
	return s, nil
}

// DefaultSchema compiles DefaultConventions.
func DefaultSchema() *Schema {
	s, err := DefaultConventions().Compile()
	if err != nil {
		panic(err)
	}
	return s
}

// Conventions returns the conventions the schema was compiled from.
func (s *Schema) Conventions() Conventions { return s.conv }

// FindRoot locates the TOC root below n, or returns nil.
func (s *Schema) FindRoot(n *html.Node) *html.Node {
	return dom.Query(n, s.root)
}

// Links returns every navigation link inside root in document order.
func (s *Schema) Links(root *html.Node) []*html.Node {
	return dom.QueryAll(root, s.link)
}

// FindLink returns the first navigation link inside root whose href equals
// href exactly. It returns nil when href cannot be used as a lookup key.
func (s *Schema) FindLink(root *html.Node, href string) *html.Node {
	if href == "" || !utf8.ValidString(href) {
		return nil
	}
	byHref, err := cascadia.Compile("[href='" + CSSEscape(href) + "']")
	if err != nil {
		return nil
	}
	return dom.Query(root, dom.All{s.link, byHref})
}

// CSSEscape escapes s for use as a CSS identifier or inside a quoted string,
// following the CSSOM serialization rules.
func CSSEscape(s string) string {
	var b strings.Builder
	first := rune(-1)
	i := 0
	for _, r := range s {
		switch {
		case r == 0:
			b.WriteRune(utf8.RuneError)
		case r >= 0x1 && r <= 0x1f, r == 0x7f,
			i == 0 && r >= '0' && r <= '9',
			i == 1 && r >= '0' && r <= '9' && first == '-':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r == '-' && utf8.RuneCountInString(s) == 1:
			b.WriteString(`\-`)
		case r >= 0x80, r == '-', r == '_',
			r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
		if i == 0 {
			first = r
		}
		i++
	}
	return b.String()
}
