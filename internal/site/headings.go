package site

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/yuin/goldmark/ast"
)

// Heading is one section heading of a page in document order.
type Heading struct {
	Level int
	ID    string
	Title string
	// Parent indexes the enclosing TOC heading, -1 at the top.
	Parent int
}

// slugIDs implements goldmark's parser.IDs with gosimple/slug. Repeated
// slugs get a numeric suffix: usage, usage_1, usage_2.
type slugIDs struct {
	used map[string]bool
}

func newSlugIDs() *slugIDs {
	return &slugIDs{used: make(map[string]bool)}
}

func (s *slugIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := slug.Make(string(value))
	if base == "" {
		if kind == ast.KindHeading {
			base = "section"
		} else {
			base = "id"
		}
	}
	id := base
	for i := 1; s.used[id]; i++ {
		id = base + "_" + strconv.Itoa(i)
	}
	s.used[id] = true
	return []byte(id)
}

func (s *slugIDs) Put(value []byte) {
	s.used[string(value)] = true
}

// collectHeadings walks the parsed page. It returns the text of the first
// level-1 heading and every deeper heading, with parents resolved by level.
func collectHeadings(doc ast.Node, src []byte) (title string, headings []Heading) {
	var stack []int
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		text := nodeText(h, src)
		if h.Level == 1 {
			if title == "" {
				title = text
			}
			return ast.WalkSkipChildren, nil
		}

		var id string
		if v, ok := h.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}

		for len(stack) > 0 && headings[stack[len(stack)-1]].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		headings = append(headings, Heading{Level: h.Level, ID: id, Title: text, Parent: parent})
		stack = append(stack, len(headings)-1)
		return ast.WalkSkipChildren, nil
	})
	return title, headings
}

// nodeText concatenates the literal text below n.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// renderTOC renders headings as the secondary sidebar navigation.
func renderTOC(headings []Heading) string {
	var b strings.Builder
	b.WriteString(`<nav class="md-nav md-nav--secondary" aria-label="Table of contents">` + "\n")
	b.WriteString(`<label class="md-nav__title">Table of contents</label>` + "\n")
	b.WriteString(`<ul class="md-nav__list" data-md-component="toc">` + "\n")
	renderTOCLevel(&b, headings, -1)
	b.WriteString("</ul>\n</nav>\n")
	return b.String()
}

func renderTOCLevel(b *strings.Builder, headings []Heading, parent int) {
	for i, h := range headings {
		if h.Parent != parent {
			continue
		}
		title := template.HTMLEscapeString(h.Title)
		fmt.Fprintf(b, `<li class="md-nav__item"><a href="#%s" class="md-nav__link"><span class="md-ellipsis">%s</span></a>`,
			template.HTMLEscapeString(h.ID), title)
		if hasChildren(headings, i) {
			fmt.Fprintf(b, "\n"+`<nav class="md-nav" aria-label="%s"><ul class="md-nav__list">`+"\n", title)
			renderTOCLevel(b, headings, i)
			b.WriteString("</ul></nav>")
		}
		b.WriteString("</li>\n")
	}
}

func hasChildren(headings []Heading, i int) bool {
	for _, h := range headings[i+1:] {
		if h.Parent == i {
			return true
		}
	}
	return false
}
