package site

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/ziadkadry99/tocsync/internal/dom"
	"github.com/ziadkadry99/tocsync/internal/toc"
)

// Prerender writes depth attributes into the TOC of doc and expands the path
// to the heading named by fragment. It returns the number of TOC items, or
// -1 when the document has no TOC.
func Prerender(doc *dom.Document, schema *toc.Schema, fragment string) int {
	root := schema.FindRoot(doc.Root)
	if root == nil {
		return -1
	}
	tree := schema.NewTree(doc, root, nil)
	tree.Annotate()
	tree.Sync(fragment)
	return len(tree.Items())
}

// AnnotateHTML reads a page from r, prerenders its TOC and writes the result
// to w, minified when min is non-nil.
func AnnotateHTML(r io.Reader, w io.Writer, schema *toc.Schema, fragment string, min *minify.M) (int, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("parsing page: %w", err)
	}
	n := Prerender(doc, schema, fragment)

	if min == nil {
		return n, doc.Render(w)
	}
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return n, err
	}
	if err := min.Minify("text/html", w, &buf); err != nil {
		return n, fmt.Errorf("minifying page: %w", err)
	}
	return n, nil
}

// NewMinifier returns a minifier for pages and their assets. End tags and
// document tags are kept so the output still parses into the same tree.
func NewMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	return m
}
