package site

import (
	"html/template"
	"path"
	"slices"
	"strings"
)

// FileTree is a node of the primary navigation: a directory or a page.
type FileTree struct {
	Name     string
	Title    string // page H1, or the prettified directory name
	Path     string // slash path of the page or directory, relative to the docs root
	IsDir    bool
	Children []*FileTree

	index map[string]*FileTree
}

// BuildTree arranges page paths into a navigation tree. titles maps a page
// path to its display title and may be nil.
func BuildTree(paths []string, titles map[string]string) *FileTree {
	root := &FileTree{Name: "docs", IsDir: true}
	for _, p := range paths {
		dir, file := path.Split(p)
		node := root
		if dir != "" {
			segs := strings.Split(strings.TrimSuffix(dir, "/"), "/")
			for i, seg := range segs {
				node = node.dir(seg, strings.Join(segs[:i+1], "/"))
			}
		}
		node.add(&FileTree{Name: file, Path: p, Title: titles[p]})
	}
	root.sort()
	return root
}

func (t *FileTree) dir(name, full string) *FileTree {
	if c, ok := t.index[name]; ok {
		return c
	}
	c := &FileTree{Name: name, Path: full, Title: formatDirName(name), IsDir: true}
	t.add(c)
	return c
}

func (t *FileTree) add(c *FileTree) {
	if t.index == nil {
		t.index = make(map[string]*FileTree)
	}
	if _, dup := t.index[c.Name]; dup {
		return
	}
	t.index[c.Name] = c
	t.Children = append(t.Children, c)
}

// sort orders directories before pages, each by name.
func (t *FileTree) sort() {
	slices.SortFunc(t.Children, func(a, b *FileTree) int {
		if a.IsDir != b.IsDir {
			if a.IsDir {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	for _, c := range t.Children {
		if c.IsDir {
			c.sort()
		}
	}
}

// ToHTML renders the primary sidebar. The directories enclosing active are
// flagged md-nav__item--active so the theme keeps them open. base leads back
// to the site root, e.g. "../".
func (t *FileTree) ToHTML(active, base string) string {
	w := navWriter{active: active, base: base, open: map[string]bool{}}
	for d := path.Dir(active); d != "." && d != "/"; d = path.Dir(d) {
		w.open[d] = true
	}

	w.b.WriteString("<ul class=\"md-nav__list\">\n")
	w.link(base+"index.html", "Home", active == "index.md")
	w.children(t)
	w.b.WriteString("</ul>\n")
	return w.b.String()
}

type navWriter struct {
	b      strings.Builder
	active string
	base   string
	open   map[string]bool
}

func (w *navWriter) children(n *FileTree) {
	for _, c := range n.Children {
		switch {
		case c.IsDir:
			w.section(c)
		case c.Path == "index.md":
			// rendered as Home
		default:
			title := c.Title
			if title == "" {
				title = cleanDisplayName(c.Name)
			}
			w.link(w.base+mdPathToHTML(c.Path), title, c.Path == w.active)
		}
	}
}

func (w *navWriter) section(d *FileTree) {
	class := "md-nav__item md-nav__item--nested"
	if w.open[d.Path] {
		class += " md-nav__item--active"
	}
	label := template.HTMLEscapeString(d.Title)
	w.b.WriteString(`<li class="` + class + `"><label class="md-nav__link">` + label + "</label>\n")
	w.b.WriteString(`<nav class="md-nav" aria-label="` + label + `"><ul class="md-nav__list">` + "\n")
	w.children(d)
	w.b.WriteString("</ul></nav></li>\n")
}

func (w *navWriter) link(href, title string, current bool) {
	class := "md-nav__link"
	if current {
		class += " md-nav__link--active"
	}
	w.b.WriteString(`<li class="md-nav__item"><a href="` + href + `" class="` + class + `">` +
		template.HTMLEscapeString(title) + "</a></li>\n")
}

// mdPathToHTML maps a page path to its output path. Other paths pass through.
func mdPathToHTML(p string) string {
	switch ext := path.Ext(p); ext {
	case ".md", ".markdown":
		return p[:len(p)-len(ext)] + ".html"
	}
	return p
}

// cleanDisplayName drops the extension of a file name.
func cleanDisplayName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// formatDirName turns "getting-started" into "Getting Started".
func formatDirName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// basePathFor is the relative prefix from htmlPath back to the site root.
func basePathFor(htmlPath string) string {
	return strings.Repeat("../", strings.Count(htmlPath, "/"))
}
