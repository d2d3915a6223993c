// Package site builds a static documentation site from markdown. Every page
// carries the primary navigation and a secondary TOC in Material for MkDocs
// markup, prerendered with depth attributes.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tdewolff/minify/v2"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tocsync/internal/db"
	"github.com/ziadkadry99/tocsync/internal/dom"
	"github.com/ziadkadry99/tocsync/internal/progress"
	"github.com/ziadkadry99/tocsync/internal/toc"
	"github.com/ziadkadry99/tocsync/internal/walker"
)

// ErrNoPages is returned when the docs directory holds no markdown pages.
var ErrNoPages = errors.New("site: no markdown pages found")

// staticAssets are copied from the docs directory unchanged.
const staticAssets = "**/*.{png,jpg,jpeg,gif,svg,webp,ico,pdf}"

// Options configures a build.
type Options struct {
	DocsDir   string
	OutputDir string
	SiteName  string
	Include   []string
	Exclude   []string
	Minify    bool
	Prerender bool
	Schema    *toc.Schema
}

// Result summarizes a build.
type Result struct {
	Pages  int
	Failed int
	Assets int
}

// SiteGenerator converts markdown documentation into a static HTML site.
type SiteGenerator struct {
	opts     Options
	log      *zap.Logger
	reporter progress.Reporter
	md       goldmark.Markdown
	tmpl     *template.Template
	min      *minify.M
}

// pageData holds the data passed to the HTML template for each page.
type pageData struct {
	Title    string
	SiteName string
	Page     string
	Content  template.HTML
	NavHTML  template.HTML
	TOCHTML  template.HTML
	BasePath string
}

// source is one parsed markdown page.
type source struct {
	file     walker.FileInfo
	src      []byte
	doc      ast.Node
	title    string
	headings []Heading
}

// NewSiteGenerator prepares a generator. A nil reporter reports nothing.
func NewSiteGenerator(opts Options, log *zap.Logger, reporter progress.Reporter) (*SiteGenerator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if opts.Schema == nil {
		opts.Schema = toc.DefaultSchema()
	}
	if opts.SiteName == "" {
		opts.SiteName = "Documentation"
	}

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	g := &SiteGenerator{
		opts:     opts,
		log:      log,
		reporter: reporter,
		tmpl:     tmpl,
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
	if opts.Minify {
		g.min = NewMinifier()
	}
	return g, nil
}

// Generate builds the full static site. Pages that fail to render are
// skipped; their errors are combined in the returned error.
func (g *SiteGenerator) Generate(ctx context.Context) (Result, error) {
	var res Result

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: g.opts.DocsDir,
		Include: g.opts.Include,
		Exclude: g.opts.Exclude,
	})
	if err != nil {
		return res, fmt.Errorf("walking docs dir: %w", err)
	}
	if len(files) == 0 {
		return res, fmt.Errorf("%w in %s", ErrNoPages, g.opts.DocsDir)
	}

	if err := os.MkdirAll(g.opts.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("creating output dir: %w", err)
	}

	var errs error
	var pages []source
	for _, f := range files {
		p, err := g.parse(f)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("parsing %s: %w", f.RelPath, err))
			res.Failed++
			continue
		}
		pages = append(pages, p)
	}

	titleMap := make(map[string]string, len(pages))
	paths := make([]string, 0, len(pages))
	for _, p := range pages {
		titleMap[p.file.RelPath] = p.title
		paths = append(paths, p.file.RelPath)
	}
	tree := BuildTree(paths, titleMap)

	if err := g.writeAssets(); err != nil {
		return res, err
	}

	index, err := db.Open(filepath.Join(g.opts.OutputDir, db.FileName))
	if err != nil {
		return res, fmt.Errorf("opening site index: %w", err)
	}
	defer index.Close()

	g.reporter.Start(len(pages))
	var built []string
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			g.reporter.Finish()
			return res, err
		}
		htmlPath, err := g.renderPage(tree, p)
		if err == nil {
			err = index.ReplacePage(ctx, indexPage(p, htmlPath), indexHeadings(htmlPath, p.headings))
		}
		if err != nil {
			g.log.Error("page failed", zap.String("page", p.file.RelPath), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("rendering %s: %w", p.file.RelPath, err))
			res.Failed++
		} else {
			g.log.Debug("page built", zap.String("page", htmlPath), zap.Int("headings", len(p.headings)))
			built = append(built, htmlPath)
			res.Pages++
		}
		g.reporter.Update(i+1, p.file.RelPath)
	}
	g.reporter.Finish()

	if removed, err := index.PrunePages(ctx, built); err != nil {
		errs = multierr.Append(errs, err)
	} else if removed > 0 {
		g.log.Debug("pruned stale pages from index", zap.Int("removed", removed))
	}

	n, err := g.copyStatic()
	res.Assets = n
	errs = multierr.Append(errs, err)

	g.log.Info("site built",
		zap.String("output", g.opts.OutputDir),
		zap.Int("pages", res.Pages),
		zap.Int("failed", res.Failed),
		zap.Int("assets", res.Assets))
	return res, errs
}

// parse reads a markdown file and extracts its title and headings.
func (g *SiteGenerator) parse(f walker.FileInfo) (source, error) {
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return source{}, err
	}
	pctx := parser.NewContext(parser.WithIDs(newSlugIDs()))
	doc := g.md.Parser().Parse(text.NewReader(src), parser.WithContext(pctx))

	title, headings := collectHeadings(doc, src)
	if title == "" {
		title = cleanDisplayName(filepath.Base(f.RelPath))
	}
	return source{file: f, src: src, doc: doc, title: title, headings: headings}, nil
}

// renderPage writes one HTML page and returns its site-relative path.
func (g *SiteGenerator) renderPage(tree *FileTree, p source) (string, error) {
	var body bytes.Buffer
	if err := g.md.Renderer().Render(&body, p.src, p.doc); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	htmlPath := mdPathToHTML(p.file.RelPath)
	basePath := basePathFor(htmlPath)

	data := pageData{
		Title:    p.title,
		SiteName: g.opts.SiteName,
		Page:     htmlPath,
		Content:  template.HTML(rewriteMDLinks(body.String())),
		NavHTML:  template.HTML(tree.ToHTML(p.file.RelPath, basePath)),
		TOCHTML:  template.HTML(renderTOC(p.headings)),
		BasePath: basePath,
	}

	var out bytes.Buffer
	if err := g.tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	if g.opts.Prerender {
		doc, err := dom.Parse(&out)
		if err != nil {
			return "", fmt.Errorf("parsing rendered page: %w", err)
		}
		Prerender(doc, g.opts.Schema, "")
		out.Reset()
		if err := doc.Render(&out); err != nil {
			return "", fmt.Errorf("rendering prerendered page: %w", err)
		}
	}

	page := out.Bytes()
	if g.min != nil {
		minified, err := g.min.Bytes("text/html", page)
		if err != nil {
			return "", fmt.Errorf("minifying: %w", err)
		}
		page = minified
	}

	outPath := filepath.Join(g.opts.OutputDir, filepath.FromSlash(htmlPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(outPath, page, 0o644); err != nil {
		return "", err
	}
	return htmlPath, nil
}

// writeAssets writes the stylesheet and the live TOC client.
func (g *SiteGenerator) writeAssets() error {
	assets := []struct {
		name, mime, content string
	}{
		{"style.css", "text/css", cssContent},
		{"toc-live.js", "application/javascript", liveJS},
	}
	for _, a := range assets {
		content := []byte(a.content)
		if g.min != nil {
			minified, err := g.min.Bytes(a.mime, content)
			if err != nil {
				return fmt.Errorf("minifying %s: %w", a.name, err)
			}
			content = minified
		}
		if err := os.WriteFile(filepath.Join(g.opts.OutputDir, a.name), content, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", a.name, err)
		}
	}
	return nil
}

// copyStatic copies images and other static files from the docs directory.
func (g *SiteGenerator) copyStatic() (int, error) {
	fsys := os.DirFS(g.opts.DocsDir)
	matches, err := doublestar.Glob(fsys, staticAssets, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("finding static files: %w", err)
	}

	var errs error
	n := 0
	for _, rel := range matches {
		if walker.MatchesExclude(rel, g.opts.Exclude) {
			continue
		}
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		outPath := filepath.Join(g.opts.OutputDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		n++
	}
	return n, errs
}

// rewriteMDLinks changes .md links in HTML content to .html links.
func rewriteMDLinks(content string) string {
	r := strings.NewReplacer(`.md"`, `.html"`, `.md#`, `.html#`)
	return r.Replace(content)
}

func indexPage(p source, htmlPath string) db.Page {
	return db.Page{
		Path:        htmlPath,
		Title:       p.title,
		Source:      p.file.RelPath,
		ContentHash: p.file.ContentHash,
	}
}

func indexHeadings(htmlPath string, headings []Heading) []db.Heading {
	out := make([]db.Heading, len(headings))
	for i, h := range headings {
		out[i] = db.Heading{
			Page:   htmlPath,
			Order:  i,
			Level:  h.Level,
			Anchor: h.ID,
			Title:  h.Title,
			Parent: h.Parent,
		}
	}
	return out
}
