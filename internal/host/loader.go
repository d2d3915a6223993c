package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/ziadkadry99/tocsync/internal/dom"
)

// ErrBadPage is returned for page references that escape the site root.
var ErrBadPage = errors.New("host: invalid page")

// Loader fetches and parses a page by its site-relative path.
type Loader interface {
	Load(ctx context.Context, page string) (*dom.Document, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, page string) (*dom.Document, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, page string) (*dom.Document, error) {
	return f(ctx, page)
}

// DirLoader loads pages from a built site.
type DirLoader struct {
	FS fs.FS
}

// Load parses page from the file system. An empty page or a directory path
// loads its index.html.
func (l DirLoader) Load(ctx context.Context, page string) (*dom.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := CleanPage(page)
	if err != nil {
		return nil, err
	}
	f, err := l.FS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()
	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return doc, nil
}

// CleanPage normalizes a page reference to an fs.FS path.
func CleanPage(page string) (string, error) {
	page = strings.TrimPrefix(page, "/")
	if page == "" || strings.HasSuffix(page, "/") {
		page += "index.html"
	}
	name := path.Clean(page)
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: %q", ErrBadPage, page)
	}
	return name, nil
}
