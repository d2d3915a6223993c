// Package host plays the part of the page framework around the TOC: it owns
// the current document, the URL fragment and a single event loop, publishes
// document replacements, and performs the highlight changes a theme's
// scroll-spy would make.
package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/tocsync/internal/dom"
	"github.com/ziadkadry99/tocsync/internal/toc"
)

var (
	// ErrClosed is returned for work submitted after Close.
	ErrClosed = errors.New("host: window closed")
	// ErrNoDocument is returned when an action needs a loaded page.
	ErrNoDocument = errors.New("host: no document loaded")
	// ErrNoLink is returned when no TOC link has the requested href.
	ErrNoLink = errors.New("host: no toc link with that href")
)

// Window runs every task on one goroutine. After each task, pending mutation
// records are delivered before the next task starts.
type Window struct {
	loader Loader
	schema *toc.Schema
	log    *zap.Logger

	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	page     string
	fragment string

	// loop-owned
	doc     *dom.Document
	subs    map[int]func(*dom.Document)
	nextSub int
}

// NewWindow starts a window with no document.
func NewWindow(loader Loader, schema *toc.Schema, log *zap.Logger) *Window {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Window{
		loader: loader,
		schema: schema,
		log:    log,
		tasks:  make(chan func()),
		done:   make(chan struct{}),
		subs:   make(map[int]func(*dom.Document)),
	}
	go w.loop()
	return w
}

func (w *Window) loop() {
	for {
		select {
		case task := <-w.tasks:
			task()
		case <-w.done:
			return
		}
	}
}

// Do runs fn on the event loop with the current document (possibly nil) and
// waits until fn and the observer deliveries it caused have finished.
func (w *Window) Do(ctx context.Context, fn func(doc *dom.Document)) error {
	ran := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("task panicked", zap.Any("panic", r))
				ran <- fmt.Errorf("host: task panicked: %v", r)
			}
		}()
		fn(w.doc)
		if w.doc != nil {
			w.doc.Flush()
		}
		ran <- nil
	}

	select {
	case w.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrClosed
	}

	select {
	case err := <-ran:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrClosed
	}
}

// Close stops the event loop.
func (w *Window) Close() {
	w.closeOnce.Do(func() { close(w.done) })
}

// Page returns the currently loaded page.
func (w *Window) Page() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.page
}

// Fragment returns the current URL fragment including its leading '#', or "".
func (w *Window) Fragment() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fragment
}

func (w *Window) setLocation(page, fragment string) {
	w.mu.Lock()
	w.page, w.fragment = page, fragment
	w.mu.Unlock()
}

// Subscribe registers fn for every document the window renders. If a
// document is already loaded, fn receives it right away.
func (w *Window) Subscribe(ctx context.Context, fn func(*dom.Document)) (unsubscribe func(), err error) {
	var id int
	err = w.Do(ctx, func(doc *dom.Document) {
		id = w.nextSub
		w.nextSub++
		w.subs[id] = fn
		if doc != nil {
			fn(doc)
		}
	})
	if err != nil {
		return nil, err
	}
	return func() {
		_ = w.Do(context.Background(), func(*dom.Document) { delete(w.subs, id) })
	}, nil
}

// Navigate loads ref ("page.html#fragment") and replaces the document.
func (w *Window) Navigate(ctx context.Context, ref string) error {
	page, fragment := SplitRef(ref)
	doc, err := w.loader.Load(ctx, page)
	if err != nil {
		return fmt.Errorf("loading %s: %w", page, err)
	}
	return w.Do(ctx, func(*dom.Document) {
		w.doc = doc
		w.setLocation(page, fragment)
		w.log.Debug("document replaced", zap.String("page", page), zap.String("fragment", fragment))
		ids := make([]int, 0, len(w.subs))
		for id := range w.subs {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			w.subs[id](doc)
		}
	})
}

// SetFragment changes the URL fragment without touching the document.
func (w *Window) SetFragment(ctx context.Context, fragment string) error {
	return w.Do(ctx, func(doc *dom.Document) {
		w.setLocation(w.Page(), normalizeFragment(fragment))
	})
}

// Click dispatches a click on the TOC link with the given href, then follows
// it the way a browser would: the fragment changes and the scroll-spy moves
// the active marker onto the clicked link.
func (w *Window) Click(ctx context.Context, href string) error {
	var clickErr error
	err := w.Do(ctx, func(doc *dom.Document) {
		link, err := w.tocLink(doc, href)
		if err != nil {
			clickErr = err
			return
		}
		doc.Dispatch(link, "click")
		if strings.HasPrefix(href, "#") {
			w.setLocation(w.Page(), href)
		}
		w.mark(doc, w.schema.FindRoot(doc.Root), link)
	})
	if err != nil {
		return err
	}
	return clickErr
}

// Highlight moves the theme's active marker to the TOC link with the given
// href, as a scroll-spy does. An empty href clears the marker.
func (w *Window) Highlight(ctx context.Context, href string) error {
	var hlErr error
	err := w.Do(ctx, func(doc *dom.Document) {
		if href == "" {
			root, err := w.tocRoot(doc)
			if err != nil {
				hlErr = err
				return
			}
			w.mark(doc, root, nil)
			return
		}
		link, err := w.tocLink(doc, href)
		if err != nil {
			hlErr = err
			return
		}
		w.mark(doc, w.schema.FindRoot(doc.Root), link)
	})
	if err != nil {
		return err
	}
	return hlErr
}

// mark leaves the active class on target alone among the links of root.
// A nil target clears it everywhere.
func (w *Window) mark(doc *dom.Document, root, target *html.Node) {
	class := w.schema.Conventions().ActiveClass
	for _, link := range w.schema.Links(root) {
		if link == target {
			doc.AddClass(link, class)
		} else {
			doc.RemoveClass(link, class)
		}
	}
}

func (w *Window) tocRoot(doc *dom.Document) (*html.Node, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	root := w.schema.FindRoot(doc.Root)
	if root == nil {
		return nil, fmt.Errorf("%w: page has no toc", ErrNoLink)
	}
	return root, nil
}

func (w *Window) tocLink(doc *dom.Document, href string) (*html.Node, error) {
	root, err := w.tocRoot(doc)
	if err != nil {
		return nil, err
	}
	link := w.schema.FindLink(root, href)
	if link == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoLink, href)
	}
	return link, nil
}

// SplitRef splits "page#frag" into the page and "#frag".
func SplitRef(ref string) (page, fragment string) {
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

func normalizeFragment(f string) string {
	if f == "" || f == "#" {
		return ""
	}
	if !strings.HasPrefix(f, "#") {
		return "#" + f
	}
	return f
}
