// Package session ties a host window to a TOC binder: every document the
// window loads is bound, and the resulting state can be read back as a flat
// snapshot.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/tocsync/internal/dom"
	"github.com/ziadkadry99/tocsync/internal/host"
	"github.com/ziadkadry99/tocsync/internal/toc"
)

// Session is one page view with live TOC behaviour.
type Session struct {
	ID string

	win    *host.Window
	binder *toc.Binder
	log    *zap.Logger
	unsub  func()

	// loop-owned
	root *html.Node
}

// New opens a session with no page loaded.
func New(ctx context.Context, loader host.Loader, schema *toc.Schema, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	log = log.With(zap.String("session", id))

	win := host.NewWindow(loader, schema, log)
	s := &Session{
		ID:     id,
		win:    win,
		binder: toc.NewBinder(schema, win.Fragment, log),
		log:    log,
	}
	unsub, err := win.Subscribe(ctx, s.attach)
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("subscribing to window: %w", err)
	}
	s.unsub = unsub
	return s, nil
}

// attach runs on the window loop whenever the document is replaced.
func (s *Session) attach(doc *dom.Document) {
	if s.root != nil {
		s.binder.Release(s.root)
		s.root = nil
	}
	if tree := s.binder.Init(doc); tree != nil {
		s.root = tree.Root()
	}
}

// Window exposes the underlying host window.
func (s *Session) Window() *host.Window { return s.win }

// Navigate loads a page reference such as "guide/index.html#setup".
func (s *Session) Navigate(ctx context.Context, ref string) error {
	return s.win.Navigate(ctx, ref)
}

// Click clicks the TOC link with the given href.
func (s *Session) Click(ctx context.Context, href string) error {
	return s.win.Click(ctx, href)
}

// Highlight moves the theme highlight to href, or clears it when href is "".
func (s *Session) Highlight(ctx context.Context, href string) error {
	return s.win.Highlight(ctx, href)
}

// SetFragment changes the URL fragment. It does not re-sync the TOC by itself.
func (s *Session) SetFragment(ctx context.Context, fragment string) error {
	return s.win.SetFragment(ctx, fragment)
}

// State snapshots the TOC of the current page.
func (s *Session) State(ctx context.Context) (toc.State, error) {
	st := toc.State{Items: []toc.Item{}}
	err := s.win.Do(ctx, func(doc *dom.Document) {
		st.Page = s.win.Page()
		st.Fragment = s.win.Fragment()
		tree := s.binder.Tree(s.root)
		if tree == nil {
			return
		}
		st.Bound = true
		st.Items = tree.Snapshot(st.Fragment)
	})
	if err != nil {
		return toc.State{}, err
	}
	return st, nil
}

// HTML renders the current document with its TOC attributes.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var out string
	err := s.win.Do(ctx, func(doc *dom.Document) {
		if doc != nil {
			out = doc.String()
		}
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", host.ErrNoDocument
	}
	return out, nil
}

// Close releases the binding and stops the window.
func (s *Session) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	_ = s.win.Do(context.Background(), func(*dom.Document) {
		if s.root != nil {
			s.binder.Release(s.root)
			s.root = nil
		}
	})
	s.win.Close()
	s.log.Debug("session closed")
}
