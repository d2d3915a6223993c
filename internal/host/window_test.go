package host

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"testing/fstest"

	"go.uber.org/zap/zaptest"

	"github.com/ziadkadry99/tocsync/internal/dom"
	"github.com/ziadkadry99/tocsync/internal/toc"
)

const testPage = `<html><body>
<div class="md-sidebar md-sidebar--secondary"><nav class="md-nav md-nav--secondary">
<ul class="md-nav__list" data-md-component="toc">
<li class="md-nav__item"><a class="md-nav__link" href="#intro">Intro</a>
<nav class="md-nav"><ul class="md-nav__list">
<li class="md-nav__item"><a class="md-nav__link" href="#setup">Setup</a></li>
</ul></nav></li>
<li class="md-nav__item"><a class="md-nav__link" href="#usage">Usage</a></li>
</ul></nav></div></body></html>`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html":       {Data: []byte(testPage)},
		"guide/index.html": {Data: []byte(testPage)},
		"plain.html":       {Data: []byte(`<html><body><p>none</p></body></html>`)},
	}
}

func newTestWindow(t *testing.T) *Window {
	t.Helper()
	w := NewWindow(DirLoader{FS: testFS()}, toc.DefaultSchema(), zaptest.NewLogger(t))
	t.Cleanup(w.Close)
	return w
}

func activeLinks(t *testing.T, w *Window) []string {
	t.Helper()
	var out []string
	err := w.Do(t.Context(), func(doc *dom.Document) {
		s := toc.DefaultSchema()
		for _, l := range s.Links(s.FindRoot(doc.Root)) {
			if dom.HasClass(l, "md-nav__link--active") {
				href, _ := dom.Attr(l, "href")
				out = append(out, href)
			}
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestNavigatePublishesDocument(t *testing.T) {
	w := newTestWindow(t)
	ctx := t.Context()

	var seen []*dom.Document
	unsub, err := w.Subscribe(ctx, func(doc *dom.Document) { seen = append(seen, doc) })
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 0 {
		t.Fatal("no document should be replayed before the first navigation")
	}

	if err := w.Navigate(ctx, "guide/#setup"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if w.Page() != "guide/" || w.Fragment() != "#setup" {
		t.Errorf("location = %q %q", w.Page(), w.Fragment())
	}

	var late int
	if _, err := w.Subscribe(ctx, func(*dom.Document) { late++ }); err != nil {
		t.Fatal(err)
	}
	if late != 1 {
		t.Errorf("late subscriber got %d documents, want 1", late)
	}

	unsub()
	if err := w.Navigate(ctx, "index.html"); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Errorf("unsubscribed callback ran: %d documents", len(seen))
	}
	if late != 2 {
		t.Errorf("late subscriber got %d documents, want 2", late)
	}
}

func TestNavigateErrors(t *testing.T) {
	w := newTestWindow(t)
	if err := w.Navigate(t.Context(), "missing.html"); err == nil {
		t.Error("expected error for a missing page")
	}
	if err := w.Navigate(t.Context(), "../etc/passwd"); !errors.Is(err, ErrBadPage) {
		t.Errorf("err = %v, want ErrBadPage", err)
	}
}

func TestHighlightMovesMarker(t *testing.T) {
	w := newTestWindow(t)
	ctx := t.Context()

	if err := w.Highlight(ctx, "#intro"); !errors.Is(err, ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
	if err := w.Navigate(ctx, ""); err != nil {
		t.Fatal(err)
	}

	if err := w.Highlight(ctx, "#setup"); err != nil {
		t.Fatal(err)
	}
	if got := activeLinks(t, w); len(got) != 1 || got[0] != "#setup" {
		t.Errorf("active = %v", got)
	}
	if err := w.Highlight(ctx, "#usage"); err != nil {
		t.Fatal(err)
	}
	if got := activeLinks(t, w); len(got) != 1 || got[0] != "#usage" {
		t.Errorf("active = %v", got)
	}
	if err := w.Highlight(ctx, "#nope"); !errors.Is(err, ErrNoLink) {
		t.Errorf("err = %v, want ErrNoLink", err)
	}
	if err := w.Highlight(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if got := activeLinks(t, w); len(got) != 0 {
		t.Errorf("marker not cleared: %v", got)
	}
}

func TestClickDispatchesAndFollows(t *testing.T) {
	w := newTestWindow(t)
	ctx := t.Context()
	if err := w.Navigate(ctx, "index.html"); err != nil {
		t.Fatal(err)
	}

	var clicks []string
	err := w.Do(ctx, func(doc *dom.Document) {
		doc.AddEventListener(doc.Root, "click", func(ev *dom.Event) {
			href, _ := dom.Attr(ev.Target, "href")
			clicks = append(clicks, href)
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Click(ctx, "#usage"); err != nil {
		t.Fatal(err)
	}
	if len(clicks) != 1 || clicks[0] != "#usage" {
		t.Errorf("clicks = %v", clicks)
	}
	if w.Fragment() != "#usage" {
		t.Errorf("fragment = %q, want #usage", w.Fragment())
	}
	if got := activeLinks(t, w); !reflect.DeepEqual(got, []string{"#usage"}) {
		t.Errorf("active links after click = %v", got)
	}
	if err := w.Click(ctx, "#nope"); !errors.Is(err, ErrNoLink) {
		t.Errorf("err = %v, want ErrNoLink", err)
	}
}

func TestPageWithoutToc(t *testing.T) {
	w := newTestWindow(t)
	ctx := t.Context()
	if err := w.Navigate(ctx, "plain.html"); err != nil {
		t.Fatal(err)
	}
	if err := w.Click(ctx, "#a"); !errors.Is(err, ErrNoLink) {
		t.Errorf("click err = %v", err)
	}
	if err := w.Highlight(ctx, "#a"); !errors.Is(err, ErrNoLink) {
		t.Errorf("highlight err = %v", err)
	}
}

func TestSetFragment(t *testing.T) {
	w := newTestWindow(t)
	for in, want := range map[string]string{"a": "#a", "#b": "#b", "#": "", "": ""} {
		if err := w.SetFragment(t.Context(), in); err != nil {
			t.Fatal(err)
		}
		if got := w.Fragment(); got != want {
			t.Errorf("SetFragment(%q): fragment = %q, want %q", in, got, want)
		}
	}
}

func TestDoRecoversPanics(t *testing.T) {
	w := newTestWindow(t)
	if err := w.Do(t.Context(), func(*dom.Document) { panic("boom") }); err == nil {
		t.Error("expected error from panicking task")
	}
	if err := w.Do(t.Context(), func(*dom.Document) {}); err != nil {
		t.Errorf("loop should survive a panic: %v", err)
	}
}

func TestClosedWindow(t *testing.T) {
	w := newTestWindow(t)
	w.Close()
	w.Close()
	if err := w.Do(t.Context(), func(*dom.Document) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestDoHonorsContext(t *testing.T) {
	w := newTestWindow(t)
	started, release := make(chan struct{}), make(chan struct{})
	go func() {
		_ = w.Do(context.Background(), func(*dom.Document) {
			close(started)
			<-release
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := w.Do(ctx, func(*dom.Document) {}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSplitRef(t *testing.T) {
	tests := []struct{ ref, page, frag string }{
		{"a.html#x", "a.html", "#x"},
		{"a.html", "a.html", ""},
		{"#x", "", "#x"},
		{"a.html#x#y", "a.html", "#x#y"},
	}
	for _, tt := range tests {
		page, frag := SplitRef(tt.ref)
		if page != tt.page || frag != tt.frag {
			t.Errorf("SplitRef(%q) = %q, %q", tt.ref, page, frag)
		}
	}
}

func TestNavigateWithLoaderFunc(t *testing.T) {
	errOffline := errors.New("offline")
	var asked []string
	loader := LoaderFunc(func(ctx context.Context, page string) (*dom.Document, error) {
		asked = append(asked, page)
		if page == "down.html" {
			return nil, errOffline
		}
		return dom.ParseString(testPage)
	})
	w := NewWindow(loader, toc.DefaultSchema(), zaptest.NewLogger(t))
	t.Cleanup(w.Close)
	ctx := t.Context()

	if err := w.Navigate(ctx, "down.html#intro"); !errors.Is(err, errOffline) {
		t.Fatalf("err = %v, want the loader error", err)
	}
	if err := w.Click(ctx, "#intro"); !errors.Is(err, ErrNoDocument) {
		t.Errorf("click after failed load: err = %v, want ErrNoDocument", err)
	}

	if err := w.Navigate(ctx, "up.html#intro"); err != nil {
		t.Fatal(err)
	}
	if w.Page() != "up.html" || w.Fragment() != "#intro" {
		t.Errorf("location = %q %q", w.Page(), w.Fragment())
	}
	if !reflect.DeepEqual(asked, []string{"down.html", "up.html"}) {
		t.Errorf("loader asked for %v", asked)
	}
}
