package session

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"go.uber.org/zap/zaptest"

	"github.com/ziadkadry99/tocsync/internal/host"
	"github.com/ziadkadry99/tocsync/internal/toc"
)

// Install(#install) > Linux(#linux) > Debian(#debian), then Usage(#usage).
const guide = `<html><body>
<div class="md-sidebar md-sidebar--secondary"><nav class="md-nav md-nav--secondary">
<ul class="md-nav__list" data-md-component="toc">
<li class="md-nav__item"><a class="md-nav__link" href="#install">Install</a>
 <nav class="md-nav"><ul class="md-nav__list">
 <li class="md-nav__item"><a class="md-nav__link" href="#linux">Linux</a>
  <nav class="md-nav"><ul class="md-nav__list">
  <li class="md-nav__item"><a class="md-nav__link" href="#debian">Debian</a></li>
  </ul></nav></li>
 </ul></nav></li>
<li class="md-nav__item"><a class="md-nav__link" href="#usage">Usage</a></li>
</ul></nav></div></body></html>`

func newSession(t *testing.T) *Session {
	t.Helper()
	loader := host.DirLoader{FS: fstest.MapFS{
		"guide.html": {Data: []byte(guide)},
		"other.html": {Data: []byte(strings.ReplaceAll(guide, "#usage", "#faq"))},
		"plain.html": {Data: []byte(`<p>plain</p>`)},
	}}
	s, err := New(t.Context(), loader, toc.DefaultSchema(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func expanded(t *testing.T, s *Session) []string {
	t.Helper()
	st, err := s.State(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	return st.ExpandedTargets()
}

func TestNavigateRunsInitialSync(t *testing.T) {
	s := newSession(t)
	if err := s.Navigate(t.Context(), "guide.html#debian"); err != nil {
		t.Fatal(err)
	}

	st, err := s.State(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !st.Bound || st.Page != "guide.html" || st.Fragment != "#debian" {
		t.Errorf("state = %+v", st)
	}
	want := []toc.Item{
		{Target: "#install", Title: "Install", Depth: 1, Expanded: true, Parent: -1},
		{Target: "#linux", Title: "Linux", Depth: 2, Expanded: true, Parent: 0},
		{Target: "#debian", Title: "Debian", Depth: 3, Expanded: true, Active: true, Parent: 1},
		{Target: "#usage", Title: "Usage", Depth: 1, Parent: -1},
	}
	if !reflect.DeepEqual(st.Items, want) {
		t.Errorf("items = %+v\nwant %+v", st.Items, want)
	}
}

func TestHighlightDrivesExpansion(t *testing.T) {
	s := newSession(t)
	ctx := t.Context()
	if err := s.Navigate(ctx, "guide.html"); err != nil {
		t.Fatal(err)
	}
	if got := expanded(t, s); len(got) != 0 {
		t.Fatalf("nothing should be expanded, got %v", got)
	}

	if err := s.Highlight(ctx, "#linux"); err != nil {
		t.Fatal(err)
	}
	if got, want := expanded(t, s), []string{"#install", "#linux"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expanded = %v, want %v", got, want)
	}

	if err := s.Highlight(ctx, "#usage"); err != nil {
		t.Fatal(err)
	}
	if got, want := expanded(t, s), []string{"#usage"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expanded = %v, want %v", got, want)
	}
}

func TestFragmentAloneDoesNotResync(t *testing.T) {
	s := newSession(t)
	ctx := t.Context()
	if err := s.Navigate(ctx, "guide.html#usage"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFragment(ctx, "#debian"); err != nil {
		t.Fatal(err)
	}
	if got, want := expanded(t, s), []string{"#usage"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expanded = %v, want %v", got, want)
	}

	// The new fragment is picked up once a highlight appears and is cleared.
	if err := s.Highlight(ctx, "#usage"); err != nil {
		t.Fatal(err)
	}
	if err := s.Highlight(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if got, want := expanded(t, s), []string{"#install", "#linux", "#debian"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expanded = %v, want %v", got, want)
	}
}

func TestClickExpandsPath(t *testing.T) {
	s := newSession(t)
	ctx := t.Context()
	if err := s.Navigate(ctx, "guide.html#usage"); err != nil {
		t.Fatal(err)
	}
	if err := s.Click(ctx, "#linux"); err != nil {
		t.Fatal(err)
	}
	if got, want := expanded(t, s), []string{"#install", "#linux"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expanded = %v, want %v", got, want)
	}
	if s.Window().Fragment() != "#linux" {
		t.Errorf("fragment = %q", s.Window().Fragment())
	}
}

func TestClickMovesHighlight(t *testing.T) {
	s := newSession(t)
	ctx := t.Context()
	if err := s.Navigate(ctx, "guide.html"); err != nil {
		t.Fatal(err)
	}
	if err := s.Highlight(ctx, "#usage"); err != nil {
		t.Fatal(err)
	}
	if err := s.Click(ctx, "#linux"); err != nil {
		t.Fatal(err)
	}

	st, err := s.State(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := st.ExpandedTargets(), []string{"#install", "#linux"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expanded = %v, want %v", got, want)
	}
	active := st.Active()
	if active < 0 || st.Items[active].Target != "#linux" {
		t.Fatalf("active = %d, want the #linux item", active)
	}
	// The active item is the deepest expanded one.
	if last := st.ExpandedTargets(); last[len(last)-1] != st.Items[active].Target {
		t.Errorf("active %q is not the end of the expanded path %v", st.Items[active].Target, last)
	}
}

func TestNavigationRebinds(t *testing.T) {
	s := newSession(t)
	ctx := t.Context()
	if err := s.Navigate(ctx, "guide.html#usage"); err != nil {
		t.Fatal(err)
	}
	if err := s.Navigate(ctx, "other.html#faq"); err != nil {
		t.Fatal(err)
	}
	if got, want := expanded(t, s), []string{"#faq"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expanded = %v, want %v", got, want)
	}
	if err := s.Highlight(ctx, "#debian"); err != nil {
		t.Fatal(err)
	}
	if got, want := expanded(t, s), []string{"#install", "#linux", "#debian"}; !reflect.DeepEqual(got, want) {
		t.Errorf("new page not live: %v", got)
	}

	out, err := s.HTML(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, `data-toc-level=`) != 4 {
		t.Errorf("rendered page should carry four depth attributes:\n%s", out)
	}
}

func TestPageWithoutToc(t *testing.T) {
	s := newSession(t)
	if _, err := s.HTML(t.Context()); !errors.Is(err, host.ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
	if err := s.Navigate(t.Context(), "plain.html"); err != nil {
		t.Fatal(err)
	}
	st, err := s.State(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if st.Bound || len(st.Items) != 0 {
		t.Errorf("state = %+v, want unbound and empty", st)
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	a, b := newSession(t), newSession(t)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids %q and %q", a.ID, b.ID)
	}
}
