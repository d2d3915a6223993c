package dom

import (
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const sample = `<html><body>
<div id="outer" class="box">
  <ul id="list"><li id="one" class="item"><a id="link" href="#one">One <b>bold</b></a></li></ul>
</div>
<p id="other">x</p>
</body></html>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func byID(t *testing.T, doc *Document, id string) *html.Node {
	t.Helper()
	n := Query(doc.Root, cascadia.MustCompile("#"+id))
	if n == nil {
		t.Fatalf("no element #%s", id)
	}
	return n
}

func TestAttributeHelpers(t *testing.T) {
	doc := mustParse(t, sample)
	outer := byID(t, doc, "outer")

	if !HasClass(outer, "box") {
		t.Error("expected class box")
	}
	doc.AddClass(outer, "open")
	if v, _ := Attr(outer, "class"); v != "box open" {
		t.Errorf("class = %q, want %q", v, "box open")
	}
	doc.RemoveClass(outer, "box")
	if v, _ := Attr(outer, "class"); v != "open" {
		t.Errorf("class = %q, want %q", v, "open")
	}
	doc.SetAttr(outer, "data-x", "1")
	if !HasAttr(outer, "data-x") {
		t.Error("expected data-x")
	}
	doc.RemoveAttr(outer, "data-x")
	if HasAttr(outer, "data-x") {
		t.Error("data-x should be removed")
	}
}

func TestObserverSubtreeAndFilter(t *testing.T) {
	doc := mustParse(t, sample)
	outer := byID(t, doc, "outer")
	link := byID(t, doc, "link")
	other := byID(t, doc, "other")

	var got []Mutation
	doc.Observe(outer, ObserveOptions{Subtree: true, AttributeFilter: []string{"class"}}, func(ms []Mutation) {
		got = append(got, ms...)
	})

	doc.AddClass(link, "active")
	doc.SetAttr(link, "data-ignored", "true")
	doc.AddClass(other, "active")

	if len(got) != 0 {
		t.Fatal("records must not be delivered before Flush")
	}
	if n := doc.Flush(); n != 1 {
		t.Errorf("Flush delivered %d batches, want 1", n)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Target != link || got[0].Attr != "class" || got[0].OldValue != "" {
		t.Errorf("unexpected record %+v", got[0])
	}
}

func TestObserverIgnoresNoopWrites(t *testing.T) {
	doc := mustParse(t, sample)
	outer := byID(t, doc, "outer")

	calls := 0
	doc.Observe(outer, ObserveOptions{}, func([]Mutation) { calls++ })
	doc.AddClass(outer, "box")
	doc.RemoveClass(outer, "missing")
	doc.Flush()
	if calls != 0 {
		t.Errorf("observer called %d times for no-op writes", calls)
	}
}

func TestFlushRepeatsUntilQuiet(t *testing.T) {
	doc := mustParse(t, sample)
	outer := byID(t, doc, "outer")
	link := byID(t, doc, "link")

	var order []string
	doc.Observe(outer, ObserveOptions{Subtree: true, AttributeFilter: []string{"class"}}, func(ms []Mutation) {
		order = append(order, ms[0].Target.Data)
		if ms[0].Target == link {
			doc.AddClass(outer, "touched")
		}
	})
	doc.AddClass(link, "active")

	if n := doc.Flush(); n != 2 {
		t.Errorf("Flush delivered %d batches, want 2", n)
	}
	if strings.Join(order, ",") != "a,div" {
		t.Errorf("delivery order = %v", order)
	}
	if doc.Pending() {
		t.Error("no records should remain")
	}
}

func TestObserverDisconnect(t *testing.T) {
	doc := mustParse(t, sample)
	outer := byID(t, doc, "outer")

	calls := 0
	o := doc.Observe(outer, ObserveOptions{}, func([]Mutation) { calls++ })
	doc.AddClass(outer, "a")
	o.Disconnect()
	o.Disconnect()
	doc.Flush()

	if calls != 0 {
		t.Errorf("disconnected observer called %d times", calls)
	}
	if doc.Observers() != 0 {
		t.Errorf("Observers() = %d, want 0", doc.Observers())
	}
}

func TestDispatchBubbles(t *testing.T) {
	doc := mustParse(t, sample)
	outer := byID(t, doc, "outer")
	link := byID(t, doc, "link")
	bold := Query(link, cascadia.MustCompile("b"))

	var seen []string
	remove := doc.AddEventListener(outer, "click", func(ev *Event) {
		if ev.Target != bold {
			t.Errorf("target = %v, want <b>", ev.Target.Data)
		}
		seen = append(seen, ev.Current.Data)
	})
	doc.AddEventListener(link, "click", func(ev *Event) {
		seen = append(seen, ev.Current.Data)
	})
	doc.AddEventListener(link, "focus", func(ev *Event) {
		t.Error("focus listener must not see click")
	})

	doc.Dispatch(bold, "click")
	if strings.Join(seen, ",") != "a,div" {
		t.Errorf("bubble order = %v", seen)
	}

	remove()
	if doc.Listeners(outer) != 0 {
		t.Errorf("Listeners(outer) = %d, want 0", doc.Listeners(outer))
	}
	seen = nil
	doc.Dispatch(bold, "click")
	if strings.Join(seen, ",") != "a" {
		t.Errorf("after removal got %v", seen)
	}
}

func TestStopPropagation(t *testing.T) {
	doc := mustParse(t, sample)
	outer := byID(t, doc, "outer")
	link := byID(t, doc, "link")

	doc.AddEventListener(link, "click", func(ev *Event) { ev.StopPropagation() })
	doc.AddEventListener(outer, "click", func(*Event) { t.Error("propagation was not stopped") })
	doc.Dispatch(link, "click")
}

func TestTreeHelpers(t *testing.T) {
	doc := mustParse(t, sample)
	outer := byID(t, doc, "outer")
	link := byID(t, doc, "link")
	other := byID(t, doc, "other")

	if got := Closest(link, cascadia.MustCompile("li.item")); got == nil || got.Data != "li" {
		t.Errorf("Closest(link, li.item) = %v", got)
	}
	if got := Closest(link, cascadia.MustCompile("a")); got != link {
		t.Error("Closest must include the node itself")
	}
	if Closest(link, cascadia.MustCompile("p")) != nil {
		t.Error("Closest(link, p) should be nil")
	}
	if !Contains(outer, link) || !Contains(outer, outer) || Contains(outer, other) {
		t.Error("Contains gave wrong answer")
	}
	if got := Text(link); got != "One bold" {
		t.Errorf("Text = %q", got)
	}
	if len(QueryAll(doc.Root, All{cascadia.MustCompile("a"), cascadia.MustCompile("[href='#one']")})) != 1 {
		t.Error("All matcher should find the link")
	}
	if (All{}).Match(link) {
		t.Error("empty All must not match")
	}
}
