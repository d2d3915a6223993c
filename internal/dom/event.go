package dom

import "golang.org/x/net/html"

// Event is a dispatched DOM event.
type Event struct {
	Type   string
	Target *html.Node
	// Current is the node whose listener is running.
	Current *html.Node

	stopped bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

type listener struct {
	typ string
	fn  func(*Event)
}

// AddEventListener registers fn for events of type typ reaching n, either as
// target or by bubbling. The returned func removes the listener.
func (d *Document) AddEventListener(n *html.Node, typ string, fn func(*Event)) (remove func()) {
	l := &listener{typ: typ, fn: fn}
	d.listeners[n] = append(d.listeners[n], l)
	return func() {
		ls := d.listeners[n]
		for i, other := range ls {
			if other == l {
				ls = append(ls[:i], ls[i+1:]...)
				break
			}
		}
		if len(ls) == 0 {
			delete(d.listeners, n)
		} else {
			d.listeners[n] = ls
		}
	}
}

// Listeners returns how many listeners are registered on n.
func (d *Document) Listeners(n *html.Node) int {
	return len(d.listeners[n])
}

// Dispatch fires an event of type typ at target and bubbles it to the root.
func (d *Document) Dispatch(target *html.Node, typ string) *Event {
	ev := &Event{Type: typ, Target: target}
	for n := target; n != nil && !ev.stopped; n = n.Parent {
		ls := d.listeners[n]
		if len(ls) == 0 {
			continue
		}
		ev.Current = n
		snapshot := append([]*listener(nil), ls...)
		for _, l := range snapshot {
			if l.typ == typ {
				l.fn(ev)
			}
		}
	}
	return ev
}
