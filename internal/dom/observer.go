package dom

import "golang.org/x/net/html"

// Mutation describes one attribute change.
type Mutation struct {
	Target   *html.Node
	Attr     string
	OldValue string
	HadValue bool
}

// ObserveOptions selects which mutations an Observer receives.
type ObserveOptions struct {
	// Subtree extends observation from the target to all its descendants.
	Subtree bool
	// AttributeFilter limits records to the named attributes. Empty means all.
	AttributeFilter []string
}

// Observer receives batches of mutation records when the document is flushed.
type Observer struct {
	doc     *Document
	target  *html.Node
	opts    ObserveOptions
	fn      func([]Mutation)
	records []Mutation
	queued  bool
	active  bool
}

// Observe registers fn for attribute mutations on target. Records are
// delivered in batches by Flush, never synchronously from the write.
func (d *Document) Observe(target *html.Node, opts ObserveOptions, fn func([]Mutation)) *Observer {
	o := &Observer{doc: d, target: target, opts: opts, fn: fn, active: true}
	d.observers = append(d.observers, o)
	return o
}

// Disconnect stops delivery and drops pending records.
func (o *Observer) Disconnect() {
	if !o.active {
		return
	}
	o.active = false
	o.records = nil
	obs := o.doc.observers
	for i, other := range obs {
		if other == o {
			o.doc.observers = append(obs[:i], obs[i+1:]...)
			break
		}
	}
}

// Observers returns the number of connected observers.
func (d *Document) Observers() int {
	return len(d.observers)
}

func (o *Observer) wants(m Mutation) bool {
	if m.Target != o.target && !(o.opts.Subtree && Contains(o.target, m.Target)) {
		return false
	}
	if len(o.opts.AttributeFilter) == 0 {
		return true
	}
	for _, a := range o.opts.AttributeFilter {
		if a == m.Attr {
			return true
		}
	}
	return false
}

func (d *Document) record(m Mutation) {
	for _, o := range d.observers {
		if !o.wants(m) {
			continue
		}
		o.records = append(o.records, m)
		if !o.queued {
			o.queued = true
			d.queued = append(d.queued, o)
		}
	}
}

// Pending reports whether any observer has undelivered records.
func (d *Document) Pending() bool {
	return len(d.queued) > 0
}

// Flush delivers queued records to their observers, repeating until callbacks
// stop producing new records. It returns the number of batches delivered.
func (d *Document) Flush() int {
	delivered := 0
	for len(d.queued) > 0 {
		batch := d.queued
		d.queued = nil
		for _, o := range batch {
			o.queued = false
			records := o.records
			o.records = nil
			if !o.active || len(records) == 0 {
				continue
			}
			o.fn(records)
			delivered++
		}
	}
	return delivered
}
