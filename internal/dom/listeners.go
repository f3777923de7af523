package dom

import (
	"slices"

	"golang.org/x/net/html"
)

// EventClick is the only event type the browser dispatches.
const EventClick = "click"

// Event is delivered to listeners.
type Event struct {
	Type   string
	Target *html.Node
}

// Listener handles an Event.
type Listener func(Event)

// Handle identifies one listener registration. The zero Handle is never issued.
type Handle uint64

type registration struct {
	node *html.Node
	typ  string
	fn   Listener
}

// Listeners is a registry of event listeners keyed by node. Registrations are
// removed by the Handle returned from Add, never by comparing functions.
type Listeners struct {
	next   Handle
	regs   map[Handle]registration
	byNode map[*html.Node][]Handle
}

// NewListeners returns an empty registry.
func NewListeners() *Listeners {
	return &Listeners{
		regs:   map[Handle]registration{},
		byNode: map[*html.Node][]Handle{},
	}
}

// Add registers fn for events of typ on node.
func (l *Listeners) Add(node *html.Node, typ string, fn Listener) Handle {
	l.next++
	h := l.next
	l.regs[h] = registration{node: node, typ: typ, fn: fn}
	l.byNode[node] = append(l.byNode[node], h)

	return h
}

// Remove unregisters h. It reports whether h was registered.
func (l *Listeners) Remove(h Handle) bool {
	reg, ok := l.regs[h]
	if !ok {
		return false
	}
	delete(l.regs, h)

	hs := slices.DeleteFunc(l.byNode[reg.node], func(x Handle) bool { return x == h })
	if len(hs) == 0 {
		delete(l.byNode, reg.node)
	} else {
		l.byNode[reg.node] = hs
	}

	return true
}

// Count returns the number of listeners for typ on node.
func (l *Listeners) Count(node *html.Node, typ string) int {
	n := 0
	for _, h := range l.byNode[node] {
		if l.regs[h].typ == typ {
			n++
		}
	}

	return n
}

// Len returns the total number of registrations.
func (l *Listeners) Len() int { return len(l.regs) }

// Dispatch delivers an event of typ to node's listeners in registration order
// and returns how many ran. Listeners added or removed during dispatch take
// effect for the next dispatch.
func (l *Listeners) Dispatch(node *html.Node, typ string) int {
	hs := slices.Clone(l.byNode[node])
	fired := 0
	for _, h := range hs {
		reg, ok := l.regs[h]
		if !ok || reg.typ != typ {
			continue
		}
		reg.fn(Event{Type: typ, Target: node})
		fired++
	}

	return fired
}
