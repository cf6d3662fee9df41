package interact

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownElement is returned when a handle does not name a live element.
var ErrUnknownElement = errors.New("unknown element")

// Registry hands out element handles and routes events to them by handle.
type Registry struct {
	mu       sync.RWMutex
	handler  Handler
	elements map[string]*Element
	order    []string
}

// NewRegistry creates a registry whose elements dispatch to h.
func NewRegistry(h Handler) *Registry {
	return &Registry{
		handler:  h,
		elements: make(map[string]*Element),
	}
}

// New creates and registers an Obscured element for content.
func (r *Registry) New(content string) *Element {
	el := NewElement(uuid.NewString(), content, r.handler)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.elements[el.id] = el
	r.order = append(r.order, el.id)
	return el
}

// Get returns the element registered under id.
func (r *Registry) Get(id string) (*Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	el, ok := r.elements[id]
	return el, ok
}

// Dispatch routes ev to the element registered under id.
func (r *Registry) Dispatch(id string, ev Event) (Outcome, error) {
	el, ok := r.Get(id)
	if !ok {
		return Outcome{}, ErrUnknownElement
	}
	return el.Handle(ev), nil
}

// Elements returns live elements in creation order.
func (r *Registry) Elements() []*Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Element, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.elements[id])
	}
	return out
}

// Len returns the number of live elements.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.elements)
}

// Reset forgets every element. Called when the tree holding them is
// re-rendered.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elements = make(map[string]*Element)
	r.order = nil
}
