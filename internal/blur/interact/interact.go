// Package interact implements the obscured/revealed state machine attached
// to every obscured element.
//
// Each element starts Obscured. A single primary click copies the content
// and leaves the state alone, a double click reveals, and a secondary click
// re-obscures. Nothing is persisted: a re-render builds fresh elements.
package interact

import (
	"context"
	"sync"

	"github.com/dshills/blurmark/internal/logging"
)

// CopiedMessage is the notice shown after a successful clipboard write.
const CopiedMessage = "Text copied to clipboard"

// State is the visual state of an obscured element.
type State uint8

const (
	// Obscured hides the content behind the blur treatment.
	Obscured State = iota
	// Revealed shows the content plainly.
	Revealed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Obscured:
		return "obscured"
	case Revealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// Button identifies the pointer button of an activation.
type Button uint8

const (
	// ButtonNone is any button the machine ignores.
	ButtonNone Button = iota
	// ButtonPrimary is the primary (left) button.
	ButtonPrimary
	// ButtonSecondary is the secondary (context) button.
	ButtonSecondary
)

// Event is a pointer activation on an element.
type Event struct {
	Button Button

	// Clicks is the position of this activation within the platform's
	// multi-click window: 1 for a single click, 2 for the second click of a
	// double click, and so on.
	Clicks int
}

// Outcome describes what a dispatch did.
type Outcome struct {
	// State is the element state after the event.
	State State

	// Changed is true when the event moved the element to a new state.
	Changed bool

	// Copied is true when a clipboard write was started.
	Copied bool

	// PreventDefault asks the host to suppress its default action (the
	// context menu for secondary clicks).
	PreventDefault bool
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Notifier shows a transient, user-visible message.
type Notifier interface {
	Notify(message string)
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

// WriteText implements Clipboard.
func (f ClipboardFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) {
	f(message)
}

// Handler receives events for an element. Machine is the standard Handler.
type Handler interface {
	Dispatch(el *Element, ev Event) Outcome
}

// Element is a rendered obscured span.
type Element struct {
	id      string
	content string
	handler Handler

	mu    sync.Mutex
	state State
}

// NewElement creates an element in the Obscured state whose events are
// dispatched to h.
func NewElement(id, content string, h Handler) *Element {
	return &Element{
		id:      id,
		content: content,
		handler: h,
		state:   Obscured,
	}
}

// ID returns the element handle.
func (e *Element) ID() string { return e.id }

// Content returns the text the element reveals.
func (e *Element) Content() string { return e.content }

// State returns the current state.
func (e *Element) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Obscured reports whether the element is currently obscured.
func (e *Element) Obscured() bool {
	return e.State() == Obscured
}

// Handle dispatches ev to the element's handler. Elements without a handler
// ignore every event.
func (e *Element) Handle(ev Event) Outcome {
	if e.handler == nil {
		return Outcome{State: e.State()}
	}
	return e.handler.Dispatch(e, ev)
}

// transition sets the state and reports whether it changed.
func (e *Element) transition(to State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == to {
		return false
	}
	e.state = to
	return true
}

// Machine resolves pointer events into state transitions and clipboard
// writes.
type Machine struct {
	clipboard Clipboard
	notifier  Notifier
	logger    *logging.Logger

	ctx     context.Context
	pending sync.WaitGroup
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(l *logging.Logger) MachineOption {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithContext sets the context handed to clipboard writes.
func WithContext(ctx context.Context) MachineOption {
	return func(m *Machine) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// NewMachine creates a machine. A nil clipboard or notifier disables that
// side effect.
func NewMachine(cb Clipboard, n Notifier, opts ...MachineOption) *Machine {
	m := &Machine{
		clipboard: cb,
		notifier:  n,
		logger:    logging.Nop(),
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dispatch applies ev to el. The state change is decided synchronously from
// ev alone; the clipboard write runs in the background and only gates the
// confirmation notice.
func (m *Machine) Dispatch(el *Element, ev Event) Outcome {
	switch ev.Button {
	case ButtonPrimary:
		return m.primary(el, ev.Clicks)
	case ButtonSecondary:
		changed := el.transition(Obscured)
		if changed {
			m.logger.Debug("element %s re-obscured", el.id)
		}
		return Outcome{State: Obscured, Changed: changed, PreventDefault: true}
	default:
		return Outcome{State: el.State()}
	}
}

func (m *Machine) primary(el *Element, clicks int) Outcome {
	switch clicks {
	case 1:
		m.copy(el.content)
		return Outcome{State: el.State(), Copied: m.clipboard != nil}
	case 2:
		changed := el.transition(Revealed)
		if changed {
			m.logger.Debug("element %s revealed", el.id)
		}
		return Outcome{State: Revealed, Changed: changed}
	default:
		return Outcome{State: el.State()}
	}
}

func (m *Machine) copy(text string) {
	if m.clipboard == nil {
		return
	}
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		if err := m.clipboard.WriteText(m.ctx, text); err != nil {
			m.logger.Warn("clipboard write failed: %v", err)
			return
		}
		if m.notifier != nil {
			m.notifier.Notify(CopiedMessage)
		}
	}()
}

// Wait blocks until every clipboard write started so far has finished.
func (m *Machine) Wait() {
	m.pending.Wait()
}
