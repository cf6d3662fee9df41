// Package preview shows a rendered note in the terminal with marked spans
// obscured, and routes mouse clicks on them through the interaction
// registry.
package preview

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/dshills/blurmark/internal/blur/interact"
	"github.com/dshills/blurmark/internal/blur/style"
	"github.com/dshills/blurmark/internal/input/mouse"
	"github.com/dshills/blurmark/internal/logging"
)

const helpText = "q quit | click copy | double-click reveal | right-click hide"

// Default colors used to derive the obscured text color.
var (
	DefaultForeground = colorful.Color{R: 0.85, G: 0.85, B: 0.85}
	DefaultBackground = colorful.Color{R: 0.1, G: 0.1, B: 0.12}
)

// Viewer draws a Layout on a tcell screen. It also serves as the clipboard
// and notifier for the interaction machine, so it can be created before the
// registry it displays.
type Viewer struct {
	screen  tcell.Screen
	tracker *mouse.Tracker
	logger  *logging.Logger

	base     tcell.Style
	masked   tcell.Style
	revealed tcell.Style

	mu       sync.Mutex
	layout   *Layout
	registry *interact.Registry
	top      int
	status   string
	buttons  tcell.ButtonMask
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(v *Viewer) {
		if l != nil {
			v.logger = l.WithComponent("preview")
		}
	}
}

// WithColors sets the foreground and background the obscured color is
// blended from.
func WithColors(fg, bg colorful.Color) Option {
	return func(v *Viewer) {
		v.setColors(fg, bg)
	}
}

// WithTracker replaces the multi-click tracker.
func WithTracker(t *mouse.Tracker) Option {
	return func(v *Viewer) {
		v.tracker = t
	}
}

// New creates a viewer on an initialized screen.
func New(screen tcell.Screen, opts ...Option) *Viewer {
	v := &Viewer{
		screen:  screen,
		tracker: mouse.NewTracker(mouse.DefaultDoubleClickTime, mouse.DefaultDoubleClickDistance),
		logger:  logging.Nop(),
		status:  helpText,
	}
	v.setColors(DefaultForeground, DefaultBackground)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Viewer) setColors(fg, bg colorful.Color) {
	v.base = tcell.StyleDefault.Foreground(tcellColor(fg)).Background(tcellColor(bg))
	v.masked = v.base.Foreground(tcellColor(style.MaskColor(fg, bg)))
	v.revealed = v.base.Underline(true)
}

func tcellColor(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Show replaces the displayed layout and the registry its handles refer to.
func (v *Viewer) Show(layout *Layout, reg *interact.Registry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.layout = layout
	v.registry = reg
	v.top = 0
}

// WriteText implements interact.Clipboard using the terminal clipboard.
func (v *Viewer) WriteText(_ context.Context, text string) error {
	v.screen.SetClipboard([]byte(text))
	return nil
}

// Notify implements interact.Notifier by showing msg on the status line.
func (v *Viewer) Notify(msg string) {
	v.mu.Lock()
	v.status = msg
	v.mu.Unlock()
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Status returns the status line text.
func (v *Viewer) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Draw paints the visible part of the layout and the status line.
func (v *Viewer) Draw() {
	v.mu.Lock()
	defer v.mu.Unlock()

	width, height := v.screen.Size()
	v.screen.SetStyle(v.base)
	v.screen.Clear()

	rows := max(height-1, 0)
	if v.layout != nil {
		for y := 0; y < rows && v.top+y < len(v.layout.Lines); y++ {
			x := 0
			for _, r := range v.layout.Lines[v.top+y] {
				x = v.drawText(x, y, width, r.Text, v.runStyle(r))
			}
		}
	}
	if height > 0 {
		v.drawText(0, height-1, width, v.status, v.base.Reverse(true))
	}
	v.screen.Show()
}

func (v *Viewer) runStyle(r Run) tcell.Style {
	if r.Handle == "" || v.registry == nil {
		return v.base
	}
	el, ok := v.registry.Get(r.Handle)
	if !ok || el.Obscured() {
		return v.masked
	}
	return v.revealed
}

func (v *Viewer) drawText(x, y, width int, text string, st tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() && x < width {
		runes := g.Runes()
		v.screen.SetContent(x, y, runes[0], runes[1:], st)
		x += max(g.Width(), 1)
	}
	return x
}

// HandleEvent processes one event and reports whether the viewer should
// quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(e)
	case *tcell.EventMouse:
		v.handleMouse(e)
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return false
}

func (v *Viewer) handleKey(e *tcell.EventKey) bool {
	switch e.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		switch e.Rune() {
		case 'q':
			return true
		case 'j':
			v.scroll(1)
		case 'k':
			v.scroll(-1)
		}
	case tcell.KeyDown:
		v.scroll(1)
	case tcell.KeyUp:
		v.scroll(-1)
	case tcell.KeyPgDn:
		_, h := v.screen.Size()
		v.scroll(max(h-2, 1))
	case tcell.KeyPgUp:
		_, h := v.screen.Size()
		v.scroll(-max(h-2, 1))
	}
	return false
}

func (v *Viewer) scroll(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.layout == nil {
		return
	}
	v.top = min(max(v.top+delta, 0), max(len(v.layout.Lines)-1, 0))
}

// handleMouse turns button presses into interaction events. tcell reports
// the held button mask on every motion, so a press is a newly set bit.
func (v *Viewer) handleMouse(e *tcell.EventMouse) {
	btns := e.Buttons()
	switch {
	case btns&tcell.WheelDown != 0:
		v.scroll(1)
		return
	case btns&tcell.WheelUp != 0:
		v.scroll(-1)
		return
	}

	v.mu.Lock()
	pressed := btns &^ v.buttons
	v.buttons = btns
	v.mu.Unlock()

	var button mouse.Button
	switch {
	case pressed&tcell.ButtonPrimary != 0:
		button = mouse.ButtonLeft
	case pressed&tcell.ButtonSecondary != 0:
		button = mouse.ButtonRight
	default:
		return
	}

	x, y := e.Position()
	clicks := v.tracker.Record(mouse.Press{
		Position:  mouse.Position{X: x, Y: y},
		Button:    button,
		Timestamp: e.When(),
	})
	v.Click(x, y, button, clicks)
}

// Click dispatches a press at screen cell (x, y) to the element drawn there.
func (v *Viewer) Click(x, y int, button mouse.Button, clicks int) (interact.Outcome, bool) {
	v.mu.Lock()
	handle := v.layout.HandleAt(x, v.top+y)
	reg := v.registry
	v.mu.Unlock()

	if handle == "" || reg == nil {
		return interact.Outcome{}, false
	}

	ev := interact.Event{Clicks: clicks}
	switch button {
	case mouse.ButtonLeft:
		ev.Button = interact.ButtonPrimary
	case mouse.ButtonRight:
		ev.Button = interact.ButtonSecondary
	}

	out, err := reg.Dispatch(handle, ev)
	if err != nil {
		v.logger.Warn("dispatch to %s: %v", handle, err)
		return interact.Outcome{}, false
	}
	v.logger.Debug("element %s: clicks=%d state=%s", handle, clicks, out.State)
	return out, true
}

// Run draws and processes events until the user quits or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	v.Draw()
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if v.HandleEvent(ev) {
			return nil
		}
		v.Draw()
	}
}
