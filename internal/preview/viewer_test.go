package preview

import (
	"context"
	"sync"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/blurmark/internal/blur/interact"
	"github.com/dshills/blurmark/internal/input/mouse"
	"github.com/dshills/blurmark/internal/render/htmldoc"
)

type memClipboard struct {
	mu    sync.Mutex
	texts []string
}

func (c *memClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func newTestViewer(t *testing.T) (*Viewer, tcell.SimulationScreen, *interact.Element, *interact.Machine, *memClipboard) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(30, 5)

	cb := &memClipboard{}
	machine := interact.NewMachine(cb, nil)
	reg := interact.NewRegistry(machine)
	el := reg.New("world")

	doc := parse(t, `<p>hello <span class="blur-plugin-text" data-blur-id="`+el.ID()+`">world</span></p>`)
	v := New(screen)
	v.Show(Build([]*htmldoc.Document{doc}, 30), reg)
	return v, screen, el, machine, cb
}

func TestViewerDrawsTextAndStatus(t *testing.T) {
	v, screen, _, _, _ := newTestViewer(t)
	v.Draw()

	mainc, _, _, _ := screen.GetContent(0, 0) //nolint:staticcheck // GetContent is the correct API
	assert.Equal(t, 'h', mainc)
	mainc, _, _, _ = screen.GetContent(6, 0) //nolint:staticcheck // GetContent is the correct API
	assert.Equal(t, 'w', mainc)
	mainc, _, _, _ = screen.GetContent(0, 4) //nolint:staticcheck // GetContent is the correct API
	assert.Equal(t, 'q', mainc)
}

func TestViewerClickOutsideSpan(t *testing.T) {
	v, _, el, _, _ := newTestViewer(t)
	_, hit := v.Click(0, 0, mouse.ButtonLeft, 2)
	assert.False(t, hit)
	assert.True(t, el.Obscured())
}

func TestViewerClickSequence(t *testing.T) {
	v, _, el, machine, cb := newTestViewer(t)

	out, hit := v.Click(7, 0, mouse.ButtonLeft, 1)
	require.True(t, hit)
	assert.True(t, out.Copied)
	assert.True(t, el.Obscured())

	out, _ = v.Click(7, 0, mouse.ButtonLeft, 2)
	assert.Equal(t, interact.Revealed, out.State)
	assert.False(t, el.Obscured())

	out, _ = v.Click(7, 0, mouse.ButtonRight, 1)
	assert.True(t, out.PreventDefault)
	assert.True(t, el.Obscured())

	machine.Wait()
	assert.Equal(t, []string{"world"}, cb.texts)
}

func TestViewerMouseEventsDoubleClick(t *testing.T) {
	v, _, el, machine, _ := newTestViewer(t)

	v.HandleEvent(tcell.NewEventMouse(8, 0, tcell.ButtonPrimary, tcell.ModNone))
	v.HandleEvent(tcell.NewEventMouse(8, 0, tcell.ButtonNone, tcell.ModNone))
	assert.True(t, el.Obscured())

	v.HandleEvent(tcell.NewEventMouse(8, 0, tcell.ButtonPrimary, tcell.ModNone))
	assert.False(t, el.Obscured())

	v.HandleEvent(tcell.NewEventMouse(8, 0, tcell.ButtonNone, tcell.ModNone))
	v.HandleEvent(tcell.NewEventMouse(8, 0, tcell.ButtonSecondary, tcell.ModNone))
	assert.True(t, el.Obscured())
	machine.Wait()
}

func TestViewerHeldButtonIsNotAPress(t *testing.T) {
	v, _, el, machine, cb := newTestViewer(t)

	v.HandleEvent(tcell.NewEventMouse(8, 0, tcell.ButtonPrimary, tcell.ModNone))
	v.HandleEvent(tcell.NewEventMouse(9, 0, tcell.ButtonPrimary, tcell.ModNone))
	machine.Wait()
	assert.True(t, el.Obscured())
	assert.Len(t, cb.texts, 1)
}

func TestViewerKeys(t *testing.T) {
	v, _, _, _, _ := newTestViewer(t)
	assert.False(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)))
	assert.True(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.True(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
}

func TestViewerNotify(t *testing.T) {
	v, _, _, _, _ := newTestViewer(t)
	assert.Equal(t, helpText, v.Status())
	v.Notify(interact.CopiedMessage)
	assert.Equal(t, interact.CopiedMessage, v.Status())
	require.NoError(t, v.WriteText(context.Background(), "x"))
}
