package lua

import (
	"github.com/dshills/blurmark/internal/blur/marker"
	"github.com/dshills/blurmark/internal/blur/scan"
	"github.com/dshills/blurmark/internal/blur/wrap"
	lua "github.com/yuin/gopher-lua"
)

// Settings is the marker configuration a script reads and updates.
// *settings.Store implements Settings.
type Settings interface {
	Config() marker.Config
	SetStart(v string) error
	SetEnd(v string) error
}

// Renderer turns markdown into HTML with marked spans obscured.
type Renderer interface {
	RenderHTML(src []byte) ([]byte, error)
}

// Module exposes the blur extension to scripts as ks.blur.
type Module struct {
	Settings Settings
	Renderer Renderer
}

// Install preloads ks and ks.blur into s.
func (m *Module) Install(s *State) {
	s.Preload("ks.blur", m.loader)
	s.Preload("ks", func(L *lua.LState) int {
		ks := L.NewTable()
		L.SetField(ks, "version", lua.LString("1"))
		m.loader(L)
		L.SetField(ks, "blur", L.Get(-1))
		L.Pop(1)
		L.Push(ks)
		return 1
	})
}

func (m *Module) loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"wrap":       m.wrap,
		"scan":       m.scan,
		"spans":      m.spans,
		"has_marked": m.hasMarked,
		"config":     m.config,
		"set_start":  m.setStart,
		"set_end":    m.setEnd,
		"render":     m.render,
	})
	L.Push(mod)
	return 1
}

// wrap(text) -> wrapped, caret_offset_from_end
func (m *Module) wrap(L *lua.LState) int {
	res := wrap.Wrap(L.CheckString(1), m.Settings.Config())
	L.Push(lua.LString(res.Text))
	L.Push(lua.LNumber(res.CaretOffsetFromEnd))
	return 2
}

// scan(text) -> { {kind=, value=, raw=}, ... }
func (m *Module) scan(L *lua.LState) int {
	out := L.NewTable()
	for f := range scan.All(L.CheckString(1), m.Settings.Config()) {
		t := L.NewTable()
		L.SetField(t, "kind", lua.LString(f.Kind.String()))
		L.SetField(t, "value", lua.LString(f.Value))
		L.SetField(t, "raw", lua.LString(f.Raw))
		out.Append(t)
	}
	L.Push(out)
	return 1
}

// spans(text) -> { {start=, stop=, content=}, ... } with 1-based offsets
func (m *Module) spans(L *lua.LState) int {
	out := L.NewTable()
	for _, sp := range scan.Spans(L.CheckString(1), m.Settings.Config()) {
		t := L.NewTable()
		L.SetField(t, "start", lua.LNumber(sp.Start+1))
		L.SetField(t, "stop", lua.LNumber(sp.End))
		L.SetField(t, "content", lua.LString(sp.Content))
		out.Append(t)
	}
	L.Push(out)
	return 1
}

func (m *Module) hasMarked(L *lua.LState) int {
	L.Push(lua.LBool(scan.HasMarked(L.CheckString(1), m.Settings.Config())))
	return 1
}

func (m *Module) config(L *lua.LState) int {
	cfg := m.Settings.Config()
	t := L.NewTable()
	L.SetField(t, "start", lua.LString(cfg.Start))
	L.SetField(t, "end", lua.LString(cfg.End))
	L.Push(t)
	return 1
}

func (m *Module) setStart(L *lua.LState) int {
	if err := m.Settings.SetStart(L.CheckString(1)); err != nil {
		L.RaiseError("set_start: %v", err)
	}
	return 0
}

func (m *Module) setEnd(L *lua.LState) int {
	if err := m.Settings.SetEnd(L.CheckString(1)); err != nil {
		L.RaiseError("set_end: %v", err)
	}
	return 0
}

func (m *Module) render(L *lua.LState) int {
	src := L.CheckString(1)
	if m.Renderer == nil {
		L.RaiseError("render: %v", ErrNoRenderer)
		return 0
	}
	html, err := m.Renderer.RenderHTML([]byte(src))
	if err != nil {
		L.RaiseError("render: %v", err)
		return 0
	}
	L.Push(lua.LString(html))
	return 1
}
