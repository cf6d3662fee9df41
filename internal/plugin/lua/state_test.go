package lua

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/blurmark/internal/blur/marker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"
)

type fakeSettings struct {
	cfg marker.Config
	err error
}

func (f *fakeSettings) Config() marker.Config { return f.cfg.WithDefaults() }

func (f *fakeSettings) SetStart(v string) error {
	if f.err != nil {
		return f.err
	}
	f.cfg.Start = v
	return nil
}

func (f *fakeSettings) SetEnd(v string) error {
	if f.err != nil {
		return f.err
	}
	f.cfg.End = v
	return nil
}

type fakeRenderer struct{}

func (fakeRenderer) RenderHTML(src []byte) ([]byte, error) {
	return append([]byte("<p>"), append(src, "</p>"...)...), nil
}

func newTestState(t *testing.T, m *Module, opts ...StateOption) (*State, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := NewState(append([]StateOption{WithOutput(&out)}, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	if m != nil {
		m.Install(s)
	}
	return s, &out
}

func TestDoStringSetsGlobals(t *testing.T) {
	s, _ := newTestState(t, nil)
	require.NoError(t, s.DoString(context.Background(), `x = 1 + 1`))
	assert.Equal(t, glua.LNumber(2), s.GetGlobal("x"))
}

func TestPrintWritesToOutput(t *testing.T) {
	s, out := newTestState(t, nil)
	require.NoError(t, s.DoString(context.Background(), `print("a", 1, true)`))
	assert.Equal(t, "a\t1\ttrue\n", out.String())
}

func TestSandboxRemovesLoaders(t *testing.T) {
	s, _ := newTestState(t, nil)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "io", "os", "debug"} {
		assert.Equal(t, glua.LNil, s.GetGlobal(name), name)
	}
}

func TestRequireWhitelist(t *testing.T) {
	s, _ := newTestState(t, &Module{Settings: &fakeSettings{}})
	ctx := context.Background()

	require.NoError(t, s.DoString(ctx, `local s = require("string"); n = s.len("abc")`))
	assert.Equal(t, glua.LNumber(3), s.GetGlobal("n"))

	err := s.DoString(ctx, `require("io")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module "io" is not available`)
}

func TestExecutionTimeout(t *testing.T) {
	s, _ := newTestState(t, nil, WithExecutionTimeout(50*time.Millisecond))
	err := s.DoString(context.Background(), `while true do end`)
	assert.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestClosedState(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.DoString(context.Background(), `x = 1`), ErrStateClosed)
	assert.Equal(t, glua.LNil, s.GetGlobal("x"))
}

func TestBlurWrap(t *testing.T) {
	s, _ := newTestState(t, &Module{Settings: &fakeSettings{}})
	require.NoError(t, s.DoString(context.Background(), `
		local blur = require("ks.blur")
		text, back = blur.wrap("secret")
	`))
	assert.Equal(t, glua.LString("!spoiler:secret!"), s.GetGlobal("text"))
	assert.Equal(t, glua.LNumber(1), s.GetGlobal("back"))
}

func TestBlurScanAndSpans(t *testing.T) {
	s, out := newTestState(t, &Module{Settings: &fakeSettings{}})
	require.NoError(t, s.DoString(context.Background(), `
		local blur = require("ks.blur")
		for _, f in ipairs(blur.scan("a !spoiler:b! c")) do
			print(f.kind, f.value)
		end
		local sp = blur.spans("xx!spoiler:y!")[1]
		print(sp.start, sp.stop, sp.content)
		print(blur.has_marked("nothing here"))
	`))
	assert.Equal(t, "plain\ta \nmarked\tb\nplain\t c\n3\t13\ty\nfalse\n", out.String())
}

func TestBlurConfigAndSetters(t *testing.T) {
	fs := &fakeSettings{}
	s, out := newTestState(t, &Module{Settings: fs})
	require.NoError(t, s.DoString(context.Background(), `
		local ks = require("ks")
		ks.blur.set_start("||")
		ks.blur.set_end("||")
		local c = ks.blur.config()
		print(c.start, c["end"])
		print((ks.blur.wrap("x")))
	`))
	assert.Equal(t, "||\t||\n||x||\n", out.String())
	assert.Equal(t, marker.Config{Start: "||", End: "||"}, fs.cfg)
}

func TestBlurSetterErrorRaises(t *testing.T) {
	s, _ := newTestState(t, &Module{Settings: &fakeSettings{err: errors.New("disk full")}})
	err := s.DoString(context.Background(), `require("ks.blur").set_end("?")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBlurRender(t *testing.T) {
	s, out := newTestState(t, &Module{Settings: &fakeSettings{}, Renderer: fakeRenderer{}})
	require.NoError(t, s.DoString(context.Background(), `print(require("ks.blur").render("hi"))`))
	assert.Equal(t, "<p>hi</p>\n", out.String())

	s2, _ := newTestState(t, &Module{Settings: &fakeSettings{}})
	err := s2.DoString(context.Background(), `require("ks.blur").render("hi")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrNoRenderer.Error())
}
