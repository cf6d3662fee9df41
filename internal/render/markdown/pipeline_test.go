package markdown

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/blurmark/internal/blur/interact"
	"github.com/dshills/blurmark/internal/blur/marker"
	"github.com/dshills/blurmark/internal/blur/tree"
	"github.com/dshills/blurmark/internal/render/htmldoc"
)

type seqFactory struct{ n int }

func (f *seqFactory) New(content string) *interact.Element {
	f.n++
	return interact.NewElement(fmt.Sprintf("e%d", f.n), content, nil)
}

func blurProcessor(cfg marker.Config) PostProcessor {
	rw := tree.NewStatic(cfg)
	return func(doc *htmldoc.Document, _ BlockInfo) error {
		rw.Rewrite(doc)
		return nil
	}
}

func TestRenderHTMLRunsPostProcessors(t *testing.T) {
	p := New(WithFactory(&seqFactory{}))
	require.NoError(t, p.Register("blur", blurProcessor(marker.Default())))

	src := "Hello !spoiler:world!\n\n- item !spoiler:two!\n- plain\n"
	out, err := p.RenderHTML([]byte(src))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<p>Hello <span class="blur-plugin-text" data-blur-id="e1">world</span></p>`)
	assert.Contains(t, html, `<li>item <span class="blur-plugin-text" data-blur-id="e2">two</span></li>`)
	assert.Contains(t, html, `<li>plain</li>`)
}

func TestRenderBlocks(t *testing.T) {
	p := New()
	var seen []BlockInfo
	require.NoError(t, p.Register("record", func(_ *htmldoc.Document, info BlockInfo) error {
		seen = append(seen, info)
		return nil
	}))

	blocks, err := p.Render([]byte("# Title\n\npara\n\n```\ncode\n```\n"))
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, []BlockInfo{
		{Index: 0, Kind: "Heading"},
		{Index: 1, Kind: "Paragraph"},
		{Index: 2, Kind: "FencedCodeBlock"},
	}, seen)
	assert.Contains(t, blocks[0].Doc.String(), "<h1>Title</h1>")
}

func TestMarkersInCodeAreStillText(t *testing.T) {
	p := New(WithFactory(&seqFactory{}))
	require.NoError(t, p.Register("blur", blurProcessor(marker.Default())))

	out, err := p.RenderHTML([]byte("`!spoiler:inline!`\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `<code><span class="blur-plugin-text" data-blur-id="e1">inline</span></code>`)
}

func TestRegisterOrderAndUnregister(t *testing.T) {
	p := New()
	var order []string
	mk := func(id string) PostProcessor {
		return func(*htmldoc.Document, BlockInfo) error {
			order = append(order, id)
			return nil
		}
	}
	require.NoError(t, p.Register("a", mk("a")))
	require.NoError(t, p.Register("b", mk("b")))
	assert.ErrorIs(t, p.Register("a", mk("a")), ErrDuplicateProcessor)
	assert.Equal(t, []string{"a", "b"}, p.Processors())

	_, err := p.Render([]byte("x\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)

	assert.True(t, p.Unregister("a"))
	assert.False(t, p.Unregister("a"))
	assert.Equal(t, []string{"b"}, p.Processors())
}

func TestPostProcessorError(t *testing.T) {
	p := New()
	boom := errors.New("boom")
	require.NoError(t, p.Register("bad", func(*htmldoc.Document, BlockInfo) error { return boom }))

	_, err := p.Render([]byte("x\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.Contains(err.Error(), "post-processor bad on block 0"))
}

func TestEmptyNote(t *testing.T) {
	p := New()
	out, err := p.RenderHTML(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
