package preview

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blurmark/internal/blur/style"
	"github.com/dshills/blurmark/internal/render/htmldoc"
	"github.com/dshills/blurmark/internal/render/markdown"
)

// Run is a stretch of text drawn with one style. Runs with a Handle belong
// to an obscured element.
type Run struct {
	Text   string
	Handle string
	Width  int
}

// Line is one screen row of runs.
type Line []Run

// Width returns the display width of the line in cells.
func (l Line) Width() int {
	w := 0
	for _, r := range l {
		w += r.Width
	}
	return w
}

// Layout is rendered HTML flowed into screen lines.
type Layout struct {
	Lines []Line
}

// HandleAt returns the element handle drawn at column x of line y, or "".
func (l *Layout) HandleAt(x, y int) string {
	if l == nil || y < 0 || y >= len(l.Lines) || x < 0 {
		return ""
	}
	col := 0
	for _, r := range l.Lines[y] {
		if x < col+r.Width {
			return r.Handle
		}
		col += r.Width
	}
	return ""
}

// Build flows docs into lines no wider than width cells. A width of zero or
// less disables wrapping. Documents are separated by a blank line.
func Build(docs []*htmldoc.Document, width int) *Layout {
	b := &builder{width: width}
	for i, d := range docs {
		if i > 0 {
			b.blank()
		}
		b.walk(d.Root(), false)
		b.breakLine()
	}
	return &Layout{Lines: b.lines}
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Pre: true, atom.Blockquote: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Table: true, atom.Tr: true, atom.Hr: true,
}

type builder struct {
	width int
	lines []Line
	cur   Line
	col   int
}

func (b *builder) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if !pre {
			text = collapseSpace(text)
			if b.col == 0 {
				text = strings.TrimLeft(text, " ")
			}
		}
		b.add(text, "")
		return
	case html.ElementNode:
		switch {
		case n.DataAtom == atom.Script || n.DataAtom == atom.Style:
			return
		case n.DataAtom == atom.Br:
			b.newline()
			return
		case n.DataAtom == atom.Hr:
			b.breakLine()
			b.add(strings.Repeat("-", max(b.width, 3)), "")
			b.breakLine()
			return
		case htmldoc.IsObscured(n):
			b.add(textOf(n), handleOf(n))
			return
		}
	}

	block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
	if block {
		b.breakLine()
		if n.DataAtom == atom.Li {
			b.add("• ", "")
		}
	}
	inPre := pre || n.DataAtom == atom.Pre
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c, inPre)
	}
	if block {
		b.breakLine()
	}
}

// add appends text, wrapping at grapheme boundaries and honoring newlines.
func (b *builder) add(text, handle string) {
	var seg strings.Builder
	segWidth := 0
	flush := func() {
		if seg.Len() > 0 {
			b.cur = append(b.cur, Run{Text: seg.String(), Handle: handle, Width: segWidth})
		}
		seg.Reset()
		segWidth = 0
	}

	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		if cluster == "\n" || cluster == "\r\n" {
			flush()
			b.newline()
			continue
		}
		w := g.Width()
		if b.width > 0 && b.col > 0 && b.col+w > b.width {
			flush()
			b.newline()
		}
		seg.WriteString(cluster)
		segWidth += w
		b.col += w
	}
	flush()
}

// breakLine ends the current line if it has content.
func (b *builder) breakLine() {
	if len(b.cur) > 0 {
		b.newline()
	}
}

// blank ensures the last emitted line is empty.
func (b *builder) blank() {
	b.breakLine()
	if n := len(b.lines); n > 0 && len(b.lines[n-1]) > 0 {
		b.lines = append(b.lines, nil)
	}
}

func (b *builder) newline() {
	b.lines = append(b.lines, b.cur)
	b.cur = nil
	b.col = 0
}

func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	fields := strings.Fields(s)
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if len(fields) > 0 && isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func handleOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == style.HandleAttr {
			return a.Val
		}
	}
	return ""
}

// Documents returns the documents of rendered blocks in order.
func Documents(blocks []markdown.Block) []*htmldoc.Document {
	docs := make([]*htmldoc.Document, len(blocks))
	for i, b := range blocks {
		docs[i] = b.Doc
	}
	return docs
}
