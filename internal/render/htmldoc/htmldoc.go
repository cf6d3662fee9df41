// Package htmldoc adapts golang.org/x/net/html trees to the tree rewriter.
package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blurmark/internal/blur/interact"
	"github.com/dshills/blurmark/internal/blur/style"
	"github.com/dshills/blurmark/internal/blur/tree"
)

// Factory creates the interactive element backing an obscured span.
// *interact.Registry implements Factory.
type Factory interface {
	New(content string) *interact.Element
}

// Document is a parsed HTML tree whose text leaves can be rewritten.
type Document struct {
	root    *html.Node
	factory Factory
}

// Option configures a Document.
type Option func(*Document)

// WithFactory wires obscured spans created by a rewrite to f.
func WithFactory(f Factory) Option {
	return func(d *Document) {
		d.factory = f
	}
}

// New wraps an existing node tree.
func New(root *html.Node, opts ...Option) *Document {
	d := &Document{root: root}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse reads a complete HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return New(root, opts...), nil
}

// ParseFragment reads an HTML fragment as if it were the body of a <div>.
func ParseFragment(r io.Reader, opts ...Option) (*Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return New(root, opts...), nil
}

// Root returns the underlying tree.
func (d *Document) Root() *html.Node {
	return d.root
}

// Leaves implements tree.Tree. Text inside raw-text elements and inside
// existing obscured spans is skipped.
func (d *Document) Leaves() []tree.Leaf {
	var out []tree.Leaf
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				out = append(out, &leaf{doc: d, node: c})
			case html.ElementNode:
				if c.DataAtom == atom.Script || c.DataAtom == atom.Style || IsObscured(c) {
					continue
				}
				walk(c)
			case html.DocumentNode:
				walk(c)
			}
		}
	}
	if d.root != nil {
		walk(d.root)
	}
	return out
}

// Span is an obscured element found in the document.
type Span struct {
	Handle  string
	Content string
	Node    *html.Node
}

// Spans returns every obscured element in document order.
func (d *Document) Spans() []Span {
	var out []Span
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode && c.Type != html.DocumentNode {
				continue
			}
			if IsObscured(c) {
				out = append(out, Span{Handle: attr(c, style.HandleAttr), Content: textContent(c), Node: c})
				continue
			}
			walk(c)
		}
	}
	if d.root != nil {
		walk(d.root)
	}
	return out
}

// ApplyStates sets or clears the obscured class on every span according to
// the state of its element in reg. Spans unknown to reg are left alone.
func (d *Document) ApplyStates(reg *interact.Registry) {
	for _, sp := range d.Spans() {
		el, ok := reg.Get(sp.Handle)
		if !ok {
			continue
		}
		setClass(sp.Node, style.ObscuredClass, el.Obscured())
	}
}

// Render writes the tree as HTML.
func (d *Document) Render(w io.Writer) error {
	if d.root == nil {
		return nil
	}
	if d.root.Type == html.DocumentNode {
		for c := d.root.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(w, c); err != nil {
				return err
			}
		}
		return nil
	}
	return html.Render(w, d.root)
}

// String renders the tree, returning an empty string on error.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// IsObscured reports whether n is an obscured span, revealed or not.
func IsObscured(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if hasAttr(n, style.HandleAttr) {
		return true
	}
	return slices.Contains(strings.Fields(attr(n, "class")), style.ObscuredClass)
}

// newSpan builds the element for an obscured part.
func (d *Document) newSpan(content string) *html.Node {
	var handle string
	if d.factory != nil {
		handle = d.factory.New(content).ID()
	} else {
		handle = uuid.NewString()
	}

	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: style.ObscuredClass},
			{Key: style.HandleAttr, Val: handle},
		},
	}
	if content != "" {
		span.AppendChild(&html.Node{Type: html.TextNode, Data: content})
	}
	return span
}

type leaf struct {
	doc  *Document
	node *html.Node
}

func (l *leaf) Text() string {
	return l.node.Data
}

func (l *leaf) Replace(parts []tree.Part) {
	parent := l.node.Parent
	if parent == nil {
		return
	}
	for _, p := range parts {
		var n *html.Node
		if p.Marked {
			n = l.doc.newSpan(p.Text)
		} else {
			n = &html.Node{Type: html.TextNode, Data: p.Text}
		}
		parent.InsertBefore(n, l.node)
	}
	parent.RemoveChild(l.node)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

func setClass(n *html.Node, class string, on bool) {
	for i, a := range n.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		fields := slices.DeleteFunc(strings.Fields(a.Val), func(f string) bool { return f == class })
		if on {
			fields = append(fields, class)
		}
		n.Attr[i].Val = strings.Join(fields, " ")
		return
	}
	if on {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
}

func textContent(n *html.Node) string {
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
