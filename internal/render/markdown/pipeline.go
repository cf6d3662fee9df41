// Package markdown renders Markdown notes to HTML one top-level block at a
// time and runs registered post-processors over each rendered block.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/blurmark/internal/logging"
	"github.com/dshills/blurmark/internal/render/htmldoc"
)

// ErrDuplicateProcessor is returned when a post-processor id is reused.
var ErrDuplicateProcessor = errors.New("post-processor already registered")

// BlockInfo describes the block handed to a post-processor.
type BlockInfo struct {
	// Index is the zero-based position of the block in the note.
	Index int

	// Kind is the goldmark node kind of the block, e.g. "Paragraph".
	Kind string
}

// PostProcessor mutates a rendered block in place.
type PostProcessor func(doc *htmldoc.Document, info BlockInfo) error

// Block is one rendered, post-processed top-level block.
type Block struct {
	Info BlockInfo
	Doc  *htmldoc.Document
}

type processor struct {
	id string
	fn PostProcessor
}

// Pipeline renders Markdown and applies post-processors in registration
// order.
type Pipeline struct {
	md      goldmark.Markdown
	factory htmldoc.Factory
	logger  *logging.Logger

	mu         sync.RWMutex
	processors []processor
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFactory sets the factory handed to every rendered block document.
func WithFactory(f htmldoc.Factory) Option {
	return func(p *Pipeline) {
		p.factory = f
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMarkdown replaces the goldmark instance.
func WithMarkdown(md goldmark.Markdown) Option {
	return func(p *Pipeline) {
		if md != nil {
			p.md = md
		}
	}
}

// New creates a pipeline with tables, strikethrough and task lists enabled.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.TaskList,
			),
		),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetFactory replaces the element factory used for subsequent renders.
func (p *Pipeline) SetFactory(f htmldoc.Factory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factory = f
}

// Register adds a post-processor under id.
func (p *Pipeline) Register(id string, fn PostProcessor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pr := range p.processors {
		if pr.id == id {
			return fmt.Errorf("%w: %s", ErrDuplicateProcessor, id)
		}
	}
	p.processors = append(p.processors, processor{id: id, fn: fn})
	return nil
}

// Unregister removes the post-processor under id and reports whether it
// existed.
func (p *Pipeline) Unregister(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, pr := range p.processors {
		if pr.id == id {
			p.processors = append(p.processors[:i], p.processors[i+1:]...)
			return true
		}
	}
	return false
}

// Processors returns registered ids in run order.
func (p *Pipeline) Processors() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, len(p.processors))
	for i, pr := range p.processors {
		ids[i] = pr.id
	}
	return ids
}

// Render parses src and returns every top-level block rendered and
// post-processed.
func (p *Pipeline) Render(src []byte) ([]Block, error) {
	p.mu.RLock()
	procs := append([]processor(nil), p.processors...)
	factory := p.factory
	p.mu.RUnlock()

	root := p.md.Parser().Parse(text.NewReader(src))

	var blocks []Block
	index := 0
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		var buf bytes.Buffer
		if err := p.md.Renderer().Render(&buf, src, n); err != nil {
			return nil, fmt.Errorf("render block %d: %w", index, err)
		}

		var opts []htmldoc.Option
		if factory != nil {
			opts = append(opts, htmldoc.WithFactory(factory))
		}
		doc, err := htmldoc.ParseFragment(&buf, opts...)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", index, err)
		}

		info := BlockInfo{Index: index, Kind: kindName(n)}
		for _, pr := range procs {
			if err := pr.fn(doc, info); err != nil {
				return nil, fmt.Errorf("post-processor %s on block %d: %w", pr.id, index, err)
			}
		}

		blocks = append(blocks, Block{Info: info, Doc: doc})
		index++
	}

	p.logger.Debug("rendered %d blocks through %d post-processors", len(blocks), len(procs))
	return blocks, nil
}

// RenderHTML renders src and joins the blocks into a single HTML string.
func (p *Pipeline) RenderHTML(src []byte) ([]byte, error) {
	blocks, err := p.Render(src)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, b := range blocks {
		if err := b.Doc.Render(&buf); err != nil {
			return nil, fmt.Errorf("write block %d: %w", b.Info.Index, err)
		}
	}
	return buf.Bytes(), nil
}

func kindName(n ast.Node) string {
	return n.Kind().String()
}
