// Package tree rewrites the text leaves of a rendered content tree,
// replacing marker-delimited spans with obscured elements.
//
// The rewriter works against the Tree and Leaf interfaces so it can run over
// any document representation. Adapters decide how text and obscured parts
// become concrete nodes.
package tree

import (
	"github.com/dshills/blurmark/internal/blur/marker"
	"github.com/dshills/blurmark/internal/blur/scan"
	"github.com/dshills/blurmark/internal/logging"
)

// Part is one replacement node for a rewritten leaf.
type Part struct {
	// Marked is true for an obscured element and false for plain text.
	Marked bool

	// Text is the plain text, or the content the obscured element reveals.
	Text string
}

// Leaf is a text-bearing node at a fixed position among its siblings.
type Leaf interface {
	// Text returns the leaf's text value.
	Text() string

	// Replace substitutes the leaf, in its current position, with parts in
	// order. Replace is called at most once per leaf.
	Replace(parts []Part)
}

// Tree exposes the text leaves of a content tree in document order.
// Obscured elements produced by a previous rewrite must not be reported as
// leaves.
type Tree interface {
	Leaves() []Leaf
}

// Stats summarizes a single rewrite pass.
type Stats struct {
	// Leaves is the number of text leaves visited.
	Leaves int
	// Replaced is the number of leaves that were replaced.
	Replaced int
	// Spans is the number of obscured elements created.
	Spans int
}

// Rewriter applies the span scanner to every leaf of a tree.
type Rewriter struct {
	config func() marker.Config
	logger *logging.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithLogger sets the logger used for per-pass debug output.
func WithLogger(l *logging.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a rewriter. config is called once per Rewrite so the rewriter
// always sees the current marker settings.
func New(config func() marker.Config, opts ...Option) *Rewriter {
	r := &Rewriter{
		config: config,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewStatic creates a rewriter bound to a fixed marker pair.
func NewStatic(cfg marker.Config, opts ...Option) *Rewriter {
	return New(func() marker.Config { return cfg }, opts...)
}

// Rewrite replaces every leaf of t that contains at least one marked span.
// Leaves are collected before any replacement happens, so adapters never see
// mutation during traversal.
func (r *Rewriter) Rewrite(t Tree) Stats {
	var stats Stats
	if t == nil {
		return stats
	}

	cfg := r.config().WithDefaults()
	leaves := t.Leaves()
	stats.Leaves = len(leaves)

	type pending struct {
		leaf  Leaf
		parts []Part
	}
	var todo []pending

	for _, leaf := range leaves {
		parts, n := Split(leaf.Text(), cfg)
		if n == 0 {
			continue
		}
		todo = append(todo, pending{leaf: leaf, parts: parts})
		stats.Spans += n
	}

	for _, p := range todo {
		p.leaf.Replace(p.parts)
	}
	stats.Replaced = len(todo)

	if stats.Replaced > 0 {
		r.logger.Debug("rewrote %d of %d text leaves (%d spans)", stats.Replaced, stats.Leaves, stats.Spans)
	}
	return stats
}

// Split converts text into replacement parts and reports how many of them
// are obscured. Zero-length plain text never produces a part.
func Split(text string, cfg marker.Config) ([]Part, int) {
	var parts []Part
	marked := 0
	for f := range scan.All(text, cfg) {
		switch f.Kind {
		case scan.Marked:
			parts = append(parts, Part{Marked: true, Text: f.Value})
			marked++
		default:
			if f.Value != "" {
				parts = append(parts, Part{Text: f.Value})
			}
		}
	}
	return parts, marked
}
