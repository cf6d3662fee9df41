// Package scan splits text into plain runs and marker-delimited spans.
//
// Markers are matched as literal substrings. Scanning is left to right and
// non-greedy: after the earliest start marker, the nearest following end
// marker closes the span. A start marker with no end marker after it is left
// in place as plain text.
package scan

import (
	"iter"
	"strings"

	"github.com/dshills/blurmark/internal/blur/marker"
)

// Kind distinguishes plain text from marked span content.
type Kind uint8

const (
	// Plain is text outside any marked span.
	Plain Kind = iota
	// Marked is the content between a start and end marker.
	Marked
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Marked:
		return "marked"
	default:
		return "unknown"
	}
}

// Fragment is one piece of a scanned blob.
type Fragment struct {
	Kind Kind

	// Value is the plain text, or the content of a marked span with the
	// markers removed.
	Value string

	// Raw is the exact source text the fragment covers. For Marked
	// fragments it includes both markers.
	Raw string
}

// Span is a marked span located in its source blob. Start and End are byte
// offsets of the whole match, markers included.
type Span struct {
	Start   int
	End     int
	Content string
}

// All yields the fragments of text in order. Adjacent plain runs are never
// produced and zero-length plain runs are skipped, so All("") yields nothing.
func All(text string, cfg marker.Config) iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		for sp, plainFrom := range spans(text, cfg) {
			if sp.Start > plainFrom {
				p := text[plainFrom:sp.Start]
				if !yield(Fragment{Kind: Plain, Value: p, Raw: p}) {
					return
				}
			}
			if sp.End < 0 {
				return
			}
			if !yield(Fragment{Kind: Marked, Value: sp.Content, Raw: text[sp.Start:sp.End]}) {
				return
			}
		}
	}
}

// Scan returns every fragment of text.
func Scan(text string, cfg marker.Config) []Fragment {
	var out []Fragment
	for f := range All(text, cfg) {
		out = append(out, f)
	}
	return out
}

// Spans returns only the marked spans of text with their offsets.
func Spans(text string, cfg marker.Config) []Span {
	var out []Span
	for sp := range spans(text, cfg) {
		if sp.End >= 0 {
			out = append(out, sp)
		}
	}
	return out
}

// HasMarked reports whether text contains at least one complete span.
func HasMarked(text string, cfg marker.Config) bool {
	for sp := range spans(text, cfg) {
		return sp.End >= 0
	}
	return false
}

// Join reassembles the source text from its fragments.
func Join(frags []Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.Raw)
	}
	return b.String()
}

// spans walks text and yields each span together with the offset where the
// plain run preceding it begins. A final pseudo-span with End == -1 and
// Start == len(text) terminates the walk when trailing plain text remains.
func spans(text string, cfg marker.Config) iter.Seq2[Span, int] {
	cfg = cfg.WithDefaults()
	return func(yield func(Span, int) bool) {
		pos := 0
		for pos < len(text) {
			i := strings.Index(text[pos:], cfg.Start)
			if i < 0 {
				break
			}
			open := pos + i
			body := open + len(cfg.Start)
			j := strings.Index(text[body:], cfg.End)
			if j < 0 {
				break
			}
			stop := body + j
			sp := Span{Start: open, End: stop + len(cfg.End), Content: text[body:stop]}
			if !yield(sp, pos) {
				return
			}
			pos = sp.End
		}
		if pos < len(text) {
			yield(Span{Start: len(text), End: -1}, pos)
		}
	}
}
