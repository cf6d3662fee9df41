// Package wrap surrounds an editor selection with the configured markers.
package wrap

import (
	"unicode/utf8"

	"github.com/dshills/blurmark/internal/blur/marker"
)

// Result is the text to insert and where the caret lands afterwards.
type Result struct {
	// Text is start + selection + end.
	Text string

	// CaretOffsetFromEnd is how many columns before the end of Text the
	// caret is placed, i.e. the rune length of the end marker.
	CaretOffsetFromEnd int
}

// Wrap returns the selection wrapped in markers. An empty selection yields
// an empty marked span.
func Wrap(selection string, cfg marker.Config) Result {
	cfg = cfg.WithDefaults()
	return Result{
		Text:               cfg.Start + selection + cfg.End,
		CaretOffsetFromEnd: utf8.RuneCountInString(cfg.End),
	}
}

// Position is a caret location. Ch counts runes from the start of Line.
type Position struct {
	Line int
	Ch   int
}

// Editor is the editing surface the wrap command operates on.
type Editor interface {
	// Selection returns the currently selected text.
	Selection() string

	// ReplaceSelection replaces the selection with text and leaves the
	// caret after the inserted text.
	ReplaceSelection(text string)

	// Cursor returns the caret position.
	Cursor() Position

	// SetCursor moves the caret.
	SetCursor(pos Position)
}

// Apply wraps the editor's selection and moves the caret to just before the
// end marker so typing continues inside the span.
func Apply(ed Editor, cfg marker.Config) Result {
	res := Wrap(ed.Selection(), cfg)
	ed.ReplaceSelection(res.Text)

	pos := ed.Cursor()
	pos.Ch -= res.CaretOffsetFromEnd
	if pos.Ch < 0 {
		pos.Ch = 0
	}
	ed.SetCursor(pos)
	return res
}
