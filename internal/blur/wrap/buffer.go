package wrap

import (
	"strings"
	"unicode/utf8"
)

// Buffer is an in-memory Editor holding a single selection. The selection
// spans [from, to) in rune columns; an empty selection is a bare caret.
type Buffer struct {
	lines    []string
	from, to Position
	cursor   Position
}

// NewBuffer creates a buffer holding text with the caret at the start.
func NewBuffer(text string) *Buffer {
	return &Buffer{lines: strings.Split(text, "\n")}
}

// String returns the buffer contents.
func (b *Buffer) String() string {
	return strings.Join(b.lines, "\n")
}

// Select sets the selection and puts the caret at its end. Positions are
// clamped to the buffer and swapped if reversed.
func (b *Buffer) Select(from, to Position) {
	from, to = b.clamp(from), b.clamp(to)
	if less(to, from) {
		from, to = to, from
	}
	b.from, b.to, b.cursor = from, to, to
}

// SelectAll selects from the start of the first line to the end of the
// last line.
func (b *Buffer) SelectAll() {
	last := len(b.lines) - 1
	b.Select(Position{}, Position{Line: last, Ch: utf8.RuneCountInString(b.lines[last])})
}

// Selection implements Editor.
func (b *Buffer) Selection() string {
	if b.from == b.to {
		return ""
	}
	text := b.String()
	return text[b.offset(b.from):b.offset(b.to)]
}

// ReplaceSelection implements Editor.
func (b *Buffer) ReplaceSelection(text string) {
	all := b.String()
	start, end := b.offset(b.from), b.offset(b.to)
	all = all[:start] + text + all[end:]
	b.lines = strings.Split(all, "\n")

	caret := b.positionAt(start + len(text))
	b.from, b.to, b.cursor = caret, caret, caret
}

// Cursor implements Editor.
func (b *Buffer) Cursor() Position {
	return b.cursor
}

// SetCursor implements Editor. Setting the caret collapses the selection.
func (b *Buffer) SetCursor(pos Position) {
	pos = b.clamp(pos)
	b.from, b.to, b.cursor = pos, pos, pos
}

// offset converts a position into a byte offset into String().
func (b *Buffer) offset(p Position) int {
	off := 0
	for i := 0; i < p.Line; i++ {
		off += len(b.lines[i]) + 1
	}
	line := b.lines[p.Line]
	col := 0
	for i := range line {
		if col == p.Ch {
			return off + i
		}
		col++
	}
	return off + len(line)
}

// positionAt converts a byte offset into String() back into a position.
func (b *Buffer) positionAt(off int) Position {
	for i, line := range b.lines {
		if off <= len(line) {
			return Position{Line: i, Ch: utf8.RuneCountInString(line[:off])}
		}
		off -= len(line) + 1
	}
	last := len(b.lines) - 1
	return Position{Line: last, Ch: utf8.RuneCountInString(b.lines[last])}
}

func (b *Buffer) clamp(p Position) Position {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(b.lines) {
		p.Line = len(b.lines) - 1
	}
	if p.Ch < 0 {
		p.Ch = 0
	}
	if n := utf8.RuneCountInString(b.lines[p.Line]); p.Ch > n {
		p.Ch = n
	}
	return p
}

func less(a, b Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Ch < b.Ch
}
