package wrap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/blurmark/internal/blur/marker"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		sel  string
		cfg  marker.Config
		want Result
	}{
		{"default", "hello", marker.Default(), Result{Text: "!spoiler:hello!", CaretOffsetFromEnd: 1}},
		{"empty selection", "", marker.Default(), Result{Text: "!spoiler:!", CaretOffsetFromEnd: 1}},
		{"custom", "x", marker.Config{Start: "<<", End: ">>"}, Result{Text: "<<x>>", CaretOffsetFromEnd: 2}},
		{"multibyte end", "x", marker.Config{Start: "«", End: "»»"}, Result{Text: "«x»»", CaretOffsetFromEnd: 2}},
		{"empty config", "x", marker.Config{}, Result{Text: "!spoiler:x!", CaretOffsetFromEnd: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.sel, tt.cfg))
		})
	}
}

func TestApplyPlacesCaretBeforeEndMarker(t *testing.T) {
	buf := NewBuffer("say hello there")
	buf.Select(Position{Ch: 4}, Position{Ch: 9})

	res := Apply(buf, marker.Default())

	assert.Equal(t, "!spoiler:hello!", res.Text)
	assert.Equal(t, "say !spoiler:hello! there", buf.String())
	// caret sits between "hello" and the closing "!"
	assert.Equal(t, Position{Line: 0, Ch: 18}, buf.Cursor())
}

func TestApplyEmptySelection(t *testing.T) {
	buf := NewBuffer("ab\ncd")
	buf.SetCursor(Position{Line: 1, Ch: 1})

	Apply(buf, marker.Config{Start: "[[", End: "]]"})

	assert.Equal(t, "ab\nc[[]]d", buf.String())
	assert.Equal(t, Position{Line: 1, Ch: 3}, buf.Cursor())
}

func TestApplyMultilineSelection(t *testing.T) {
	buf := NewBuffer("one\ntwo\nthree")
	buf.Select(Position{Line: 1, Ch: 0}, Position{Line: 2, Ch: 2})

	Apply(buf, marker.Default())

	assert.Equal(t, "one\n!spoiler:two\nth!ree", buf.String())
	assert.Equal(t, Position{Line: 2, Ch: 2}, buf.Cursor())
}

func TestBufferSelectionClampsAndOrders(t *testing.T) {
	buf := NewBuffer("héllo")
	buf.Select(Position{Ch: 99}, Position{Ch: 1})

	assert.Equal(t, "éllo", buf.Selection())
	assert.Equal(t, Position{Ch: 5}, buf.Cursor())
}

func TestBufferSelectAll(t *testing.T) {
	buf := NewBuffer("ab\ncdé")
	buf.SelectAll()
	assert.Equal(t, "ab\ncdé", buf.Selection())
	assert.Equal(t, Position{Line: 1, Ch: 3}, buf.Cursor())

	Apply(buf, marker.Default())
	assert.Equal(t, "!spoiler:ab\ncdé!", buf.String())
	assert.Equal(t, Position{Line: 1, Ch: 3}, buf.Cursor())
}

func TestBufferSelectAllEmpty(t *testing.T) {
	buf := NewBuffer("")
	buf.SelectAll()
	assert.Equal(t, "", buf.Selection())
}
