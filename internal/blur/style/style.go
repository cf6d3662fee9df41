// Package style owns the obscured-element class contract and the style
// rules registered for it.
package style

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// ObscuredClass marks an element whose content is obscured. Removing
	// the class reveals the content.
	ObscuredClass = "blur-plugin-text"

	// SheetID identifies the style block holding the obscured rules.
	SheetID = "blur-plugin-styles"

	// HandleAttr carries the interaction handle of an obscured element.
	HandleAttr = "data-blur-id"
)

// ObscuredCSS is the rule set applied to ObscuredClass.
var ObscuredCSS = fmt.Sprintf(`.%[1]s {
    filter: blur(5px);
    user-select: none;
}
.%[1]s:hover {
    cursor: pointer;
}`, ObscuredClass)

// Sheet is a process-wide set of style rules keyed by id. Registering the
// same id twice keeps the first rule.
type Sheet struct {
	mu    sync.Mutex
	rules map[string]string
}

// NewSheet creates an empty sheet.
func NewSheet() *Sheet {
	return &Sheet{rules: make(map[string]string)}
}

// Register adds rule under id and reports whether it was added.
func (s *Sheet) Register(id, rule string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; ok {
		return false
	}
	s.rules[id] = rule
	return true
}

// Unregister removes the rule under id and reports whether one existed.
func (s *Sheet) Unregister(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return false
	}
	delete(s.rules, id)
	return true
}

// Has reports whether a rule is registered under id.
func (s *Sheet) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rules[id]
	return ok
}

// CSS renders every rule, ordered by id.
func (s *Sheet) CSS() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.rules))
	for id := range s.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "/* %s */\n%s\n", id, s.rules[id])
	}
	return b.String()
}

// HTML renders every rule as a <style> element per id.
func (s *Sheet) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.rules))
	for id := range s.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "<style id=%q>\n%s\n</style>\n", id, s.rules[id])
	}
	return b.String()
}

// MaskStrength is how far the obscured foreground is pulled toward the
// background, 0 (unchanged) to 1 (invisible).
const MaskStrength = 0.85

// MaskColor returns the foreground used to draw obscured text on a
// character grid, where a real blur filter is unavailable.
func MaskColor(fg, bg colorful.Color) colorful.Color {
	return fg.BlendLab(bg, MaskStrength).Clamped()
}
