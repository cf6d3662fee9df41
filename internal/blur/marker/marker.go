// Package marker holds the delimiter pair that brackets obscured text.
package marker

import (
	"errors"
	"strings"
)

// Built-in delimiters used whenever a configured value is empty.
const (
	DefaultStart = "!spoiler:"
	DefaultEnd   = "!"
)

// Errors returned by Validate.
var (
	// ErrEmptyStart is returned when the start marker is empty.
	ErrEmptyStart = errors.New("start marker is empty")

	// ErrEmptyEnd is returned when the end marker is empty.
	ErrEmptyEnd = errors.New("end marker is empty")

	// ErrLineBreak is returned when a marker contains a line break.
	ErrLineBreak = errors.New("marker contains a line break")
)

// Config is the start/end marker pair. The zero value is not usable for
// scanning; call WithDefaults first.
type Config struct {
	// Start opens a marked span. Persisted as "blurSyntax".
	Start string `json:"blurSyntax" toml:"blurSyntax" yaml:"blurSyntax"`

	// End closes a marked span. Persisted as "blurEndpoint".
	End string `json:"blurEndpoint" toml:"blurEndpoint" yaml:"blurEndpoint"`
}

// Default returns the built-in marker pair.
func Default() Config {
	return Config{Start: DefaultStart, End: DefaultEnd}
}

// WithDefaults returns a copy of c with every empty field replaced by its
// built-in default.
func (c Config) WithDefaults() Config {
	if c.Start == "" {
		c.Start = DefaultStart
	}
	if c.End == "" {
		c.End = DefaultEnd
	}
	return c
}

// Validate reports whether both markers are non-empty single-line strings.
func (c Config) Validate() error {
	if c.Start == "" {
		return ErrEmptyStart
	}
	if c.End == "" {
		return ErrEmptyEnd
	}
	if strings.ContainsAny(c.Start, "\r\n") || strings.ContainsAny(c.End, "\r\n") {
		return ErrLineBreak
	}
	return nil
}

// IsDefault reports whether c equals the built-in pair.
func (c Config) IsDefault() bool {
	return c == Default()
}
