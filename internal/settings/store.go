// Package settings persists the marker configuration.
//
// The store loads a settings file, merges it over the built-in defaults,
// and saves after every change. Empty values written through SetStart or
// SetEnd are replaced with the default before saving, so the core never sees
// an empty delimiter.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/blurmark/internal/blur/marker"
	"github.com/dshills/blurmark/internal/logging"
)

// Errors returned by the store.
var (
	// ErrUnsupportedFormat is returned for unknown settings file extensions.
	ErrUnsupportedFormat = errors.New("unsupported settings format")
)

// ParseError reports a settings file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse settings %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Listener is called with the new configuration after it changes.
type Listener func(marker.Config)

// Store holds the current marker configuration backed by a file.
type Store struct {
	path   string
	format Format
	logger *logging.Logger

	mu        sync.RWMutex
	cfg       marker.Config
	listeners map[int]Listener
	nextID    int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open creates a store for path and loads it. A missing file yields the
// defaults and is not created until the first save.
func Open(path string, opts ...Option) (*Store, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	s := &Store{
		path:      path,
		format:    format,
		logger:    logging.Nop(),
		cfg:       marker.Default(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Config returns the current configuration. Both markers are non-empty.
func (s *Store) Config() marker.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Load rereads the file, merges it over the defaults and notifies listeners
// if the result differs from the current configuration.
func (s *Store) Load() (marker.Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return marker.Config{}, fmt.Errorf("read settings %s: %w", s.path, err)
	}

	loaded, err := decode(s.format, data)
	if err != nil {
		return marker.Config{}, &ParseError{Path: s.path, Err: err}
	}
	cfg := loaded.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return marker.Config{}, &ParseError{Path: s.path, Err: err}
	}

	s.logger.Debug("settings loaded from %s: start=%q end=%q", s.path, cfg.Start, cfg.End)
	s.set(cfg)
	return cfg, nil
}

// Save writes cfg, with empty fields defaulted, and makes it current.
// Markers containing line breaks are rejected and nothing is written.
func (s *Store) Save(cfg marker.Config) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	existing, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read settings %s: %w", s.path, err)
	}
	data, err := encode(s.format, existing, cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := writeFile(s.path, data); err != nil {
		return err
	}

	s.logger.Info("settings saved: start=%q end=%q", cfg.Start, cfg.End)
	s.set(cfg)
	return nil
}

// SetStart changes the start marker. An empty value restores the default.
func (s *Store) SetStart(v string) error {
	cfg := s.Config()
	cfg.Start = v
	if v == "" {
		cfg.Start = marker.DefaultStart
	}
	return s.Save(cfg)
}

// SetEnd changes the end marker. An empty value restores the default.
func (s *Store) SetEnd(v string) error {
	cfg := s.Config()
	cfg.End = v
	if v == "" {
		cfg.End = marker.DefaultEnd
	}
	return s.Save(cfg)
}

// Subscribe registers fn for configuration changes and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) set(cfg marker.Config) {
	s.mu.Lock()
	changed := s.cfg != cfg
	s.cfg = cfg
	var notify []Listener
	if changed {
		for _, l := range s.listeners {
			notify = append(notify, l)
		}
	}
	s.mu.Unlock()

	for _, l := range notify {
		l(cfg)
	}
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
