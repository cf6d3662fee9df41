package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/blurmark/internal/blur/interact"
	"github.com/dshills/blurmark/internal/blur/marker"
	"github.com/dshills/blurmark/internal/blur/style"
	"github.com/dshills/blurmark/internal/blur/tree"
	"github.com/dshills/blurmark/internal/blur/wrap"
	"github.com/dshills/blurmark/internal/logging"
	"github.com/dshills/blurmark/internal/render/htmldoc"
	"github.com/dshills/blurmark/internal/render/markdown"
	"github.com/dshills/blurmark/internal/settings"
)

// Identifiers contributed by the extension.
const (
	// Source tags everything the extension registers.
	Source = "blur"

	// CommandBlurSelection wraps the editor selection in markers.
	CommandBlurSelection = "blur-selected-text"

	// PostProcessorID names the markdown post-processor.
	PostProcessorID = "blur"
)

// DefaultHotkey is the default binding for CommandBlurSelection.
var DefaultHotkey = Hotkey{Modifiers: []string{"Mod", "Shift"}, Key: "q"}

// ConfigSource supplies the current marker configuration.
// *settings.Store implements ConfigSource.
type ConfigSource interface {
	Config() marker.Config
	Subscribe(fn settings.Listener) func()
}

// Deps are the host collaborators the extension plugs into.
type Deps struct {
	Settings  ConfigSource
	Commands  *Commands
	Pipeline  *markdown.Pipeline
	Sheet     *style.Sheet
	Clipboard interact.Clipboard
	Notifier  interact.Notifier
	Logger    *logging.Logger
}

// Extension wires the blur feature into a host editor: the wrap command,
// the render post-processor, the style rule and the interaction machine.
type Extension struct {
	deps     Deps
	logger   *logging.Logger
	rewriter *tree.Rewriter
	machine  *interact.Machine
	registry *interact.Registry

	mu          sync.RWMutex
	state       State
	unsubscribe func()
}

// New creates an unloaded extension.
func New(deps Deps) (*Extension, error) {
	if deps.Settings == nil {
		return nil, fmt.Errorf("%w: settings", ErrMissingDependency)
	}
	if deps.Commands == nil {
		deps.Commands = NewCommands()
	}
	if deps.Pipeline == nil {
		deps.Pipeline = markdown.New()
	}
	if deps.Sheet == nil {
		deps.Sheet = style.NewSheet()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}

	logger := deps.Logger.WithComponent("blur")
	machine := interact.NewMachine(deps.Clipboard, deps.Notifier, interact.WithLogger(logger))

	return &Extension{
		deps:     deps,
		logger:   logger,
		rewriter: tree.New(deps.Settings.Config, tree.WithLogger(logger)),
		machine:  machine,
		registry: interact.NewRegistry(machine),
	}, nil
}

// State returns the lifecycle state.
func (e *Extension) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Load registers the style rule, the command and the post-processor.
func (e *Extension) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateLoaded {
		return ErrAlreadyLoaded
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.state = StateLoading
	e.logger.Info("loading")

	e.deps.Sheet.Register(style.SheetID, style.ObscuredCSS)

	cmd := &Command{
		ID:       CommandBlurSelection,
		Name:     "Blur selected text",
		Hotkeys:  []Hotkey{DefaultHotkey},
		Source:   Source,
		Callback: e.blurSelection,
	}
	if err := e.deps.Commands.Register(cmd); err != nil {
		e.rollback()
		e.state = StateError
		return fmt.Errorf("register command: %w", err)
	}

	e.deps.Pipeline.SetFactory(e.registry)
	if err := e.deps.Pipeline.Register(PostProcessorID, e.postProcess); err != nil {
		e.rollback()
		e.state = StateError
		return fmt.Errorf("register post-processor: %w", err)
	}

	e.unsubscribe = e.deps.Settings.Subscribe(func(cfg marker.Config) {
		e.logger.Info("markers changed: start=%q end=%q", cfg.Start, cfg.End)
	})

	e.state = StateLoaded
	cfg := e.deps.Settings.Config()
	e.logger.Info("loaded with start=%q end=%q", cfg.Start, cfg.End)
	return nil
}

// Unload removes everything Load registered and waits for pending
// clipboard writes.
func (e *Extension) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateLoaded {
		return ErrNotLoaded
	}
	e.state = StateUnloading
	e.rollback()
	e.machine.Wait()
	e.logger.Info("unloaded")
	return nil
}

// rollback undoes registrations. Callers hold e.mu.
func (e *Extension) rollback() {
	e.deps.Commands.UnregisterBySource(Source)
	e.deps.Pipeline.Unregister(PostProcessorID)
	e.deps.Sheet.Unregister(style.SheetID)
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.registry.Reset()
	e.state = StateUnloaded
}

// Registry returns the interaction registry holding live obscured elements.
func (e *Extension) Registry() *interact.Registry {
	return e.registry
}

// Commands returns the command registry the extension registers into.
func (e *Extension) Commands() *Commands {
	return e.deps.Commands
}

// Sheet returns the style sheet the extension registers into.
func (e *Extension) Sheet() *style.Sheet {
	return e.deps.Sheet
}

// Config returns the current marker configuration.
func (e *Extension) Config() marker.Config {
	return e.deps.Settings.Config()
}

// Render runs a full render pass over a note. Elements from the previous
// pass are discarded, so every span starts obscured again. Unload waits for
// renders in progress.
func (e *Extension) Render(src []byte) ([]markdown.Block, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.state.IsUsable() {
		return nil, ErrNotLoaded
	}
	e.registry.Reset()
	return e.deps.Pipeline.Render(src)
}

// RenderHTML is Render joined into one HTML string.
func (e *Extension) RenderHTML(src []byte) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.state.IsUsable() {
		return nil, ErrNotLoaded
	}
	e.registry.Reset()
	return e.deps.Pipeline.RenderHTML(src)
}

// Dispatch routes a pointer event to the element with the given handle.
func (e *Extension) Dispatch(handle string, ev interact.Event) (interact.Outcome, error) {
	return e.registry.Dispatch(handle, ev)
}

func (e *Extension) postProcess(doc *htmldoc.Document, info markdown.BlockInfo) error {
	stats := e.rewriter.Rewrite(doc)
	if stats.Spans > 0 {
		e.logger.Debug("block %d (%s): %d spans", info.Index, info.Kind, stats.Spans)
	}
	return nil
}

func (e *Extension) blurSelection(ed wrap.Editor) error {
	res := wrap.Apply(ed, e.deps.Settings.Config())
	e.logger.Debug("wrapped selection: %q", res.Text)
	return nil
}
