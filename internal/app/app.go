// Package app wires the blur extension, its settings and its scripting
// surface into one application used by the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dshills/blurmark/internal/blur/interact"
	"github.com/dshills/blurmark/internal/blur/scan"
	"github.com/dshills/blurmark/internal/blur/wrap"
	"github.com/dshills/blurmark/internal/logging"
	"github.com/dshills/blurmark/internal/plugin"
	"github.com/dshills/blurmark/internal/plugin/lua"
	"github.com/dshills/blurmark/internal/settings"
)

// Options configures the application.
type Options struct {
	// SettingsPath is the marker settings file (.json, .toml or .yaml).
	SettingsPath string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Watch reloads the settings file when it changes on disk.
	Watch bool

	// Clipboard and Notifier are handed to the interaction machine.
	Clipboard interact.Clipboard
	Notifier  interact.Notifier
}

// Application owns the settings store and the loaded extension.
type Application struct {
	opts   Options
	logger *logging.Logger
	store  *settings.Store
	ext    *plugin.Extension

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New opens the settings, loads the extension and, if requested, starts
// watching the settings file.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(opts.LogLevel),
		Output: opts.LogOutput,
		Prefix: "blurmark",
	})

	store, err := settings.Open(opts.SettingsPath, settings.WithLogger(logger.WithComponent("settings")))
	if err != nil {
		return nil, &InitError{Component: "settings", Err: err}
	}

	ext, err := plugin.New(plugin.Deps{
		Settings:  store,
		Clipboard: opts.Clipboard,
		Notifier:  opts.Notifier,
		Logger:    logger,
	})
	if err != nil {
		return nil, &InitError{Component: "extension", Err: err}
	}
	if err := ext.Load(ctx); err != nil {
		return nil, &InitError{Component: "extension", Err: err}
	}

	app := &Application{
		opts:   opts,
		logger: logger,
		store:  store,
		ext:    ext,
		cancel: func() {},
	}
	if opts.Watch {
		app.watch(ctx)
	}
	return app, nil
}

func (app *Application) watch(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	app.cancel = cancel
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		err := app.store.Watch(ctx, settings.DefaultDebounce)
		if err != nil && !errors.Is(err, context.Canceled) {
			app.logger.Error("settings watcher stopped: %v", err)
		}
	}()
}

// Logger returns the root logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Store returns the settings store.
func (app *Application) Store() *settings.Store {
	return app.store
}

// Extension returns the loaded extension.
func (app *Application) Extension() *plugin.Extension {
	return app.ext
}

// RenderPage renders a markdown note to a standalone HTML fragment: the
// style block followed by the rendered blocks.
func (app *Application) RenderPage(src []byte) ([]byte, error) {
	body, err := app.ext.RenderHTML(src)
	if err != nil {
		return nil, &OperationError{Op: "render", Err: err}
	}
	return append([]byte(app.ext.Sheet().HTML()), body...), nil
}

// RenderFile is RenderPage on the contents of path.
func (app *Application) RenderFile(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &OperationError{Op: "read", Target: path, Err: err}
	}
	return app.RenderPage(src)
}

// Wrap runs the blur command on a buffer holding text with everything
// selected and returns the new buffer text and caret column.
func (app *Application) Wrap(text string) (string, wrap.Position, error) {
	buf := wrap.NewBuffer(text)
	buf.SelectAll()
	if err := app.ext.Commands().Execute(plugin.CommandBlurSelection, buf); err != nil {
		return "", wrap.Position{}, err
	}
	return buf.String(), buf.Cursor(), nil
}

// Scan splits text with the current markers.
func (app *Application) Scan(text string) []scan.Fragment {
	return scan.Scan(text, app.store.Config())
}

// SetMarker persists the start or end marker.
func (app *Application) SetMarker(name, value string) error {
	switch name {
	case "start":
		return app.store.SetStart(value)
	case "end":
		return app.store.SetEnd(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMarker, name)
	}
}

// RunScript executes a Lua file with the ks.blur module available. print
// output goes to out.
func (app *Application) RunScript(ctx context.Context, path string, out io.Writer) error {
	state := lua.NewState(lua.WithOutput(out))
	defer state.Close()

	mod := &lua.Module{Settings: app.store, Renderer: app.ext}
	mod.Install(state)

	app.logger.Debug("running script %s", path)
	if err := state.DoFile(ctx, path); err != nil {
		return &OperationError{Op: "script", Target: path, Err: err}
	}
	return nil
}

// Shutdown stops the watcher and unloads the extension. It is safe to call
// more than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.closed {
		return
	}
	app.closed = true

	app.cancel()
	app.wg.Wait()
	if err := app.ext.Unload(); err != nil {
		app.logger.Warn("unload: %v", err)
	}
}
