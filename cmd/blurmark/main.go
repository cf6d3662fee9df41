// Package main is the entry point for the blurmark command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/blurmark/internal/app"
	"github.com/dshills/blurmark/internal/blur/marker"
	"github.com/dshills/blurmark/internal/preview"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run())
}

func run() int {
	opts, args := parseFlags()

	env, err := app.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	opts = env.Apply(opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, opts, args); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			return 2
		}
		if errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, opts app.Options, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	if cmd == "preview" {
		if len(args) != 1 {
			return errUsage
		}
		return runPreview(ctx, opts, args[0])
	}

	if cmd == "watch" {
		opts.Watch = true
	}
	application, err := app.New(ctx, opts)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	switch cmd {
	case "render":
		if len(args) != 1 {
			return errUsage
		}
		out, err := application.RenderFile(args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err

	case "wrap":
		if len(args) != 1 {
			return errUsage
		}
		text, caret, err := application.Wrap(args[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		fmt.Printf("caret: line %d, column %d\n", caret.Line, caret.Ch)
		return nil

	case "scan":
		if len(args) != 1 {
			return errUsage
		}
		for _, f := range application.Scan(args[0]) {
			fmt.Printf("%-6s %q\n", f.Kind, f.Value)
		}
		return nil

	case "lua":
		if len(args) != 1 {
			return errUsage
		}
		return application.RunScript(ctx, args[0], os.Stdout)

	case "set":
		if len(args) != 2 {
			return errUsage
		}
		if err := application.SetMarker(args[0], args[1]); err != nil {
			return err
		}
		cfg := application.Store().Config()
		fmt.Printf("start=%q end=%q (%s)\n", cfg.Start, cfg.End, application.Store().Path())
		return nil

	case "watch":
		unsubscribe := application.Store().Subscribe(func(cfg marker.Config) {
			fmt.Printf("start=%q end=%q\n", cfg.Start, cfg.End)
		})
		defer unsubscribe()
		<-ctx.Done()
		return nil

	default:
		return errUsage
	}
}

func runPreview(ctx context.Context, opts app.Options, path string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	// The screen owns the terminal, so logs cannot go to stderr.
	opts.LogOutput = io.Discard
	viewer := preview.New(screen)
	opts.Clipboard = viewer
	opts.Notifier = viewer

	application, err := app.New(ctx, opts)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	blocks, err := application.Extension().Render(src)
	if err != nil {
		return err
	}
	width, _ := screen.Size()
	layout := preview.Build(preview.Documents(blocks), width)
	viewer.Show(layout, application.Extension().Registry())

	return viewer.Run(ctx)
}

func parseFlags() (app.Options, []string) {
	var opts app.Options
	var showVersion bool

	flag.StringVar(&opts.SettingsPath, "settings", "", "Path to the marker settings file (.json, .toml, .yaml)")
	flag.StringVar(&opts.SettingsPath, "s", "", "Path to the marker settings file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload the settings file when it changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "blurmark - obscure marked spans in markdown notes\n\n")
		fmt.Fprintf(os.Stderr, "Usage: blurmark [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  render FILE          Render FILE to HTML with marked spans obscured\n")
		fmt.Fprintf(os.Stderr, "  preview FILE         Show FILE in the terminal; click to copy, double-click to reveal\n")
		fmt.Fprintf(os.Stderr, "  wrap TEXT            Wrap TEXT in the configured markers\n")
		fmt.Fprintf(os.Stderr, "  scan TEXT            Print the plain and marked fragments of TEXT\n")
		fmt.Fprintf(os.Stderr, "  lua FILE             Run a Lua script with the ks.blur module\n")
		fmt.Fprintf(os.Stderr, "  set start|end VALUE  Persist a marker (empty VALUE restores the default)\n")
		fmt.Fprintf(os.Stderr, "  watch                Follow settings file changes until interrupted\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  BLURMARK_SETTINGS, BLURMARK_LOG_LEVEL, BLURMARK_WATCH (also read from .env)\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("blurmark %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	return opts, flag.Args()
}
