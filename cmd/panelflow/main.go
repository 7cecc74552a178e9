// panelflow opens a panel document in the terminal and lets the user
// navigate it column by column.
package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/jask/panelflow/internal/config"
	"github.com/jask/panelflow/internal/engine"
	"github.com/jask/panelflow/internal/handler"
	"github.com/jask/panelflow/internal/journal"
	"github.com/jask/panelflow/internal/keys"
	"github.com/jask/panelflow/internal/loader"
	"github.com/jask/panelflow/internal/panel"
	"github.com/jask/panelflow/internal/tui"
)

var version = "dev"

//go:embed demo.jsonc
var demoDocument []byte

type options struct {
	document  string
	settings  string
	logFile   string
	noJournal bool
	check     bool
	version   bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("panelflow", pflag.ContinueOnError)
	flagSet.StringVar(&opts.document, "config-doc", "", "panel document (.json, .jsonc, .yaml); the built-in demo when empty")
	flagSet.StringVar(&opts.settings, "settings", "", "settings file (default $PANELFLOW_CONFIG or ~/.config/panelflow/config.toml)")
	flagSet.StringVar(&opts.logFile, "log-file", "", "log file (overrides log.path)")
	flagSet.BoolVar(&opts.noJournal, "no-journal", false, "do not record events to the sqlite journal")
	flagSet.BoolVar(&opts.check, "check", false, "validate the document and exit")
	flagSet.BoolVar(&opts.version, "version", false, "print version and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.version {
		fmt.Fprintf(stdout, "panelflow %s\n", version)
		return nil
	}

	cfg, err := config.LoadOrCreate(opts.settings)
	if err != nil {
		return err
	}
	if opts.document != "" {
		cfg.App.Document = opts.document
	}
	if opts.logFile != "" {
		cfg.Log.Path = opts.logFile
	}
	if opts.noJournal {
		cfg.Journal.Enabled = false
	}

	handlers := demoHandlers()
	registry, err := loadDocument(cfg.App.Document, handlers)
	if err != nil {
		return err
	}
	if opts.check {
		fmt.Fprintf(stdout, "ok: %d panels, entry %q\n", registry.Len(), registry.EntryID())
		return nil
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	return runUI(context.Background(), cfg, registry, handlers, logger)
}

func loadDocument(path string, handlers handler.Registry) (*panel.Registry, error) {
	if path == "" {
		return loader.Parse(demoDocument, loader.FormatJSON, handlers)
	}
	return loader.Load(path, handlers)
}

func runUI(ctx context.Context, cfg config.Config, registry *panel.Registry, handlers handler.Registry, logger *slog.Logger) error {
	eng, err := engine.New(registry, handlers, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	if cfg.Journal.Enabled {
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal disabled", "path", cfg.Journal.Path, "err", err)
		} else {
			defer db.Close()
			rec := journal.NewRecorder(ctx, journal.NewRepo(db), logger)
			rec.Attach(eng)
			defer rec.Detach()
		}
	}

	bindings, err := keys.LoadFile(cfg.UI.Keybindings, keys.DefaultBindings())
	if err != nil {
		logger.Warn("using default keybindings", "path", cfg.UI.Keybindings, "err", err)
		bindings = keys.DefaultBindings()
	}

	model := tui.New(eng, tui.Options{
		Columns: cfg.UI.Columns,
		Keys:    keys.NewRegistry(bindings),
		Logger:  logger,
	})
	defer model.Close()

	logger.Info("starting", "entry", registry.EntryID(), "panels", registry.Len())
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// newLogger writes to the configured log file; the terminal is the UI's.
func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(f, handlerOpts)
	} else {
		h = slog.NewTextHandler(f, handlerOpts)
	}
	return slog.New(h), func() { _ = f.Close() }, nil
}
