package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/log"

	"github.com/keymagic/kmsedit/internal/compiler"
	"github.com/keymagic/kmsedit/internal/complete"
	"github.com/keymagic/kmsedit/internal/session"
	"github.com/keymagic/kmsedit/internal/settings"
	"github.com/keymagic/kmsedit/internal/tester"
	"github.com/keymagic/kmsedit/internal/workbench"
)

func main() {
	configPath := flag.String("config", "", "config file (default: ./kmsedit.json, then ~/.config/kmsedit/kmsedit.json)")
	logFile := flag.String("log", "", "also write the debug log to this file")
	check := flag.String("check", "", "check the syntax of a script and exit")
	compileSrc := flag.String("compile", "", "compile a script and exit")
	output := flag.String("o", "", "layout file written by -compile (default: script name with .km2)")
	flag.Parse()

	cfg, _, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kmsedit: %v\n", err)
		os.Exit(1)
	}
	if cfg.Accent != "" {
		AccentColor = lipgloss.Color(cfg.Accent)
	}

	ring := &logRing{}
	var logOut io.Writer = ring
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kmsedit: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = io.MultiWriter(ring, f)
	}
	logger := log.NewWithOptions(logOut, log.Options{
		ReportTimestamp: true,
		Level:           log.DebugLevel,
	})

	pipeline := compiler.New(compiler.ResolveTool(cfg.Parser),
		compiler.WithTimeout(cfg.Timeout()),
		compiler.WithLogger(logger))

	// Headless modes
	if *check != "" || *compileSrc != "" {
		// the report goes to stdout; keep the log off the terminal
		logger.SetOutput(io.Discard)
		if *check != "" {
			os.Exit(runHeadless(context.Background(), pipeline, *check, "", true, os.Stdout, os.Environ()))
		}
		os.Exit(runHeadless(context.Background(), pipeline, *compileSrc, *output, false, os.Stdout, os.Environ()))
	}

	vocab := complete.Default()
	for _, path := range cfg.Keywords {
		extra, err := complete.LoadFile(path)
		if err != nil {
			logger.Warn("vocabulary not loaded", "path", path, "err", err)
			continue
		}
		vocab.Merge(extra)
	}

	var store settings.Store
	db, err := settings.Open(cfg.SettingsFile())
	if err != nil {
		logger.Error("settings unavailable, session will not be remembered", "err", err)
		store = settings.NewMemory()
	} else {
		store = db
	}
	defer store.Close()

	sess := session.NewManager(session.WithStore(store), session.WithLogger(logger))
	tabs, err := sess.LoadState()
	if err != nil {
		logger.Warn("previous session not restored", "err", err)
	}
	sess.Restore(tabs, flag.Args()...)

	bench := workbench.New(sess, pipeline,
		workbench.WithDefaultFont(storedFont(store, tester.Font{Family: cfg.DefaultFont, Size: cfg.DefaultFontSize})),
		workbench.WithLogger(logger))

	m := NewModel(App{
		Session: sess,
		Bench:   bench,
		Vocab:   vocab,
		Store:   store,
		Logger:  logger,
		Log:     ring,
		Keys:    cfg.ToKeyMap(),
	})
	logger.Info("started", "documents", sess.Count(), "parser", pipeline.Tool())

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// storedFont returns the tester font saved in the settings store, falling
// back to def for anything unset.
func storedFont(store settings.Store, def tester.Font) tester.Font {
	f := def
	if name, err := store.Get(settings.KeyDefaultFontName); err == nil && name != "" {
		f.Family = name
	}
	if size, err := store.Get(settings.KeyDefaultFontSize); err == nil && size != "" {
		if v, err := strconv.ParseFloat(size, 64); err == nil && v > 0 {
			f.Size = v
		}
	}
	return f
}
