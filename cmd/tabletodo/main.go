package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"tabletodo/internal/cli"
	"tabletodo/internal/hooks"
	"tabletodo/internal/settings"
	"tabletodo/internal/tui"
)

func main() {
	// Load .env if present (env vars set directly win anyway).
	_ = godotenv.Load()

	fs := flag.NewFlagSet("tabletodo", flag.ExitOnError)
	cfg, err := settings.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  level,
		Prefix: "tabletodo",
	})

	bus := hooks.NewBus()
	bus.On(hooks.Ready, func(any) {
		logger.Debug("ready", "world", cfg.WorldFile, "namespace", cfg.Namespace)
	})
	// The todos feature contributes its roster entry here, gated on the
	// client setting.
	bus.On(hooks.RenderRoster, func(payload any) {
		r, ok := payload.(*tui.RosterModel)
		if !ok || !cfg.ShowRosterButton {
			return
		}
		r.EnableTodosButton()
	})

	args := fs.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		os.Exit(2)
	}

	os.Exit(cli.Run(args, cli.Options{
		Settings: cfg,
		Log:      logger,
		Bus:      bus,
	}))
}
