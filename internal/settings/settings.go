// Package settings loads client configuration from defaults, a TOML file,
// environment variables, and CLI flags, in that priority order.
package settings

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultWorldFile = "world.json"
	DefaultNamespace = "tabletodo"
	DefaultLogLevel  = "info"
)

const configFileName = "tabletodo.toml"

// Settings is the client-scoped configuration.
type Settings struct {
	WorldFile        string `toml:"world_file"`
	Namespace        string `toml:"namespace"`
	ShowRosterButton bool   `toml:"show_roster_button"`
	LogLevel         string `toml:"log_level"`

	// Yes skips confirmation prompts; flag-only, never persisted.
	Yes bool `toml:"-"`
}

// Load resolves settings in priority order: defaults, then the config file
// (working directory, then the user config dir), then TABLETODO_* environment
// variables, then flags registered on fs.
func Load(fs *flag.FlagSet, args []string) (*Settings, error) {
	s := &Settings{
		WorldFile:        DefaultWorldFile,
		Namespace:        DefaultNamespace,
		ShowRosterButton: true,
		LogLevel:         DefaultLogLevel,
	}

	if path := findConfigFile(); path != "" {
		if _, err := toml.DecodeFile(path, s); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	loadFromEnv(s)

	fs.StringVar(&s.WorldFile, "world", s.WorldFile, "Path to the world file")
	fs.StringVar(&s.Namespace, "namespace", s.Namespace, "Flag namespace for stored todos")
	fs.BoolVar(&s.ShowRosterButton, "roster-button", s.ShowRosterButton, "Offer the open-todos entry in the roster")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&s.Yes, "yes", false, "Skip confirmation prompts")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	return s, nil
}

func findConfigFile() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "tabletodo", configFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func loadFromEnv(s *Settings) {
	if v := os.Getenv("TABLETODO_WORLD"); v != "" {
		s.WorldFile = v
	}
	if v := os.Getenv("TABLETODO_NAMESPACE"); v != "" {
		s.Namespace = v
	}
	if v := os.Getenv("TABLETODO_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("TABLETODO_ROSTER_BUTTON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.ShowRosterButton = b
		}
	}
}
