// Package commands implements the venuestatus command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/venuestatus/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"venuestatus.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Daemon   DaemonCmd   `cmd:"" help:"Run the status engine, reconciliation loop and owner API"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Seed     SeedCmd     `cmd:"" help:"Load venues and favorites from a YAML file into the database"`
	Evaluate EvaluateCmd `cmd:"" help:"Print the schedule-derived status of venues at an instant"`
}

// AfterApply sets up a default logger before the configuration is read.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig reads the configuration and replaces the global logger with
// the configured one. --verbose forces debug level.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if root.Verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}
	g.Logger = cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(g.Logger)
	return cfg, nil
}
