package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/venuestatus/internal/daemon"
	"git.home.luguber.info/inful/venuestatus/internal/version"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g.Logger.Info("Starting venuestatus daemon",
		slog.String("version", version.Version),
		slog.String("database", cfg.Storage.Database),
		slog.String("transport", string(cfg.Notifications.Transport)))

	dmn, err := daemon.New(ctx, cfg, g.Logger)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	defer func() {
		if cerr := dmn.Close(); cerr != nil {
			g.Logger.Warn("Failed to close daemon resources", slog.Any("error", cerr))
		}
	}()

	if err := dmn.Run(ctx); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}
	return nil
}
