package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearth/internal/builtin"
	"github.com/hearthd/hearth/internal/bus"
	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/logging"
	"github.com/hearthd/hearth/internal/plugin"
	"github.com/hearthd/hearth/internal/plugin/script"
)

func newRunCommand() *cobra.Command {
	var pluginDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the host and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if pluginDir != "" {
				cfg.PluginDir = pluginDir
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&pluginDir, "plugins", "p", "", "plugin directory (overrides HEARTH_PLUGIN_DIR)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	b := bus.New(bus.WithLogger(log))
	m := plugin.NewManager(b, plugin.WithLogger(log))

	logLifecycle(m, log)

	if err := m.Register(builtin.HostInfo(cfg.HostName)); err != nil {
		return err
	}
	if err := m.Register(builtin.Audit("host:started", "host:stopping")); err != nil {
		return err
	}

	scripts, err := script.Discover(cfg.PluginDir)
	if err != nil {
		log.Warn("some plugin scripts failed to load", "dir", cfg.PluginDir, "error", err)
	}
	for _, p := range scripts {
		if err := m.Register(p); err != nil {
			log.Warn("script registration rejected", "plugin", p.ID, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize plugins: %w", err)
	}
	for id, perr := range m.Errors() {
		log.Error("plugin unavailable", "plugin", id, "error", perr)
	}

	b.Send(ctx, "host:started", "host", cfg.HostName, bus.WithBroadcast())
	log.Info("host running", "name", cfg.HostName, "plugins", m.Count())

	<-ctx.Done()

	b.Send(context.Background(), "host:stopping", "host", cfg.HostName, bus.WithBroadcast())
	stats := b.Stats()
	log.Info("host stopped",
		"published", stats.Published, "delivered", stats.Delivered, "handler_errors", stats.HandlerErrors)
	b.ClearAllHandlers()
	return nil
}

// logLifecycle mirrors every plugin lifecycle event into the log.
func logLifecycle(m *plugin.Manager, log *slog.Logger) {
	for _, kind := range []plugin.EventKind{
		plugin.EventInitialized, plugin.EventError, plugin.EventDisabled, plugin.EventEnabled,
	} {
		m.On(kind, func(ev plugin.Event) {
			if ev.Err != nil {
				log.Warn("plugin event", "event", ev.Kind.String(), "plugin", ev.Plugin, "error", ev.Err)
				return
			}
			log.Info("plugin event", "event", ev.Kind.String(), "plugin", ev.Plugin)
		})
	}
}
