package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
	"github.com/shelepuginivan/xtray"
	"github.com/shelepuginivan/xtray/x11"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tray manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}

			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			setupLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, stop, cfg)
		},
	}

	registerFlags(cmd.Flags())

	return cmd
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *Config) error {
	conn, err := x11.Dial(cfg.Display, log.Logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	screen := cfg.Screen
	if screen < 0 {
		screen = conn.DefaultScreen()
	}

	info, err := conn.Screen(screen)
	if err != nil {
		return err
	}

	host, err := newOffscreenHost(conn, info.Root, cfg.IconSize, cfg.Orientation, log.Logger)
	if err != nil {
		return err
	}
	defer host.close()

	manager := xtray.NewManager(conn, log.Logger.With().Int("screen", screen).Logger())
	manager.AddListener(host)
	manager.AddListener(logListener(log.Logger))
	manager.AddListener(xtray.ListenerFuncs{
		OnLostSelection: func() { stop() },
	})

	var service *xtray.Service

	if cfg.DBus {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("connect session bus: %w", err)
		}
		defer bus.Close()

		service = xtray.NewService(bus)
		if err := service.Listen(); err != nil {
			return err
		}
		defer service.Close()

		manager.AddListener(service)
	}

	if err := manager.SetOrientation(cfg.Orientation); err != nil {
		return err
	}

	if err := manager.Manage(screen); err != nil {
		return err
	}

	if service != nil {
		service.SetManaged(true)
	}

	err = manager.Run(ctx)
	manager.Unmanage()

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
