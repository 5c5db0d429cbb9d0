// Package cli implements the xtrayd command line.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "xtrayd",
		Short:         "xtrayd: headless freedesktop.org system tray manager",
		Long:          "xtrayd claims the system tray selection of an X screen, embeds tray icons offscreen and exports them on the session bus.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newWatchCmd(),
		newCheckCmd(),
	)

	return rootCmd
}

// setupLogger configures the global logger.
func setupLogger(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
