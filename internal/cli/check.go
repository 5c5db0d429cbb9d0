package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shelepuginivan/xtray"
	"github.com/shelepuginivan/xtray/x11"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var display string
	var screen int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a tray manager is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := x11.Dial(display, zerolog.Nop())
			if err != nil {
				return err
			}
			defer conn.Close()

			if screen < 0 {
				screen = conn.DefaultScreen()
			}

			running, err := xtray.CheckRunning(conn, screen)
			if err != nil {
				return err
			}

			state := "not running"
			if running {
				state = "running"
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", xtray.SelectionName(screen), state)
			return err
		},
	}

	cmd.Flags().StringVar(&display, "display", "", "X display to connect to (default $DISPLAY)")
	cmd.Flags().IntVar(&screen, "screen", -1, "screen to check (default screen if negative)")

	return cmd
}
