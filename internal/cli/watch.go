package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/shelepuginivan/xtray"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print tray events of a running xtrayd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bus, err := dbus.ConnectSessionBus()
			if err != nil {
				return fmt.Errorf("connect session bus: %w", err)
			}
			defer bus.Close()

			out := cmd.OutOrStdout()
			client := xtray.NewClient(bus)

			client.OnIconAdded(func(window uint32) {
				name, err := client.Name(window)
				if err != nil {
					name = "?"
				}
				fmt.Fprintf(out, "added\t%d\t%s\n", window, name)
			})
			client.OnIconRemoved(func(window uint32) {
				fmt.Fprintf(out, "removed\t%d\n", window)
			})
			client.OnMessage(func(msg *xtray.Message) {
				fmt.Fprintf(out, "message\t%d\t%d\t%s\t%q\n", msg.Window, msg.ID, msg.Timeout, msg.Text)
			})
			client.OnMessageCancelled(func(window, id uint32) {
				fmt.Fprintf(out, "cancelled\t%d\t%d\n", window, id)
			})
			client.OnLostSelection(func() {
				fmt.Fprintln(out, "lost-selection")
			})

			if err := client.Listen(); err != nil {
				return err
			}
			defer client.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			<-ctx.Done()
			return nil
		},
	}
}
