package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/srg/blecentral/internal/central"
	"github.com/srg/blecentral/internal/device"
)

func newSubscribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe <device-address> <characteristic-uuid>...",
		Short: "Print notifications from characteristics",
		Long: `Connects to the device, enables notifications on the given
characteristics and prints every value until interrupted or --duration elapses.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runSubscribe,
	}
	cmd.Flags().Duration("scan-timeout", 15*time.Second, "How long to scan for the device")
	cmd.Flags().DurationP("duration", "d", 0, "Stop after this long (0 for until Ctrl+C)")
	return cmd
}

func runSubscribe(cmd *cobra.Command, args []string) error {
	identity := normalizeIdentity(args[0])
	charIDs, err := device.ValidateUUID(args[1:]...)
	if err != nil {
		return fmt.Errorf("invalid characteristic UUID: %w", err)
	}
	duration, _ := cmd.Flags().GetDuration("duration")

	dc, err := openDeviceCommand(cmd, identity, duration)
	if err != nil {
		return err
	}
	defer dc.close()

	for _, id := range charIDs {
		if err := dc.session.SubscribeNotifications(identity, id); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for {
		select {
		case <-dc.ctx.Done():
			return nil
		case ev, ok := <-dc.sub.C:
			if !ok {
				return central.ErrSessionClosed
			}
			if ev.Identity != identity {
				continue
			}
			switch {
			case ev.Kind == central.EventValueUpdated:
				fmt.Fprintf(out, "%s %s %x\n", time.Now().Format("15:04:05.000"), ev.CharacteristicID, ev.Value)
			case ev.Kind == central.EventOperationFailed:
				return ev.Err
			case ev.Kind == central.EventConnectionChanged && ev.State == device.Disconnected:
				return ErrConnectionLost
			}
		}
	}
}
