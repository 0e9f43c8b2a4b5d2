package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/srg/blecentral/internal/central"
	"github.com/srg/blecentral/internal/device"
)

func newWriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <device-address> <characteristic-uuid> <hex-data>",
		Short: "Write a value to a characteristic",
		Long: `Connects to the device, discovers it and writes the hex-encoded value
to the characteristic. Use --without-response for write commands.`,
		Args: cobra.ExactArgs(3),
		RunE: runWrite,
	}
	cmd.Flags().Duration("scan-timeout", 15*time.Second, "How long to scan for the device")
	cmd.Flags().Bool("without-response", false, "Write without response")
	cmd.Flags().Duration("settle", time.Second, "How long to wait for a write failure before disconnecting")
	return cmd
}

// parseHexValue accepts "01ff", "01 ff", "01:ff" and "0x01ff"
func parseHexValue(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "-", "").Replace(strings.TrimSpace(s))
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	if clean == "" {
		return nil, fmt.Errorf("empty value")
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex value %q: %w", s, err)
	}
	return b, nil
}

func runWrite(cmd *cobra.Command, args []string) error {
	identity := normalizeIdentity(args[0])
	charIDs, err := device.ValidateUUID(args[1])
	if err != nil {
		return fmt.Errorf("invalid characteristic UUID: %w", err)
	}
	charID := charIDs[0]
	value, err := parseHexValue(args[2])
	if err != nil {
		return err
	}
	mode := device.WithResponse
	if noRsp, _ := cmd.Flags().GetBool("without-response"); noRsp {
		mode = device.WithoutResponse
	}
	settle, _ := cmd.Flags().GetDuration("settle")

	dc, err := openDeviceCommand(cmd, identity, 0)
	if err != nil {
		return err
	}
	defer dc.close()

	if err := dc.session.WriteCharacteristic(identity, charID, value, mode); err != nil {
		return err
	}

	// a successful write produces no event; failures arrive within the settle window
	timeout := time.After(settle)
	for {
		select {
		case <-dc.ctx.Done():
			return dc.ctx.Err()
		case <-timeout:
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s (%s)\n", len(value), charID, mode)
			return nil
		case ev, ok := <-dc.sub.C:
			if !ok {
				return central.ErrSessionClosed
			}
			if ev.Identity != identity {
				continue
			}
			switch {
			case ev.Kind == central.EventOperationFailed:
				return ev.Err
			case ev.Kind == central.EventConnectionChanged && ev.State == device.Disconnected:
				return ErrConnectionLost
			}
		}
	}
}
