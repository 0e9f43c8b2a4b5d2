package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/blecentral/internal/capability"
	"github.com/srg/blecentral/internal/central"
	"github.com/srg/blecentral/pkg/config"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <device-address>",
		Short: "Inspect services and characteristics of a BLE device",
		Long: `Scans until the device is seen, connects to it and discovers its
services and characteristics, then prints the capability tree.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}
	cmd.Flags().Duration("scan-timeout", 15*time.Second, "How long to scan for the device")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

// deviceCommand holds what every per-device command sets up
type deviceCommand struct {
	cfg     *config.Config
	logger  *logrus.Logger
	session *central.Session
	sub     *central.Subscription
	device  central.DeviceSnapshot
	ctx     context.Context
	cancel  context.CancelFunc
}

// close disconnects the device and releases the session
func (d *deviceCommand) close() {
	closeDevice(d.session, d.sub, d.device.Identity, 2*time.Second)
	_ = d.session.Close()
	d.cancel()
}

// openDeviceCommand runs the shared preamble with a progress line on terminals.
// timeout bounds the whole command; 0 means until interrupted.
func openDeviceCommand(cmd *cobra.Command, identity string, timeout time.Duration) (*deviceCommand, error) {
	scanTimeout, _ := cmd.Flags().GetDuration("scan-timeout")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd.Context(), timeout)
	sess, err := openSession(cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	phase := func(string) {}
	if out := cmd.OutOrStdout(); isTerminal(out) {
		progress := NewProgressPrinter(out, "Inspecting "+identity, "Starting")
		progress.Start()
		defer progress.Stop()
		phase = progress.SetPhase
	}

	snap, sub, err := openDevice(ctx, sess, identity, scanTimeout, phase, logger)
	if err != nil {
		_ = sess.Close()
		cancel()
		return nil, err
	}
	return &deviceCommand{
		cfg:     cfg,
		logger:  logger,
		session: sess,
		sub:     sub,
		device:  snap,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	identity := normalizeIdentity(args[0])

	dc, err := openDeviceCommand(cmd, identity, 0)
	if err != nil {
		return err
	}
	defer dc.close()

	out := cmd.OutOrStdout()
	if asJSON {
		return displayCapabilitiesJSON(out, dc.device)
	}
	displayCapabilities(out, dc.device)
	return nil
}

func displayCapabilities(out io.Writer, d central.DeviceSnapshot) {
	name := d.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(out, "Device %s (%s)\n", name, d.Identity)
	if d.Vendor != "" {
		fmt.Fprintf(out, "  Vendor: %s\n", d.Vendor)
	}
	if d.HasSignal {
		fmt.Fprintf(out, "  Signal: %.1f dBm avg, %d..%d dBm, %s\n", d.AverageRSSI, d.WeakestRSSI, d.StrongestRSSI, d.Quality)
	}
	fmt.Fprintf(out, "  Services: %d, Characteristics: %d\n", len(d.Services), capability.CharacteristicCount(d.Services))

	for _, svc := range d.Services {
		fmt.Fprintf(out, "\n  Service %s%s\n", svc.ID, knownSuffix(svc.KnownName))
		for i, c := range svc.Characteristics {
			branch := "├─"
			if i == len(svc.Characteristics)-1 {
				branch = "└─"
			}
			fmt.Fprintf(out, "    %s %s%s [%s]\n", branch, c.ID, knownSuffix(c.KnownName), c.Properties)
		}
	}
}

func knownSuffix(name string) string {
	if name == "" {
		return ""
	}
	return " " + name
}

type characteristicJSON struct {
	UUID       string `json:"uuid"`
	Name       string `json:"name,omitempty"`
	Properties string `json:"properties"`
}

type serviceJSON struct {
	UUID            string               `json:"uuid"`
	Name            string               `json:"name,omitempty"`
	Characteristics []characteristicJSON `json:"characteristics"`
}

func displayCapabilitiesJSON(out io.Writer, d central.DeviceSnapshot) error {
	services := make([]serviceJSON, 0, len(d.Services))
	for _, svc := range d.Services {
		s := serviceJSON{UUID: svc.ID, Name: svc.KnownName, Characteristics: make([]characteristicJSON, 0, len(svc.Characteristics))}
		for _, c := range svc.Characteristics {
			s.Characteristics = append(s.Characteristics, characteristicJSON{UUID: c.ID, Name: c.KnownName, Properties: c.Properties.String()})
		}
		services = append(services, s)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Name     string        `json:"name"`
		Address  string        `json:"address"`
		Services []serviceJSON `json:"services"`
	}{d.Name, d.Identity, services})
}
