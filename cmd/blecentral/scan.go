package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/srg/blecentral/internal/central"
	"github.com/srg/blecentral/internal/sampler"
)

const watchRedrawInterval = time.Second

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for BLE devices",
		Long: `Scan for Bluetooth Low Energy devices in the vicinity.

Each device is listed with the average, weakest and strongest signal over
its recent history and a quality rating derived from the average.`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
	cmd.Flags().DurationP("duration", "d", 10*time.Second, "Scan duration (0 for indefinite)")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	cmd.Flags().BoolP("watch", "w", false, "Redraw the table while scanning")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", format)
	}
	duration, _ := cmd.Flags().GetDuration("duration")
	watch, _ := cmd.Flags().GetBool("watch")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd.Context(), duration)
	defer cancel()

	sess, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	sub := sess.Subscribe(central.EventPowerStateChanged, central.EventDeviceListChanged, central.EventOperationFailed)
	defer sub.Unsubscribe()

	if err := waitPoweredOn(ctx, sess, sub); err != nil {
		return err
	}
	if err := sess.StartScanning(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	live := watch && format == "table" && isTerminal(out)
	redraw := time.NewTicker(watchRedrawInterval)
	defer redraw.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-sub.C:
			if !ok {
				break loop
			}
			if ev.Kind == central.EventOperationFailed && ev.Identity == "" {
				return ev.Err
			}
		case <-redraw.C:
			if live {
				clearScreen(out)
				if err := displayDevicesTable(out, sess.Devices()); err != nil {
					return err
				}
			}
		}
	}
	_ = sess.StopScanning()

	devices := sess.Devices()
	if live {
		clearScreen(out)
	}
	if format == "json" {
		return displayDevicesJSON(out, devices)
	}
	return displayDevicesTable(out, devices)
}

// signalContext is cancelled on Ctrl+C, SIGTERM or after timeout (0 for none)
func signalContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}

// sortByStrength orders devices strongest average first; devices without signal go last
func sortByStrength(devices []central.DeviceSnapshot) {
	sort.SliceStable(devices, func(i, j int) bool {
		a, b := devices[i], devices[j]
		if a.HasSignal != b.HasSignal {
			return a.HasSignal
		}
		return a.AverageRSSI > b.AverageRSSI
	})
}

func qualityColor(q sampler.Quality) *color.Color {
	switch q {
	case sampler.Amazing, sampler.VeryGood:
		return color.New(color.FgGreen)
	case sampler.Okay:
		return color.New(color.FgYellow)
	case sampler.NotGood:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

func displayDevicesTable(out io.Writer, devices []central.DeviceSnapshot) error {
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices discovered")
		return nil
	}
	sortByStrength(devices)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tAVG\tMIN\tMAX\tQUALITY\tSTATE\tLAST SEEN")
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for _, d := range devices {
		name := d.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}

		avg, lo, hi := "-", "-", "-"
		if d.HasSignal {
			avg = fmt.Sprintf("%.1f dBm", d.AverageRSSI)
			lo = fmt.Sprintf("%d", d.WeakestRSSI)
			hi = fmt.Sprintf("%d", d.StrongestRSSI)
		}
		state := d.State.String()
		if d.Stale {
			state += " (stale)"
		}
		lastSeen := time.Since(d.LastSeen).Truncate(time.Second)

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s ago\n",
			name, d.Identity, avg, lo, hi, qualityColor(d.Quality).Sprint(d.Quality.String()), state, lastSeen)
	}
	return w.Flush()
}

type deviceJSON struct {
	Name          string    `json:"name"`
	Vendor        string    `json:"vendor,omitempty"`
	Address       string    `json:"address"`
	State         string    `json:"state"`
	AverageRSSI   *float64  `json:"average_rssi,omitempty"`
	WeakestRSSI   *int      `json:"weakest_rssi,omitempty"`
	StrongestRSSI *int      `json:"strongest_rssi,omitempty"`
	Samples       int       `json:"samples"`
	Quality       string    `json:"quality"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	Stale         bool      `json:"stale,omitempty"`
}

func displayDevicesJSON(out io.Writer, devices []central.DeviceSnapshot) error {
	sortByStrength(devices)
	list := make([]deviceJSON, 0, len(devices))
	for _, d := range devices {
		j := deviceJSON{
			Name:      d.Name,
			Vendor:    d.Vendor,
			Address:   d.Identity,
			State:     d.State.String(),
			Samples:   len(d.Samples),
			Quality:   d.Quality.String(),
			FirstSeen: d.FirstSeen,
			LastSeen:  d.LastSeen,
			Stale:     d.Stale,
		}
		if d.HasSignal {
			avg, lo, hi := d.AverageRSSI, d.WeakestRSSI, d.StrongestRSSI
			j.AverageRSSI, j.WeakestRSSI, j.StrongestRSSI = &avg, &lo, &hi
		}
		list = append(list, j)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(list)
}

// isTerminal reports whether out is an interactive terminal
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func clearScreen(out io.Writer) {
	fmt.Fprint(out, "\033[2J\033[H")
}
