package main

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
)

func NewStatusCommand() *cobra.Command {
	var (
		flags  readingFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gLocal,
		Short:   "Read the battery and print its status",
		Long: `Read the battery directly, without the daemon, and print its identity and current values.

Defaults come from the config file. Flags override them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, done, err := flags.acquire(cmd)
			if err != nil {
				return err
			}
			defer done()

			if asJSON {
				b, err := json.MarshalIndent(r.AsMap(), "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(b))
				return nil
			}

			printStatus(cmd, r.Snapshot())
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

func printStatus(cmd *cobra.Command, s batteryinfo.Snapshot) {
	cmd.Println(bold("Battery %d:", s.Index))
	cmd.Printf("  Vendor: %s\n", orDash(s.Vendor))
	cmd.Printf("  Model: %s\n", orDash(s.Model))
	cmd.Printf("  Serial number: %s\n", orDash(s.SerialNumber))
	cmd.Printf("  Technology: %s\n", s.Technology)

	cmd.Println()

	cmd.Println(bold("Charge:"))
	cmd.Printf("  State: %s\n", stateText(s.State))
	cmd.Printf("  Current charge: %s\n", bold(s.Percent.Formatted()))
	switch {
	case s.TimeToEmpty != nil:
		cmd.Printf("  Time to empty: %s\n", *s.TimeToEmpty)
	case s.TimeToFull != nil:
		cmd.Printf("  Time to full: %s\n", *s.TimeToFull)
	}
	cmd.Printf("  Energy: %s / %s\n", s.Energy.Formatted(), s.EnergyFull.Formatted())
	cmd.Printf("  Power: %s\n", s.EnergyRate.Formatted())
	cmd.Printf("  Voltage: %s\n", s.Voltage.Formatted())

	cmd.Println()

	cmd.Println(bold("Health:"))
	cmd.Printf("  Capacity: %s (design %s)\n", bold(s.Capacity.Formatted()), s.EnergyFullDesign.Formatted())
	if s.CycleCount != nil {
		cmd.Printf("  Cycle count: %s\n", strconv.FormatUint(uint64(*s.CycleCount), 10))
	}
	if s.Temperature != nil {
		cmd.Printf("  Temperature: %s\n", s.Temperature.Formatted())
	}
}
