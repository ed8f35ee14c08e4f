package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batteryinfo/pkg/events"
	"github.com/charlie0129/batteryinfo/pkg/powerinfo"
)

func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "get [field]",
		GroupID: gDaemon,
		Short:   "Get battery values from the daemon",
		Long: `Get battery values from the daemon.

Without a field, every value is printed. The daemon re-reads the battery if its cached values are older than the refresh interval.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v, err := apiClient.GetField(args[0])
				if err != nil {
					return err
				}
				cmd.Println(formatMapValue(v))
				return nil
			}

			m, err := apiClient.GetBattery()
			if err != nil {
				return err
			}
			printMap(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func NewRefreshCommand() *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:     "refresh",
		GroupID: gDaemon,
		Short:   "Force the daemon to re-read the battery",
		Long: `Force the daemon to re-read the battery, ignoring the refresh interval.

With --index, the daemon switches to that battery.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var idx *int
			if cmd.Flags().Changed("index") {
				idx = &index
			}

			m, err := apiClient.Refresh(idx)
			if err != nil {
				return err
			}

			logrus.Infof("successfully refreshed battery %v", m["battery_index"])
			printMap(cmd.OutOrStdout(), m)
			return nil
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 0, "battery index to switch to")

	return cmd
}

func NewIntervalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "interval [milliseconds]",
		GroupID: gDaemon,
		Short:   "Get or set the daemon refresh interval",
		Long: `Get or set the daemon refresh interval in milliseconds.

Cached values younger than the interval are served without reading the battery. The new interval is saved to the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				d, err := apiClient.GetRefreshInterval()
				if err != nil {
					return err
				}
				cmd.Println(d.Milliseconds())
				return nil
			}

			ms, err := parseIntArg(args, "interval")
			if err != nil {
				return err
			}
			if ms < 0 {
				return fmt.Errorf("interval must not be negative, got %d", ms)
			}

			ret, err := apiClient.SetRefreshInterval(time.Duration(ms) * time.Millisecond)
			if err != nil {
				return fmt.Errorf("failed to set refresh interval: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set refresh interval to %dms", ms)

			return nil
		},
	}
}

func NewEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "events",
		GroupID: gDaemon,
		Short:   "Stream battery refresh events from the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for ev := range apiClient.SubscribeEvents(ctx) {
				switch ev.Name {
				case events.BatteryRefreshed:
					payload, err := events.DecodeAs[events.BatteryRefreshedEvent](ev)
					if err != nil {
						logrus.WithError(err).Errorf("failed to decode %s event", ev.Name)
						continue
					}
					cmd.Printf("%s battery %d refreshed: %.1f%% %s\n",
						time.Unix(payload.Ts, 0).Format(time.TimeOnly), payload.Index, payload.Percent, stateText(powerinfo.ParseState(payload.State)))
				case events.BatteryRefreshFailed:
					payload, err := events.DecodeAs[events.BatteryRefreshFailedEvent](ev)
					if err != nil {
						logrus.WithError(err).Errorf("failed to decode %s event", ev.Name)
						continue
					}
					cmd.Printf("%s battery %d refresh failed: %s\n",
						time.Unix(payload.Ts, 0).Format(time.TimeOnly), payload.Index, payload.Error)
				default:
					logrus.WithField("event", ev.Name).Debug("ignoring unknown event")
				}
			}

			return nil
		},
	}
}
