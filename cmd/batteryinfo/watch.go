package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
)

func NewWatchCommand() *cobra.Command {
	var (
		flags    readingFlags
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: gLocal,
		Short:   "Print a line whenever the battery changes",
		Long: `Read the battery directly and print a line whenever its values change.

The battery is re-read at most once per interval.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			r, done, err := flags.acquire(cmd, batteryinfo.WithRefreshInterval(interval))
			if err != nil {
				return err
			}
			defer done()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watch(ctx, cmd, r, interval)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "minimum time between reads")

	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, r *batteryinfo.Reading, interval time.Duration) error {
	last := ""
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		wait := interval
		if err := r.Poll(); err != nil {
			// The previous values are still valid, keep watching.
			logrus.WithError(err).Warn("failed to read battery")
		} else {
			if line := watchLine(r.Snapshot()); line != last {
				cmd.Printf("%s %s\n", time.Now().Format(time.TimeOnly), line)
				last = line
			}
			wait = nextPollWait(r.Snapshot().AsOf, interval, time.Now())
		}
		timer.Reset(wait)
	}
}

// nextPollWait returns how long to sleep until a reading taken at asOf
// goes stale.
func nextPollWait(asOf time.Time, interval time.Duration, now time.Time) time.Duration {
	wait := asOf.Add(interval).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

func watchLine(s batteryinfo.Snapshot) string {
	parts := []string{s.Percent.Formatted(), s.State.Display(), s.EnergyRate.Formatted()}
	if s.Temperature != nil {
		parts = append(parts, s.Temperature.Formatted())
	}
	if s.TimeToEmpty != nil {
		parts = append(parts, *s.TimeToEmpty+" to empty")
	}
	if s.TimeToFull != nil {
		parts = append(parts, *s.TimeToFull+" to full")
	}
	return strings.Join(parts, "  ")
}
