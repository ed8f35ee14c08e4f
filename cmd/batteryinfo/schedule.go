package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/batteryinfo/pkg/config"
)

func NewScheduleCommand() *cobra.Command {
	var (
		skip    bool
		disable bool
	)

	cmd := &cobra.Command{
		Use:     "schedule [cron-expression]",
		GroupID: gDaemon,
		Short:   "Manage scheduled battery refreshes",
		Long: `Manage scheduled battery refreshes.

The daemon can refresh the battery on a cron schedule, independent of any requests. The schedule command can be used in multiple ways:
  batteryinfo schedule                  Show the current schedule
  batteryinfo schedule 'cron-expression' Set the schedule
  batteryinfo schedule --skip           Skip the next run
  batteryinfo schedule --disable        Disable the schedule

The new schedule is saved to the config file.`,
		Example: `  batteryinfo schedule '*/5 * * * *' (Every 5 minutes)
  batteryinfo schedule '@every 30s'   (Every 30 seconds)
  batteryinfo schedule '@hourly'      (At the start of every hour)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if skip && disable {
				return fmt.Errorf("--skip and --disable cannot be used together")
			}
			if (skip || disable) && len(args) > 0 {
				return fmt.Errorf("a cron expression cannot be combined with --skip or --disable")
			}

			var (
				ps  *config.PollSchedule
				err error
			)
			switch {
			case skip:
				ps, err = apiClient.SkipPollSchedule()
			case disable:
				ps, err = apiClient.SetPollSchedule("")
			case len(args) == 1:
				if args[0] == "" {
					return fmt.Errorf("cron expression cannot be empty, use --disable instead")
				}
				ps, err = apiClient.SetPollSchedule(args[0])
			default:
				ps, err = apiClient.GetPollSchedule()
			}
			if err != nil {
				return err
			}

			printPollSchedule(cmd.OutOrStdout(), ps)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skip, "skip", false, "skip the next scheduled refresh")
	cmd.Flags().BoolVar(&disable, "disable", false, "disable scheduled refreshes")

	return cmd
}

func printPollSchedule(w io.Writer, ps *config.PollSchedule) {
	if ps.Cron == "" {
		fmt.Fprintln(w, "Scheduled refreshes are disabled.")
		return
	}

	fmt.Fprintf(w, "Schedule: %s\n", ps.Cron)
	if ps.NextRun == nil || !ps.Running {
		fmt.Fprintln(w, "Next run: -")
		return
	}
	fmt.Fprintf(w, "Next run: %s\n", ps.NextRun.Local().Format(time.DateTime))
}
