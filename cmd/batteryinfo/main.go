package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/batteryinfo/pkg/client"
	"github.com/charlie0129/batteryinfo/pkg/version"
)

var (
	logLevel       = "info"
	unixSocketPath = "/run/batteryinfo.sock"
	configPath     = "/etc/batteryinfo.json"
)

var (
	gLocal        = "Local:"
	gDaemon       = "Daemon:"
	commandGroups = []string{
		gLocal,
		gDaemon,
	}
)

var apiClient *client.Client

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: batteryinfo daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'batteryinfo daemon', or use 'batteryinfo status' to read the battery directly.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or restart the daemon with the '--always-allow-non-root-access' flag to grant permissions to your user")
	}
}

// checkDaemonVersion warns when the daemon was built from another version.
func checkDaemonVersion() {
	daemonVersion, err := apiClient.GetVersion()
	if err != nil {
		logrus.WithError(err).Debug("failed to get daemon version")
		return
	}
	if daemonVersion != version.Version {
		logrus.WithFields(logrus.Fields{
			"clientVersion": version.Version,
			"daemonVersion": daemonVersion,
		}).Warn("Version mismatch between client and daemon. Output may not be what you expect.")
	}
}

func main() {
	// batteryinfo does not need many threads.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batteryinfo",
		Short: "batteryinfo reports battery telemetry",
		Long: `batteryinfo reports battery telemetry: charge, health, temperature, energy, cycle count and time remaining.

Readings are cached and only re-read from the hardware once the refresh interval has passed.
Use the local commands to read the battery directly, or run the daemon and query it over its unix socket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			apiClient = client.NewClient(unixSocketPath)
			if cmd.GroupID == gDaemon {
				checkDaemonVersion()
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path (.json or .toml)")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "batteryinfo daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewStatusCommand(),
		NewWatchCommand(),
		NewGetCommand(),
		NewRefreshCommand(),
		NewIntervalCommand(),
		NewScheduleCommand(),
		NewEventsCommand(),
		NewNonRootAccessCommand(),
		NewDaemonCommand(),
		NewVersionCommand(),
	)

	return cmd
}
