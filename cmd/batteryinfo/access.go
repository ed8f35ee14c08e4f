package main

import (
	"fmt"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewNonRootAccessCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "non-root-access [true|false]",
		GroupID: gLocal,
		Short:   "Show or change whether non-root users may access the daemon",
		Long: `Show or change whether non-root users may access the daemon.

By default, only root is allowed to access the batteryinfo daemon. Allowing non-root users lets anyone on this machine force battery reads and change the daemon's settings.

The value is saved to the config file. Restart the daemon to apply it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := loadLocalConfig()
			if len(args) == 0 {
				cmd.Println(conf.AllowNonRootAccess())
				return nil
			}

			allow, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q, must be true or false", args[0])
			}

			conf.SetAllowNonRootAccess(allow)
			if err := conf.Save(); err != nil {
				return pkgerrors.Wrapf(err, "failed to save config to %s", configPath)
			}

			if allow {
				logrus.Warn("non-root users will be allowed to access the daemon after it restarts")
			}
			cmd.Printf("allowNonRootAccess set to %t in %s\n", allow, configPath)
			return nil
		},
	}
}
