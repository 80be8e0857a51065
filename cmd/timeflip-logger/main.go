// Command timeflip-logger connects to a TimeFlip cube over Bluetooth LE and
// appends one CSV line per activity interval.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flags holds values given on the command line. Only flags the user set
// override the config file.
type flags struct {
	configPath string
	address    string
	password   string
	output     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "timeflip-logger",
		Short:         "Connect to a TimeFlip and log activities to a CSV file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "path to config file (default: ~/.config/timeflip-logger/config.yaml)")
	root.Flags().StringVarP(&f.address, "address", "a", "", "Bluetooth address of TimeFlip device")
	root.Flags().StringVarP(&f.password, "password", "p", "000000", "password for TimeFlip device")
	root.Flags().StringVarP(&f.output, "output", "o", "timeflip_activities.csv", "file path to append activity intervals to")
	root.Flags().StringVarP(&f.logLevel, "log-level", "d", "info", "log level: debug, info, warn, error")

	root.AddCommand(newFacetsCmd(&f))
	root.AddCommand(newInitConfigCmd())
	root.AddCommand(newReportCmd(&f))
	return root
}
