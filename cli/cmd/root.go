package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "pgapigen",
		Short:        "pgapigen",
		SilenceUsage: true,
		Long:         `CLI tool for generating typed async Python wrappers (psycopg) from PostgreSQL CREATE FUNCTION declarations.`,
	}

	configFile string
	verbose    bool
)

// Execute executes the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a pgapigen.yaml with naming overrides (default: ./pgapigen.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cobra.OnInitialize(func() {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	})
	return rootCmd.Execute()
}
