package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "care-tracker",
	Short:         "Client roster and task reminders for caregivers",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "care-tracker.yaml", "configuration file")

	rootCmd.AddCommand(fakeAPICmd, triggersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
