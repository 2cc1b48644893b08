package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/matt-steen/care-tracker/pkg/config"
	"github.com/matt-steen/care-tracker/pkg/db"
	"github.com/matt-steen/care-tracker/pkg/model"
	"github.com/spf13/cobra"
)

var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "List the notification triggers registered on this device",
	Args:  cobra.NoArgs,
	RunE:  runTriggers,
}

func runTriggers(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	device, err := db.NewDatabase(cmd.Context(), cfg.Notifications.Database, !cfg.Notifications.Blocked, loc)
	if err != nil {
		return err
	}
	defer device.Close()

	triggers, err := device.All(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tTITLE\tNEXT\tREPEATS")

	for _, t := range triggers {
		repeats := "once"
		if t.Recurring() {
			repeats = fmt.Sprintf("weekly (%s)", model.Days[t.Weekday])
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Tag, t.Title, t.FireAt.Format("Mon Jan 2 2006 15:04"), repeats)
	}

	return w.Flush()
}
