package main

import (
	"github.com/spf13/cobra"

	"github.com/emmanuelfore/tarisa-sub001/internal/bootstrap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one escalation sweep and print the report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(c *bootstrap.Container) error {
			report, err := c.EscalationWorker.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		})
	},
}
