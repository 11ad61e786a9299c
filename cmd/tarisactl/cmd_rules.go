package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emmanuelfore/tarisa-sub001/internal/routing"
)

var rulesFlags struct {
	path string
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and print the category assignment rules",
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesFlags.path, "file", "", "Rules YAML path (default: built-in table)")
}

func runRules(cmd *cobra.Command, _ []string) error {
	var (
		rules *routing.RuleSet
		err   error
	)
	if rulesFlags.path != "" {
		rules, err = routing.LoadRulesFile(rulesFlags.path)
	} else {
		rules, err = routing.DefaultRules()
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tDEPARTMENT CATEGORY\tPRIORITY\tSLA (h)")
	for _, r := range rules.Rules() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\n", r.Category, r.DepartmentCategory, r.Priority, r.SLAHours)
	}
	fb := rules.Fallback()
	fmt.Fprintf(tw, "*\t%s\t%s\t%g\n", fb.DepartmentCategory, fb.Priority, fb.SLAHours)
	return tw.Flush()
}
