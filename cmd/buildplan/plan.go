package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samgonzalez27/buildplan/internal/demo"
)

func newPlanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Compile the demo registry and print the resulting plan's node count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := scenarioRegistry(flags.scenario)
			if err != nil {
				return fmt.Errorf("build registry: %w", err)
			}
			plan, err := reg.Plan(demo.TypeServer, "")
			if err != nil {
				return fmt.Errorf("compile plan: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scenario %q compiled: %d nodes\n", flags.scenario, plan.Nodes())
			return nil
		},
	}
}
