package main

import (
	"github.com/spf13/cobra"

	"github.com/samgonzalez27/buildplan"
	"github.com/samgonzalez27/buildplan/internal/demo"
)

type rootFlags struct {
	scenario string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "buildplan",
		Short:         "Inspect and run the demo dependency-injection build plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.scenario, "scenario", "chain", "demo scenario to plan: chain or split")

	cmd.AddCommand(newPlanCmd(flags))
	cmd.AddCommand(newRunCmd(flags))

	return cmd
}

func scenarioRegistry(scenario string) (*buildplan.Registry, error) {
	switch scenario {
	case "split":
		return demo.NewSplitRegistry()
	default:
		return demo.NewChainRegistry()
	}
}
