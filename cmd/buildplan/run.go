package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samgonzalez27/buildplan"
	"github.com/samgonzalez27/buildplan/internal/demo"
	"github.com/samgonzalez27/buildplan/internal/workdir"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var eager bool
	var rootConfigPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compile and run the demo registry, printing the built Server asset",
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

			var runOpts []buildplan.RunOption
			if eager {
				runOpts = append(runOpts, buildplan.WithEagerCleanup())
			} else {
				runOpts = append(runOpts, buildplan.WithDeferredCleanup())
			}
			if rootConfigPath != "" {
				root, err := workdir.LoadRootConfig(rootConfigPath)
				if err != nil {
					return err
				}
				runOpts = append(runOpts, buildplan.WithRoot(root.Root, root.Project))
			}

			asset, release, err := plan.Run(context.Background(), runOpts...)
			if err != nil {
				return fmt.Errorf("run plan: %w", err)
			}
			defer release()

			server := asset.(demo.Server)
			fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", server.Addr)
			return nil
		},
	}

	cmd.Flags().BoolVar(&eager, "eager-cleanup", true, "release producer assets as soon as their last consumer is built")
	cmd.Flags().StringVar(&rootConfigPath, "root-config", "", "path to a YAML root policy file (root, project) for persistent workdirs")

	return cmd
}
