package main

import (
	"github.com/spf13/cobra"

	"papergraph/application/queries"
)

func newClustersCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "Summarise the research clusters in the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			container, cleanup, err := flags.buildContainer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := container.QueryBus.Ask(ctx, queries.ClusterAnalysisQuery{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
