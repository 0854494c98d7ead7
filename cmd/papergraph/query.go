package main

import (
	"strings"

	"github.com/spf13/cobra"

	"papergraph/application/queries"
	"papergraph/application/queries/engine"
)

func newQueryCmd(flags *globalFlags) *cobra.Command {
	opts := engine.DefaultQueryOptions()

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a research question against the graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, cleanup, err := flags.buildContainer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := container.QueryBus.Ask(ctx, queries.ResearchQuery{
				Text:    strings.Join(args, " "),
				Options: opts,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVarP(&opts.MaxResults, "limit", "n", opts.MaxResults, "maximum number of results (0 uses the configured default)")
	cmd.Flags().BoolVar(&opts.IncludeConnections, "connections", opts.IncludeConnections, "include connections between results")
	cmd.Flags().Float64Var(&opts.SemanticThreshold, "threshold", opts.SemanticThreshold, "semantic similarity threshold")
	cmd.Flags().BoolVar(&opts.UseGraphStructure, "graph", opts.UseGraphStructure, "expand results through graph neighbours")
	return cmd
}
