package main

import (
	"github.com/spf13/cobra"

	"papergraph/application/queries"
	querybus "papergraph/application/queries/bus"
)

func newPathsCmd(flags *globalFlags) *cobra.Command {
	var (
		from     string
		to       string
		maxHops  int
		indirect bool
	)

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Find research paths between papers",
		Long: `Find the strongest simple paths between two papers.

With --indirect only --from is needed, and the command lists papers reached
through at least one intermediate paper.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			container, cleanup, err := flags.buildContainer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var query querybus.Query
			if indirect {
				query = queries.FindIndirectQuery{PaperID: from, MaxHops: maxHops}
			} else {
				query = queries.FindPathsQuery{From: from, To: to, MaxHops: maxHops}
			}

			result, err := container.QueryBus.Ask(ctx, query)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source paper id")
	cmd.Flags().StringVar(&to, "to", "", "target paper id")
	cmd.Flags().IntVar(&maxHops, "max-hops", 0, "maximum hops (0 uses the default)")
	cmd.Flags().BoolVar(&indirect, "indirect", false, "list indirect connections of --from")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
