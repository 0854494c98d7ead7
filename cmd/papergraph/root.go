package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"papergraph/infrastructure/config"
	"papergraph/infrastructure/di"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile string
	papersPath string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "papergraph",
		Short: "Knowledge graph over research papers",
		Long: `papergraph builds a knowledge graph from a list of research papers.

Papers are linked by shared concepts and domain, scored for centrality and
grouped into clusters. The graph can be served over HTTP or queried from the
command line.

Examples:
  papergraph serve --papers papers.json
  papergraph query --papers papers.json "bone loss in microgravity"
  papergraph paths --papers papers.json --from 12 --to 40
  papergraph clusters --papers papers.json`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default is $CONFIG_FILE)")
	root.PersistentFlags().StringVarP(&flags.papersPath, "papers", "p", "", "paper list, JSON or YAML (default is $PAPERS_PATH)")

	root.AddCommand(
		newServeCmd(flags),
		newQueryCmd(flags),
		newPathsCmd(flags),
		newClustersCmd(flags),
	)
	return root
}

// loadConfig layers the command line flags over the file and env config
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f.papersPath != "" {
		cfg.PapersPath = f.papersPath
	}
	return cfg, nil
}

// buildContainer wires the application and builds the graph from --papers.
// The returned cleanup must always be called.
func (f *globalFlags) buildContainer(ctx context.Context) (*di.Container, func(), error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.PapersPath == "" {
		return nil, nil, fmt.Errorf("no paper list given: pass --papers or set PAPERS_PATH")
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize container: %w", err)
	}
	if _, err := container.Knowledge.Rebuild(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build graph: %w", err)
	}
	return container, cleanup, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
