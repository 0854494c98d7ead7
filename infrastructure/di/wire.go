//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"papergraph/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideMetrics,
	ProvideTracer,
	ProvideCaches,
	ProvideProviders,
	ProvidePaperSource,
	ProvideAnalysisService,
	ProvideQueryEngine,
	ProvideConnectionFinder,
	ProvideGraphBuilder,
	ProvidePathFinder,
	ProvideKnowledgeService,
	ProvideQueryBus,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
