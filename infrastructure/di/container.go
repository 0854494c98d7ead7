package di

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	querybus "papergraph/application/queries/bus"
	"papergraph/application/services"
	"papergraph/infrastructure/config"
	"papergraph/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	LogLevel  zap.AtomicLevel
	Logger    *zap.Logger
	Metrics   *observability.Collector
	Tracer    *observability.Tracer
	Knowledge *services.KnowledgeService
	QueryBus  *querybus.QueryBus
	Router    http.Handler
}

// StartWatcher rebuilds the graph whenever the paper list or the config file
// changes. A reloaded config applies its log level at once; other settings
// take effect on restart.
func (c *Container) StartWatcher(ctx context.Context) (*config.Watcher, error) {
	watcher, err := config.NewWatcher(c.Config, c.Logger)
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(event config.ChangeEvent) {
		if event.Kind == config.ConfigChanged && event.Config != nil {
			if level, err := zap.ParseAtomicLevel(event.Config.LogLevel); err == nil {
				c.LogLevel.SetLevel(level.Level())
			}
		}

		snap, err := c.Knowledge.Rebuild(ctx)
		if err != nil {
			c.Logger.Error("Rebuild after file change failed",
				zap.String("path", event.Path),
				zap.Error(err),
			)
			return
		}
		c.Logger.Info("Rebuilt graph after file change",
			zap.String("path", event.Path),
			zap.Int64("version", snap.Version),
		)
	})

	watcher.Start()
	return watcher, nil
}
