package persistence

import (
	"context"

	"github.com/go-core-fx/logger"
	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"persistence",
		logger.WithNamedLogger("persistence"),
		fx.Provide(models.DefaultRegistry),
		fx.Provide(func(config Config, registry *models.Registry, logger *zap.Logger, lc fx.Lifecycle) (*Handle, error) {
			handle, err := New(context.Background(), config, registry, logger)
			if err != nil {
				return nil, err
			}

			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					logger.Info("loading storage", zap.String("engine", handle.Engine.Name()))
					return handle.Engine.Reload(ctx)
				},
				OnStop: func(ctx context.Context) error {
					logger.Info("closing storage", zap.String("engine", handle.Engine.Name()))
					return handle.Shutdown(ctx)
				},
			})

			return handle, nil
		}),
		fx.Provide(func(handle *Handle) storage.Engine { return handle.Engine }),
		fx.Provide(storage.NewSessions),
	)
}
