package internal

import (
	"context"

	"github.com/capcom6/go-infra-fx/validator"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/fiberfx/health"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"github.com/hbnb/hbnb/internal/config"
	"github.com/hbnb/hbnb/internal/persistence"
	"github.com/hbnb/hbnb/internal/server"
	"github.com/hbnb/hbnb/internal/states"
	"github.com/hbnb/hbnb/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Run() {
	fx.New(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		healthfx.Module(),
		fiberfx.Module(),
		validator.Module,
		//
		// APP MODULES
		config.Module(),
		persistence.Module(),
		server.Module(),
		//
		// BUSINESS MODULES
		fx.Provide(func() health.Version { return health.Version{Version: "0.1.0", ReleaseID: 1} }),
		states.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, engine storage.Engine, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("HBNB application starting up", zap.String("storage", engine.Name()))
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("HBNB application shutting down gracefully")
					return nil
				},
			})
		}),
	).Run()
}
