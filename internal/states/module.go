package states

import (
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"states",
		logger.WithNamedLogger("states"),
		fx.Provide(NewService),
	)
}
