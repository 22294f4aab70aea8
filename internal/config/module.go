package config

import (
	"github.com/go-core-fx/fiberfx"
	"github.com/hbnb/hbnb/internal/persistence"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(Persistence),
	)
}

// Persistence maps the storage section to the persistence config.
func Persistence(cfg Config) persistence.Config {
	return persistence.Config{
		Type:     cfg.Storage.Type,
		TestMode: cfg.Storage.Env == EnvTest,
		FilePath: cfg.Storage.File.Path,
		DB: persistence.DBConfig{
			Dialect:  cfg.Storage.DB.Dialect,
			Path:     cfg.Storage.DB.Path,
			User:     cfg.Storage.DB.User,
			Password: cfg.Storage.DB.Password,
			Host:     cfg.Storage.DB.Host,
			Name:     cfg.Storage.DB.Name,
		},
		KV: persistence.KVConfig{
			Dir:      cfg.Storage.KV.Dir,
			InMemory: cfg.Storage.KV.InMemory,
		},
	}
}

