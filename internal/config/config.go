package config

import (
	"fmt"
	"os"

	"github.com/go-core-fx/config"
)

const (
	StorageFile = "file"
	StorageDB   = "db"
	StorageKV   = "kv"

	// EnvTest resets the relational schema when the engine starts.
	EnvTest = "test"
)

type http struct {
	Address     string   `koanf:"address"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`
}

type fileConfig struct {
	Path string `koanf:"path"`
}

type dbConfig struct {
	Dialect  string `koanf:"dialect"`
	Path     string `koanf:"path"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Host     string `koanf:"host"`
	Name     string `koanf:"name"`
}

type kvConfig struct {
	Dir      string `koanf:"dir"`
	InMemory bool   `koanf:"in_memory"`
}

type storageConfig struct {
	Type string     `koanf:"type"`
	Env  string     `koanf:"env"`
	File fileConfig `koanf:"file"`
	DB   dbConfig   `koanf:"db"`
	KV   kvConfig   `koanf:"kv"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Storage storageConfig `koanf:"storage"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Address:     "127.0.0.1:5000",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Storage: storageConfig{
			Type: StorageFile,
			File: fileConfig{
				Path: "file.json",
			},
			DB: dbConfig{
				Dialect: "sqlite",
				Path:    "./data/hbnb.db",
			},
			KV: kvConfig{
				Dir: "./data/kv",
			},
		},
	}
}

func New() (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	ApplyLegacyEnv(&cfg, os.LookupEnv)

	return cfg, nil
}

// ApplyLegacyEnv honours the HBNB_* deployment variables over the loaded config.
func ApplyLegacyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("HBNB_TYPE_STORAGE"); ok {
		if v == StorageDB {
			cfg.Storage.Type = StorageDB
		} else {
			cfg.Storage.Type = StorageFile
		}
	}

	if v, ok := lookup("HBNB_ENV"); ok {
		cfg.Storage.Env = v
	}

	mysql := false
	for name, target := range map[string]*string{
		"HBNB_MYSQL_USER": &cfg.Storage.DB.User,
		"HBNB_MYSQL_PWD":  &cfg.Storage.DB.Password,
		"HBNB_MYSQL_HOST": &cfg.Storage.DB.Host,
		"HBNB_MYSQL_DB":   &cfg.Storage.DB.Name,
	} {
		if v, ok := lookup(name); ok {
			*target = v
			mysql = true
		}
	}
	if mysql {
		cfg.Storage.DB.Dialect = "mysql"
	}
}
