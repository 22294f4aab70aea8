package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestApplyLegacyEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want func(cfg *Config)
	}{
		{
			name: "no variables",
			env:  map[string]string{},
			want: func(*Config) {},
		},
		{
			name: "file storage",
			env:  map[string]string{"HBNB_TYPE_STORAGE": "file"},
			want: func(cfg *Config) { cfg.Storage.Type = StorageFile },
		},
		{
			name: "unknown storage falls back to file",
			env:  map[string]string{"HBNB_TYPE_STORAGE": "ftp"},
			want: func(cfg *Config) { cfg.Storage.Type = StorageFile },
		},
		{
			name: "mysql in test mode",
			env: map[string]string{
				"HBNB_TYPE_STORAGE": "db",
				"HBNB_ENV":          "test",
				"HBNB_MYSQL_USER":   "hbnb_test",
				"HBNB_MYSQL_PWD":    "hbnb_test_pwd",
				"HBNB_MYSQL_HOST":   "localhost",
				"HBNB_MYSQL_DB":     "hbnb_test_db",
			},
			want: func(cfg *Config) {
				cfg.Storage.Type = StorageDB
				cfg.Storage.Env = EnvTest
				cfg.Storage.DB.Dialect = "mysql"
				cfg.Storage.DB.User = "hbnb_test"
				cfg.Storage.DB.Password = "hbnb_test_pwd"
				cfg.Storage.DB.Host = "localhost"
				cfg.Storage.DB.Name = "hbnb_test_db"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default()
			ApplyLegacyEnv(&got, lookupFrom(tt.env))

			want := Default()
			tt.want(&want)

			assert.Equal(t, want, got)
		})
	}
}

func TestPersistence(t *testing.T) {
	cfg := Default()
	cfg.Storage.Type = StorageDB
	cfg.Storage.Env = EnvTest

	p := Persistence(cfg)
	assert.Equal(t, StorageDB, p.Type)
	assert.True(t, p.TestMode)
	assert.Equal(t, "sqlite", p.DB.Dialect)
	assert.Equal(t, "file.json", p.FilePath)

	cfg.Storage.Env = "dev"
	assert.False(t, Persistence(cfg).TestMode)
}
