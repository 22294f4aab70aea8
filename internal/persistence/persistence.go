// Package persistence builds the single storage engine of the process.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"github.com/hbnb/hbnb/internal/storage/dbstore"
	"github.com/hbnb/hbnb/internal/storage/filestore"
	"github.com/hbnb/hbnb/internal/storage/kvstore"
	"github.com/hbnb/hbnb/pkg/badgerfx"
	"github.com/hbnb/hbnb/pkg/sqlfx"
	"go.uber.org/zap"
)

const (
	TypeFile = filestore.Name
	TypeDB   = dbstore.Name
	TypeKV   = kvstore.Name
)

type DBConfig struct {
	// Dialect is "sqlite" or "mysql".
	Dialect  string
	Path     string
	User     string
	Password string
	Host     string
	Name     string
}

type KVConfig struct {
	Dir      string
	InMemory bool
}

type Config struct {
	// Type selects the engine: TypeFile, TypeDB or TypeKV.
	Type string
	// TestMode lets the relational engine start from empty tables.
	TestMode bool

	FilePath string
	DB       DBConfig
	KV       KVConfig
}

// Handle owns the engine and the backend resources it depends on.
type Handle struct {
	Engine storage.Engine

	closers []func() error
}

// New builds the engine selected by config. The engine is not reloaded yet.
func New(ctx context.Context, config Config, registry *models.Registry, logger *zap.Logger) (*Handle, error) {
	engineLogger := logger.With(zap.String("engine", config.Type))

	switch config.Type {
	case TypeFile, "":
		engine := filestore.New(filestore.Config{Path: config.FilePath}, registry, engineLogger)
		return &Handle{Engine: engine, closers: nil}, nil

	case TypeDB:
		driver := sqlfx.DriverSQLite
		if config.DB.Dialect == string(dbstore.DialectMySQL) {
			driver = sqlfx.DriverMySQL
		}

		db, err := sqlfx.New(ctx, sqlfx.Config{
			Driver:   driver,
			Path:     config.DB.Path,
			User:     config.DB.User,
			Password: config.DB.Password,
			Host:     config.DB.Host,
			Name:     config.DB.Name,
		}, engineLogger)
		if err != nil {
			return nil, err
		}

		engine, err := dbstore.New(db, dbstore.Config{
			Dialect:    dbstore.Dialect(config.DB.Dialect),
			DropTables: config.TestMode,
		}, registry, engineLogger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		return &Handle{Engine: engine, closers: []func() error{db.Close}}, nil

	case TypeKV:
		db, err := badgerfx.New(badgerfx.Config{Dir: config.KV.Dir, InMemory: config.KV.InMemory}, engineLogger)
		if err != nil {
			return nil, err
		}

		return &Handle{Engine: kvstore.New(db, registry, engineLogger), closers: []func() error{db.Close}}, nil

	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnsupportedEngine, config.Type)
	}
}

// Shutdown closes the session and releases the backend.
func (h *Handle) Shutdown(ctx context.Context) error {
	errs := []error{h.Engine.Close(ctx)}
	for _, closer := range h.closers {
		errs = append(errs, closer())
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shut down %s engine: %w", h.Engine.Name(), err)
	}

	return nil
}
