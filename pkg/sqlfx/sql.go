package sqlfx

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver" // sqlite3 driver
	_ "github.com/ncruces/go-sqlite3/embed"  // bundled sqlite build
	"go.uber.org/zap"
)

// New opens and pings the configured database.
func New(ctx context.Context, config Config, logger *zap.Logger) (*sql.DB, error) {
	dsn, err := config.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.Driver == DriverSQLite {
		// one writer at a time, shared by the whole process
		db.SetMaxOpenConns(1)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", pingErr)
	}

	logger.Info("database opened", zap.String("driver", config.Driver))

	return db, nil
}
