package dbstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"github.com/hbnb/hbnb/internal/storage/storagetest"
	"github.com/hbnb/hbnb/pkg/sqlfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlfx.New(context.Background(), sqlfx.Config{
		Driver: sqlfx.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "hbnb.db"),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func newEngine(t *testing.T, db *sql.DB, config Config) *Engine {
	t.Helper()

	engine, err := New(db, config, models.DefaultRegistry(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, engine.Reload(context.Background()))

	return engine
}

func TestEngine_SQLite(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Opener {
		db := openSQLite(t)
		return func() storage.Engine {
			return newEngine(t, db, Config{Dialect: DialectSQLite, DropTables: false})
		}
	})
}

func TestEngine_MySQL(t *testing.T) {
	host := os.Getenv("HBNB_MYSQL_HOST")
	if host == "" {
		t.Skip("HBNB_MYSQL_HOST is not set")
	}

	storagetest.Run(t, func(t *testing.T) storagetest.Opener {
		db, err := sqlfx.New(context.Background(), sqlfx.Config{
			Driver:   sqlfx.DriverMySQL,
			User:     os.Getenv("HBNB_MYSQL_USER"),
			Password: os.Getenv("HBNB_MYSQL_PWD"),
			Host:     host,
			Name:     os.Getenv("HBNB_MYSQL_DB"),
		}, zaptest.NewLogger(t))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		// every test starts from empty tables
		newEngine(t, db, Config{Dialect: DialectMySQL, DropTables: true})

		return func() storage.Engine {
			return newEngine(t, db, Config{Dialect: DialectMySQL, DropTables: false})
		}
	})
}

func TestNewRejectsUnknownDialect(t *testing.T) {
	_, err := New(nil, Config{Dialect: "oracle"}, models.DefaultRegistry(), zaptest.NewLogger(t))
	require.ErrorIs(t, err, storage.ErrUnsupportedEngine)
}

func TestDropTablesOnce(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	storagetest.Store(t, newEngine(t, db, Config{Dialect: DialectSQLite}), storagetest.NewDataset())

	engine := newEngine(t, db, Config{Dialect: DialectSQLite, DropTables: true})
	all, err := engine.All(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)

	d := storagetest.NewDataset()
	storagetest.Store(t, engine, d)
	require.NoError(t, engine.Reload(ctx))

	all, err = engine.All(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(d.Entities()))
}

func TestSaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	engine := newEngine(t, db, Config{Dialect: DialectSQLite})

	state := models.NewState("California")
	orphan := models.NewCity("no-such-state", "Atlantis")
	engine.New(state)
	engine.New(orphan)

	err := engine.Save(ctx)
	require.ErrorIs(t, err, storage.ErrCommitFailed)

	restored := newEngine(t, db, Config{Dialect: DialectSQLite})
	all, err := restored.All(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCascadeInSchema(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	engine := newEngine(t, db, Config{Dialect: DialectSQLite})

	d := storagetest.NewDataset()
	storagetest.Store(t, engine, d)

	// a delete issued outside the engine still removes dependents
	_, err := db.ExecContext(ctx, `DELETE FROM "states" WHERE "id" = ?`, d.State.ID)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "cities"`).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "reviews"`).Scan(&count))
	assert.Zero(t, count)
}

func TestStatements(t *testing.T) {
	s := newSchema()
	cities, ok := s.table(models.ClassCity)
	require.True(t, ok)

	assert.Equal(t,
		`INSERT INTO "cities" ("id", "created_at", "updated_at", "state_id", "name") VALUES (?, ?, ?, ?, ?) `+
			`ON CONFLICT("id") DO UPDATE SET "created_at" = excluded."created_at", "updated_at" = excluded."updated_at", `+
			`"state_id" = excluded."state_id", "name" = excluded."name"`,
		DialectSQLite.upsert(cities),
	)
	assert.Contains(t, DialectMySQL.upsert(cities), "ON DUPLICATE KEY UPDATE `name` = VALUES(`name`)")

	create := s.createStatements(DialectMySQL)
	require.Len(t, create, len(models.Classes()))
	assert.Contains(t, create[2], "FOREIGN KEY (`state_id`) REFERENCES `states`(`id`) ON DELETE CASCADE")
	assert.Contains(t, create[2], "ENGINE=InnoDB")
	assert.Contains(t, create[4], "`amenity_ids` TEXT")

	drop := s.dropStatements(DialectSQLite)
	assert.Equal(t, `DROP TABLE IF EXISTS "reviews"`, drop[0])
	assert.Equal(t, `DROP TABLE IF EXISTS "users"`, drop[len(drop)-1])
}
