// Package dbstore persists entities as rows of a relational database, one
// table per class, through a unit-of-work session.
package dbstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"go.uber.org/zap"
)

const Name = "db"

type Config struct {
	Dialect Dialect

	// DropTables wipes every table on the first Reload. Test mode only.
	DropTables bool
}

type Engine struct {
	db       *sql.DB
	dialect  Dialect
	schema   *schema
	registry *models.Registry
	logger   *zap.Logger

	mu         sync.Mutex
	session    *storage.UnitOfWork
	dropTables bool

	resolver *joinResolver
}

func New(db *sql.DB, config Config, registry *models.Registry, logger *zap.Logger) (*Engine, error) {
	if err := config.Dialect.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnsupportedEngine, err)
	}

	e := &Engine{
		db:       db,
		dialect:  config.Dialect,
		schema:   newSchema(),
		registry: registry,
		logger:   logger,

		mu:         sync.Mutex{},
		session:    storage.NewUnitOfWork(),
		dropTables: config.DropTables,

		resolver: nil,
	}
	e.resolver = &joinResolver{engine: e}

	return e, nil
}

// Name implements storage.Engine.
func (e *Engine) Name() string {
	return Name
}

// All implements storage.Engine. Staged changes of the current session are
// visible before Save.
func (e *Engine) All(ctx context.Context, class string) (map[string]models.Entity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	committed, err := e.load(ctx, class)
	storage.Observe(Name, storage.OpAll, err)
	if err != nil {
		return nil, err
	}

	return e.session.Merge(committed, class), nil
}

func (e *Engine) load(ctx context.Context, class string) (map[string]models.Entity, error) {
	tables := e.schema.tables
	if class != "" {
		t, ok := e.schema.table(class)
		if !ok {
			return map[string]models.Entity{}, nil
		}
		tables = []*table{t}
	}

	result := make(map[string]models.Entity)
	for _, t := range tables {
		query := fmt.Sprintf("SELECT %s FROM %s t", e.schema.selectColumns(e.dialect, t, "t"), e.dialect.quote(t.name))

		entities, err := e.query(ctx, t, query)
		if err != nil {
			return nil, err
		}

		for _, entity := range entities {
			result[models.Key(entity)] = entity
		}
	}

	return result, nil
}

func (e *Engine) query(ctx context.Context, t *table, query string, args ...any) ([]models.Entity, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	var entities []models.Entity
	for rows.Next() {
		values := make([]any, len(t.columns))
		targets := make([]any, len(t.columns))
		for i := range values {
			targets[i] = &values[i]
		}

		if scanErr := rows.Scan(targets...); scanErr != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.name, scanErr)
		}

		record := make(map[string]any, len(t.columns))
		for i, c := range t.columns {
			record[c.name] = values[i]
		}

		entity, decErr := models.Rehydrate(e.registry, t.class, record)
		if decErr != nil {
			return nil, fmt.Errorf("failed to restore %s row: %w", t.name, decErr)
		}
		entities = append(entities, entity)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.name, rowsErr)
	}

	return entities, nil
}

// New implements storage.Engine.
func (e *Engine) New(entity models.Entity) {
	if entity == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.Add(entity)
}

// Delete implements storage.Engine. Dependents are staged for deletion too so
// the session view matches what the cascading foreign keys do on commit.
func (e *Engine) Delete(ctx context.Context, entity models.Entity) error {
	if entity == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dependents, err := storage.Descendants(ctx, lockedResolver{engine: e}, entity)
	storage.Observe(Name, storage.OpDelete, err)
	if err != nil {
		return fmt.Errorf("failed to resolve dependents of %s: %w", models.Key(entity), err)
	}

	e.session.Remove(entity)
	for _, dependent := range dependents {
		e.session.Remove(dependent)
	}

	return nil
}

// Save implements storage.Engine. All changes are applied in one transaction.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	upserts, deletes := e.session.Changes()
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	err := e.commit(ctx, upserts, deletes)
	storage.Observe(Name, storage.OpSave, err)
	if err != nil {
		e.logger.Error("failed to commit session", zap.Error(err))
		return fmt.Errorf("%w: %w", storage.ErrCommitFailed, err)
	}

	e.session.Committed()
	e.logger.Debug("session committed", zap.Int("upserts", len(upserts)), zap.Int("deletes", len(deletes)))

	return nil
}

func (e *Engine) commit(ctx context.Context, upserts, deletes []models.Entity) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, entity := range upserts {
		t, ok := e.schema.table(entity.Class())
		if !ok {
			return &models.UnknownClassError{Class: entity.Class()}
		}

		values, valErr := t.values(entity)
		if valErr != nil {
			return valErr
		}

		if _, execErr := tx.ExecContext(ctx, e.dialect.upsert(t), values...); execErr != nil {
			return fmt.Errorf("failed to write %s: %w", models.Key(entity), execErr)
		}
	}

	for _, entity := range deletes {
		t, ok := e.schema.table(entity.Class())
		if !ok {
			continue
		}

		query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", e.dialect.quote(t.name), e.dialect.quote("id"))
		if _, execErr := tx.ExecContext(ctx, query, entity.Base().ID); execErr != nil {
			return fmt.Errorf("failed to delete %s: %w", models.Key(entity), execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	return nil
}

// Reload implements storage.Engine. It creates missing tables and starts a
// fresh session; in test mode the first call drops every table beforehand.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.migrate(ctx)
	storage.Observe(Name, storage.OpReload, err)
	if err != nil {
		e.logger.Error("failed to prepare schema", zap.Error(err))
		return err
	}

	e.session.Reset()

	count, err := e.count(ctx)
	if err != nil {
		return err
	}
	storage.SetObjects(Name, count)
	e.logger.Debug("session opened", zap.String("dialect", string(e.dialect)), zap.Int("objects", count))

	return nil
}

func (e *Engine) migrate(ctx context.Context) error {
	if e.dropTables {
		e.logger.Warn("dropping all tables")
		for _, statement := range e.schema.dropStatements(e.dialect) {
			if _, err := e.db.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("failed to drop tables: %w", err)
			}
		}
		e.dropTables = false
	}

	for _, statement := range e.schema.createStatements(e.dialect) {
		if _, err := e.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

func (e *Engine) count(ctx context.Context) (int, error) {
	total := 0
	for _, t := range e.schema.tables {
		var n int
		query := "SELECT COUNT(*) FROM " + e.dialect.quote(t.name)
		if err := e.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
		}
		total += n
	}

	return total, nil
}

// Close implements storage.Engine. Uncommitted changes are discarded.
func (e *Engine) Close(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pending := e.session.Pending(); pending > 0 {
		e.logger.Debug("discarding uncommitted changes", zap.Int("pending", pending))
	}
	e.session.Reset()
	storage.Observe(Name, storage.OpClose, nil)

	return nil
}

// Resolver implements storage.Engine.
func (e *Engine) Resolver() storage.Resolver {
	return e.resolver
}

var _ storage.Engine = (*Engine)(nil)
