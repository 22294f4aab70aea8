// Package kvstore keeps entities in BadgerDB, one JSON record per composite key.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"go.uber.org/zap"
)

const Name = "kv"

type Engine struct {
	db       *badger.DB
	registry *models.Registry
	logger   *zap.Logger

	mu      sync.Mutex
	session *storage.UnitOfWork

	resolver *storage.ScanResolver
}

func New(db *badger.DB, registry *models.Registry, logger *zap.Logger) *Engine {
	e := &Engine{
		db:       db,
		registry: registry,
		logger:   logger,

		mu:      sync.Mutex{},
		session: storage.NewUnitOfWork(),

		resolver: nil,
	}
	e.resolver = storage.NewScanResolver(e.All)

	return e
}

// Name implements storage.Engine.
func (e *Engine) Name() string {
	return Name
}

// All implements storage.Engine.
func (e *Engine) All(ctx context.Context, class string) (map[string]models.Entity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.allLocked(ctx, class)
	storage.Observe(Name, storage.OpAll, err)

	return result, err
}

func (e *Engine) allLocked(_ context.Context, class string) (map[string]models.Entity, error) {
	committed, err := e.load(class)
	if err != nil {
		return nil, err
	}

	return e.session.Merge(committed, class), nil
}

func (e *Engine) load(class string) (map[string]models.Entity, error) {
	var prefix []byte
	if class != "" {
		prefix = []byte(class + ".")
	}

	result := make(map[string]models.Entity)
	err := e.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())

			if err := item.Value(func(val []byte) error {
				var record map[string]any
				if err := json.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("%w: %w", models.ErrInvalidRecord, err)
				}

				entity, err := models.FromMap(e.registry, record)
				if err != nil {
					return err
				}

				result[models.Key(entity)] = entity
				return nil
			}); err != nil {
				return fmt.Errorf("failed to restore %s: %w", key, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	return result, nil
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

// Delete implements storage.Engine. Badger has no foreign keys, so dependents
// are staged explicitly.
func (e *Engine) Delete(ctx context.Context, entity models.Entity) error {
	if entity == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dependents, err := storage.Descendants(ctx, storage.NewScanResolver(e.allLocked), entity)
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

// Save implements storage.Engine. Changes are applied in one badger transaction.
func (e *Engine) Save(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	upserts, deletes := e.session.Changes()
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	err := e.db.Update(func(txn *badger.Txn) error {
		for _, entity := range upserts {
			data, err := json.Marshal(models.ToMap(entity))
			if err != nil {
				return fmt.Errorf("failed to marshal %s: %w", models.Key(entity), err)
			}

			if setErr := txn.Set([]byte(models.Key(entity)), data); setErr != nil {
				return fmt.Errorf("failed to write %s: %w", models.Key(entity), setErr)
			}
		}

		for _, entity := range deletes {
			if delErr := txn.Delete([]byte(models.Key(entity))); delErr != nil {
				return fmt.Errorf("failed to delete %s: %w", models.Key(entity), delErr)
			}
		}

		return nil
	})
	storage.Observe(Name, storage.OpSave, err)
	if err != nil {
		e.logger.Error("failed to commit session", zap.Error(err))
		return fmt.Errorf("%w: %w", storage.ErrCommitFailed, err)
	}

	e.session.Committed()
	e.logger.Debug("session committed", zap.Int("upserts", len(upserts)), zap.Int("deletes", len(deletes)))

	return nil
}

// Reload implements storage.Engine.
func (e *Engine) Reload(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.Reset()

	count := 0
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}

		return nil
	})
	storage.Observe(Name, storage.OpReload, err)
	if err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}

	storage.SetObjects(Name, count)
	e.logger.Debug("session opened", zap.Int("objects", count))

	return nil
}

// Close implements storage.Engine. Uncommitted changes are discarded.
func (e *Engine) Close(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.Reset()
	storage.Observe(Name, storage.OpClose, nil)

	return nil
}

// Resolver implements storage.Engine.
func (e *Engine) Resolver() storage.Resolver {
	return e.resolver
}

var _ storage.Engine = (*Engine)(nil)
