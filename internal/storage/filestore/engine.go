// Package filestore keeps every entity in memory and persists the whole
// registry as one JSON document.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"github.com/natefinch/atomic"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const Name = "file"

const filePerm = 0o644

type Config struct {
	// Path of the JSON document.
	Path string
}

type Engine struct {
	path     string
	registry *models.Registry
	logger   *zap.Logger

	mu      sync.RWMutex
	objects map[string]models.Entity

	// saveMu orders document writes and reads; held from snapshot to rename.
	saveMu sync.Mutex

	resolver *storage.ScanResolver
}

func New(config Config, registry *models.Registry, logger *zap.Logger) *Engine {
	e := &Engine{
		path:     config.Path,
		registry: registry,
		logger:   logger,

		mu:      sync.RWMutex{},
		objects: make(map[string]models.Entity),

		saveMu: sync.Mutex{},

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
func (e *Engine) All(_ context.Context, class string) (map[string]models.Entity, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	storage.Observe(Name, storage.OpAll, nil)

	return e.allLocked(class), nil
}

func (e *Engine) allLocked(class string) map[string]models.Entity {
	if class == "" {
		return maps.Clone(e.objects)
	}

	return lo.PickBy(e.objects, func(_ string, entity models.Entity) bool {
		return entity.Class() == class
	})
}

// New implements storage.Engine.
func (e *Engine) New(entity models.Entity) {
	if entity == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.objects[models.Key(entity)] = entity
}

// Save implements storage.Engine.
func (e *Engine) Save(_ context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.RLock()
	document := make(map[string]map[string]any, len(e.objects))
	for key, entity := range e.objects {
		document[key] = models.ToMap(entity)
	}
	e.mu.RUnlock()

	err := e.write(document)
	storage.Observe(Name, storage.OpSave, err)
	if err != nil {
		e.logger.Error("failed to save document", zap.String("path", e.path), zap.Error(err))
		return fmt.Errorf("%w: %w", storage.ErrCommitFailed, err)
	}

	storage.SetObjects(Name, len(document))
	e.logger.Debug("document saved", zap.String("path", e.path), zap.Int("objects", len(document)))

	return nil
}

func (e *Engine) write(document map[string]map[string]any) error {
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if dir := filepath.Dir(e.path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
			return fmt.Errorf("failed to create directory: %w", mkErr)
		}
	}

	if wrErr := atomic.WriteFile(e.path, bytes.NewReader(data)); wrErr != nil {
		return fmt.Errorf("failed to write document: %w", wrErr)
	}

	// atomic.WriteFile leaves new files with the temp file mode
	if chErr := os.Chmod(e.path, filePerm); chErr != nil {
		return fmt.Errorf("failed to set document permissions: %w", chErr)
	}

	return nil
}

// Delete implements storage.Engine. Entities referencing the deleted one are
// purged as well, so no orphan survives the next Save.
func (e *Engine) Delete(ctx context.Context, entity models.Entity) error {
	if entity == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := models.Key(entity)
	if _, ok := e.objects[key]; !ok {
		return nil
	}

	locked := storage.NewScanResolver(func(_ context.Context, class string) (map[string]models.Entity, error) {
		return e.allLocked(class), nil
	})
	dependents, err := storage.Descendants(ctx, locked, entity)
	storage.Observe(Name, storage.OpDelete, err)
	if err != nil {
		return fmt.Errorf("failed to resolve dependents of %s: %w", key, err)
	}

	delete(e.objects, key)
	for _, dependent := range dependents {
		delete(e.objects, models.Key(dependent))
	}

	if len(dependents) > 0 {
		e.logger.Debug("dependents removed", zap.String("key", key), zap.Int("count", len(dependents)))
	}

	return nil
}

// Reload implements storage.Engine. A missing document yields an empty
// registry; an undecodable record aborts the reload and keeps the previous state.
func (e *Engine) Reload(_ context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	objects, err := e.read()
	storage.Observe(Name, storage.OpReload, err)
	if err != nil {
		e.logger.Error("failed to reload document", zap.String("path", e.path), zap.Error(err))
		return err
	}

	e.mu.Lock()
	e.objects = objects
	e.mu.Unlock()

	storage.SetObjects(Name, len(objects))
	e.logger.Debug("document reloaded", zap.String("path", e.path), zap.Int("objects", len(objects)))

	return nil
}

func (e *Engine) read() (map[string]models.Entity, error) {
	data, err := os.ReadFile(e.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]models.Entity), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var document map[string]map[string]any
	if jsonErr := json.Unmarshal(data, &document); jsonErr != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidRecord, jsonErr)
	}

	objects := make(map[string]models.Entity, len(document))
	for key, record := range document {
		entity, decErr := models.FromMap(e.registry, record)
		if decErr != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", key, decErr)
		}
		objects[models.Key(entity)] = entity
	}

	return objects, nil
}

// Close implements storage.Engine. Unsaved changes are dropped by re-reading
// the document.
func (e *Engine) Close(ctx context.Context) error {
	err := e.Reload(ctx)
	storage.Observe(Name, storage.OpClose, err)

	return err
}

// Resolver implements storage.Engine.
func (e *Engine) Resolver() storage.Resolver {
	return e.resolver
}

var _ storage.Engine = (*Engine)(nil)
