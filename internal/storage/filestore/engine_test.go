package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"github.com/hbnb/hbnb/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newEngine(t *testing.T, path string) *Engine {
	t.Helper()

	engine := New(Config{Path: path}, models.DefaultRegistry(), zaptest.NewLogger(t))
	require.NoError(t, engine.Reload(context.Background()))

	return engine
}

func TestEngine(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Opener {
		path := filepath.Join(t.TempDir(), "file.json")
		return func() storage.Engine { return newEngine(t, path) }
	})
}

func TestReloadMissingDocument(t *testing.T) {
	engine := newEngine(t, filepath.Join(t.TempDir(), "absent.json"))

	all, err := engine.All(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDocumentFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "file.json")
	engine := newEngine(t, path)

	state := models.NewState("California")
	require.NoError(t, storage.SaveEntity(ctx, engine, state))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var document map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &document))
	require.Len(t, document, 1)

	record, ok := document["State."+state.ID]
	require.True(t, ok)
	assert.Equal(t, "State", record[models.ClassField])
	assert.Equal(t, state.ID, record["id"])
	assert.Equal(t, "California", record["name"])
	assert.Equal(t, state.CreatedAt.Format(models.TimeLayout), record["created_at"])
}

func TestReloadRejectsUnknownClass(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "file.json")
	engine := newEngine(t, path)

	state := models.NewState("California")
	require.NoError(t, storage.SaveEntity(ctx, engine, state))

	document := `{"Spaceship.1": {"__class__": "Spaceship", "id": "1"}}`
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	err := engine.Reload(ctx)
	require.ErrorIs(t, err, models.ErrUnknownClass)

	// previous registry survives the failed reload
	all, err := engine.All(ctx, models.ClassState)
	require.NoError(t, err)
	assert.Contains(t, all, models.Key(state))
}

func TestReloadRejectsMalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	engine := New(Config{Path: path}, models.DefaultRegistry(), zaptest.NewLogger(t))
	require.ErrorIs(t, engine.Reload(context.Background()), models.ErrInvalidRecord)
}

func TestSaveFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	engine := newEngine(t, filepath.Join(blocker, "file.json"))
	engine.New(models.NewState("California"))

	require.ErrorIs(t, engine.Save(context.Background()), storage.ErrCommitFailed)
}

func TestDeletePurgesOrphans(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, filepath.Join(t.TempDir(), "file.json"))

	d := storagetest.NewDataset()
	storagetest.Store(t, engine, d)

	require.NoError(t, engine.Delete(ctx, d.User))

	all, err := engine.All(ctx, "")
	require.NoError(t, err)
	assert.NotContains(t, all, models.Key(d.Place))
	assert.NotContains(t, all, models.Key(d.Review))
	assert.Contains(t, all, models.Key(d.SF))
	assert.Len(t, all, len(d.Entities())-3)
}
