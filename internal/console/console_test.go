package console

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	"github.com/hbnb/hbnb/internal/storage/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type harness struct {
	t       *testing.T
	engine  storage.Engine
	console *Console
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	registry := models.DefaultRegistry()
	engine := filestore.New(filestore.Config{Path: filepath.Join(t.TempDir(), "file.json")}, registry, zaptest.NewLogger(t))
	require.NoError(t, engine.Reload(context.Background()))

	return &harness{t: t, engine: engine, console: New(engine, registry)}
}

func (h *harness) run(args ...string) (string, string, int) {
	h.t.Helper()

	var out, errOut bytes.Buffer
	code := h.console.Run(context.Background(), &out, &errOut, args)

	return strings.TrimSpace(out.String()), strings.TrimSpace(errOut.String()), code
}

func TestParseParams(t *testing.T) {
	params := ParseParams([]string{
		`name="My_little_house"`,
		`quote="say_\"hi\""`,
		"number_rooms=4",
		"latitude=37.773972",
		"price_by_night=abc",
		"novalue",
		"=3",
		"id=forged",
		"__class__=User",
	})

	assert.Equal(t, map[string]any{
		"name":         "My little house",
		"quote":        `say "hi"`,
		"number_rooms": 4,
		"latitude":     37.773972,
	}, params)
}

func TestConsole_Lifecycle(t *testing.T) {
	h := newHarness(t)

	stateID, _, code := h.run("create", "State", `name="California"`)
	require.Zero(t, code)
	require.NotEmpty(t, stateID)

	cityID, _, code := h.run("create", "City", "state_id=\""+stateID+"\"", `name="San_Francisco"`)
	require.Zero(t, code)

	out, _, code := h.run("cities", stateID)
	require.Zero(t, code)
	assert.Equal(t, cityID+": San Francisco", out)

	out, _, code = h.run("show", "City", cityID)
	require.Zero(t, code)
	assert.True(t, strings.HasPrefix(out, "[City] ("+cityID+") {"), out)

	_, _, code = h.run("update", "City", cityID, `name="SF"`)
	require.Zero(t, code)

	found, err := storage.Get(context.Background(), h.engine, models.ClassCity, cityID)
	require.NoError(t, err)
	assert.Equal(t, "SF", found.(*models.City).Name)

	out, _, code = h.run("count", "City")
	require.Zero(t, code)
	assert.Equal(t, "1", out)

	out, _, code = h.run("all")
	require.Zero(t, code)
	assert.Len(t, strings.Split(out, "\n"), 2)

	_, _, code = h.run("destroy", "State", stateID)
	require.Zero(t, code)

	out, _, code = h.run("count", "City")
	require.Zero(t, code)
	assert.Equal(t, "0", out)
}

func TestConsole_Errors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"create"}, ErrClassMissing.Error()},
		{[]string{"create", "Spaceship"}, `"Spaceship" is not registered`},
		{[]string{"show", "State"}, ErrIDMissing.Error()},
		{[]string{"show", "State", "missing"}, ErrNoInstance.Error()},
		{[]string{"destroy", "State", "missing"}, ErrNoInstance.Error()},
		{[]string{"count"}, ErrClassMissing.Error()},
		{[]string{"all", "Spaceship"}, `"Spaceship" is not registered`},
		{[]string{"fly"}, ErrUnknownCommand.Error()},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, errOut, code := h.run(tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestConsole_Usage(t *testing.T) {
	h := newHarness(t)

	out, _, code := h.run()
	assert.Zero(t, code)
	for _, name := range []string{"all", "show", "create", "update", "destroy", "count", "cities"} {
		assert.Contains(t, out, "  "+name)
	}
}
