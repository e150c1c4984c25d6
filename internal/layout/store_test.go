package layout

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/logging"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warehouse_config.json")
	return NewStore(path, logging.Discard()), path
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	store, path := newTestStore(t)

	doc := store.Load()
	assert.Equal(t, DefaultDocument(), doc)

	// the fallback is not persisted
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Equal(t, DefaultDocument(), store.Load())
}

func TestLoadBackfillsMissingKeys(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"shelves":[{"name":"A"}],"extra":true}`), 0o644))

	doc := store.Load()
	assert.Equal(t, DefaultGlobalParams(), doc[KeyGlobalParams])
	assert.Contains(t, doc, KeyViewSettings)
	assert.Len(t, doc.Shelves(), 1)
	assert.Equal(t, true, doc["extra"])
}

func TestSaveLoadRoundTripIsIdempotent(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.Save(store.Load()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(store.Load()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestSaveKeepsNonASCIIUnescaped(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Save(DefaultDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unit": "米"`)
	assert.NotContains(t, string(data), `\u`)
}

func TestUpdateGlobalChangesOnlyGivenField(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.AddShelf(map[string]any{"name": "A"})
	require.NoError(t, err)
	before := store.Load()

	require.NoError(t, store.UpdateGlobal(map[string]any{"layer_count": 7.0}))

	after := store.Load()
	params := after.GlobalParams()
	assert.Equal(t, 7.0, params["layer_count"])
	for _, key := range []string{"area_count", "channel_count", "cell_count", "unit"} {
		assert.Equal(t, before.GlobalParams()[key], params[key], key)
	}
	assert.Equal(t, before[KeyShelves], after[KeyShelves])
	assert.Equal(t, before[KeyViewSettings], after[KeyViewSettings])
}

func TestUpdateGlobalRecreatesMissingParams(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"global_params": "broken", "shelves": []}`), 0o644))

	require.NoError(t, store.UpdateGlobal(map[string]any{"unit": "m"}))

	params := store.Load().GlobalParams()
	assert.Equal(t, "m", params["unit"])
	assert.Equal(t, 4.0, params["area_count"])
}

func TestUpdateFullIsShallow(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.UpdateFull(map[string]any{
		"view_settings": map[string]any{"camera_position": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0}},
		"theme":         "dark",
	}))

	doc := store.Load()
	view := doc[KeyViewSettings].(map[string]any)
	assert.NotContains(t, view, "camera_target")
	assert.Equal(t, "dark", doc["theme"])
	assert.Equal(t, DefaultGlobalParams(), doc[KeyGlobalParams])
}

func TestShelfLifecycle(t *testing.T) {
	store, _ := newTestStore(t)

	for i, name := range []string{"A", "B", "C"} {
		idx, err := store.AddShelf(map[string]any{"name": name})
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}

	require.NoError(t, store.UpdateShelf(1, map[string]any{"height": 2.5}))
	shelves := store.ListShelves()
	assert.Equal(t, map[string]any{"name": "B", "height": 2.5}, shelves[1])

	require.NoError(t, store.DeleteShelf(0))
	shelves = store.ListShelves()
	require.Len(t, shelves, 2)
	assert.Equal(t, "B", shelves[0].(map[string]any)["name"])
	assert.Equal(t, "C", shelves[1].(map[string]any)["name"])
}

func TestShelfIndexOutOfRange(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.AddShelf(map[string]any{"name": "A"})
	require.NoError(t, err)

	for _, idx := range []int{-1, 1, 5} {
		err := store.UpdateShelf(idx, map[string]any{"x": 1.0})
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound), "update %d", idx)

		err = store.DeleteShelf(idx)
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound), "delete %d", idx)
	}
	assert.Len(t, store.ListShelves(), 1)
}

func TestStatistics(t *testing.T) {
	store, path := newTestStore(t)
	doc := `{
		"global_params": {"area_count": 3, "cell_count": 10},
		"shelves": [
			{"cells": [{"sku": "a"}, {"sku": "b"}]},
			{"name": "no cells"},
			{"cells": [{}]}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	stats := store.Statistics(42)
	assert.Equal(t, 30.0, stats.TotalCells)
	assert.Equal(t, 3, stats.OccupiedCells)
	assert.Equal(t, 27.0, stats.FreeCells)
	assert.EqualValues(t, 42, stats.SKUCount)
}

func TestStatisticsDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	stats := store.Statistics(0)
	assert.Equal(t, 80.0, stats.TotalCells)
	assert.Equal(t, 0, stats.OccupiedCells)
	assert.Equal(t, 80.0, stats.FreeCells)
}

func TestConcurrentGlobalUpdatesAreNotLost(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	keys := []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6", "k7"}
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			assert.NoError(t, store.UpdateGlobal(map[string]any{key: strings.ToUpper(key)}))
		}(key)
	}
	wg.Wait()

	params := store.Load().GlobalParams()
	for _, key := range keys {
		assert.Equal(t, strings.ToUpper(key), params[key])
	}
}
