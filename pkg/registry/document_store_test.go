package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/devicewatch/pkg/kv"
	"github.com/carverauto/devicewatch/pkg/models"
)

var errKVUnavailable = errors.New("kv unavailable")

func TestFileDocumentStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "devices.json")
	store := NewFileDocumentStore(path)

	added := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := []models.Device{{ID: "a", Name: "cam", Address: "10.0.0.9", DateAdded: added}}

	require.NoError(t, store.Save(context.Background(), in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc []map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "10.0.0.9", doc[0]["ip"])
	assert.Equal(t, "2025-01-02T03:04:05Z", doc[0]["dateAdded"])

	out, found, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileDocumentStoreEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	store := NewFileDocumentStore(path)

	require.NoError(t, store.Save(context.Background(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestFileDocumentStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, found, err := NewFileDocumentStore(path).Load(context.Background())
	require.ErrorIs(t, err, ErrCorruptDocument)
	assert.True(t, found)
}

func TestFileDocumentStoreMissing(t *testing.T) {
	devices, found, err := NewFileDocumentStore(filepath.Join(t.TempDir(), "none.json")).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, devices)
}

func TestKVDocumentStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockKV := kv.NewMockKVStore(ctrl)
	store := NewKVDocumentStore(mockKV, "devices")

	var saved []byte

	mockKV.EXPECT().Put(gomock.Any(), "devices", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, value []byte) error {
			saved = value
			return nil
		})

	in := []models.Device{{ID: "a", Name: "cam", Address: "10.0.0.9"}}
	require.NoError(t, store.Save(context.Background(), in))

	mockKV.EXPECT().Get(gomock.Any(), "devices").Return(saved, true, nil)

	out, found, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cam", out[0].Name)
}

func TestKVDocumentStoreMissingAndErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockKV := kv.NewMockKVStore(ctrl)
	store := NewKVDocumentStore(mockKV, "devices")

	mockKV.EXPECT().Get(gomock.Any(), "devices").Return(nil, false, nil)

	_, found, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	mockKV.EXPECT().Get(gomock.Any(), "devices").Return(nil, false, errKVUnavailable)

	_, _, err = store.Load(context.Background())
	require.ErrorIs(t, err, errKVUnavailable)

	mockKV.EXPECT().Get(gomock.Any(), "devices").Return([]byte("garbage"), true, nil)

	_, _, err = store.Load(context.Background())
	require.ErrorIs(t, err, ErrCorruptDocument)
}
