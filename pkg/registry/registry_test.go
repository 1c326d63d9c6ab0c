package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
)

var errDiskFull = errors.New("disk full")

func sequentialIDs() func() (string, error) {
	var n atomic.Int64

	return func() (string, error) {
		return fmt.Sprintf("dev-%d", n.Add(1)), nil
	}
}

func newFileRegistry(t *testing.T) (*DeviceRegistry, *FileDocumentStore) {
	t.Helper()

	store := NewFileDocumentStore(filepath.Join(t.TempDir(), "devices.json"))
	reg := NewDeviceRegistry(store, logger.NewTestLogger(), WithIDGenerator(sequentialIDs()))

	return reg, store
}

func TestAddAssignsIDAndPersists(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewFileDocumentStore(filepath.Join(t.TempDir(), "devices.json"))
	reg := NewDeviceRegistry(store, logger.NewTestLogger(), WithClock(func() time.Time { return fixed }))

	dev, err := reg.Add(context.Background(), "  Garage Sensor ", " 192.168.1.50 ")
	require.NoError(t, err)

	assert.NotEmpty(t, dev.ID)
	assert.Equal(t, "Garage Sensor", dev.Name)
	assert.Equal(t, "192.168.1.50", dev.Address)
	assert.Equal(t, fixed, dev.DateAdded)

	stored, found, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, stored, 1)
	assert.Equal(t, dev.ID, stored[0].ID)
	assert.True(t, fixed.Equal(stored[0].DateAdded))
}

func TestAddGeneratesDistinctIDs(t *testing.T) {
	store := NewFileDocumentStore(filepath.Join(t.TempDir(), "devices.json"))
	reg := NewDeviceRegistry(store, logger.NewTestLogger())

	a, err := reg.Add(context.Background(), "a", "10.0.0.1")
	require.NoError(t, err)

	b, err := reg.Add(context.Background(), "b", "10.0.0.2")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		devName string
		address string
	}{
		{name: "missing name", devName: "", address: "10.0.0.1"},
		{name: "missing address", devName: "sensor", address: ""},
		{name: "whitespace only", devName: "  ", address: "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := newFileRegistry(t)

			_, err := reg.Add(context.Background(), tt.devName, tt.address)
			require.ErrorIs(t, err, models.ErrInvalidDevice)
			assert.Empty(t, reg.List())
		})
	}
}

func TestAddRejectsDuplicateAddress(t *testing.T) {
	reg, _ := newFileRegistry(t)

	_, err := reg.Add(context.Background(), "first", "10.0.0.1")
	require.NoError(t, err)

	_, err = reg.Add(context.Background(), "second", "10.0.0.1")
	require.ErrorIs(t, err, models.ErrDuplicateAddress)

	devices := reg.List()
	require.Len(t, devices, 1)
	assert.Equal(t, "first", devices[0].Name)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	reg, _ := newFileRegistry(t)

	for i := 0; i < 5; i++ {
		_, err := reg.Add(context.Background(), fmt.Sprintf("d%d", i), fmt.Sprintf("10.0.0.%d", i))
		require.NoError(t, err)
	}

	require.NoError(t, reg.Remove(context.Background(), "dev-3"))

	var names []string
	for _, d := range reg.List() {
		names = append(names, d.Name)
	}

	assert.Equal(t, []string{"d0", "d1", "d3", "d4"}, names)

	// index must still resolve the shifted entries
	got, err := reg.Get("dev-5")
	require.NoError(t, err)
	assert.Equal(t, "d4", got.Name)
}

func TestListReturnsCopy(t *testing.T) {
	reg, _ := newFileRegistry(t)

	_, err := reg.Add(context.Background(), "a", "10.0.0.1")
	require.NoError(t, err)

	list := reg.List()
	list[0].Name = "mutated"

	got, err := reg.Get("dev-1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}

func TestRemoveUnknownDevice(t *testing.T) {
	reg, _ := newFileRegistry(t)

	err := reg.Remove(context.Background(), "missing")
	require.ErrorIs(t, err, models.ErrDeviceNotFound)

	_, err = reg.Get("missing")
	require.ErrorIs(t, err, models.ErrDeviceNotFound)
	assert.False(t, reg.Exists("missing"))
}

func TestConcurrentRemoveSucceedsOnce(t *testing.T) {
	reg, _ := newFileRegistry(t)

	dev, err := reg.Add(context.Background(), "a", "10.0.0.1")
	require.NoError(t, err)

	const workers = 8

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		notFound  atomic.Int32
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			switch err := reg.Remove(context.Background(), dev.ID); {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, models.ErrDeviceNotFound):
				notFound.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(workers-1), notFound.Load())
}

func TestReloadRestoresDevices(t *testing.T) {
	reg, store := newFileRegistry(t)

	a, err := reg.Add(context.Background(), "a", "10.0.0.1")
	require.NoError(t, err)
	b, err := reg.Add(context.Background(), "b", "sensor.local")
	require.NoError(t, err)

	restored := NewDeviceRegistry(store, logger.NewTestLogger())
	require.NoError(t, restored.Load(context.Background()))

	devices := restored.List()
	require.Len(t, devices, 2)
	assert.Equal(t, a.ID, devices[0].ID)
	assert.Equal(t, b.ID, devices[1].ID)
	assert.Equal(t, "sensor.local", devices[1].Address)
}

func TestLoadMissingDocument(t *testing.T) {
	reg, _ := newFileRegistry(t)

	require.NoError(t, reg.Load(context.Background()))
	assert.Empty(t, reg.List())
}

func TestLoadCorruptDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockDocumentStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(nil, true, fmt.Errorf("devices.json: %w", ErrCorruptDocument))

	reg := NewDeviceRegistry(store, logger.NewTestLogger())

	require.NoError(t, reg.Load(context.Background()))
	assert.Empty(t, reg.List())
}

func TestLoadDropsDuplicateIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockDocumentStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return([]models.Device{
		{ID: "x", Name: "first", Address: "10.0.0.1"},
		{ID: "x", Name: "second", Address: "10.0.0.2"},
		{ID: "", Name: "no id", Address: "10.0.0.3"},
		{ID: "y", Name: "third", Address: "10.0.0.4"},
	}, true, nil)

	reg := NewDeviceRegistry(store, logger.NewTestLogger())
	require.NoError(t, reg.Load(context.Background()))

	devices := reg.List()
	require.Len(t, devices, 2)
	assert.Equal(t, "first", devices[0].Name)
	assert.Equal(t, "third", devices[1].Name)
}

func TestPersistFailureMarksDegraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockDocumentStore(ctrl)
	reg := NewDeviceRegistry(store, logger.NewTestLogger(), WithIDGenerator(sequentialIDs()))

	store.EXPECT().Save(gomock.Any(), gomock.Len(1)).Return(errDiskFull)

	dev, err := reg.Add(context.Background(), "a", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, reg.Exists(dev.ID), "mutation stands after failed write")

	health := reg.Health()
	assert.True(t, health.Degraded)
	assert.Equal(t, 1, health.DeviceCount)
	assert.Contains(t, health.PersistenceError, "disk full")

	store.EXPECT().Save(gomock.Any(), gomock.Len(2)).Return(nil)

	_, err = reg.Add(context.Background(), "b", "10.0.0.2")
	require.NoError(t, err)

	health = reg.Health()
	assert.False(t, health.Degraded)
	assert.Empty(t, health.PersistenceError)
	assert.Equal(t, 2, health.DeviceCount)
}

func TestPersistIgnoresCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockDocumentStore(ctrl)
	reg := NewDeviceRegistry(store, logger.NewTestLogger(), WithIDGenerator(sequentialIDs()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ []models.Device) error {
			return ctx.Err()
		})

	_, err := reg.Add(ctx, "a", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, reg.Health().Degraded)
}
