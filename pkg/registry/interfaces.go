package registry

//go:generate mockgen -destination=mock_registry.go -package=registry github.com/carverauto/devicewatch/pkg/registry Manager,DocumentStore

import (
	"context"

	"github.com/carverauto/devicewatch/pkg/models"
)

// Manager is the authoritative set of monitored devices.
type Manager interface {
	// Load restores the registry from its document store. A missing or
	// unreadable document leaves the registry empty and is not an error.
	Load(ctx context.Context) error

	// Add registers a device and persists the registry before returning.
	Add(ctx context.Context, name, address string) (models.Device, error)

	// Remove unregisters a device and persists the registry before returning.
	Remove(ctx context.Context, id string) error

	Get(id string) (models.Device, error)
	Exists(id string) bool

	// List returns a copy of the devices in insertion order.
	List() []models.Device

	// Health reports whether the last persistence attempt failed.
	Health() models.HealthState
}

// DocumentStore persists the whole device list as one document.
type DocumentStore interface {
	// Load returns the stored devices. found is false when no document exists yet.
	Load(ctx context.Context) (devices []models.Device, found bool, err error)

	// Save replaces the stored document.
	Save(ctx context.Context, devices []models.Device) error
}
