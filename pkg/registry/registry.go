package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
)

const defaultPersistTimeout = 10 * time.Second

// DeviceRegistry is the in-memory, persisted set of monitored devices.
// Writes hold the lock until the document store has been updated so the
// stored order always matches memory.
type DeviceRegistry struct {
	mu      sync.RWMutex
	devices []models.Device
	index   map[string]int

	store          DocumentStore
	logger         logger.Logger
	now            func() time.Time
	newID          func() (string, error)
	persistTimeout time.Duration

	lastPersistErr error
}

var _ Manager = (*DeviceRegistry)(nil)

// Option configures a DeviceRegistry.
type Option func(*DeviceRegistry)

// WithClock overrides the time source used for dateAdded.
func WithClock(now func() time.Time) Option {
	return func(r *DeviceRegistry) {
		r.now = now
	}
}

// WithIDGenerator overrides device id generation.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(r *DeviceRegistry) {
		r.newID = gen
	}
}

// WithPersistTimeout bounds each document store write.
func WithPersistTimeout(d time.Duration) Option {
	return func(r *DeviceRegistry) {
		r.persistTimeout = d
	}
}

// NewDeviceRegistry creates an empty registry backed by store. Call Load to
// restore previously persisted devices.
func NewDeviceRegistry(store DocumentStore, log logger.Logger, opts ...Option) *DeviceRegistry {
	r := &DeviceRegistry{
		index:          make(map[string]int),
		store:          store,
		logger:         log,
		now:            time.Now,
		newID:          newDeviceID,
		persistTimeout: defaultPersistTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func newDeviceID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("%w: %w", errIDGeneration, err)
	}

	return id.String(), nil
}

func (r *DeviceRegistry) Load(ctx context.Context) error {
	devices, found, err := r.store.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = nil
	r.index = make(map[string]int)

	switch {
	case err != nil && errors.Is(err, ErrCorruptDocument):
		r.logger.Error().Err(err).Msg("Device document is corrupt, starting with an empty registry")
		return nil
	case err != nil:
		r.logger.Error().Err(err).Msg("Failed to read device document, starting with an empty registry")
		return nil
	case !found:
		r.logger.Info().Msg("No device document found, starting with an empty registry")
		return nil
	}

	for _, d := range devices {
		if d.ID == "" {
			r.logger.Warn().Str("name", d.Name).Msg("Skipping stored device without an id")
			continue
		}

		if _, dup := r.index[d.ID]; dup {
			r.logger.Warn().Str("device_id", d.ID).Msg("Skipping duplicate stored device id")
			continue
		}

		r.index[d.ID] = len(r.devices)
		r.devices = append(r.devices, d)
	}

	r.logger.Info().Int("devices", len(r.devices)).Msg("Loaded device registry")

	return nil
}

func (r *DeviceRegistry) Add(ctx context.Context, name, address string) (models.Device, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)

	if name == "" || address == "" {
		return models.Device{}, models.ErrInvalidDevice
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.devices {
		if r.devices[i].Address == address {
			return models.Device{}, models.ErrDuplicateAddress
		}
	}

	id, err := r.newID()
	if err != nil {
		return models.Device{}, err
	}

	device := models.Device{
		ID:        id,
		Name:      name,
		Address:   address,
		DateAdded: r.now(),
	}

	r.index[id] = len(r.devices)
	r.devices = append(r.devices, device)

	r.persistLocked(ctx, "add", id)

	return device, nil
}

func (r *DeviceRegistry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.index[id]
	if !ok {
		return models.ErrDeviceNotFound
	}

	r.devices = append(r.devices[:pos], r.devices[pos+1:]...)

	delete(r.index, id)

	for i := pos; i < len(r.devices); i++ {
		r.index[r.devices[i].ID] = i
	}

	r.persistLocked(ctx, "remove", id)

	return nil
}

func (r *DeviceRegistry) Get(id string) (models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.index[id]
	if !ok {
		return models.Device{}, models.ErrDeviceNotFound
	}

	return r.devices[pos], nil
}

func (r *DeviceRegistry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.index[id]

	return ok
}

func (r *DeviceRegistry) List() []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Device, len(r.devices))
	copy(out, r.devices)

	return out
}

func (r *DeviceRegistry) Health() models.HealthState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := models.HealthState{DeviceCount: len(r.devices)}

	if r.lastPersistErr != nil {
		state.Degraded = true
		state.PersistenceError = r.lastPersistErr.Error()
	}

	return state
}

// persistLocked writes the current device list. A failed write does not roll
// back the mutation; it marks the registry degraded until the next success.
// Caller must hold r.mu.
func (r *DeviceRegistry) persistLocked(ctx context.Context, op, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.persistTimeout)
	defer cancel()

	snapshot := make([]models.Device, len(r.devices))
	copy(snapshot, r.devices)

	if err := r.store.Save(ctx, snapshot); err != nil {
		r.lastPersistErr = err

		r.logger.Error().Err(err).
			Str("op", op).
			Str("device_id", id).
			Msg("Failed to persist device registry")

		return
	}

	if r.lastPersistErr != nil {
		r.logger.Info().Msg("Device registry persistence recovered")
	}

	r.lastPersistErr = nil
}
