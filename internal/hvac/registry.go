package hvac

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Logger defines the logging interface used by the registry and engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Auto-assigned device ids are drawn from this range, smallest unused
// first.
const (
	autoIDMin = 1
	autoIDMax = 99
)

// Registry is the in-memory device table backing the command engine.
// It fronts a Repository with a full cache that preserves registration
// order, and owns the lifecycle coupling between a device's
// configuration and its runtime state record.
//
// All public methods are thread-safe, but engine command processing
// additionally serialises on its own mutex so a config edit never
// interleaves with an in-flight send.
type Registry struct {
	repo   Repository
	states *StateStore
	logger Logger

	cacheMu sync.RWMutex
	cache   map[string]*DeviceConfig
	order   []string
}

// NewRegistry creates a registry backed by the given repository. Call
// RefreshCache before first use to load the device table.
func NewRegistry(repo Repository, states *StateStore) *Registry {
	return &Registry{
		repo:   repo,
		states: states,
		logger: noopLogger{},
		cache:  make(map[string]*DeviceConfig),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// States returns the runtime state store paired with this registry.
func (r *Registry) States() *StateStore {
	return r.states
}

// RefreshCache loads the full device table from the repository.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("refreshing device cache: %w", err)
	}

	cache := make(map[string]*DeviceConfig, len(devices))
	order := make([]string, 0, len(devices))
	for i := range devices {
		d := devices[i]
		cache[d.ID] = &d
		order = append(order, d.ID)
	}

	r.cacheMu.Lock()
	r.cache = cache
	r.order = order
	r.cacheMu.Unlock()

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// Get retrieves a device by id.
// The returned config is a deep copy; callers can safely modify it.
//
// Returns:
//   - *DeviceConfig: The device configuration
//   - error: ErrUnknownID if the id is not registered
func (r *Registry) Get(id string) (*DeviceConfig, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	d, ok := r.cache[id]
	if !ok {
		return nil, ErrUnknownID
	}
	return d.deepCopy(), nil
}

// List returns all devices in registration order.
// The returned configs are deep copies; callers can safely modify them.
func (r *Registry) List() []DeviceConfig {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	devices := make([]DeviceConfig, 0, len(r.order))
	for _, id := range r.order {
		if d, ok := r.cache[id]; ok {
			devices = append(devices, *d.deepCopy())
		}
	}
	return devices
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Create registers a new device. An empty id is auto-assigned as the
// smallest unused integer in [1, 99].
func (r *Registry) Create(ctx context.Context, device *DeviceConfig) error {
	if device.ID == "" {
		id, err := r.nextID()
		if err != nil {
			return err
		}
		device.ID = id
	}

	if err := validateDevice(device); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, device); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[device.ID] = device.deepCopy()
	r.order = append(r.order, device.ID)
	r.cacheMu.Unlock()

	r.logger.Info("device created", "id", device.ID, "protocol", device.Protocol)
	return nil
}

// Update modifies an existing device. Editing the protocol or emitter
// resets the device's runtime state so stale values never describe the
// new configuration.
func (r *Registry) Update(ctx context.Context, device *DeviceConfig) error {
	existing, err := r.Get(device.ID)
	if err != nil {
		return err
	}

	if err := validateDevice(device); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, device); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.cache[device.ID] = device.deepCopy()
	r.cacheMu.Unlock()

	if existing.Protocol != device.Protocol || existing.Emitter != device.Emitter {
		r.states.Reset(device.ID)
		r.logger.Info("device state reset", "id", device.ID)
	}

	r.logger.Info("device updated", "id", device.ID, "protocol", device.Protocol)
	return nil
}

// Delete removes a device and its runtime state.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.cacheMu.Unlock()

	r.states.Remove(id)

	r.logger.Info("device deleted", "id", id)
	return nil
}

// nextID returns the smallest unused auto-assignable id.
func (r *Registry) nextID() (string, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	for n := autoIDMin; n <= autoIDMax; n++ {
		id := strconv.Itoa(n)
		if _, taken := r.cache[id]; !taken {
			return id, nil
		}
	}
	return "", ErrRegistryFull
}

// validateDevice checks the minimum config invariants before persisting.
func validateDevice(device *DeviceConfig) error {
	if device.ID == "" {
		return ErrMissingID
	}
	if device.Protocol == "" {
		return fmt.Errorf("%w: empty protocol", ErrUnsupportedProtocol)
	}
	if device.IsCustom() {
		if device.Custom == nil || device.Custom.Encoding == "" {
			return fmt.Errorf("%w: custom device requires an encoding", ErrMissingCode)
		}
	}
	return nil
}

// deepCopy returns a copy that shares no mutable structure with the
// original.
func (d *DeviceConfig) deepCopy() *DeviceConfig {
	cp := *d
	if d.Custom != nil {
		custom := *d.Custom
		if d.Custom.Temps != nil {
			custom.Temps = make(map[int]string, len(d.Custom.Temps))
			for k, v := range d.Custom.Temps {
				custom.Temps[k] = v
			}
		}
		cp.Custom = &custom
	}
	return &cp
}
