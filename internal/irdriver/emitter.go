package irdriver

import (
	"fmt"
	"io"
	"sync"

	"github.com/nerrad567/irhvac-core/internal/ircodec"
)

// Logger defines the logging interface used by the emitter table.
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

// Hardware builds transmission capabilities for a GPIO output. Real
// implementations bind to IR blaster hardware; SimulatedHardware logs
// transmissions for development.
type Hardware interface {
	// OpenTransmitter returns a raw pulse-train transmitter bound to
	// the given GPIO.
	OpenTransmitter(gpio int) (ircodec.Transmitter, error)

	// OpenEncoder returns a catalog AC encoder bound to the given GPIO.
	OpenEncoder(gpio int) (ACEncoder, error)
}

// Emitter is one physical IR output channel: a GPIO identity plus the
// two transmission capabilities bound to it.
type Emitter struct {
	Index int
	GPIO  int

	tx  ircodec.Transmitter
	enc ACEncoder
}

// Transmitter returns the raw pulse-train transmitter for this channel.
func (e *Emitter) Transmitter() ircodec.Transmitter { return e.tx }

// Encoder returns the catalog AC encoder for this channel.
func (e *Emitter) Encoder() ACEncoder { return e.enc }

// Table is the runtime emitter table. It owns every Emitter and the
// capability instances inside them; Rebuild tears the whole set down
// and recreates it from the new GPIO list — there is no incremental
// diffing.
//
// All public methods are thread-safe.
type Table struct {
	hw     Hardware
	max    int
	logger Logger

	mu       sync.RWMutex
	emitters []*Emitter
}

// NewTable creates an empty emitter table backed by hw, bounded at max
// channels.
func NewTable(hw Hardware, max int) *Table {
	return &Table{
		hw:     hw,
		max:    max,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the table.
func (t *Table) SetLogger(logger Logger) {
	t.logger = logger
}

// Rebuild replaces the entire table with channels for the given GPIO
// list. Prior capability instances are closed (when they implement
// io.Closer) before the new set is created.
//
// Returns:
//   - error: ErrTooManyEmitters if the list exceeds the bound, or a
//     hardware open failure (the table is left empty in that case)
func (t *Table) Rebuild(gpios []int) error {
	if len(gpios) > t.max {
		return fmt.Errorf("%w: %d > %d", ErrTooManyEmitters, len(gpios), t.max)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.teardownLocked()

	emitters := make([]*Emitter, 0, len(gpios))
	for i, gpio := range gpios {
		tx, err := t.hw.OpenTransmitter(gpio)
		if err != nil {
			t.emitters = nil
			return fmt.Errorf("opening transmitter for gpio %d: %w", gpio, err)
		}
		enc, err := t.hw.OpenEncoder(gpio)
		if err != nil {
			closeQuiet(tx)
			t.emitters = nil
			return fmt.Errorf("opening encoder for gpio %d: %w", gpio, err)
		}
		emitters = append(emitters, &Emitter{Index: i, GPIO: gpio, tx: tx, enc: enc})
	}

	t.emitters = emitters
	t.logger.Info("emitter table rebuilt", "count", len(emitters))
	return nil
}

// teardownLocked closes all current capability instances. Caller holds t.mu.
func (t *Table) teardownLocked() {
	for _, e := range t.emitters {
		closeQuiet(e.tx)
		closeQuiet(e.enc)
	}
	t.emitters = nil
}

// closeQuiet closes v if it implements io.Closer.
func closeQuiet(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close() //nolint:errcheck // Best effort teardown
	}
}

// Get returns the emitter at the given index.
//
// Returns:
//   - *Emitter: The channel, or nil
//   - bool: Whether the index was valid
func (t *Table) Get(index int) (*Emitter, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index < 0 || index >= len(t.emitters) {
		return nil, false
	}
	return t.emitters[index], true
}

// Len returns the number of configured channels.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.emitters)
}

// Info describes one channel for listings.
type Info struct {
	Index int `json:"index"`
	GPIO  int `json:"gpio"`
}

// List returns the channel table in index order.
func (t *Table) List() []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()

	infos := make([]Info, len(t.emitters))
	for i, e := range t.emitters {
		infos[i] = Info{Index: e.Index, GPIO: e.GPIO}
	}
	return infos
}
