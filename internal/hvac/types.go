package hvac

import (
	"strings"
	"time"
)

// Default runtime state values. Applied the first time a device's state
// is observed uninitialised, and again whenever its configuration is
// edited in a way that invalidates prior state.
const (
	DefaultSetpoint    = 24.0
	DefaultCurrentTemp = 24.0
	DefaultMode        = "off"
	DefaultFan         = "auto"
)

// ChangeTolerance is the float comparison slack used by state change
// detection. It absorbs round-trip noise on setpoint and current
// temperature; it is a noise filter, not a business rule, and is kept
// as a named tunable for that reason.
const ChangeTolerance = 0.05

// CustomCodes holds the raw IR code material for a CUSTOM device: one
// learned code per integer setpoint, plus an optional power-off code.
type CustomCodes struct {
	// Encoding is the pulse-train text format of every code in this set
	// ("pronto", "gc" or "racepoint").
	Encoding string `json:"encoding" yaml:"encoding"`

	// Off is the raw code transmitted to power the unit off. Optional;
	// powering off without one fails.
	Off string `json:"off,omitempty" yaml:"off,omitempty"`

	// Temps maps an exact integer setpoint to the raw code that selects
	// it. No interpolation is ever performed.
	Temps map[int]string `json:"temps,omitempty" yaml:"temps,omitempty"`
}

// DeviceConfig describes one controlled air conditioning unit.
//
// Protocol is either a catalog protocol name handled by the encoder
// backend, or CUSTOM, in which case Custom must be populated and all
// transmission uses raw learned codes.
type DeviceConfig struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`

	// Emitter is the output channel index the device transmits on.
	Emitter int `json:"emitter"`

	// Model discriminates sub-variants within a catalog protocol.
	Model int `json:"model"`

	// Custom is set only for CUSTOM devices.
	Custom *CustomCodes `json:"custom,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCustom reports whether the device uses raw learned codes.
func (d *DeviceConfig) IsCustom() bool {
	return normalizeProtocol(d.Protocol) == "CUSTOM"
}

// DeviceState is the mutable runtime state of one device. It always
// reflects the last successfully transmitted command; a failed send
// never mutates it.
type DeviceState struct {
	// Initialized records whether the device has ever received a command.
	// Until it has, CurrentTemp mirrors the setpoint on first commit.
	Initialized bool

	Power       bool
	Mode        string
	Setpoint    float64
	CurrentTemp float64
	Fan         string
	Light       bool
}

// NewDeviceState returns the fixed default state record.
func NewDeviceState() DeviceState {
	return DeviceState{
		Mode:        DefaultMode,
		Setpoint:    DefaultSetpoint,
		CurrentTemp: DefaultCurrentTemp,
		Fan:         DefaultFan,
	}
}

// Changed reports whether two state records differ for broadcast
// purposes. Power, mode, fan and light compare exactly; setpoint and
// current temperature compare within ChangeTolerance.
func Changed(a, b DeviceState) bool {
	if a.Power != b.Power || a.Mode != b.Mode || a.Fan != b.Fan || a.Light != b.Light {
		return true
	}
	return floatChanged(a.Setpoint, b.Setpoint) || floatChanged(a.CurrentTemp, b.CurrentTemp)
}

// floatChanged applies the tolerance in both directions.
func floatChanged(a, b float64) bool {
	return a > b+ChangeTolerance || b > a+ChangeTolerance
}

// Snapshot is the wire representation of a device's full state, pushed
// to sessions on connect and on every committed change.
type Snapshot struct {
	Type        string  `json:"type"`
	ID          string  `json:"id"`
	Power       string  `json:"power"`
	Mode        string  `json:"mode"`
	Setpoint    float64 `json:"setpoint"`
	CurrentTemp float64 `json:"current_temp"`
	Fan         string  `json:"fan"`
	Light       string  `json:"light"`
}

// Snapshot renders the state as its wire shape for the given device id.
func (s DeviceState) Snapshot(id string) Snapshot {
	return Snapshot{
		Type:        "state",
		ID:          id,
		Power:       onOff(s.Power),
		Mode:        s.Mode,
		Setpoint:    s.Setpoint,
		CurrentTemp: s.CurrentTemp,
		Fan:         s.Fan,
		Light:       onOff(s.Light),
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// normalizeProtocol canonicalises a protocol tag for comparisons.
func normalizeProtocol(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

// NormalizeMode canonicalises an operating mode. Recognised values pass
// through; anything else falls back to auto.
func NormalizeMode(mode string) string {
	switch mode {
	case "cool", "heat", "dry", "fan", "off":
		return mode
	default:
		return "auto"
	}
}

// NormalizeFan canonicalises a fan speed. Recognised values pass
// through; anything else falls back to auto.
func NormalizeFan(fan string) string {
	switch fan {
	case "min", "low", "medium", "high", "max":
		return fan
	default:
		return "auto"
	}
}
