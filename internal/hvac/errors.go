package hvac

import "errors"

// Domain errors for the hvac package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, hvac.ErrUnknownID) {
//	    // handle unknown device case
//	}
//
// Each error carries a stable wire reason code (see ReasonOf) that is
// what clients actually see; the Go error text is for logs.
var (
	// ErrMissingID is returned when a command that requires a device id omits it.
	ErrMissingID = errors.New("hvac: missing id")

	// ErrUnknownID is returned when a device id is not registered.
	ErrUnknownID = errors.New("hvac: unknown id")

	// ErrInvalidEmitter is returned when an emitter index does not resolve
	// to a configured output channel.
	ErrInvalidEmitter = errors.New("hvac: invalid emitter")

	// ErrMissingCustomOff is returned when powering off a custom device
	// that has no off code configured.
	ErrMissingCustomOff = errors.New("hvac: missing custom off code")

	// ErrMissingTempCode is returned when a custom device has no code for
	// the exact requested temperature.
	ErrMissingTempCode = errors.New("hvac: missing temp code")

	// ErrMissingCode is returned when no raw code could be resolved for a
	// custom device send.
	ErrMissingCode = errors.New("hvac: missing code")

	// ErrSendFailed is returned when codec parsing or hardware transmission fails.
	ErrSendFailed = errors.New("hvac: send failed")

	// ErrUnsupportedProtocol is returned when a device's protocol is not in
	// the encoder catalog.
	ErrUnsupportedProtocol = errors.New("hvac: unsupported protocol")

	// ErrUnknownCmd is returned for an unrecognised command verb.
	ErrUnknownCmd = errors.New("hvac: unknown command")

	// ErrInvalidJSON is returned when an inbound line cannot be parsed.
	ErrInvalidJSON = errors.New("hvac: invalid json")

	// ErrDeviceExists is returned when creating a device with an id that
	// is already registered.
	ErrDeviceExists = errors.New("hvac: device already exists")

	// ErrRegistryFull is returned when no free auto-assigned id remains.
	ErrRegistryFull = errors.New("hvac: registry full")
)

// Wire reason codes reported to clients in {"ok":false,"error":<code>}
// responses.
const (
	ReasonMissingID           = "missing_id"
	ReasonUnknownID           = "unknown_id"
	ReasonInvalidEmitter      = "invalid_emitter"
	ReasonMissingCustomOff    = "missing_custom_off"
	ReasonMissingTempCode     = "missing_temp_code"
	ReasonMissingCode         = "missing_code"
	ReasonSendFailed          = "send_failed"
	ReasonUnsupportedProtocol = "unsupported_protocol"
	ReasonUnknownCmd          = "unknown_cmd"
	ReasonInvalidJSON         = "invalid_json"
)

// ReasonOf maps a domain error to its wire reason code. Errors outside
// the client-facing taxonomy collapse to send_failed so internal detail
// never leaks onto the wire.
func ReasonOf(err error) string {
	switch {
	case errors.Is(err, ErrMissingID):
		return ReasonMissingID
	case errors.Is(err, ErrUnknownID):
		return ReasonUnknownID
	case errors.Is(err, ErrInvalidEmitter):
		return ReasonInvalidEmitter
	case errors.Is(err, ErrMissingCustomOff):
		return ReasonMissingCustomOff
	case errors.Is(err, ErrMissingTempCode):
		return ReasonMissingTempCode
	case errors.Is(err, ErrMissingCode):
		return ReasonMissingCode
	case errors.Is(err, ErrUnsupportedProtocol):
		return ReasonUnsupportedProtocol
	case errors.Is(err, ErrUnknownCmd):
		return ReasonUnknownCmd
	case errors.Is(err, ErrInvalidJSON):
		return ReasonInvalidJSON
	default:
		return ReasonSendFailed
	}
}
