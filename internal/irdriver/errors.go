package irdriver

import "errors"

// Domain-specific errors for emitter operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidEmitter is returned when an emitter index does not
	// reference an entry in the runtime table.
	ErrInvalidEmitter = errors.New("irdriver: invalid emitter index")

	// ErrTooManyEmitters is returned when a rebuild would exceed the
	// configured emitter bound.
	ErrTooManyEmitters = errors.New("irdriver: too many emitters")

	// ErrUnsupportedProtocol is returned when a protocol name is not in
	// the catalog.
	ErrUnsupportedProtocol = errors.New("irdriver: unsupported protocol")
)
