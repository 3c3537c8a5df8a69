package ircodec

import "errors"

// Domain-specific errors for codec operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownEncoding is returned when an encoding tag is not one of
	// pronto, gc, or racepoint.
	ErrUnknownEncoding = errors.New("ircodec: unknown encoding")

	// ErrProntoTooShort is returned when a Pronto code has fewer payload
	// words than the protocol minimum.
	ErrProntoTooShort = errors.New("ircodec: pronto code too short")

	// ErrEmptyCode is returned when a GlobalCache code yields no numeric
	// payload after prefix stripping.
	ErrEmptyCode = errors.New("ircodec: empty code")

	// ErrMalformedHex is returned when a Racepoint blob is under 8 hex
	// characters or not a multiple of 4.
	ErrMalformedHex = errors.New("ircodec: malformed hex blob")

	// ErrNoCarrier is returned when a Racepoint blob contains no word in
	// the carrier frequency window.
	ErrNoCarrier = errors.New("ircodec: no carrier frequency word")

	// ErrNoPulses is returned when a Racepoint blob has a carrier word
	// but no pulse words after it (after trailing-zero trimming).
	ErrNoPulses = errors.New("ircodec: no pulse words")
)
