package ircodec

import "strings"

// Encoding identifies one of the supported pulse-train text formats.
type Encoding string

// Supported encodings.
const (
	EncodingPronto      Encoding = "pronto"
	EncodingGlobalCache Encoding = "gc"
	EncodingRacepoint   Encoding = "racepoint"
)

// ParseEncoding converts a wire-level encoding tag to an Encoding.
// Matching is case-insensitive.
//
// Returns:
//   - Encoding: The matched encoding
//   - error: ErrUnknownEncoding if the tag is not recognised
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case EncodingPronto:
		return EncodingPronto, nil
	case EncodingGlobalCache:
		return EncodingGlobalCache, nil
	case EncodingRacepoint:
		return EncodingRacepoint, nil
	default:
		return "", ErrUnknownEncoding
	}
}

// Transmitter is the hardware-facing side of the codecs. Pronto and
// GlobalCache trains are handed off whole; Racepoint trains are driven
// word by word through the carrier/mark/space primitives.
//
// Implementations live in the irdriver package; tests use in-memory
// fakes.
type Transmitter interface {
	// SendPronto transmits a standard Pronto word train with the given
	// repeat count.
	SendPronto(words []uint16, repeats int) error

	// SendGlobalCache transmits a GlobalCache numeric word train.
	SendGlobalCache(words []uint16) error

	// EnableCarrier switches the output to the given carrier frequency
	// in Hz. Must be called before Mark/Space.
	EnableCarrier(freqHz uint16) error

	// Mark emits carrier for the given duration in microseconds.
	Mark(durationUs uint32) error

	// Space emits silence for the given duration in microseconds.
	Space(durationUs uint32) error
}

// Send parses code according to enc and drives tx with the result.
//
// repeats applies to the Pronto encoding only (a leading R<n> token in
// the code overrides it); the other encodings ignore it.
//
// Returns:
//   - error: Parse or transmission failure; nil on success
func Send(tx Transmitter, enc Encoding, code string, repeats int) error {
	switch enc {
	case EncodingPronto:
		return SendPronto(tx, code, repeats)
	case EncodingGlobalCache:
		return SendGlobalCache(tx, code)
	case EncodingRacepoint:
		return SendRacepoint(tx, code)
	default:
		return ErrUnknownEncoding
	}
}

// splitTokens splits a code string on the flexible separator set shared
// by the text formats: comma, semicolon, space, tab, CR, LF.
func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\r', '\n':
			return true
		}
		return false
	})
}
