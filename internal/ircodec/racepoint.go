package ircodec

// Racepoint format constants.
const (
	// racepointMinHexLen is the minimum hex length: at least a carrier
	// word and one pulse word.
	racepointMinHexLen = 8

	// hexCharsPerWord groups the blob into big-endian 16-bit words.
	hexCharsPerWord = 4

	// Carrier frequency window in Hz. The first word in this window is
	// the carrier; everything after it is pulse data.
	carrierMinHz = 20000
	carrierMaxHz = 60000

	// maxMarkChunkUs is the longest single mark the sender primitive
	// accepts; longer marks are split into consecutive calls.
	maxMarkChunkUs = 65535

	microsPerSecond = 1000000
)

// RacepointSignal is a decoded Racepoint pulse train.
type RacepointSignal struct {
	// FrequencyHz is the carrier frequency.
	FrequencyHz uint16

	// Durations alternate mark/space in microseconds, mark first.
	Durations []uint32
}

// ParseRacepoint decodes a Racepoint hex blob into a pulse train.
//
// All non-hexadecimal characters are stripped first, so the blob may
// carry arbitrary separators or none. The remaining hex is grouped
// into big-endian 16-bit words; the first word in [20000,60000] is the
// carrier frequency in Hz and pulse data starts at the following word.
// Trailing zero words are trimmed. Each pulse word is a duration in
// carrier cycles, converted to microseconds with round-half-up integer
// arithmetic.
//
// Returns:
//   - *RacepointSignal: The decoded carrier and durations
//   - error: ErrMalformedHex, ErrNoCarrier, or ErrNoPulses
func ParseRacepoint(code string) (*RacepointSignal, error) {
	hex := keepHex(code)
	if len(hex) < racepointMinHexLen || len(hex)%hexCharsPerWord != 0 {
		return nil, ErrMalformedHex
	}

	wordCount := len(hex) / hexCharsPerWord
	words := make([]uint16, wordCount)
	for i := 0; i < wordCount; i++ {
		var w uint16
		for _, c := range hex[i*hexCharsPerWord : (i+1)*hexCharsPerWord] {
			w = w<<4 | uint16(hexVal(byte(c)))
		}
		words[i] = w
	}

	// Locate the carrier word; pulse data starts after it.
	freq := uint16(0)
	start := -1
	for i, w := range words {
		if w >= carrierMinHz && w <= carrierMaxHz {
			freq = w
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, ErrNoCarrier
	}
	if start >= wordCount {
		return nil, ErrNoPulses
	}

	// Trim trailing zero padding.
	end := wordCount
	for end > start && words[end-1] == 0 {
		end--
	}
	pulses := words[start:end]
	if len(pulses) == 0 {
		return nil, ErrNoPulses
	}

	durations := make([]uint32, len(pulses))
	for i, w := range pulses {
		// round(w * 1e6 / freq), half-up. 64-bit intermediate keeps the
		// multiply exact for the full word range.
		durations[i] = uint32((uint64(w)*microsPerSecond + uint64(freq)/2) / uint64(freq))
	}

	return &RacepointSignal{FrequencyHz: freq, Durations: durations}, nil
}

// SendRacepoint parses code and drives tx with the result: carrier
// first, then each mark/space in order, then a terminating zero-length
// space. Marks longer than the single-call maximum are split into
// consecutive calls summing to the full duration.
//
// No transmitter call is made when parsing fails.
func SendRacepoint(tx Transmitter, code string) error {
	sig, err := ParseRacepoint(code)
	if err != nil {
		return err
	}

	if err := tx.EnableCarrier(sig.FrequencyHz); err != nil {
		return err
	}

	for i, d := range sig.Durations {
		if i%2 == 0 {
			for d > maxMarkChunkUs {
				if err := tx.Mark(maxMarkChunkUs); err != nil {
					return err
				}
				d -= maxMarkChunkUs
			}
			if err := tx.Mark(d); err != nil {
				return err
			}
		} else {
			if err := tx.Space(d); err != nil {
				return err
			}
		}
	}

	// Trailing gap so the receiver sees the final mark end.
	return tx.Space(0)
}

// keepHex returns s with every non-hexadecimal character removed.
func keepHex(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isHex(c) {
			out = append(out, c)
		}
	}
	return string(out)
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
