package ircodec

import (
	"strconv"
	"strings"
)

// Framing prefixes stripped from full sendir strings. The module:conn
// and id fields carry no timing information.
const (
	gcSendirPrefix = "sendir,"
	gcFramePrefix  = "1:1,1,"
)

// ParseGlobalCache parses a GlobalCache code into its numeric payload.
//
// The input may be a full "sendir,<module>:<conn>,<id>,<data...>"
// string or a bare numeric list. An optional leading "sendir," literal
// is stripped, then an optional leading "1:1,1," literal. Remaining
// tokens are separated by comma, semicolon, space, or tab and parsed
// as base-10 unsigned 16-bit integers; malformed tokens parse to 0.
//
// Returns:
//   - []uint16: Payload words in order
//   - error: ErrEmptyCode if no tokens were produced
func ParseGlobalCache(code string) ([]uint16, error) {
	s := strings.TrimSpace(code)
	s = strings.TrimPrefix(s, gcSendirPrefix)
	s = strings.TrimPrefix(s, gcFramePrefix)

	tokens := splitTokens(s)
	if len(tokens) == 0 {
		return nil, ErrEmptyCode
	}

	words := make([]uint16, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseUint(tok, 10, 16)
		if err != nil {
			v = 0
		}
		words[i] = uint16(v)
	}

	return words, nil
}

// SendGlobalCache parses code and transmits it through tx.
//
// No transmitter call is made when parsing fails.
func SendGlobalCache(tx Transmitter, code string) error {
	words, err := ParseGlobalCache(code)
	if err != nil {
		return err
	}
	return tx.SendGlobalCache(words)
}
