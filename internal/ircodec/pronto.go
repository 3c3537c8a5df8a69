package ircodec

import "strconv"

// ProntoMinLength is the minimum number of payload words in a valid
// Pronto code: the four-word preamble plus at least one mark/space pair.
const ProntoMinLength = 6

// ParsePronto parses a Pronto hex code into its payload words and
// repeat count.
//
// Tokens are whitespace/comma-separated hexadecimal 16-bit words. An
// optional leading token of the form R<n> (case-insensitive) sets the
// repeat count and is excluded from the payload; otherwise the repeat
// count is defaultRepeats. Malformed hex tokens parse to 0 rather than
// failing; this leniency matches established Pronto senders.
//
// Parameters:
//   - code: The Pronto code text
//   - defaultRepeats: Repeat count used when no R<n> token is present
//
// Returns:
//   - []uint16: Payload words in order
//   - int: Effective repeat count
//   - error: ErrProntoTooShort if fewer than ProntoMinLength payload words remain
func ParsePronto(code string, defaultRepeats int) ([]uint16, int, error) {
	tokens := splitTokens(code)
	repeats := defaultRepeats

	if len(tokens) > 0 && len(tokens[0]) > 1 && (tokens[0][0] == 'R' || tokens[0][0] == 'r') {
		// Lenient: junk digits after the R count as 0. A bare "R" is a
		// payload word, not a repeat prefix.
		n, _ := strconv.Atoi(tokens[0][1:])
		repeats = n
		tokens = tokens[1:]
	}

	if len(tokens) < ProntoMinLength {
		return nil, 0, ErrProntoTooShort
	}

	words := make([]uint16, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseUint(tok, 16, 16)
		if err != nil {
			v = 0
		}
		words[i] = uint16(v)
	}

	return words, repeats, nil
}

// SendPronto parses code and transmits it through tx.
//
// No transmitter call is made when parsing fails.
func SendPronto(tx Transmitter, code string, repeats int) error {
	words, n, err := ParsePronto(code, repeats)
	if err != nil {
		return err
	}
	return tx.SendPronto(words, n)
}
