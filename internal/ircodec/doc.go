// Package ircodec implements the three textual encodings of infrared
// pulse trains accepted by irhvac-core: Pronto hex, the GlobalCache
// "sendir" format, and the Racepoint hex-blob format.
//
// Each codec is a pure parsing step followed by a drive step against a
// Transmitter. No codec retains state between calls; a parse or
// transmission failure is returned as an error and never mutates
// anything.
//
// # Formats
//
//   - Pronto: whitespace/comma-separated hexadecimal 16-bit words, with
//     an optional leading R<n> repeat-count token.
//   - GlobalCache: a full "sendir,<module>:<conn>,<id>,<data...>" string
//     or a bare numeric list; framing prefixes are stripped.
//   - Racepoint: a hex blob with arbitrary separators; 16-bit words,
//     the first word in [20000,60000] is the carrier frequency in Hz,
//     remaining words alternate mark/space durations in carrier cycles.
//
// # Usage
//
//	err := ircodec.Send(tx, ircodec.EncodingPronto, code, 0)
package ircodec
