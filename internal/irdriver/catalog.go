package irdriver

import "strings"

// ProtocolCustom marks devices driven by raw learned codes rather than
// a catalog encoder.
const ProtocolCustom = "CUSTOM"

// catalog lists the AC protocols the encoder backend supports, keyed by
// canonical (upper-case) name.
var catalog = map[string]struct{}{
	"COOLIX":               {},
	"DAIKIN":               {},
	"DAIKIN2":              {},
	"DAIKIN128":            {},
	"DAIKIN160":            {},
	"DAIKIN176":            {},
	"DAIKIN216":            {},
	"ELECTRA_AC":           {},
	"FUJITSU_AC":           {},
	"GOODWEATHER":          {},
	"GREE":                 {},
	"HAIER_AC":             {},
	"HAIER_AC_YRW02":       {},
	"HITACHI_AC":           {},
	"KELVINATOR":           {},
	"LG":                   {},
	"LG2":                  {},
	"MIDEA":                {},
	"MITSUBISHI_AC":        {},
	"MITSUBISHI_HEAVY_88":  {},
	"MITSUBISHI_HEAVY_152": {},
	"NEOCLIMA":             {},
	"PANASONIC_AC":         {},
	"SAMSUNG_AC":           {},
	"SHARP_AC":             {},
	"TCL112AC":             {},
	"TECO":                 {},
	"TOSHIBA_AC":           {},
	"TROTEC":               {},
	"VESTEL_AC":            {},
	"WHIRLPOOL_AC":         {},
}

// NormalizeProtocol canonicalises a protocol name for lookups.
func NormalizeProtocol(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// IsSupported reports whether the encoder backend can drive the given
// protocol. CUSTOM is never "supported" here: custom devices bypass the
// encoder entirely.
func IsSupported(protocol string) bool {
	_, ok := catalog[NormalizeProtocol(protocol)]
	return ok
}

// IsCustom reports whether the protocol names a raw-code device.
func IsCustom(protocol string) bool {
	return NormalizeProtocol(protocol) == ProtocolCustom
}

// Protocols returns the supported catalog protocol names, unsorted.
func Protocols() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}
