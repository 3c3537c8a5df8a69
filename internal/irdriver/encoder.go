package irdriver

// ACCommand is the full parameter set handed to a catalog protocol
// encoder. Field meanings follow the common AC remote model: a target
// temperature with unit flag, fan and swing settings, and the usual
// comfort toggles. Sleep and Clock are minutes-since-midnight timers;
// -1 means unset.
type ACCommand struct {
	Protocol string
	Model    int
	Power    bool
	Mode     string
	Degrees  float64
	Celsius  bool
	Fan      string
	SwingV   string
	SwingH   string
	Quiet    bool
	Turbo    bool
	Econo    bool
	Light    bool
	Filter   bool
	Clean    bool
	Beep     bool
	Sleep    int
	Clock    int
}

// ACEncoder encodes and transmits a structured AC command for a named
// catalog protocol. The per-protocol IR encoding is external to the
// core; implementations wrap whatever hardware or library provides it.
type ACEncoder interface {
	// EncodeAndSend transmits cmd. A non-nil error means nothing was
	// emitted (or emission failed partway); callers must not commit
	// state on error.
	EncodeAndSend(cmd ACCommand) error
}
