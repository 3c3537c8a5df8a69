package irdriver

import "github.com/nerrad567/irhvac-core/internal/ircodec"

// SimulatedHardware fulfils the Hardware interface without touching any
// real IR output. Transmissions are recorded against the logger, which
// makes the daemon fully runnable on development machines.
type SimulatedHardware struct {
	logger Logger
}

// NewSimulatedHardware creates a simulated hardware backend.
func NewSimulatedHardware() *SimulatedHardware {
	return &SimulatedHardware{logger: noopLogger{}}
}

// SetLogger sets the logger used to record simulated transmissions.
func (h *SimulatedHardware) SetLogger(logger Logger) {
	h.logger = logger
}

// OpenTransmitter returns a transmitter that logs pulse trains instead
// of emitting them.
func (h *SimulatedHardware) OpenTransmitter(gpio int) (ircodec.Transmitter, error) {
	return &simTransmitter{gpio: gpio, logger: h.logger}, nil
}

// OpenEncoder returns an encoder that logs AC commands instead of
// emitting them.
func (h *SimulatedHardware) OpenEncoder(gpio int) (ACEncoder, error) {
	return &simEncoder{gpio: gpio, logger: h.logger}, nil
}

type simTransmitter struct {
	gpio    int
	logger  Logger
	carrier uint16
}

func (t *simTransmitter) SendPronto(data []uint16, repeats int) error {
	t.logger.Info("simulated pronto send", "gpio", t.gpio, "words", len(data), "repeats", repeats)
	return nil
}

func (t *simTransmitter) SendGlobalCache(data []uint16) error {
	t.logger.Info("simulated globalcache send", "gpio", t.gpio, "words", len(data))
	return nil
}

func (t *simTransmitter) EnableCarrier(freqHz uint16) error {
	t.carrier = freqHz
	t.logger.Debug("simulated carrier set", "gpio", t.gpio, "freq_hz", freqHz)
	return nil
}

func (t *simTransmitter) Mark(durationUs uint32) error {
	t.logger.Debug("simulated mark", "gpio", t.gpio, "us", durationUs)
	return nil
}

func (t *simTransmitter) Space(durationUs uint32) error {
	t.logger.Debug("simulated space", "gpio", t.gpio, "us", durationUs)
	return nil
}

type simEncoder struct {
	gpio   int
	logger Logger
}

func (e *simEncoder) EncodeAndSend(cmd ACCommand) error {
	e.logger.Info("simulated ac send",
		"gpio", e.gpio,
		"protocol", cmd.Protocol,
		"power", cmd.Power,
		"mode", cmd.Mode,
		"degrees", cmd.Degrees,
		"fan", cmd.Fan,
	)
	return nil
}
