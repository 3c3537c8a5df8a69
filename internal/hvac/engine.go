package hvac

import (
	"sync"
	"time"

	"github.com/nerrad567/irhvac-core/internal/ircodec"
	"github.com/nerrad567/irhvac-core/internal/irdriver"
)

// Engine is the command processor: it resolves parsed commands against
// the device registry, computes the resulting device state, drives the
// codec or encoder, and commits state plus change notification only on
// transmission success.
//
// One mutex serialises command processing end to end, including codec
// dispatch, so a config edit never interleaves with an in-flight send
// and two commands never race on the same state record.
type Engine struct {
	registry *Registry
	states   *StateStore
	emitters *irdriver.Table
	notifier Notifier
	metrics  Metrics
	logger   Logger

	mu sync.Mutex
}

// NewEngine creates a command engine over the given registry and
// emitter table.
func NewEngine(registry *Registry, emitters *irdriver.Table) *Engine {
	return &Engine{
		registry: registry,
		states:   registry.States(),
		emitters: emitters,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// SetNotifier sets the state-change fan-out target.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// SetMetrics enables transmission telemetry.
func (e *Engine) SetMetrics(m Metrics) {
	e.metrics = m
}

// ErrorResponse is the generic failure shape on the wire.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// OKResponse acknowledges a command with no other payload.
type OKResponse struct {
	OK bool `json:"ok"`
}

// DeviceSummary is one row of the list response's device table.
type DeviceSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Protocol string `json:"protocol"`
	Emitter  int    `json:"emitter"`
	Model    int    `json:"model"`
	Custom   bool   `json:"custom"`
}

// ListResponse reports the emitter and device tables.
type ListResponse struct {
	OK       bool            `json:"ok"`
	Emitters []irdriver.Info `json:"emitters"`
	Devices  []DeviceSummary `json:"devices"`
}

// HelpEntry documents one verb with a canonical example payload.
type HelpEntry struct {
	Cmd     string `json:"cmd"`
	Example string `json:"example"`
}

// HelpResponse lists the supported verbs.
type HelpResponse struct {
	OK       bool        `json:"ok"`
	Commands []HelpEntry `json:"commands"`
}

// Execute processes one command to completion and returns the direct
// response value for the originating session. State-change broadcasts
// to other observers happen through the notifier as a side effect.
//
// Parameters:
//   - cmd: The parsed command
//   - origin: Session tag of the caller, excluded from the resulting
//     broadcast; empty for callers with no session
//
// Returns:
//   - any: Exactly one JSON-serialisable response value
func (e *Engine) Execute(cmd *Command, origin string) any {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		resp any
		err  error
	)

	switch cmd.Cmd {
	case "list":
		resp = e.handleList()
	case "get":
		resp, err = e.handleGet(cmd)
	case "get_all":
		resp = e.handleGetAll()
	case "raw":
		resp, err = e.handleRaw(cmd)
	case "send":
		resp, err = e.handleSend(cmd, origin)
	case "help":
		resp = helpResponse()
	default:
		err = ErrUnknownCmd
	}

	if err != nil {
		e.logger.Debug("command failed", "cmd", cmd.Cmd, "id", string(cmd.ID), "reason", ReasonOf(err), "error", err)
		return ErrorResponse{Error: ReasonOf(err)}
	}
	return resp
}

// Snapshots returns the current snapshot of every registered device in
// registration order. Used by transports to catch a new observer up.
func (e *Engine) Snapshots() []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handleGetAll()
}

func (e *Engine) handleList() ListResponse {
	devices := e.registry.List()
	summaries := make([]DeviceSummary, 0, len(devices))
	for i := range devices {
		d := &devices[i]
		summaries = append(summaries, DeviceSummary{
			ID:       d.ID,
			Name:     d.Name,
			Protocol: d.Protocol,
			Emitter:  d.Emitter,
			Model:    d.Model,
			Custom:   d.IsCustom(),
		})
	}
	return ListResponse{
		OK:       true,
		Emitters: e.emitters.List(),
		Devices:  summaries,
	}
}

func (e *Engine) handleGet(cmd *Command) (any, error) {
	device, err := e.resolveDevice(cmd)
	if err != nil {
		return nil, err
	}
	return e.initializedState(device.ID).Snapshot(device.ID), nil
}

func (e *Engine) handleGetAll() []Snapshot {
	devices := e.registry.List()
	snapshots := make([]Snapshot, 0, len(devices))
	for i := range devices {
		id := devices[i].ID
		snapshots = append(snapshots, e.initializedState(id).Snapshot(id))
	}
	return snapshots
}

// initializedState returns a device's state record, marking it
// initialised on first observation. Reading a device's state settles
// its defaults: a later send no longer mirrors the setpoint into
// current_temp.
func (e *Engine) initializedState(id string) DeviceState {
	state := e.states.Get(id)
	if !state.Initialized {
		state.Initialized = true
		e.states.Commit(id, state)
	}
	return state
}

// handleRaw transmits a literal code on an emitter. No device state is
// involved; this path is channel-addressed.
func (e *Engine) handleRaw(cmd *Command) (any, error) {
	index := 0
	if cmd.Emitter != nil {
		index = *cmd.Emitter
	}
	emitter, ok := e.emitters.Get(index)
	if !ok {
		return nil, ErrInvalidEmitter
	}

	encoding := cmd.Encoding
	if encoding == "" {
		encoding = string(ircodec.EncodingPronto)
	}
	enc, err := ircodec.ParseEncoding(encoding)
	if err != nil {
		return nil, err
	}

	repeats := 0
	if cmd.Repeats != nil {
		repeats = *cmd.Repeats
	}

	start := time.Now()
	err = ircodec.Send(emitter.Transmitter(), enc, cmd.Code, repeats)
	e.recordSend("", string(enc), err == nil, time.Since(start))
	if err != nil {
		e.logger.Warn("raw send failed", "emitter", index, "encoding", string(enc), "error", err)
		return nil, err
	}

	e.logger.Info("raw send", "emitter", index, "encoding", string(enc))
	return OKResponse{OK: true}, nil
}

// handleSend resolves a device command, transmits it, and commits the
// new state only when transmission succeeded.
func (e *Engine) handleSend(cmd *Command, origin string) (any, error) {
	device, err := e.resolveDevice(cmd)
	if err != nil {
		return nil, err
	}

	emitter, ok := e.emitters.Get(device.Emitter)
	if !ok {
		return nil, ErrInvalidEmitter
	}

	prev := e.states.Get(device.ID)

	var next DeviceState
	encoding := device.Protocol
	start := time.Now()
	if device.IsCustom() {
		next = nextCustomState(prev, cmd)
		encoding = customEncoding(device, cmd)
		err = e.sendCustom(device, emitter, cmd, next.Power)
	} else {
		next = nextCatalogState(prev, cmd)
		err = e.sendCatalog(device, emitter, cmd, next)
	}
	e.recordSend(device.ID, encoding, err == nil, time.Since(start))
	if err != nil {
		// Client input errors keep their own reason codes; everything
		// that reached the hardware reports send_failed.
		return nil, err
	}

	next.Initialized = true
	e.states.Commit(device.ID, next)

	snapshot := next.Snapshot(device.ID)
	if Changed(prev, next) && e.notifier != nil {
		e.notifier.NotifyState(snapshot, origin)
	}
	if e.metrics != nil {
		e.metrics.WriteDeviceState(device.ID, next.Power, next.Mode, next.Setpoint, next.CurrentTemp)
	}

	e.logger.Info("send",
		"id", device.ID,
		"power", next.Power,
		"mode", next.Mode,
		"setpoint", next.Setpoint,
	)
	return snapshot, nil
}

// InjectCurrentTemp commits an externally observed ambient temperature
// for a device, driving the same commit-and-broadcast path as send but
// with no transmission.
func (e *Engine) InjectCurrentTemp(id string, temp float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.registry.Get(id); err != nil {
		return err
	}

	prev := e.states.Get(id)
	next := prev
	next.CurrentTemp = temp
	next.Initialized = true
	e.states.Commit(id, next)

	if Changed(prev, next) && e.notifier != nil {
		e.notifier.NotifyState(next.Snapshot(id), "")
	}

	e.logger.Debug("current temp injected", "id", id, "temp", temp)
	return nil
}

// resolveDevice maps the command's id field to a registered device.
func (e *Engine) resolveDevice(cmd *Command) (*DeviceConfig, error) {
	id := string(cmd.ID)
	if id == "" {
		return nil, ErrMissingID
	}
	return e.registry.Get(id)
}

// commandPower resolves the power a send implies. Power defaults to
// on; an explicit power field or a command:"off" override wins.
func commandPower(cmd *Command) bool {
	power := true
	if cmd.Power.Set {
		power = cmd.Power.Value
	}
	if cmd.Command == "off" {
		power = false
	}
	return power
}

// nextCustomState computes the candidate state a custom-device send
// implies. Fields absent from the command carry over from the previous
// state, so a bare power toggle keeps the last mode and setpoint.
func nextCustomState(prev DeviceState, cmd *Command) DeviceState {
	next := prev
	next.Power = commandPower(cmd)

	if cmd.Mode != "" {
		next.Mode = NormalizeMode(cmd.Mode)
	}
	if !next.Power {
		next.Mode = "off"
	}
	if cmd.Fan != "" {
		next.Fan = NormalizeFan(cmd.Fan)
	}
	if cmd.Temp != nil {
		next.Setpoint = *cmd.Temp
	}

	// Light only changes when explicitly supplied.
	if cmd.Light.Set {
		next.Light = cmd.Light.Value
	}

	next.CurrentTemp = nextCurrentTemp(prev, cmd, next.Setpoint)
	return next
}

// nextCatalogState computes the candidate state a catalog send
// implies. Unlike the custom path, each command stands alone: absent
// mode, temp, and fan fields fall back to fixed defaults rather than
// the previous state, matching what the protocol encoder will actually
// transmit. Only light and current_temp carry over.
func nextCatalogState(prev DeviceState, cmd *Command) DeviceState {
	next := prev
	next.Power = commandPower(cmd)

	next.Mode = "auto"
	if cmd.Mode != "" {
		next.Mode = NormalizeMode(cmd.Mode)
	}
	if !next.Power {
		next.Mode = "off"
	}

	next.Setpoint = DefaultSetpoint
	if cmd.Temp != nil {
		next.Setpoint = *cmd.Temp
	}

	next.Fan = "auto"
	if cmd.Fan != "" {
		next.Fan = NormalizeFan(cmd.Fan)
	}

	if cmd.Light.Set {
		next.Light = cmd.Light.Value
	}

	next.CurrentTemp = nextCurrentTemp(prev, cmd, next.Setpoint)
	return next
}

// nextCurrentTemp keeps the tracked ambient temperature across sends.
// An explicit current_temp wins; a device that has never been observed
// mirrors its setpoint.
func nextCurrentTemp(prev DeviceState, cmd *Command, setpoint float64) float64 {
	if cmd.CurrentTemp != nil {
		return *cmd.CurrentTemp
	}
	if !prev.Initialized {
		return setpoint
	}
	return prev.CurrentTemp
}

// customEncoding resolves the wire encoding for a custom send. The
// command may override the configured encoding per transmission.
func customEncoding(device *DeviceConfig, cmd *Command) string {
	if cmd.Encoding != "" {
		return cmd.Encoding
	}
	return device.Custom.Encoding
}

// sendCustom resolves and transmits a raw learned code.
func (e *Engine) sendCustom(device *DeviceConfig, emitter *irdriver.Emitter, cmd *Command, power bool) error {
	code, err := resolveCustomCode(device, cmd, power)
	if err != nil {
		return err
	}

	enc, err := ircodec.ParseEncoding(customEncoding(device, cmd))
	if err != nil {
		return err
	}

	repeats := 0
	if cmd.Repeats != nil {
		repeats = *cmd.Repeats
	}

	if err := ircodec.Send(emitter.Transmitter(), enc, code, repeats); err != nil {
		e.logger.Warn("custom send failed", "id", device.ID, "encoding", string(enc), "error", err)
		return err
	}
	return nil
}

// resolveCustomCode picks the raw code a custom send should transmit.
func resolveCustomCode(device *DeviceConfig, cmd *Command, power bool) (string, error) {
	if !power {
		if device.Custom.Off == "" {
			return "", ErrMissingCustomOff
		}
		return device.Custom.Off, nil
	}

	if cmd.Code != "" {
		return cmd.Code, nil
	}

	if temp, ok := cmd.TempInt(); ok {
		code, found := device.Custom.Temps[temp]
		if !found {
			return "", ErrMissingTempCode
		}
		return code, nil
	}

	return "", ErrMissingCode
}

// sendCatalog delegates to the protocol encoder with the full
// parameter set.
func (e *Engine) sendCatalog(device *DeviceConfig, emitter *irdriver.Emitter, cmd *Command, next DeviceState) error {
	if !irdriver.IsSupported(device.Protocol) {
		return ErrUnsupportedProtocol
	}

	ac := irdriver.ACCommand{
		Protocol: irdriver.NormalizeProtocol(device.Protocol),
		Model:    device.Model,
		Power:    next.Power,
		Mode:     next.Mode,
		Degrees:  next.Setpoint,
		Celsius:  true,
		Fan:      next.Fan,
		SwingV:   "off",
		SwingH:   "off",
		Light:    next.Light,
		Sleep:    -1,
		Clock:    -1,
	}

	if cmd.Model != nil {
		ac.Model = *cmd.Model
	}
	if cmd.Celsius != nil {
		ac.Celsius = *cmd.Celsius
	}
	if cmd.SwingV != "" {
		ac.SwingV = cmd.SwingV
	}
	if cmd.SwingH != "" {
		ac.SwingH = cmd.SwingH
	}
	ac.Quiet = cmd.Quiet.Value
	ac.Turbo = cmd.Turbo.Value
	ac.Econo = cmd.Econo.Value
	ac.Filter = cmd.Filter.Value
	ac.Clean = cmd.Clean.Value
	ac.Beep = cmd.Beep.Value
	if cmd.Sleep != nil {
		ac.Sleep = *cmd.Sleep
	}
	if cmd.Clock != nil {
		ac.Clock = *cmd.Clock
	}

	if err := emitter.Encoder().EncodeAndSend(ac); err != nil {
		e.logger.Warn("catalog send failed", "id", device.ID, "protocol", ac.Protocol, "error", err)
		return err
	}
	return nil
}

// recordSend writes transmission telemetry when metrics are enabled.
func (e *Engine) recordSend(deviceID, encoding string, ok bool, duration time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.WriteSendMetric(deviceID, encoding, ok, duration)
}

// helpResponse is the static verb reference.
func helpResponse() HelpResponse {
	return HelpResponse{
		OK: true,
		Commands: []HelpEntry{
			{Cmd: "list", Example: `{"cmd":"list"}`},
			{Cmd: "get", Example: `{"cmd":"get","id":"1"}`},
			{Cmd: "get_all", Example: `{"cmd":"get_all"}`},
			{Cmd: "send", Example: `{"cmd":"send","id":"1","power":"on","mode":"cool","temp":22,"fan":"auto"}`},
			{Cmd: "raw", Example: `{"cmd":"raw","emitter":0,"encoding":"pronto","code":"0000 006D 0001 0000 0041 0041"}`},
			{Cmd: "help", Example: `{"cmd":"help"}`},
		},
	}
}
