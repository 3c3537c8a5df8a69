package hvac

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/irhvac-core/internal/ircodec"
	"github.com/nerrad567/irhvac-core/internal/irdriver"
)

// memRepository is an in-memory Repository for engine and registry tests.
type memRepository struct {
	devices  map[string]DeviceConfig
	order    []string
	emitters []EmitterConfig
}

func newMemRepository() *memRepository {
	return &memRepository{devices: make(map[string]DeviceConfig)}
}

func (r *memRepository) GetByID(_ context.Context, id string) (*DeviceConfig, error) {
	d, ok := r.devices[id]
	if !ok {
		return nil, ErrUnknownID
	}
	return &d, nil
}

func (r *memRepository) List(_ context.Context) ([]DeviceConfig, error) {
	out := make([]DeviceConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out, nil
}

func (r *memRepository) Create(_ context.Context, device *DeviceConfig) error {
	if _, exists := r.devices[device.ID]; exists {
		return ErrDeviceExists
	}
	r.devices[device.ID] = *device
	r.order = append(r.order, device.ID)
	return nil
}

func (r *memRepository) Update(_ context.Context, device *DeviceConfig) error {
	if _, exists := r.devices[device.ID]; !exists {
		return ErrUnknownID
	}
	r.devices[device.ID] = *device
	return nil
}

func (r *memRepository) Delete(_ context.Context, id string) error {
	if _, exists := r.devices[id]; !exists {
		return ErrUnknownID
	}
	delete(r.devices, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memRepository) ListEmitters(_ context.Context) ([]EmitterConfig, error) {
	return r.emitters, nil
}

func (r *memRepository) SaveEmitters(_ context.Context, emitters []EmitterConfig) error {
	r.emitters = emitters
	return nil
}

// captureHardware records every transmission and can be made to fail.
type captureHardware struct {
	failSends bool

	prontoSends []int // payload word counts
	gcSends     int
	marks       int
	acSends     []irdriver.ACCommand
}

var errCaptureSend = errors.New("capture send failure")

func (h *captureHardware) OpenTransmitter(_ int) (ircodec.Transmitter, error) {
	return &captureTransmitter{hw: h}, nil
}

func (h *captureHardware) OpenEncoder(_ int) (irdriver.ACEncoder, error) {
	return &captureEncoder{hw: h}, nil
}

type captureTransmitter struct {
	hw *captureHardware
}

func (t *captureTransmitter) SendPronto(data []uint16, _ int) error {
	if t.hw.failSends {
		return errCaptureSend
	}
	t.hw.prontoSends = append(t.hw.prontoSends, len(data))
	return nil
}

func (t *captureTransmitter) SendGlobalCache([]uint16) error {
	if t.hw.failSends {
		return errCaptureSend
	}
	t.hw.gcSends++
	return nil
}

func (t *captureTransmitter) EnableCarrier(uint16) error { return nil }

func (t *captureTransmitter) Mark(uint32) error {
	if t.hw.failSends {
		return errCaptureSend
	}
	t.hw.marks++
	return nil
}

func (t *captureTransmitter) Space(uint32) error { return nil }

type captureEncoder struct {
	hw *captureHardware
}

func (e *captureEncoder) EncodeAndSend(cmd irdriver.ACCommand) error {
	if e.hw.failSends {
		return errCaptureSend
	}
	e.hw.acSends = append(e.hw.acSends, cmd)
	return nil
}

// captureNotifier records broadcast snapshots with their origin tags.
type captureNotifier struct {
	snapshots []Snapshot
	origins   []string
}

func (n *captureNotifier) NotifyState(snapshot Snapshot, origin string) {
	n.snapshots = append(n.snapshots, snapshot)
	n.origins = append(n.origins, origin)
}

const prontoTestCode = "0000 006D 0001 0000 0041 0041 0041 0689"

// setupEngine builds an engine over in-memory everything with one
// emitter configured.
func setupEngine(t *testing.T, devices ...DeviceConfig) (*Engine, *captureHardware, *captureNotifier) {
	t.Helper()

	repo := newMemRepository()
	for i := range devices {
		if err := repo.Create(context.Background(), &devices[i]); err != nil {
			t.Fatalf("seeding device %s: %v", devices[i].ID, err)
		}
	}

	registry := NewRegistry(repo, NewStateStore())
	if err := registry.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}

	hw := &captureHardware{}
	emitters := irdriver.NewTable(hw, 4)
	if err := emitters.Rebuild([]int{17}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	notifier := &captureNotifier{}
	engine := NewEngine(registry, emitters)
	engine.SetNotifier(notifier)
	return engine, hw, notifier
}

func customDevice(id string) DeviceConfig {
	return DeviceConfig{
		ID:       id,
		Protocol: "CUSTOM",
		Emitter:  0,
		Custom: &CustomCodes{
			Encoding: "pronto",
			Temps:    map[int]string{18: prontoTestCode},
		},
	}
}

func execLine(t *testing.T, engine *Engine, line string, origin string) any {
	t.Helper()
	cmd, err := ParseCommand([]byte(line))
	if err != nil {
		t.Fatalf("ParseCommand(%q) error = %v", line, err)
	}
	return engine.Execute(cmd, origin)
}

func wantError(t *testing.T, resp any, reason string) {
	t.Helper()
	errResp, ok := resp.(ErrorResponse)
	if !ok {
		t.Fatalf("response = %#v, want ErrorResponse", resp)
	}
	if errResp.OK {
		t.Error("error response has ok=true")
	}
	if errResp.Error != reason {
		t.Errorf("error = %q, want %q", errResp.Error, reason)
	}
}

func wantSnapshot(t *testing.T, resp any) Snapshot {
	t.Helper()
	snap, ok := resp.(Snapshot)
	if !ok {
		t.Fatalf("response = %#v, want Snapshot", resp)
	}
	if snap.Type != "state" {
		t.Errorf("snapshot type = %q, want %q", snap.Type, "state")
	}
	return snap
}

func TestExecute_UnknownVerb(t *testing.T) {
	engine, _, _ := setupEngine(t)
	wantError(t, execLine(t, engine, `{"cmd":"reboot"}`, ""), ReasonUnknownCmd)
}

func TestExecute_GetErrors(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))

	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{"missing id", `{"cmd":"get"}`, ReasonMissingID},
		{"unknown id", `{"cmd":"get","id":"nope"}`, ReasonUnknownID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantError(t, execLine(t, engine, tt.line, ""), tt.reason)
		})
	}
}

func TestExecute_GetLazyDefaults(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))

	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"get","id":"c1"}`, ""))
	if snap.ID != "c1" || snap.Power != "off" || snap.Mode != "off" {
		t.Errorf("defaults wrong: %+v", snap)
	}
	if snap.Setpoint != 24 || snap.CurrentTemp != 24 {
		t.Errorf("default temps = %v/%v, want 24/24", snap.Setpoint, snap.CurrentTemp)
	}
	if snap.Fan != "auto" || snap.Light != "off" {
		t.Errorf("fan/light = %q/%q, want auto/off", snap.Fan, snap.Light)
	}
}

func TestExecute_GetAll(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"), customDevice("c2"))

	resp := execLine(t, engine, `{"cmd":"get_all"}`, "")
	snaps, ok := resp.([]Snapshot)
	if !ok {
		t.Fatalf("response = %#v, want []Snapshot", resp)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].ID != "c1" || snaps[1].ID != "c2" {
		t.Errorf("registry order = %s, %s; want c1, c2", snaps[0].ID, snaps[1].ID)
	}
}

func TestExecute_List(t *testing.T) {
	dev := customDevice("c1")
	dev.Name = "lounge"
	engine, _, _ := setupEngine(t, dev)

	resp := execLine(t, engine, `{"cmd":"list"}`, "")
	list, ok := resp.(ListResponse)
	if !ok {
		t.Fatalf("response = %#v, want ListResponse", resp)
	}
	if !list.OK {
		t.Error("list response has ok=false")
	}
	if len(list.Emitters) != 1 || list.Emitters[0].GPIO != 17 {
		t.Errorf("emitters = %+v, want one on gpio 17", list.Emitters)
	}
	if len(list.Devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(list.Devices))
	}
	d := list.Devices[0]
	if d.ID != "c1" || d.Name != "lounge" || !d.Custom {
		t.Errorf("device summary = %+v", d)
	}
}

func TestExecute_Help(t *testing.T) {
	engine, _, _ := setupEngine(t)

	resp := execLine(t, engine, `{"cmd":"help"}`, "")
	help, ok := resp.(HelpResponse)
	if !ok {
		t.Fatalf("response = %#v, want HelpResponse", resp)
	}
	verbs := make(map[string]bool)
	for _, entry := range help.Commands {
		verbs[entry.Cmd] = true
	}
	for _, want := range []string{"list", "get", "get_all", "send", "raw", "help"} {
		if !verbs[want] {
			t.Errorf("help missing verb %q", want)
		}
	}
}

func TestRaw(t *testing.T) {
	engine, hw, _ := setupEngine(t)

	resp := execLine(t, engine, `{"cmd":"raw","emitter":0,"encoding":"pronto","code":"`+prontoTestCode+`"}`, "")
	if okResp, ok := resp.(OKResponse); !ok || !okResp.OK {
		t.Fatalf("response = %#v, want ok", resp)
	}
	if len(hw.prontoSends) != 1 || hw.prontoSends[0] != 8 {
		t.Errorf("prontoSends = %v, want one send of 8 words", hw.prontoSends)
	}
}

func TestRaw_DefaultsToEmitterZeroPronto(t *testing.T) {
	engine, hw, _ := setupEngine(t)

	resp := execLine(t, engine, `{"cmd":"raw","code":"`+prontoTestCode+`"}`, "")
	if _, ok := resp.(OKResponse); !ok {
		t.Fatalf("response = %#v, want OKResponse", resp)
	}
	if len(hw.prontoSends) != 1 {
		t.Errorf("prontoSends = %v, want one send", hw.prontoSends)
	}
}

func TestRaw_InvalidEmitter(t *testing.T) {
	engine, _, _ := setupEngine(t)
	wantError(t, execLine(t, engine, `{"cmd":"raw","emitter":5,"code":"`+prontoTestCode+`"}`, ""), ReasonInvalidEmitter)
}

func TestRaw_CodecFailure(t *testing.T) {
	engine, hw, _ := setupEngine(t)

	// Too few payload words for pronto.
	wantError(t, execLine(t, engine, `{"cmd":"raw","code":"0000 006D"}`, ""), ReasonSendFailed)
	if len(hw.prontoSends) != 0 {
		t.Errorf("transmitter touched on codec failure: %v", hw.prontoSends)
	}
}

func TestSend_UnknownIDLeavesEverythingAlone(t *testing.T) {
	engine, hw, notifier := setupEngine(t, customDevice("c1"))

	wantError(t, execLine(t, engine, `{"cmd":"send","id":"ghost","temp":18}`, ""), ReasonUnknownID)
	if len(hw.prontoSends) != 0 {
		t.Error("transmitter touched for unknown id")
	}
	if len(notifier.snapshots) != 0 {
		t.Error("broadcast triggered for unknown id")
	}
}

func TestSend_DefaultVerbIsSend(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))

	// No cmd field at all: defaults to send.
	snap := wantSnapshot(t, execLine(t, engine, `{"id":"c1","temp":18}`, ""))
	if snap.Setpoint != 18 {
		t.Errorf("setpoint = %v, want 18", snap.Setpoint)
	}
}

func TestSend_CustomTempCode(t *testing.T) {
	engine, hw, notifier := setupEngine(t, customDevice("c1"))

	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18}`, "session-0"))
	if snap.Power != "on" {
		t.Errorf("power = %q, want on (default)", snap.Power)
	}
	if snap.Setpoint != 18 {
		t.Errorf("setpoint = %v, want 18", snap.Setpoint)
	}
	// Never-initialised device mirrors the setpoint.
	if snap.CurrentTemp != 18 {
		t.Errorf("current_temp = %v, want 18", snap.CurrentTemp)
	}
	if len(hw.prontoSends) != 1 {
		t.Errorf("prontoSends = %v, want one send", hw.prontoSends)
	}
	if len(notifier.snapshots) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(notifier.snapshots))
	}
	if notifier.origins[0] != "session-0" {
		t.Errorf("broadcast origin = %q, want session-0", notifier.origins[0])
	}
}

func TestSend_CustomMissingTempCode(t *testing.T) {
	engine, _, notifier := setupEngine(t, customDevice("c1"))

	wantError(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":19}`, ""), ReasonMissingTempCode)
	if len(notifier.snapshots) != 0 {
		t.Error("broadcast triggered on failed send")
	}
}

func TestSend_CustomNoCodeResolvable(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))
	wantError(t, execLine(t, engine, `{"cmd":"send","id":"c1"}`, ""), ReasonMissingCode)
}

func TestSend_CustomExplicitCodeWins(t *testing.T) {
	engine, hw, _ := setupEngine(t, customDevice("c1"))

	snap := wantSnapshot(t, execLine(t, engine,
		`{"cmd":"send","id":"c1","code":"`+prontoTestCode+`","mode":"cool"}`, ""))
	if snap.Mode != "cool" {
		t.Errorf("mode = %q, want cool", snap.Mode)
	}
	if len(hw.prontoSends) != 1 {
		t.Errorf("prontoSends = %v, want one send", hw.prontoSends)
	}
}

func TestSend_CustomPowerOff(t *testing.T) {
	dev := customDevice("c1")
	dev.Custom.Off = prontoTestCode
	engine, _, _ := setupEngine(t, dev)

	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","power":"off"}`, ""))
	if snap.Power != "off" {
		t.Errorf("power = %q, want off", snap.Power)
	}
	// Powering off forces mode off regardless of what was requested.
	if snap.Mode != "off" {
		t.Errorf("mode = %q, want off", snap.Mode)
	}
}

func TestSend_CustomMissingOffCode(t *testing.T) {
	engine, _, notifier := setupEngine(t, customDevice("c1"))

	// Commit a known state first.
	wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18}`, ""))
	broadcastsBefore := len(notifier.snapshots)

	wantError(t, execLine(t, engine, `{"cmd":"send","id":"c1","power":"off"}`, ""), ReasonMissingCustomOff)

	// Prior committed state must be untouched.
	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"get","id":"c1"}`, ""))
	if snap.Power != "on" || snap.Setpoint != 18 {
		t.Errorf("state mutated by failed send: %+v", snap)
	}
	if len(notifier.snapshots) != broadcastsBefore {
		t.Error("failed send triggered broadcast")
	}
}

func TestSend_CommandOffOverride(t *testing.T) {
	dev := customDevice("c1")
	dev.Custom.Off = prontoTestCode
	engine, _, _ := setupEngine(t, dev)

	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","command":"off","power":"on"}`, ""))
	if snap.Power != "off" {
		t.Errorf("power = %q, want off (command override beats power field)", snap.Power)
	}
}

func TestSend_TransmissionFailureKeepsState(t *testing.T) {
	engine, hw, notifier := setupEngine(t, customDevice("c1"))

	wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18}`, ""))
	before := wantSnapshot(t, execLine(t, engine, `{"cmd":"get","id":"c1"}`, ""))
	broadcastsBefore := len(notifier.snapshots)

	hw.failSends = true
	wantError(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18,"mode":"heat"}`, ""), ReasonSendFailed)

	after := wantSnapshot(t, execLine(t, engine, `{"cmd":"get","id":"c1"}`, ""))
	if after != before {
		t.Errorf("state changed by failed transmission: %+v -> %+v", before, after)
	}
	if len(notifier.snapshots) != broadcastsBefore {
		t.Error("failed transmission triggered broadcast")
	}
}

func TestSend_IdenticalStateSuppressesSecondBroadcast(t *testing.T) {
	engine, _, notifier := setupEngine(t, customDevice("c1"))

	wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18}`, ""))
	wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18}`, ""))

	if len(notifier.snapshots) != 1 {
		t.Errorf("broadcasts = %d, want 1 (identical resend suppressed)", len(notifier.snapshots))
	}
}

func TestSend_LightOnlyChangeBroadcasts(t *testing.T) {
	engine, _, notifier := setupEngine(t, customDevice("c1"))

	wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18}`, ""))
	wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18,"light":"on"}`, ""))

	if len(notifier.snapshots) != 2 {
		t.Fatalf("broadcasts = %d, want 2", len(notifier.snapshots))
	}
	if notifier.snapshots[1].Light != "on" {
		t.Errorf("second broadcast light = %q, want on", notifier.snapshots[1].Light)
	}
}

func TestSend_LightCarriedWhenNotSupplied(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))

	wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18,"light":true}`, ""))
	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","code":"`+prontoTestCode+`"}`, ""))
	if snap.Light != "on" {
		t.Errorf("light = %q, want on (carried over)", snap.Light)
	}
}

func TestSend_CurrentTempCarriedUntilOverridden(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))

	wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18,"current_temp":26.5}`, ""))
	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","code":"`+prontoTestCode+`"}`, ""))
	if snap.CurrentTemp != 26.5 {
		t.Errorf("current_temp = %v, want 26.5 (carried until overridden)", snap.CurrentTemp)
	}

	snap = wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","code":"`+prontoTestCode+`","current_temp":23}`, ""))
	if snap.CurrentTemp != 23 {
		t.Errorf("current_temp = %v, want 23 after override", snap.CurrentTemp)
	}
}

func TestSend_Catalog(t *testing.T) {
	dev := DeviceConfig{ID: "ac1", Protocol: "DAIKIN", Emitter: 0, Model: 1}
	engine, hw, _ := setupEngine(t, dev)

	snap := wantSnapshot(t, execLine(t, engine,
		`{"cmd":"send","id":"ac1","mode":"cool","temp":22,"fan":"high","quiet":true,"swingv":"highest"}`, ""))
	if snap.Mode != "cool" || snap.Setpoint != 22 || snap.Fan != "high" {
		t.Errorf("snapshot = %+v", snap)
	}

	if len(hw.acSends) != 1 {
		t.Fatalf("acSends = %d, want 1", len(hw.acSends))
	}
	ac := hw.acSends[0]
	if ac.Protocol != "DAIKIN" || !ac.Power || ac.Mode != "cool" || ac.Degrees != 22 {
		t.Errorf("encoder command = %+v", ac)
	}
	if !ac.Quiet || ac.SwingV != "highest" || ac.SwingH != "off" {
		t.Errorf("encoder extras = %+v", ac)
	}
	if !ac.Celsius {
		t.Error("celsius should default true")
	}
	if ac.Sleep != -1 || ac.Clock != -1 {
		t.Errorf("timers = %d/%d, want -1/-1 when unset", ac.Sleep, ac.Clock)
	}
}

func TestSend_CatalogBareResendUsesDefaults(t *testing.T) {
	dev := DeviceConfig{ID: "ac1", Protocol: "DAIKIN", Emitter: 0}
	engine, hw, _ := setupEngine(t, dev)

	wantSnapshot(t, execLine(t, engine,
		`{"cmd":"send","id":"ac1","mode":"cool","temp":18,"fan":"high","light":"on","current_temp":21}`, ""))

	// Absent mode/temp/fan do not carry over on the catalog path; each
	// command falls back to auto/24/auto with swing off. Only light and
	// current_temp persist.
	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"ac1"}`, ""))
	if snap.Mode != "auto" {
		t.Errorf("mode = %q, want auto", snap.Mode)
	}
	if snap.Setpoint != 24 {
		t.Errorf("setpoint = %v, want 24", snap.Setpoint)
	}
	if snap.Fan != "auto" {
		t.Errorf("fan = %q, want auto", snap.Fan)
	}
	if snap.Light != "on" {
		t.Errorf("light = %q, want on (carried over)", snap.Light)
	}
	if snap.CurrentTemp != 21 {
		t.Errorf("current_temp = %v, want 21 (carried over)", snap.CurrentTemp)
	}

	if len(hw.acSends) != 2 {
		t.Fatalf("acSends = %d, want 2", len(hw.acSends))
	}
	ac := hw.acSends[1]
	if ac.Mode != "auto" || ac.Degrees != 24 || ac.Fan != "auto" {
		t.Errorf("encoder command = %+v", ac)
	}
	if ac.SwingV != "off" || ac.SwingH != "off" {
		t.Errorf("swing = %q/%q, want off/off when unset", ac.SwingV, ac.SwingH)
	}
}

func TestSend_CustomCarriesAbsentFields(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))

	wantSnapshot(t, execLine(t, engine,
		`{"cmd":"send","id":"c1","temp":18,"mode":"cool","fan":"high"}`, ""))

	// Unlike the catalog path, a custom send keeps the previous mode
	// and fan when the command omits them.
	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","code":"`+prontoTestCode+`"}`, ""))
	if snap.Mode != "cool" || snap.Fan != "high" || snap.Setpoint != 18 {
		t.Errorf("carried state = %+v", snap)
	}
}

func TestSend_CustomEncodingOverride(t *testing.T) {
	engine, hw, _ := setupEngine(t, customDevice("c1"))

	snap := wantSnapshot(t, execLine(t, engine,
		`{"cmd":"send","id":"c1","encoding":"gc","code":"38000,1,1,170,170,20,63,20,1000"}`, ""))
	if snap.Power != "on" {
		t.Errorf("power = %q, want on", snap.Power)
	}
	if hw.gcSends != 1 {
		t.Errorf("gcSends = %d, want 1 (command encoding overrides configured)", hw.gcSends)
	}
	if len(hw.prontoSends) != 0 {
		t.Errorf("prontoSends = %v, want none", hw.prontoSends)
	}
}

func TestGetSettlesDefaultsBeforeFirstSend(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))

	wantSnapshot(t, execLine(t, engine, `{"cmd":"get","id":"c1"}`, ""))

	// Reading the state settles the defaults: the following send keeps
	// the default current_temp instead of mirroring the new setpoint.
	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18}`, ""))
	if snap.Setpoint != 18 {
		t.Errorf("setpoint = %v, want 18", snap.Setpoint)
	}
	if snap.CurrentTemp != 24 {
		t.Errorf("current_temp = %v, want 24 (settled by get)", snap.CurrentTemp)
	}
}

func TestSend_UnsupportedProtocol(t *testing.T) {
	dev := DeviceConfig{ID: "ac1", Protocol: "ACME_AC", Emitter: 0}
	engine, hw, _ := setupEngine(t, dev)

	wantError(t, execLine(t, engine, `{"cmd":"send","id":"ac1","temp":22}`, ""), ReasonUnsupportedProtocol)
	if len(hw.acSends) != 0 {
		t.Error("encoder invoked for unsupported protocol")
	}
}

func TestSend_InvalidEmitter(t *testing.T) {
	dev := customDevice("c1")
	dev.Emitter = 3
	engine, _, _ := setupEngine(t, dev)

	wantError(t, execLine(t, engine, `{"cmd":"send","id":"c1","temp":18}`, ""), ReasonInvalidEmitter)
}

func TestSend_ModeFanNormalization(t *testing.T) {
	engine, _, _ := setupEngine(t, customDevice("c1"))

	snap := wantSnapshot(t, execLine(t, engine,
		`{"cmd":"send","id":"c1","temp":18,"mode":"arctic","fan":"turbo"}`, ""))
	if snap.Mode != "auto" {
		t.Errorf("mode = %q, want auto (unrecognised falls back)", snap.Mode)
	}
	if snap.Fan != "auto" {
		t.Errorf("fan = %q, want auto (unrecognised falls back)", snap.Fan)
	}
}

func TestInjectCurrentTemp(t *testing.T) {
	engine, _, notifier := setupEngine(t, customDevice("c1"))

	if err := engine.InjectCurrentTemp("c1", 27.5); err != nil {
		t.Fatalf("InjectCurrentTemp() error = %v", err)
	}
	snap := wantSnapshot(t, execLine(t, engine, `{"cmd":"get","id":"c1"}`, ""))
	if snap.CurrentTemp != 27.5 {
		t.Errorf("current_temp = %v, want 27.5", snap.CurrentTemp)
	}
	if len(notifier.snapshots) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(notifier.snapshots))
	}

	if err := engine.InjectCurrentTemp("ghost", 20); !errors.Is(err, ErrUnknownID) {
		t.Errorf("InjectCurrentTemp(ghost) error = %v, want ErrUnknownID", err)
	}
}

func TestInjectCurrentTemp_WithinToleranceNoBroadcast(t *testing.T) {
	engine, _, notifier := setupEngine(t, customDevice("c1"))

	if err := engine.InjectCurrentTemp("c1", 24.0); err != nil {
		t.Fatalf("InjectCurrentTemp() error = %v", err)
	}
	before := len(notifier.snapshots)

	// 0.04 off the prior reading sits inside the tolerance.
	if err := engine.InjectCurrentTemp("c1", 24.04); err != nil {
		t.Fatalf("InjectCurrentTemp() error = %v", err)
	}
	if len(notifier.snapshots) != before {
		t.Error("within-tolerance reading triggered broadcast")
	}
}
