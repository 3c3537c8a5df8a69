package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/nerrad567/irhvac-core/internal/hvac"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/mqtt"
)

// Setpoint bounds applied to button-driven temperature steps.
const (
	minSetpoint = 16.0
	maxSetpoint = 30.0

	// setpointStep is the increment applied per temp_up/temp_down press.
	setpointStep = 1.0

	// qosCommand is the QoS level for inbound command subscriptions.
	qosCommand = 1
)

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Logger is the minimal logging interface the gateway needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Gateway bridges the command engine onto MQTT.
//
// Inbound, it consumes three topic families:
//   - irhvac/cmd/<id>: full JSON commands in the line protocol schema
//   - irhvac/button/<id>: single keypad actions (power_toggle, temp_up,
//     temp_down, mode, fan)
//   - irhvac/sensor/<id>/current_temp: ambient temperature readings
//
// Outbound, it implements hvac.Notifier and publishes every state
// change as a retained snapshot on irhvac/state/<id>, so home
// automation consumers always see the latest state without polling.
//
// Thread Safety: All methods are safe for concurrent use.
type Gateway struct {
	client   MQTTClient
	engine   *hvac.Engine
	registry *hvac.Registry
	topics   mqtt.Topics

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a Gateway. It does not subscribe until Start is called.
func New(client MQTTClient, engine *hvac.Engine, registry *hvac.Registry) *Gateway {
	return &Gateway{
		client:   client,
		engine:   engine,
		registry: registry,
		logger:   noopLogger{},
	}
}

// SetLogger replaces the gateway's logger.
func (g *Gateway) SetLogger(logger Logger) {
	g.loggerMu.Lock()
	defer g.loggerMu.Unlock()
	if logger != nil {
		g.logger = logger
	}
}

func (g *Gateway) getLogger() Logger {
	g.loggerMu.RLock()
	defer g.loggerMu.RUnlock()
	return g.logger
}

// Start subscribes to the inbound topic families and publishes a
// retained snapshot for every registered device so the state topics
// are populated from the moment the service comes up.
func (g *Gateway) Start() error {
	subs := []struct {
		pattern string
		handler mqtt.MessageHandler
	}{
		{g.topics.AllDeviceCommands(), g.handleCommand},
		{g.topics.AllDeviceButtons(), g.handleButton},
		{g.topics.AllDeviceSensors(), g.handleSensor},
	}
	for _, sub := range subs {
		if err := g.client.Subscribe(sub.pattern, qosCommand, sub.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", sub.pattern, err)
		}
	}

	for _, snapshot := range g.engine.Snapshots() {
		g.publishState(snapshot)
	}

	g.getLogger().Info("MQTT gateway started")
	return nil
}

// NotifyState publishes a state snapshot as a retained message.
//
// The origin session tag is ignored: the retained state topic is the
// canonical record and always reflects the latest committed state,
// whoever caused the change.
func (g *Gateway) NotifyState(snapshot hvac.Snapshot, _ string) {
	g.publishState(snapshot)
}

func (g *Gateway) publishState(snapshot hvac.Snapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		g.getLogger().Error("failed to marshal state snapshot", "device_id", snapshot.ID, "error", err)
		return
	}
	topic := g.topics.DeviceState(snapshot.ID)
	if err := g.client.Publish(topic, data, qosCommand, true); err != nil {
		g.getLogger().Warn("failed to publish state", "topic", topic, "error", err)
	}
}

// handleCommand processes a full JSON command from irhvac/cmd/<id>.
// The device id in the topic is authoritative.
func (g *Gateway) handleCommand(topic string, payload []byte) error {
	id, ok := deviceIDFromTopic(topic)
	if !ok {
		return fmt.Errorf("gateway: malformed command topic %q", topic)
	}

	cmd, err := hvac.ParseCommand(payload)
	if err != nil {
		g.getLogger().Warn("dropping malformed MQTT command", "topic", topic, "error", err)
		return nil
	}
	cmd.ID = hvac.FlexString(id)

	g.execute(cmd, topic)
	return nil
}

// handleButton processes a single keypad action from irhvac/button/<id>.
// The payload is the bare action name.
func (g *Gateway) handleButton(topic string, payload []byte) error {
	id, ok := deviceIDFromTopic(topic)
	if !ok {
		return fmt.Errorf("gateway: malformed button topic %q", topic)
	}

	action := strings.TrimSpace(string(payload))
	cmd, err := g.buttonCommand(id, action)
	if err != nil {
		g.getLogger().Warn("dropping unrecognised button press", "topic", topic, "action", action, "error", err)
		return nil
	}

	g.execute(cmd, topic)
	return nil
}

// handleSensor processes an ambient temperature reading from
// irhvac/sensor/<id>/current_temp. The payload is a bare number.
func (g *Gateway) handleSensor(topic string, payload []byte) error {
	id, ok := deviceIDFromTopic(topic)
	if !ok {
		return fmt.Errorf("gateway: malformed sensor topic %q", topic)
	}

	temp, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		g.getLogger().Warn("dropping malformed temperature reading", "topic", topic, "error", err)
		return nil
	}

	if err := g.engine.InjectCurrentTemp(id, temp); err != nil {
		g.getLogger().Debug("temperature reading ignored", "device_id", id, "error", err)
	}
	return nil
}

// execute runs a command and logs error responses. MQTT has no reply
// channel per command; failures surface in the log and, on success,
// through the retained state topic.
func (g *Gateway) execute(cmd *hvac.Command, topic string) {
	result := g.engine.Execute(cmd, "")
	if errResp, ok := result.(hvac.ErrorResponse); ok {
		g.getLogger().Warn("MQTT command failed", "topic", topic, "reason", errResp.Error)
	}
}

// buttonCommand translates a keypad action into a send command using
// the device's current tracked state.
func (g *Gateway) buttonCommand(id, action string) (*hvac.Command, error) {
	state := g.registry.States().Get(id)

	cmd := &hvac.Command{Cmd: "send", ID: hvac.FlexString(id)}

	switch action {
	case "power_toggle":
		cmd.Power.Set = true
		cmd.Power.Value = !state.Power

	case "temp_up", "temp_down":
		setpoint := state.Setpoint
		if action == "temp_up" {
			setpoint += setpointStep
		} else {
			setpoint -= setpointStep
		}
		setpoint = clamp(setpoint, minSetpoint, maxSetpoint)
		cmd.Temp = &setpoint

	case "mode":
		cmd.Mode = nextInCycle(modeCycle, state.Mode)

	case "fan":
		cmd.Fan = nextInCycle(fanCycle, state.Fan)

	default:
		return nil, fmt.Errorf("gateway: unknown button action %q", action)
	}

	// A send stands alone: restate the tracked setpoint, mode, and fan
	// so stepping one field does not reset the others to their
	// per-command defaults.
	if cmd.Temp == nil {
		setpoint := state.Setpoint
		cmd.Temp = &setpoint
	}
	if cmd.Mode == "" && state.Power && state.Mode != "off" {
		cmd.Mode = state.Mode
	}
	if cmd.Fan == "" && state.Fan != "" {
		cmd.Fan = state.Fan
	}

	return cmd, nil
}

// modeCycle is the order the mode button steps through.
var modeCycle = []string{"auto", "cool", "heat", "dry", "fan"}

// fanCycle is the order the fan button steps through.
var fanCycle = []string{"auto", "min", "low", "medium", "high", "max"}

// nextInCycle returns the entry after current, wrapping at the end.
// Unknown values restart the cycle.
func nextInCycle(cycle []string, current string) string {
	for i, v := range cycle {
		if v == current {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// deviceIDFromTopic extracts the device id from an irhvac topic of the
// form irhvac/<category>/<id>[/<field>].
func deviceIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
