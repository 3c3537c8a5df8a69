package hvac

import "time"

// Notifier receives committed state changes for fan-out to observers.
// The origin tag identifies the session that issued the command, so
// transports that echo responses directly can suppress a duplicate
// push; transports with no session concept ignore it. An empty origin
// means the change came from no session (management edit, sensor feed).
type Notifier interface {
	NotifyState(snapshot Snapshot, origin string)
}

// MultiNotifier fans a state change out to several notifiers in order.
type MultiNotifier []Notifier

// NotifyState forwards the snapshot to every registered notifier.
func (m MultiNotifier) NotifyState(snapshot Snapshot, origin string) {
	for _, n := range m {
		n.NotifyState(snapshot, origin)
	}
}

// Metrics receives transmission telemetry. Satisfied by the InfluxDB
// client; a nil Metrics on the engine disables telemetry entirely.
type Metrics interface {
	WriteDeviceState(deviceID string, power bool, mode string, setpoint, currentTemp float64)
	WriteSendMetric(deviceID string, encoding string, ok bool, duration time.Duration)
}
