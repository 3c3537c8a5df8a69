package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// The engine writes two measurements. hvac_state is a snapshot row
// per successful send or sensor injection; ir_send is one row per
// transmission attempt, raw emitter sends included. Writes are
// non-blocking: points are batched and flushed by the client.

// WriteDeviceState records a device state snapshot after a successful
// IR transmission.
//
// Parameters:
//   - deviceID: Device identifier
//   - power: Whether the unit is on
//   - mode: Operating mode ("cool", "heat", "off", ...)
//   - setpoint: Target temperature in degrees
//   - currentTemp: Ambient temperature fed to the unit
func (c *Client) WriteDeviceState(deviceID string, power bool, mode string, setpoint, currentTemp float64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(deviceStatePoint(deviceID, power, mode, setpoint, currentTemp, time.Now()))
}

// WriteSendMetric records the outcome of an IR transmission attempt.
//
// Parameters:
//   - deviceID: Device identifier (empty for raw emitter sends)
//   - encoding: Pulse-train encoding used ("pronto", "gc", "racepoint", or a protocol name)
//   - ok: Whether the transmission succeeded
//   - duration: Wall-clock time spent transmitting
func (c *Client) WriteSendMetric(deviceID string, encoding string, ok bool, duration time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(sendMetricPoint(deviceID, encoding, ok, duration, time.Now()))
}

// deviceStatePoint builds the hvac_state row. Mode rides as a tag so
// dashboards can group runtime by mode; power is 0/1 for mean-uptime
// queries.
func deviceStatePoint(deviceID string, power bool, mode string, setpoint, currentTemp float64, ts time.Time) *write.Point {
	return write.NewPoint(
		"hvac_state",
		map[string]string{
			"device_id": deviceID,
			"mode":      mode,
		},
		map[string]interface{}{
			"power":        boolField(power),
			"setpoint":     setpoint,
			"current_temp": currentTemp,
		},
		ts,
	)
}

// sendMetricPoint builds the ir_send row.
func sendMetricPoint(deviceID, encoding string, ok bool, duration time.Duration, ts time.Time) *write.Point {
	return write.NewPoint(
		"ir_send",
		map[string]string{
			"device_id": deviceID,
			"encoding":  encoding,
		},
		map[string]interface{}{
			"ok":          boolField(ok),
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
		},
		ts,
	)
}

func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}
