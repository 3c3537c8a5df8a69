package influxdb

import (
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

func tagValue(t *testing.T, p *write.Point, key string) string {
	t.Helper()
	for _, tag := range p.TagList() {
		if tag.Key == key {
			return tag.Value
		}
	}
	t.Fatalf("tag %q missing", key)
	return ""
}

func fieldValue(t *testing.T, p *write.Point, key string) interface{} {
	t.Helper()
	for _, field := range p.FieldList() {
		if field.Key == key {
			return field.Value
		}
	}
	t.Fatalf("field %q missing", key)
	return nil
}

func TestDeviceStatePoint(t *testing.T) {
	ts := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	p := deviceStatePoint("ac-lounge", true, "cool", 22.0, 24.5, ts)

	if p.Name() != "hvac_state" {
		t.Errorf("measurement = %q, want hvac_state", p.Name())
	}
	if got := tagValue(t, p, "device_id"); got != "ac-lounge" {
		t.Errorf("device_id tag = %q, want ac-lounge", got)
	}
	if got := tagValue(t, p, "mode"); got != "cool" {
		t.Errorf("mode tag = %q, want cool", got)
	}
	if got := fieldValue(t, p, "power"); got != int64(1) {
		t.Errorf("power field = %v, want 1", got)
	}
	if got := fieldValue(t, p, "setpoint"); got != 22.0 {
		t.Errorf("setpoint field = %v, want 22", got)
	}
	if got := fieldValue(t, p, "current_temp"); got != 24.5 {
		t.Errorf("current_temp field = %v, want 24.5", got)
	}
	if !p.Time().Equal(ts) {
		t.Errorf("timestamp = %v, want %v", p.Time(), ts)
	}
}

func TestDeviceStatePoint_PowerOff(t *testing.T) {
	p := deviceStatePoint("2", false, "off", 24.0, 21.0, time.Now())
	if got := fieldValue(t, p, "power"); got != int64(0) {
		t.Errorf("power field = %v, want 0", got)
	}
	if got := tagValue(t, p, "mode"); got != "off" {
		t.Errorf("mode tag = %q, want off", got)
	}
}

func TestSendMetricPoint(t *testing.T) {
	p := sendMetricPoint("2", "pronto", true, 120*time.Millisecond, time.Now())

	if p.Name() != "ir_send" {
		t.Errorf("measurement = %q, want ir_send", p.Name())
	}
	if got := tagValue(t, p, "device_id"); got != "2" {
		t.Errorf("device_id tag = %q, want 2", got)
	}
	if got := tagValue(t, p, "encoding"); got != "pronto" {
		t.Errorf("encoding tag = %q, want pronto", got)
	}
	if got := fieldValue(t, p, "ok"); got != int64(1) {
		t.Errorf("ok field = %v, want 1", got)
	}
	if got := fieldValue(t, p, "duration_ms"); got != 120.0 {
		t.Errorf("duration_ms field = %v, want 120", got)
	}
}

func TestSendMetricPoint_RawSendFailure(t *testing.T) {
	// Raw emitter sends carry no device id; the tag stays present but
	// empty so the series shape is stable.
	p := sendMetricPoint("", "gc", false, 3*time.Millisecond, time.Now())

	if got := tagValue(t, p, "device_id"); got != "" {
		t.Errorf("device_id tag = %q, want empty", got)
	}
	if got := fieldValue(t, p, "ok"); got != int64(0) {
		t.Errorf("ok field = %v, want 0", got)
	}
}
