// Package gateway bridges the command engine onto MQTT for home
// automation integration.
//
// This package provides:
//   - Full JSON commands on irhvac/cmd/<id>, using the same schema as
//     the telnet line protocol
//   - Single keypad actions on irhvac/button/<id> (power_toggle,
//     temp_up, temp_down, mode, fan)
//   - Ambient temperature feeds on irhvac/sensor/<id>/current_temp
//   - Retained state snapshots on irhvac/state/<id>
//
// # Topic Scheme
//
// The gateway subscribes with wildcard patterns (irhvac/cmd/+ and so
// on); the device id embedded in the topic is authoritative, so
// automation platforms address devices purely through topic names.
//
// State topics are retained: a consumer connecting hours after the
// last change still receives the current snapshot immediately.
//
// # Error Handling
//
// MQTT has no per-command reply channel. Malformed payloads and
// rejected commands are logged and dropped; successful commands
// surface through the retained state topic like any other change.
package gateway
