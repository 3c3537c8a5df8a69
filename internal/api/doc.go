// Package api implements the HTTP management API and WebSocket state
// feed for irhvac-core.
//
// This package provides:
//   - REST endpoints for device CRUD, emitter table management, and
//     direct send testing
//   - WebSocket hub broadcasting device state snapshots in real time
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits beside the telnet command server; both drive the
// same command engine, so a command sent over HTTP produces the same
// state change and broadcast as one sent over the line protocol.
// WebSocket clients receive every device state event; on connect they
// get an immediate snapshot of every registered device.
//
// # Error Responses
//
// Command endpoints (/devices/{id}/send, /raw) surface the line
// protocol's reason codes in the response body, mapped onto HTTP
// statuses (unknown_id becomes 404, send_failed 502, the rest 400).
// Configuration endpoints use structured {status, code, message}
// errors.
package api
