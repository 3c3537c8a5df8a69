// Package irdriver owns the emitter runtime: the table of physical IR
// output channels and the hardware capabilities bound to each.
//
// An Emitter pairs a GPIO identity with two transmission capabilities:
// a raw pulse-train transmitter (consumed by the ircodec package) and
// a catalog AC encoder (the external per-protocol HVAC encoding
// capability). The table is rebuilt wholesale whenever the configured
// channel list changes — all prior capability instances are torn down
// and recreated, never diffed.
//
// The physical transmission primitive itself is external to the core.
// Hardware bindings implement the Hardware interface; this package
// ships a simulated implementation for development and testing.
package irdriver
