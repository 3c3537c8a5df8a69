// Package hvac implements the command and state engine at the centre
// of irhvac-core: the device registry, per-device runtime state, and
// the command processor that turns parsed JSON commands into infrared
// transmissions and state-change broadcasts.
//
// # Features
//
//   - Command verbs: list, get, get_all, send, raw, help (send is the
//     default when a line carries no cmd field)
//   - Custom devices driven by raw learned codes with an exact-match
//     temperature-to-code table and an optional off code
//   - Catalog devices delegated to the protocol encoder with the full
//     parameter set (swing, quiet, turbo, econo, filter, clean, beep,
//     sleep and clock timers, model discriminator)
//   - State commits gated on transmission success: a failed send never
//     mutates state and never broadcasts
//   - Change detection with a named float tolerance, excluding the
//     originating session from the resulting broadcast
//   - SQLite persistence for the device and emitter tables behind a
//     Repository interface
//
// # Usage
//
//	states := hvac.NewStateStore()
//	registry := hvac.NewRegistry(hvac.NewSQLiteRepository(db), states)
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	engine := hvac.NewEngine(registry, emitters)
//	engine.SetNotifier(fanout)
//
//	cmd, err := hvac.ParseCommand(line)
//	if err != nil {
//	    // respond {"ok":false,"error":"invalid_json"}
//	}
//	resp := engine.Execute(cmd, sessionID)
//
// Command processing is fully serialised: each command, including its
// transmission and broadcast, completes before the next one starts.
package hvac
