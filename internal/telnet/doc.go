// Package telnet implements the line-delimited JSON command transport:
// a persistent TCP listener with a small fixed session table, line
// framing for the command engine, and snapshot broadcast to all
// connected observers.
//
// # Features
//
//   - Bounded session slot table (lowest free slot wins, connections
//     beyond the bound are rejected immediately)
//   - Eager catch-up on connect: one state line per registered device,
//     in registration order, before any command is read
//   - Line framing: \r discarded, \n terminates, empty lines skipped,
//     overlong lines dropped whole
//   - Per-line error isolation: a malformed line yields one
//     invalid_json response and never affects other sessions
//   - Broadcast fan-out that excludes the originating session, since
//     that session already saw the state as its direct response
//
// # Usage
//
//	srv := telnet.NewServer(telnet.Config{Port: 4998, MaxSessions: 4}, engine)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
// Register the server as a notifier so committed state changes reach
// connected sessions:
//
//	engine.SetNotifier(srv)
package telnet
