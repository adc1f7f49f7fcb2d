// Package svcaction implements the service action state machine: given a
// requested lifecycle action (start, stop, restart, pause, resume) for a
// named service on a host, it inspects the current state, derives the
// ordered transition legs required to satisfy the action, issues them
// through a control port, waits for each resulting state with a bounded
// timeout, and optionally falls back to forceful process termination when a
// graceful stop does not complete in time.
//
// The two entry points mirror the two roles:
//
//	inspector := svcaction.NewInspector(logger, ports)
//	desc, err := inspector.Inspect(ctx, "Telephony", "db-01")
//
//	engine := svcaction.NewEngine(logger, ports)
//	outcome, err := engine.Apply(ctx, svcaction.Request{
//	    Service: "Telephony",
//	    Action:  svcaction.ActionRestart,
//	    Host:    "db-01",
//	})
//
// Apply returns an error only for invalid requests. Everything that goes
// wrong after validation (missing service, failed transition, timeout,
// stubborn process) degrades to a diagnostic on the Outcome together with
// the last observed state, so a caller iterating many services keeps going.
//
// The engine is sequential: one Apply call processes one (host, service)
// pair end to end. Concurrent Apply calls are safe for different pairs;
// callers must serialize calls that target the same pair.
package svcaction
