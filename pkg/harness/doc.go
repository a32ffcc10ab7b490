// Package harness drives a real Chromium browser against a web page and
// asserts what a user would observe.
//
// A scenario runs through a fixed sequence of states:
//
//	INIT → NAVIGATED → CONTROLS_RESOLVED → ACTIONS_APPLIED → STABLE → ASSERTED → TORN_DOWN
//
// Result.State keeps the last state reached before teardown, so a failure
// says how far the run got; Result.FinalState reports TORN_DOWN once the
// session has been released.
//
// Every run acquires its own Session (one browser process, one page) and
// releases it on every exit path, including assertion failures, harness
// faults and panics. Controls are resolved per run and never cached across
// runs.
//
// The page under test updates asynchronously, so every scenario with
// mutating actions passes through a stabilization phase: each observed value
// is polled until it stops changing for a quiet window (see Stabilizer).
// Only then are the expectations compared, once, without retries.
//
// Failures carry a Kind (launch, resolution, stabilization, assertion,
// internal) so a structural page problem is never confused with a wrong
// value.
package harness
