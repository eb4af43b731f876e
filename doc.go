// Package recovery implements an iterative anchored recovery engine:
// given a corrupted byte buffer and a set of trusted reference
// fragments ("anchors"), it searches for a best-effort reconstruction
// and reports a numeric confidence estimate.
//
// The engine is an embeddable library with no network or file I/O.
// A caller creates a Session from a validated Config, sets the target
// buffer, registers anchors, and invokes Run. Each iteration the
// active candidate generator proposes an updated buffer, the session
// commits it, and the convergence monitor applies the stopping rule:
// converge when total oscillation falls to the configured threshold,
// concede after the plateau cap, or stop at the iteration budget.
// Non-convergence is a normal reportable outcome, evaluated through
// the quality score, not an error.
//
// Domain strategies (selected by Config.Method, or inferred once per
// run under MethodAuto) live in the generator package; the anchor,
// candidate, and monitor packages hold the supporting machinery.
// Results are heuristic best-fits with a quality estimate, not proofs
// of correctness.
package recovery
