package recovery

// #region result

// Result is the outcome of one Run. It is produced exactly once per
// run, owned by the caller, and does not reference the session.
type Result struct {
	// Data is the final reconstruction, same length as the target.
	Data []byte

	// Iterations is the number of completed generator passes. Never
	// exceeds Config.MaxIterations; 0 only for pre-flight failures.
	Iterations int

	// FinalOscillation is the total oscillation at stop time.
	FinalOscillation float64

	// ConvergenceRate is the relative oscillation decrease of the last
	// completed iteration.
	ConvergenceRate float64

	// QualityScore is the confidence-weighted anchor agreement of the
	// final buffer in [0, 1]; with zero anchors it is the
	// self-consistency proxy 1 - normalized final oscillation.
	QualityScore float64

	// Converged reports whether the oscillation threshold was reached.
	// False after exhausting the iteration budget or the plateau cap.
	Converged bool

	// TimeSeconds is the elapsed wall time of the run.
	TimeSeconds float64

	// Method is the resolved domain strategy the run used (never Auto,
	// Fast, or Accurate).
	Method Method
}

// #endregion result
