package recovery

import "errors"

// #region errors

// Error kinds of the engine. Pre-flight failures (invalid config,
// invalid argument, missing target, missing anchors) are detected
// before any iteration runs; only ErrOutOfMemory and ErrInternal can
// surface during the loop. Non-convergence is not an error: it is a
// normal outcome reported through Result.Converged and the quality
// score.
var (
	// ErrInvalidConfig marks bad session parameters, detected at
	// session creation and never mid-run.
	ErrInvalidConfig = errors.New("recovery: invalid config")

	// ErrInvalidArgument marks a bad anchor or target shape, detected
	// at registration.
	ErrInvalidArgument = errors.New("recovery: invalid argument")

	// ErrNoTarget means Run was called without a target buffer.
	ErrNoTarget = errors.New("recovery: no target buffer set")

	// ErrNoAnchors means the selected domain requires at least one
	// anchor and none were registered.
	ErrNoAnchors = errors.New("recovery: no anchors registered")

	// ErrOutOfMemory means the candidate buffer could not be set up
	// within the allocation budget. The session remains destroyable.
	ErrOutOfMemory = errors.New("recovery: candidate buffer exceeds allocation budget")

	// ErrInternal marks a generator invariant violation. It is a bug,
	// not a recoverable condition.
	ErrInternal = errors.New("recovery: internal invariant violation")
)

// #endregion errors
