package recovery

import "fmt"

// #region method

// Method selects the candidate-generation strategy. Auto picks a
// domain from a one-time inspection of the target and anchors; Fast
// and Accurate are speed/quality modifiers that keep the inferred
// domain.
type Method int

const (
	MethodAuto Method = iota
	MethodCrypto
	MethodSignal
	MethodBinary
	MethodFast
	MethodAccurate
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodAuto:
		return "auto"
	case MethodCrypto:
		return "crypto"
	case MethodSignal:
		return "signal"
	case MethodBinary:
		return "binary"
	case MethodFast:
		return "fast"
	case MethodAccurate:
		return "accurate"
	default:
		return "unknown"
	}
}

// ParseMethod maps a method name to its Method value.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "auto", "":
		return MethodAuto, nil
	case "crypto":
		return MethodCrypto, nil
	case "signal":
		return MethodSignal, nil
	case "binary":
		return MethodBinary, nil
	case "fast":
		return MethodFast, nil
	case "accurate":
		return MethodAccurate, nil
	default:
		return MethodAuto, fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, s)
	}
}

// #endregion method

// #region blend-policy

// BlendPolicy selects how overlapping anchors with contradictory
// values are reconciled. BlendWeighted is the default
// confidence-weighted averaging; BlendHighestWins lets the single most
// confident anchor dictate each covered position.
type BlendPolicy int

const (
	BlendWeighted BlendPolicy = iota
	BlendHighestWins
)

// #endregion blend-policy

// #region config

// Config is the immutable per-session configuration, validated at
// session creation.
type Config struct {
	MaxIterations        int
	ConvergenceThreshold float64
	Method               Method
	NumThreads           int  // 0 = auto-detect available parallelism
	UseGPU               bool // pass-through for an external backend; no-op here
	Verbose              int  // 0 silent, 1 summary, 2 per-iteration
	BlendPolicy          BlendPolicy
}

// DefaultConfig mirrors the engine's historical defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:        10000,
		ConvergenceThreshold: 0.001,
		Method:               MethodAuto,
		NumThreads:           0,
		UseGPU:               false,
		Verbose:              0,
		BlendPolicy:          BlendWeighted,
	}
}

func (c Config) validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.ConvergenceThreshold < 0 {
		return fmt.Errorf("%w: convergence threshold must be non-negative, got %g", ErrInvalidConfig, c.ConvergenceThreshold)
	}
	if c.NumThreads < 0 {
		return fmt.Errorf("%w: num threads must be non-negative, got %d", ErrInvalidConfig, c.NumThreads)
	}
	if c.Method < MethodAuto || c.Method > MethodAccurate {
		return fmt.Errorf("%w: unknown method %d", ErrInvalidConfig, int(c.Method))
	}
	if c.BlendPolicy != BlendWeighted && c.BlendPolicy != BlendHighestWins {
		return fmt.Errorf("%w: unknown blend policy %d", ErrInvalidConfig, int(c.BlendPolicy))
	}
	return nil
}

// #endregion config
