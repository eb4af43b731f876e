// Package monitor tracks oscillation across iterations, applies the
// stopping rule, and computes the final quality score of a run.
package monitor

import (
	"math"

	"github.com/danielpatrickdp/anchored-recovery/anchor"
	"github.com/danielpatrickdp/anchored-recovery/candidate"
)

// #region constants

const (
	// rateEpsilon guards the convergence-rate denominator.
	rateEpsilon = 1e-9

	// plateauEpsilon is the minimum relative oscillation decrease an
	// iteration must show to not count as a plateau.
	plateauEpsilon = 1e-3

	// PlateauCap is the number of consecutive plateau responses
	// allowed before the run halts as exhausted.
	PlateauCap = 3
)

// #endregion constants

// #region verdict

// Verdict is the monitor's decision after one iteration.
type Verdict struct {
	Total     float64 // total oscillation this iteration
	Rate      float64 // (previous - current) / max(previous, ε)
	Converged bool    // total at or below the configured threshold
	Plateau   bool    // oscillation failed to decrease; escape warranted
	Exhausted bool    // plateau cap exceeded; halt without convergence
}

// #endregion verdict

// #region monitor

// Monitor applies the stopping rule across iterations.
type Monitor struct {
	threshold float64
	prevTotal float64
	seen      bool
	plateaus  int // consecutive plateau count
	skipNext  bool
	rate      float64
}

// New creates a monitor with the configured convergence threshold.
func New(threshold float64) *Monitor {
	return &Monitor{threshold: threshold}
}

// Observe records the total oscillation of a completed iteration and
// returns the stopping verdict.
func (m *Monitor) Observe(total float64) Verdict {
	v := Verdict{Total: total}

	if m.seen {
		v.Rate = (m.prevTotal - total) / math.Max(m.prevTotal, rateEpsilon)
	}
	m.rate = v.Rate

	if total <= m.threshold {
		v.Converged = true
		m.prevTotal = total
		m.seen = true
		return v
	}

	// The iteration right after an escape perturbation is expected to
	// raise oscillation; it does not count toward the plateau streak.
	if m.skipNext {
		m.skipNext = false
	} else if m.seen && v.Rate <= plateauEpsilon {
		m.plateaus++
		if m.plateaus > PlateauCap {
			v.Exhausted = true
		} else {
			v.Plateau = true
		}
	} else {
		m.plateaus = 0
	}

	m.prevTotal = total
	m.seen = true
	return v
}

// Rate returns the convergence rate of the most recent iteration.
func (m *Monitor) Rate() float64 {
	return m.rate
}

// NoteEscape tells the monitor a plateau-escape perturbation was
// committed, so the next iteration's oscillation bump is expected.
func (m *Monitor) NoteEscape() {
	m.skipNext = true
}

// #endregion monitor

// #region quality

// Quality computes the final quality score in [0, 1]: the confidence-
// weighted fraction of anchor-covered positions where the final buffer
// matches the anchor value exactly. With zero anchors it reports
// 1 - normalized final oscillation as a self-consistency proxy.
func Quality(st *candidate.State, store *anchor.Store) float64 {
	if store.Len() == 0 {
		n := st.Len()
		if n == 0 {
			return 1.0
		}
		norm := st.TotalOscillation() / (255.0 * float64(n))
		if norm > 1 {
			norm = 1
		}
		return 1.0 - norm
	}

	buf := st.Bytes()
	var matched, total float64
	for _, a := range store.All() {
		for j, v := range a.Data {
			i := a.Offset + j
			if i < 0 || i >= len(buf) {
				continue
			}
			total += a.Confidence
			if buf[i] == v {
				matched += a.Confidence
			}
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}

// #endregion quality
