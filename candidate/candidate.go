// Package candidate holds the mutable working reconstruction of a
// recovery run: the current best-guess buffer and its per-position
// oscillation vector. Only the session commits to a State; generators
// return proposals and never mutate the committed buffer directly.
package candidate

import (
	"math"

	"github.com/danielpatrickdp/anchored-recovery/anchor"
)

// #region state

// State is the candidate reconstruction plus oscillation bookkeeping.
// The buffer length never changes across a run.
type State struct {
	buf []byte
	osc []float64
}

// New copies the target buffer and zero-initializes the oscillation
// vector.
func New(target []byte) *State {
	buf := make([]byte, len(target))
	copy(buf, target)
	return &State{
		buf: buf,
		osc: make([]float64, len(target)),
	}
}

// Len returns the buffer length.
func (s *State) Len() int {
	return len(s.buf)
}

// Bytes returns the committed buffer. Callers must not modify it;
// use Proposal to obtain a scratch copy.
func (s *State) Bytes() []byte {
	return s.buf
}

// Proposal returns a copy of the committed buffer for a generator to
// mutate into its proposal.
func (s *State) Proposal() []byte {
	p := make([]byte, len(s.buf))
	copy(p, s.buf)
	return p
}

// Snapshot returns an independent copy of the committed buffer, for
// handing to the caller in a Result.
func (s *State) Snapshot() []byte {
	return s.Proposal()
}

// Oscillation returns the per-position oscillation vector. Read-only
// for callers.
func (s *State) Oscillation() []float64 {
	return s.osc
}

// TotalOscillation sums the oscillation vector.
func (s *State) TotalOscillation() float64 {
	var total float64
	for _, v := range s.osc {
		total += v
	}
	return total
}

// #endregion state

// #region apply-anchors

// ApplyAnchors blends every anchor into the buffer at each covered
// position using confidence-weighted averaging, with combined
// confidence clamped to 1. It has no side effect on oscillation and is
// a fixed point once the buffer is fully blended. highestWins selects
// the highest-confidence-wins reconciliation policy instead of
// weighted blending.
func (s *State) ApplyAnchors(store *anchor.Store, highestWins bool) {
	var target, weight []float64
	if highestWins {
		target, weight = store.HighestTargets(len(s.buf))
	} else {
		target, weight = store.Targets(len(s.buf))
	}

	for i := range s.buf {
		if weight[i] == 0 {
			continue
		}
		blended := target[i] + (1-weight[i])*float64(s.buf[i])
		s.buf[i] = clampByte(blended)
	}
}

// #endregion apply-anchors

// #region commit

// Commit installs a generator proposal as the new committed buffer and
// updates the oscillation vector: osc[i] = |new[i] - old[i]| for every
// position. Positions the generator left untouched contribute zero.
// The proposal must have the same length as the buffer; Commit panics
// otherwise, as that is a generator contract violation the session
// screens for first.
func (s *State) Commit(proposal []byte) {
	if len(proposal) != len(s.buf) {
		panic("candidate: proposal length mismatch")
	}
	for i := range s.buf {
		s.osc[i] = math.Abs(float64(proposal[i]) - float64(s.buf[i]))
	}
	copy(s.buf, proposal)
}

// #endregion commit

// #region helpers

func clampByte(v float64) byte {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return byte(r)
}

// #endregion helpers
