// Package generator contains the interchangeable candidate-generation
// strategies of the recovery engine. Given the committed candidate and
// the anchor set, a Generator proposes an updated buffer plus a
// per-position touched mask; the session alone commits proposals.
package generator

import (
	"github.com/danielpatrickdp/anchored-recovery/anchor"
	"github.com/danielpatrickdp/anchored-recovery/candidate"
)

// #region profile

// Profile is the speed/quality trade-off applied within a domain
// strategy. It modifies step sizes and hypothesis counts, never the
// strategy itself.
type Profile int

const (
	ProfileBalanced Profile = iota
	ProfileFast
	ProfileAccurate
)

// String returns the profile name.
func (p Profile) String() string {
	switch p {
	case ProfileFast:
		return "fast"
	case ProfileAccurate:
		return "accurate"
	default:
		return "balanced"
	}
}

// #endregion profile

// #region generator-interface

// Generator proposes one candidate update per iteration.
//
// Step must return a proposal of the same length as the candidate
// buffer and a touched mask marking the positions it changed.
// Positions covered by a confidence-1.0 anchor must keep the pinned
// value in every proposal. Generators never mutate the committed
// state; Step errors indicate a contract violation, not a recoverable
// condition.
type Generator interface {
	Name() string
	Step(st *candidate.State, store *anchor.Store) (proposal []byte, touched []bool, err error)
}

// #endregion generator-interface

// #region helpers

// markTouched flags every position where proposal differs from the
// committed buffer.
func markTouched(committed, proposal []byte) []bool {
	touched := make([]bool, len(committed))
	for i := range committed {
		touched[i] = proposal[i] != committed[i]
	}
	return touched
}

// clampByte rounds v to the nearest byte value.
func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}

// #endregion helpers
