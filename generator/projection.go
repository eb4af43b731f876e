package generator

import (
	"math"

	"github.com/danielpatrickdp/anchored-recovery/anchor"
	"github.com/danielpatrickdp/anchored-recovery/candidate"
)

// #region projection

// Projection is the binary-domain strategy: it walks every
// anchor-covered byte toward its confidence-weighted blend target by a
// bounded step each iteration. Uncovered bytes carry no information in
// this domain and are left at their current value.
type Projection struct {
	profile Profile
}

// NewProjection creates a projection generator with the given profile.
func NewProjection(profile Profile) *Projection {
	return &Projection{profile: profile}
}

// Name implements Generator.
func (g *Projection) Name() string {
	return "projection"
}

// stepFraction returns how much of the remaining distance to the blend
// target one iteration closes. Fast snaps in one step; accurate takes
// smaller, more cautious steps.
func (g *Projection) stepFraction() float64 {
	switch g.profile {
	case ProfileFast:
		return 1.0
	case ProfileAccurate:
		return 0.25
	default:
		return 0.5
	}
}

// Step implements Generator.
func (g *Projection) Step(st *candidate.State, store *anchor.Store) ([]byte, []bool, error) {
	committed := st.Bytes()
	proposal := st.Proposal()

	target, weight := store.Targets(len(proposal))
	pinned, pinVal := store.Pinned(len(proposal))
	frac := g.stepFraction()

	for i := range proposal {
		if pinned[i] {
			proposal[i] = pinVal[i]
			continue
		}
		if weight[i] == 0 {
			continue
		}
		goal := target[i] + (1-weight[i])*float64(proposal[i])
		cur := float64(proposal[i])
		delta := (goal - cur) * frac
		// Always close at least one unit of remaining distance so
		// quantization cannot stall short of the goal.
		if delta != 0 && math.Abs(delta) < 1 {
			delta = math.Copysign(1, delta)
			if math.Abs(goal-cur) < 1 {
				delta = goal - cur
			}
		}
		proposal[i] = clampByte(cur + delta)
	}

	return proposal, markTouched(committed, proposal), nil
}

// #endregion projection
