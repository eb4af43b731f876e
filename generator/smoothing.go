package generator

import (
	"github.com/danielpatrickdp/anchored-recovery/anchor"
	"github.com/danielpatrickdp/anchored-recovery/candidate"
)

// #region smoothing

// Smoothing is the signal-domain strategy: bytes are treated as
// quantized samples, and each iteration relaxes every sample toward a
// mix of its anchor blend target and the mean of its neighbors. It
// runs anchor-free, degrading to pure neighbor smoothing.
type Smoothing struct {
	profile Profile
}

// NewSmoothing creates a smoothing generator with the given profile.
func NewSmoothing(profile Profile) *Smoothing {
	return &Smoothing{profile: profile}
}

// Name implements Generator.
func (g *Smoothing) Name() string {
	return "smoothing"
}

// weights returns the anchor pull and neighbor pull for one iteration.
func (g *Smoothing) weights() (anchorPull, neighborPull float64) {
	switch g.profile {
	case ProfileFast:
		return 0.9, 0.1
	case ProfileAccurate:
		return 0.4, 0.2
	default:
		return 0.6, 0.2
	}
}

// Step implements Generator.
func (g *Smoothing) Step(st *candidate.State, store *anchor.Store) ([]byte, []bool, error) {
	committed := st.Bytes()
	proposal := st.Proposal()
	n := len(proposal)

	target, weight := store.Targets(n)
	pinned, pinVal := store.Pinned(n)
	anchorPull, neighborPull := g.weights()

	// Relax against the committed buffer so the pass order cannot
	// influence the result.
	for i := 0; i < n; i++ {
		if pinned[i] {
			proposal[i] = pinVal[i]
			continue
		}

		cur := float64(committed[i])
		next := cur

		// Neighbor mean over the committed values.
		var mean float64
		switch {
		case n == 1:
			mean = cur
		case i == 0:
			mean = float64(committed[1])
		case i == n-1:
			mean = float64(committed[n-2])
		default:
			mean = (float64(committed[i-1]) + float64(committed[i+1])) / 2
		}
		next += neighborPull * (mean - cur)

		if weight[i] > 0 {
			goal := target[i] + (1-weight[i])*cur
			next += anchorPull * (goal - cur)
		}

		proposal[i] = clampByte(next)
	}

	return proposal, markTouched(committed, proposal), nil
}

// #endregion smoothing
