package generator

import (
	"sort"

	"github.com/danielpatrickdp/anchored-recovery/anchor"
	"github.com/danielpatrickdp/anchored-recovery/candidate"
)

// #region escape

const (
	// escapePositions is how many positions one escape perturbs.
	escapePositions = 4

	// escapeDelta is the bounded nudge applied to each perturbed byte.
	escapeDelta = 3
)

// Escape builds a bounded perturbation proposal to break a plateau.
// It nudges the highest-oscillation unpinned positions by a fixed
// delta whose sign alternates with position parity, so escapes are
// deterministic without any engine-level randomness. When the
// oscillation vector is flat it falls back to the lowest unpinned
// indices.
func Escape(st *candidate.State, store *anchor.Store) (proposal []byte, touched []bool) {
	committed := st.Bytes()
	proposal = st.Proposal()
	osc := st.Oscillation()
	pinned, _ := store.Pinned(len(proposal))

	idx := make([]int, 0, len(proposal))
	for i := range proposal {
		if !pinned[i] {
			idx = append(idx, i)
		}
	}
	// Highest oscillation first; equal oscillation keeps index order.
	sort.SliceStable(idx, func(a, b int) bool {
		return osc[idx[a]] > osc[idx[b]]
	})

	limit := escapePositions
	if limit > len(idx) {
		limit = len(idx)
	}
	for _, i := range idx[:limit] {
		v := int(proposal[i])
		if i%2 == 0 {
			v += escapeDelta
		} else {
			v -= escapeDelta
		}
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		proposal[i] = byte(v)
	}

	return proposal, markTouched(committed, proposal)
}

// #endregion escape
