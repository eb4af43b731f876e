// Package anchor holds trusted reference fragments for a recovery run.
//
// An Anchor is a caller-supplied belief that a byte slice occupies a
// given offset range of the true (uncorrupted) buffer, weighted by a
// confidence in [0, 1]. Anchors are additive: overlapping and duplicate
// anchors are all retained and reconciled later by confidence-weighted
// blending, never merged or dropped at insertion time.
package anchor

// #region anchor-type

// Anchor is a trusted reference fragment with placement and confidence.
type Anchor struct {
	Data       []byte
	Offset     int
	Confidence float64
}

// Len returns the number of bytes the anchor covers.
func (a Anchor) Len() int {
	return len(a.Data)
}

// End returns the exclusive end offset of the covered range.
func (a Anchor) End() int {
	return a.Offset + len(a.Data)
}

// #endregion anchor-type

// #region store

// Store owns the anchors registered on a session. It is a plain
// container: shape and range validation happens at registration in the
// session, before an anchor reaches the store.
type Store struct {
	anchors []Anchor
}

// NewStore creates an empty anchor store.
func NewStore() *Store {
	return &Store{}
}

// Add copies the anchor into the store. Duplicates are retained as
// independent votes.
func (s *Store) Add(a Anchor) {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	s.anchors = append(s.anchors, Anchor{
		Data:       data,
		Offset:     a.Offset,
		Confidence: a.Confidence,
	})
}

// Clear removes all anchors.
func (s *Store) Clear() {
	s.anchors = nil
}

// Len returns the number of registered anchors.
func (s *Store) Len() int {
	return len(s.anchors)
}

// All returns the registered anchors. Read-only during iteration.
func (s *Store) All() []Anchor {
	return s.anchors
}

// MaxEnd returns the largest exclusive end offset across all anchors,
// or 0 when the store is empty.
func (s *Store) MaxEnd() int {
	end := 0
	for _, a := range s.anchors {
		if a.End() > end {
			end = a.End()
		}
	}
	return end
}

// #endregion store

// #region targets

// Targets computes the per-position blend target over a buffer of n
// bytes. For each covered position it accumulates the confidence-
// weighted anchor values; combined confidence is clamped so the
// weighted sum never exceeds 1.
//
// target[i] is the clamped weighted anchor contribution at i and
// weight[i] the clamped combined confidence (0 for uncovered
// positions). The blended value at i is
//
//	target[i] + (1-weight[i]) * current[i]
func (s *Store) Targets(n int) (target, weight []float64) {
	target = make([]float64, n)
	weight = make([]float64, n)

	for _, a := range s.anchors {
		for j, v := range a.Data {
			i := a.Offset + j
			if i < 0 || i >= n {
				continue
			}
			target[i] += a.Confidence * float64(v)
			weight[i] += a.Confidence
		}
	}

	// Clamp combined confidence to 1, rescaling contributions.
	for i := range weight {
		if weight[i] > 1 {
			target[i] /= weight[i]
			weight[i] = 1
		}
	}
	return target, weight
}

// HighestTargets computes per-position targets under the
// highest-confidence-wins policy: the single most confident anchor
// covering a position dictates its value outright, with its own
// confidence as the blend weight. Ties go to the earlier-registered
// anchor.
func (s *Store) HighestTargets(n int) (target, weight []float64) {
	target = make([]float64, n)
	weight = make([]float64, n)

	for _, a := range s.anchors {
		for j, v := range a.Data {
			i := a.Offset + j
			if i < 0 || i >= n {
				continue
			}
			if a.Confidence > weight[i] {
				target[i] = float64(v)
				weight[i] = a.Confidence
			}
		}
	}
	// target already holds the winner's value directly; scale it by
	// weight so it composes the same way as Targets output.
	for i := range target {
		target[i] *= weight[i]
	}
	return target, weight
}

// #endregion targets

// #region pinned

// Pinned returns, for a buffer of n bytes, which positions are covered
// by a confidence-1.0 anchor and the exact value pinned there. Pinned
// positions must be bit-identical to the anchor in every iteration and
// are never perturbed. When two confidence-1.0 anchors disagree on a
// position, the earlier-registered one wins.
func (s *Store) Pinned(n int) (mask []bool, value []byte) {
	mask = make([]bool, n)
	value = make([]byte, n)

	for _, a := range s.anchors {
		if a.Confidence < 1.0 {
			continue
		}
		for j, v := range a.Data {
			i := a.Offset + j
			if i < 0 || i >= n || mask[i] {
				continue
			}
			mask[i] = true
			value[i] = v
		}
	}
	return mask, value
}

// #endregion pinned
