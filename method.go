package recovery

import (
	"github.com/danielpatrickdp/anchored-recovery/anchor"
)

// #region thresholds

const (
	// signalSmoothness is the mean absolute neighbor delta under which
	// a target reads as sampled signal data.
	signalSmoothness = 16.0

	// cryptoSpread is the distinct-byte ratio above which a target
	// reads as key material.
	cryptoSpread = 0.6

	// inferMinLen is the minimum target length for content sniffing;
	// shorter targets fall through to the binary domain.
	inferMinLen = 8
)

// #endregion thresholds

// #region infer

// InferMethod picks a concrete domain for a target from a cheap
// one-time inspection of its contents and anchors. It never returns
// MethodAuto, MethodFast, or MethodAccurate.
//
// Smooth targets (small neighbor deltas, as quantized samples have)
// classify as signal. High byte spread with anchors present reads as
// key material and classifies as crypto. Everything else is generic
// binary.
func InferMethod(q []byte, anchors []anchor.Anchor) Method {
	if len(q) < inferMinLen {
		return MethodBinary
	}

	if meanNeighborDelta(q) < signalSmoothness {
		return MethodSignal
	}

	if len(anchors) > 0 && distinctRatio(q) > cryptoSpread {
		return MethodCrypto
	}

	return MethodBinary
}

// #endregion infer

// #region heuristics

func meanNeighborDelta(q []byte) float64 {
	var total float64
	for i := 1; i < len(q); i++ {
		d := int(q[i]) - int(q[i-1])
		if d < 0 {
			d = -d
		}
		total += float64(d)
	}
	return total / float64(len(q)-1)
}

func distinctRatio(q []byte) float64 {
	var seen [256]bool
	distinct := 0
	for _, b := range q {
		if !seen[b] {
			seen[b] = true
			distinct++
		}
	}
	limit := len(q)
	if limit > 256 {
		limit = 256
	}
	return float64(distinct) / float64(limit)
}

// #endregion heuristics
