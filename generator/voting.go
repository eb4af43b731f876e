package generator

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/anchored-recovery/anchor"
	"github.com/danielpatrickdp/anchored-recovery/candidate"
)

// #region mappings

// indexMapping is one alternative hypothesis about how candidate
// positions line up with true positions. Hypotheses are the classic
// geometric variants flattened to index arithmetic: identity, clock
// rotations of the buffer, and the mirror mapping.
type indexMapping struct {
	name string
	// apply returns the source index the hypothesis reads position i
	// from, over a buffer of n bytes.
	apply func(i, n int) int
}

var identityMapping = indexMapping{
	name:  "identity",
	apply: func(i, n int) int { return i },
}

func rotationMapping(k int) indexMapping {
	return indexMapping{
		name: fmt.Sprintf("rotate%+d", k),
		apply: func(i, n int) int {
			return ((i+k)%n + n) % n
		},
	}
}

var mirrorMapping = indexMapping{
	name:  "mirror",
	apply: func(i, n int) int { return n - 1 - i },
}

// #endregion mappings

// #region voting

// Voting is the crypto-domain strategy: it proposes one candidate per
// index-mapping hypothesis, scores each by confidence-weighted anchor
// agreement, and selects the winner. Ties break by lowest total
// displacement from the committed buffer, then by first-generated
// hypothesis, so final selection is reproducible regardless of thread
// scheduling.
type Voting struct {
	profile Profile
	threads int
}

// NewVoting creates a voting generator. threads bounds the
// intra-iteration hypothesis fan-out; values below 1 mean serial.
func NewVoting(profile Profile, threads int) *Voting {
	if threads < 1 {
		threads = 1
	}
	return &Voting{profile: profile, threads: threads}
}

// Name implements Generator.
func (g *Voting) Name() string {
	return "voting"
}

// hypotheses returns the mapping set for the configured profile, in a
// fixed generation order.
func (g *Voting) hypotheses() []indexMapping {
	reach := 1
	switch g.profile {
	case ProfileFast:
		reach = 1
	case ProfileAccurate:
		reach = 7
	default:
		reach = 3
	}

	maps := []indexMapping{identityMapping}
	for k := 1; k <= reach; k++ {
		maps = append(maps, rotationMapping(k), rotationMapping(-k))
	}
	return append(maps, mirrorMapping)
}

// Step implements Generator.
func (g *Voting) Step(st *candidate.State, store *anchor.Store) ([]byte, []bool, error) {
	committed := st.Bytes()
	n := len(committed)
	maps := g.hypotheses()

	type hypothesis struct {
		buf          []byte
		score        float64
		displacement float64
	}
	results := make([]hypothesis, len(maps))

	var eg errgroup.Group
	eg.SetLimit(g.threads)
	for h := range maps {
		h := h
		eg.Go(func() error {
			buf := make([]byte, n)
			for i := 0; i < n; i++ {
				buf[i] = committed[maps[h].apply(i, n)]
			}
			results[h] = hypothesis{
				buf:          buf,
				score:        agreement(buf, store),
				displacement: displacement(committed, buf),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	// Fixed tie-break: highest agreement, then lowest displacement,
	// then first-generated.
	best := 0
	for h := 1; h < len(results); h++ {
		if results[h].score > results[best].score+scoreTie {
			best = h
			continue
		}
		if math.Abs(results[h].score-results[best].score) <= scoreTie &&
			results[h].displacement < results[best].displacement {
			best = h
		}
	}

	proposal := results[best].buf
	blendAnchors(proposal, store)

	return proposal, markTouched(committed, proposal), nil
}

// #endregion voting

// #region scoring

// scoreTie is the agreement margin under which two hypotheses count as
// tied.
const scoreTie = 1e-12

// agreement is the confidence-weighted anchor agreement of a buffer,
// normalized to [0, 1]. Uncovered buffers score 0.
func agreement(buf []byte, store *anchor.Store) float64 {
	var got, total float64
	for _, a := range store.All() {
		for j, v := range a.Data {
			i := a.Offset + j
			if i < 0 || i >= len(buf) {
				continue
			}
			diff := math.Abs(float64(buf[i]) - float64(v))
			got += a.Confidence * (1 - diff/255.0)
			total += a.Confidence
		}
	}
	if total == 0 {
		return 0
	}
	return got / total
}

// displacement is the total absolute byte distance between two
// buffers.
func displacement(a, b []byte) float64 {
	var d float64
	for i := range a {
		d += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return d
}

// blendAnchors folds the anchor blend targets into the winning
// hypothesis in place, keeping pinned positions exact.
func blendAnchors(buf []byte, store *anchor.Store) {
	target, weight := store.Targets(len(buf))
	pinned, pinVal := store.Pinned(len(buf))

	for i := range buf {
		if pinned[i] {
			buf[i] = pinVal[i]
			continue
		}
		if weight[i] == 0 {
			continue
		}
		buf[i] = clampByte(target[i] + (1-weight[i])*float64(buf[i]))
	}
}

// #endregion scoring
