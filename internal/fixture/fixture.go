// Package fixture provides the JSON fixture format for recovery runs
// and deterministic test-data generation. All randomness is driven by
// an explicit seed parameter; there is no ambient global seeding.
package fixture

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a recovery fixture.
type Fixture struct {
	Description          string   `json:"description"`
	Target               string   `json:"target"` // hex-encoded corrupted buffer
	Method               string   `json:"method"`
	MaxIterations        int      `json:"max_iterations"`
	ConvergenceThreshold float64  `json:"convergence_threshold"`
	Anchors              []Anchor `json:"anchors"`
	Expect               *Expect  `json:"expect,omitempty"`
}

// Anchor is a JSON-serializable anchor fragment.
type Anchor struct {
	Data       string  `json:"data"` // hex-encoded
	Offset     int     `json:"offset"`
	Confidence float64 `json:"confidence"`
}

// Expect captures the expected outcome of replaying a fixture.
type Expect struct {
	Converged     bool    `json:"converged"`
	MinQuality    float64 `json:"min_quality"`
	MaxIterations int     `json:"max_iterations,omitempty"` // 0 = no bound beyond config
}

// #endregion fixture-types

// #region load-save

// Load reads and parses a JSON fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the fixture as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// TargetBytes decodes the hex-encoded target buffer.
func (f *Fixture) TargetBytes() ([]byte, error) {
	b, err := hex.DecodeString(f.Target)
	if err != nil {
		return nil, fmt.Errorf("decode target: %w", err)
	}
	return b, nil
}

// DataBytes decodes the hex-encoded anchor data.
func (a *Anchor) DataBytes() ([]byte, error) {
	b, err := hex.DecodeString(a.Data)
	if err != nil {
		return nil, fmt.Errorf("decode anchor at offset %d: %w", a.Offset, err)
	}
	return b, nil
}

// #endregion load-save

// #region generation

// ASCIITarget generates n printable ASCII bytes from the seed.
func ASCIITarget(seed int64, n int) []byte {
	rng := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(32 + rng.Intn(95))
	}
	return out
}

// SignalTarget generates n bytes quantized from a noisy sine sweep, so
// the buffer has the small neighbor deltas of sampled signal data.
func SignalTarget(seed int64, n int) []byte {
	rng := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	for i := range out {
		v := 127.5 + 100*math.Sin(2*math.Pi*float64(i)/32.0) + rng.NormFloat64()*4
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out
}

// RandomTarget generates n uniformly random bytes from the seed.
func RandomTarget(seed int64, n int) []byte {
	rng := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(rng.Intn(256))
	}
	return out
}

// Corrupt returns a copy of data with roughly rate of its bytes
// replaced by random values. The same seed reproduces the same
// corruption exactly.
func Corrupt(data []byte, rate float64, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	out := make([]byte, len(data))
	copy(out, data)
	for i := range out {
		if rng.Float64() < rate {
			out[i] = byte(rng.Intn(256))
		}
	}
	return out
}

// SliceAnchors cuts count non-overlapping fragments of the given size
// out of the clean buffer and returns them as anchors at the given
// confidence. Placement is seeded and deterministic; fewer anchors are
// returned when the buffer cannot fit the requested count.
func SliceAnchors(clean []byte, count, size int, confidence float64, seed int64) []Anchor {
	if size <= 0 || count <= 0 || len(clean) == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))

	taken := make([]bool, len(clean))
	var anchors []Anchor
	for attempt := 0; attempt < count*8 && len(anchors) < count; attempt++ {
		if size > len(clean) {
			break
		}
		off := rng.Intn(len(clean) - size + 1)
		overlap := false
		for i := off; i < off+size; i++ {
			if taken[i] {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}
		for i := off; i < off+size; i++ {
			taken[i] = true
		}
		anchors = append(anchors, Anchor{
			Data:       hex.EncodeToString(clean[off : off+size]),
			Offset:     off,
			Confidence: confidence,
		})
	}
	return anchors
}

// #endregion generation
