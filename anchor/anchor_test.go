package anchor

import (
	"testing"
)

func TestStoreRetainsDuplicates(t *testing.T) {
	s := NewStore()
	a := Anchor{Data: []byte{1, 2, 3}, Offset: 0, Confidence: 0.5}
	s.Add(a)
	s.Add(a)

	if s.Len() != 2 {
		t.Fatalf("expected 2 anchors, got %d", s.Len())
	}

	// The store must copy anchor data, not alias it.
	a.Data[0] = 99
	if s.All()[0].Data[0] != 1 {
		t.Fatal("store aliased caller data")
	}

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty store after clear, got %d", s.Len())
	}
}

func TestTargetsClampCombinedConfidence(t *testing.T) {
	s := NewStore()
	// Three votes at 0.6 each exceed the 1.0 clamp.
	s.Add(Anchor{Data: []byte{100}, Offset: 0, Confidence: 0.6})
	s.Add(Anchor{Data: []byte{110}, Offset: 0, Confidence: 0.6})
	s.Add(Anchor{Data: []byte{120}, Offset: 0, Confidence: 0.6})

	target, weight := s.Targets(1)
	if weight[0] != 1 {
		t.Fatalf("expected clamped weight 1, got %f", weight[0])
	}
	// Clamped weighted mean of equal-confidence votes is the plain mean.
	if target[0] < 109.9 || target[0] > 110.1 {
		t.Fatalf("expected target near 110, got %f", target[0])
	}
}

func TestTargetsUncoveredPositions(t *testing.T) {
	s := NewStore()
	s.Add(Anchor{Data: []byte{50, 60}, Offset: 2, Confidence: 0.8})

	target, weight := s.Targets(6)
	for _, i := range []int{0, 1, 4, 5} {
		if weight[i] != 0 || target[i] != 0 {
			t.Fatalf("position %d should be uncovered, got target=%f weight=%f", i, target[i], weight[i])
		}
	}
	if weight[2] != 0.8 || weight[3] != 0.8 {
		t.Fatalf("covered weights wrong: %v", weight)
	}
}

func TestHighestTargetsPicksMostConfident(t *testing.T) {
	s := NewStore()
	s.Add(Anchor{Data: []byte{10}, Offset: 0, Confidence: 0.4})
	s.Add(Anchor{Data: []byte{200}, Offset: 0, Confidence: 0.9})

	target, weight := s.HighestTargets(1)
	if weight[0] != 0.9 {
		t.Fatalf("expected winner confidence 0.9, got %f", weight[0])
	}
	// target composes as confidence * value, same shape as Targets.
	if target[0] != 0.9*200 {
		t.Fatalf("expected target %f, got %f", 0.9*200, target[0])
	}
}

func TestPinnedFirstRegisteredWins(t *testing.T) {
	s := NewStore()
	s.Add(Anchor{Data: []byte{7}, Offset: 1, Confidence: 1.0})
	s.Add(Anchor{Data: []byte{9}, Offset: 1, Confidence: 1.0})
	s.Add(Anchor{Data: []byte{5}, Offset: 0, Confidence: 0.99})

	mask, value := s.Pinned(3)
	if mask[0] {
		t.Fatal("confidence 0.99 must not pin")
	}
	if !mask[1] || value[1] != 7 {
		t.Fatalf("expected pinned value 7 at position 1, got mask=%v value=%d", mask[1], value[1])
	}
	if mask[2] {
		t.Fatal("uncovered position pinned")
	}
}

func TestMaxEnd(t *testing.T) {
	s := NewStore()
	if s.MaxEnd() != 0 {
		t.Fatalf("empty store MaxEnd should be 0, got %d", s.MaxEnd())
	}
	s.Add(Anchor{Data: []byte{1, 2}, Offset: 3, Confidence: 0.5})
	s.Add(Anchor{Data: []byte{1}, Offset: 0, Confidence: 0.5})
	if s.MaxEnd() != 5 {
		t.Fatalf("expected MaxEnd 5, got %d", s.MaxEnd())
	}
}
