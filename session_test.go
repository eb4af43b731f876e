package recovery

import (
	"bytes"
	"errors"
	"testing"
)

// #region scenarios

func TestFullConfidenceAnchorConvergesImmediately(t *testing.T) {
	known := []byte("HELLO RECOVERY!!")

	cfg := DefaultConfig()
	cfg.MaxIterations = 10
	cfg.NumThreads = 1

	sess, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.SetTarget(make([]byte, len(known))); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if err := sess.AddAnchor(known, 0, 1.0); err != nil {
		t.Fatalf("add anchor: %v", err)
	}

	res, err := sess.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Converged {
		t.Fatal("expected convergence with a full-coverage pinned anchor")
	}
	if res.Iterations > 2 {
		t.Fatalf("expected convergence within 2 iterations, took %d", res.Iterations)
	}
	if !bytes.Equal(res.Data, known) {
		t.Fatalf("data = %q, want %q", res.Data, known)
	}
	if res.QualityScore != 1.0 {
		t.Fatalf("quality = %f, want 1.0", res.QualityScore)
	}
}

func TestOverlappingAnchorsClampAndConverge(t *testing.T) {
	fill := func(v byte, n int) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = v
		}
		return b
	}

	cfg := DefaultConfig()
	cfg.Method = MethodBinary
	cfg.MaxIterations = 100
	cfg.NumThreads = 1

	sess, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.SetTarget(make([]byte, 5)); err != nil {
		t.Fatalf("set target: %v", err)
	}
	// Combined confidence 1.8 must clamp to 1; the blend is then the
	// plain mean of the three votes.
	for _, v := range []byte{100, 110, 120} {
		if err := sess.AddAnchor(fill(v, 5), 0, 0.6); err != nil {
			t.Fatalf("add anchor: %v", err)
		}
	}

	res, err := sess.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Converged {
		t.Fatal("expected convergence")
	}
	for i, v := range res.Data {
		if v != 110 {
			t.Fatalf("data[%d] = %d, want clamped blend 110", i, v)
		}
	}
}

func TestCryptoRequiresAnchors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodCrypto

	sess, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.SetTarget(make([]byte, 32)); err != nil {
		t.Fatalf("set target: %v", err)
	}

	res, err := sess.Run()
	if !errors.Is(err, ErrNoAnchors) {
		t.Fatalf("err = %v, want ErrNoAnchors", err)
	}
	if res != nil {
		t.Fatal("failed run must not return a result")
	}
	if len(sess.Events()) != 0 {
		t.Fatal("failed run must not record events")
	}
}

// #endregion scenarios

// #region lifecycle

func TestRunWithoutTarget(t *testing.T) {
	sess, err := NewSession(DefaultConfig())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := sess.Run(); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("err = %v, want ErrNoTarget", err)
	}
}

func TestTargetConsumedAfterRun(t *testing.T) {
	sess, err := NewSession(DefaultConfig())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.SetTarget([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if _, err := sess.Run(); err != nil {
		t.Fatalf("first run: %v", err)
	}

	if _, err := sess.Run(); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("second run without SetTarget: err = %v, want ErrNoTarget", err)
	}

	// SetTarget makes the session runnable again.
	if err := sess.SetTarget([]byte{5, 6, 7, 8}); err != nil {
		t.Fatalf("set target again: %v", err)
	}
	if _, err := sess.Run(); err != nil {
		t.Fatalf("run after reset: %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	cases := map[string]Config{
		"zero iterations":    {MaxIterations: 0, ConvergenceThreshold: 0.1},
		"negative threshold": {MaxIterations: 10, ConvergenceThreshold: -1},
		"negative threads":   {MaxIterations: 10, NumThreads: -1},
		"bad method":         {MaxIterations: 10, Method: Method(99)},
		"bad blend policy":   {MaxIterations: 10, BlendPolicy: BlendPolicy(9)},
	}
	for name, cfg := range cases {
		if _, err := NewSession(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: err = %v, want ErrInvalidConfig", name, err)
		}
	}
}

func TestInvalidArguments(t *testing.T) {
	sess, err := NewSession(DefaultConfig())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	if err := sess.SetTarget(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty target: err = %v, want ErrInvalidArgument", err)
	}
	if err := sess.AddAnchor(nil, 0, 0.5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty anchor: err = %v, want ErrInvalidArgument", err)
	}
	if err := sess.AddAnchor([]byte{1}, -1, 0.5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative offset: err = %v, want ErrInvalidArgument", err)
	}
	if err := sess.AddAnchor([]byte{1}, 0, 1.5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("confidence above 1: err = %v, want ErrInvalidArgument", err)
	}
	if err := sess.AddAnchor([]byte{1}, 0, -0.1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative confidence: err = %v, want ErrInvalidArgument", err)
	}

	if err := sess.SetTarget([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if err := sess.AddAnchor([]byte{1, 2}, 3, 0.5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("anchor past target end: err = %v, want ErrInvalidArgument", err)
	}

	// A later target must still cover the anchors already registered.
	if err := sess.AddAnchor([]byte{1, 2}, 2, 0.5); err != nil {
		t.Fatalf("in-range anchor: %v", err)
	}
	if err := sess.SetTarget([]byte{1, 2, 3}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("target shorter than anchors: err = %v, want ErrInvalidArgument", err)
	}
}

// #endregion lifecycle

// #region determinism

func rotated(clean []byte, shift int) []byte {
	n := len(clean)
	out := make([]byte, n)
	for i := range out {
		out[i] = clean[((i+shift)%n+n)%n]
	}
	return out
}

func TestDeterministicWithOneThread(t *testing.T) {
	clean := make([]byte, 32)
	for i := range clean {
		clean[i] = byte(i*11 + 5)
	}
	corrupted := rotated(clean, 3)

	run := func() *Result {
		cfg := DefaultConfig()
		cfg.Method = MethodCrypto
		cfg.MaxIterations = 50
		cfg.NumThreads = 1

		sess, err := NewSession(cfg)
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		if err := sess.SetTarget(corrupted); err != nil {
			t.Fatalf("set target: %v", err)
		}
		if err := sess.AddAnchor(clean[4:12], 4, 0.8); err != nil {
			t.Fatalf("add anchor: %v", err)
		}
		res, err := sess.Run()
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if !bytes.Equal(a.Data, b.Data) {
		t.Fatal("repeated single-thread runs produced different data")
	}
	if a.Iterations != b.Iterations || a.Converged != b.Converged {
		t.Fatalf("repeated runs diverged: iters %d/%d converged %v/%v",
			a.Iterations, b.Iterations, a.Converged, b.Converged)
	}
	if a.FinalOscillation != b.FinalOscillation || a.QualityScore != b.QualityScore {
		t.Fatal("repeated runs produced different metrics")
	}
}

// #endregion determinism

// #region run-behavior

func TestIterationBudgetRespected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = MethodBinary
	cfg.MaxIterations = 1
	cfg.NumThreads = 1

	sess, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.SetTarget(make([]byte, 8)); err != nil {
		t.Fatalf("set target: %v", err)
	}
	// Confidence below 1 means multiple projection steps are needed, so
	// a budget of one iteration cannot converge.
	anchorData := []byte{200, 200, 200, 200, 200, 200, 200, 200}
	if err := sess.AddAnchor(anchorData, 0, 0.8); err != nil {
		t.Fatalf("add anchor: %v", err)
	}

	res, err := sess.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Iterations != 1 {
		t.Fatalf("iterations = %d, want exactly the budget of 1", res.Iterations)
	}
	if res.Converged {
		t.Fatal("one projection step must not reach the fixed point here")
	}

	foundBudget := false
	for _, ev := range sess.Events() {
		if ev.Kind == "budget" {
			foundBudget = true
		}
	}
	if !foundBudget {
		t.Fatalf("expected a budget event, got %v", sess.Events())
	}
}

func TestConvergedRunRecordsEvent(t *testing.T) {
	sess, err := NewSession(DefaultConfig())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.SetTarget(make([]byte, 4)); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if err := sess.AddAnchor([]byte{9, 9, 9, 9}, 0, 1.0); err != nil {
		t.Fatalf("add anchor: %v", err)
	}

	res, err := sess.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Converged {
		t.Fatal("expected convergence")
	}

	events := sess.Events()
	if len(events) == 0 || events[len(events)-1].Kind != "converged" {
		t.Fatalf("expected trailing converged event, got %v", events)
	}
}

func TestUseGPUIsNoOp(t *testing.T) {
	run := func(gpu bool) *Result {
		cfg := DefaultConfig()
		cfg.UseGPU = gpu
		cfg.NumThreads = 1

		sess, err := NewSession(cfg)
		if err != nil {
			t.Fatalf("new session: %v", err)
		}
		if err := sess.SetTarget(make([]byte, 16)); err != nil {
			t.Fatalf("set target: %v", err)
		}
		if err := sess.AddAnchor(bytes.Repeat([]byte{77}, 16), 0, 1.0); err != nil {
			t.Fatalf("add anchor: %v", err)
		}
		res, err := sess.Run()
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return res
	}

	withGPU, withoutGPU := run(true), run(false)
	if !bytes.Equal(withGPU.Data, withoutGPU.Data) {
		t.Fatal("use_gpu changed the reconstruction")
	}
	if withGPU.Iterations != withoutGPU.Iterations {
		t.Fatal("use_gpu changed the iteration count")
	}
}

func TestFastAndAccurateKeepInferredDomain(t *testing.T) {
	ramp := make([]byte, 32)
	for i := range ramp {
		ramp[i] = byte(i * 3)
	}

	for _, m := range []Method{MethodFast, MethodAccurate} {
		cfg := DefaultConfig()
		cfg.Method = m
		cfg.MaxIterations = 500
		cfg.NumThreads = 1

		sess, err := NewSession(cfg)
		if err != nil {
			t.Fatalf("%s: new session: %v", m, err)
		}
		if err := sess.SetTarget(ramp); err != nil {
			t.Fatalf("%s: set target: %v", m, err)
		}
		res, err := sess.Run()
		if err != nil {
			t.Fatalf("%s: run: %v", m, err)
		}
		// Ramps classify as signal; fast/accurate modify the profile,
		// never the reported domain.
		if res.Method != MethodSignal {
			t.Fatalf("%s: result method = %s, want signal", m, res.Method)
		}
	}
}

// #endregion run-behavior
