package recovery

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/danielpatrickdp/anchored-recovery/anchor"
	"github.com/danielpatrickdp/anchored-recovery/candidate"
	"github.com/danielpatrickdp/anchored-recovery/generator"
	"github.com/danielpatrickdp/anchored-recovery/monitor"
)

// #region constants

// maxTargetLen bounds candidate-buffer setup. Larger targets fail
// ErrOutOfMemory before the loop starts.
const maxTargetLen = 1 << 28

// #endregion constants

// #region event

// Event records a notable run occurrence, for logging and archiving.
type Event struct {
	Iteration int
	Kind      string // "plateau_escape", "exhausted", "converged", "budget"
	Detail    string
}

// #endregion event

// #region session

// Session owns one anchor store, one configuration, and (during a run)
// one candidate state. Runs are synchronous; concurrent calls to Run
// on the same session are not supported.
type Session struct {
	cfg      Config
	store    *anchor.Store
	target   []byte
	consumed bool // target used by a completed run; SetTarget resets
	running  bool
	events   []Event
}

// NewSession validates the configuration and creates a session.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Session{
		cfg:   cfg,
		store: anchor.NewStore(),
	}, nil
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Events returns the events recorded by the most recent run.
func (s *Session) Events() []Event {
	return s.events
}

// Close releases all owned anchors and state. The session must not be
// used afterwards.
func (s *Session) Close() {
	s.store.Clear()
	s.target = nil
	s.events = nil
}

// #endregion session

// #region set-target

// SetTarget replaces the corrupted target buffer Q and discards any
// prior candidate state, making the session runnable again. Empty
// input and targets too short for the registered anchors fail
// ErrInvalidArgument.
func (s *Session) SetTarget(q []byte) error {
	if len(q) == 0 {
		return fmt.Errorf("%w: empty target buffer", ErrInvalidArgument)
	}
	if end := s.store.MaxEnd(); end > len(q) {
		return fmt.Errorf("%w: registered anchors extend to offset %d beyond target length %d",
			ErrInvalidArgument, end, len(q))
	}

	s.target = make([]byte, len(q))
	copy(s.target, q)
	s.consumed = false
	return nil
}

// #endregion set-target

// #region add-anchor

// AddAnchor registers a trusted fragment at the given offset with the
// given confidence. Anchors are additive: duplicates and overlaps are
// retained as independent votes, reconciled at blend time. Fails
// ErrInvalidArgument on empty data, confidence outside [0, 1], or a
// range that exceeds the target (when one is set). No anchor is ever
// silently dropped or merged.
func (s *Session) AddAnchor(data []byte, offset int, confidence float64) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty anchor data", ErrInvalidArgument)
	}
	if offset < 0 {
		return fmt.Errorf("%w: negative anchor offset %d", ErrInvalidArgument, offset)
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: anchor confidence %g outside [0,1]", ErrInvalidArgument, confidence)
	}
	if s.target != nil && offset+len(data) > len(s.target) {
		return fmt.Errorf("%w: anchor range [%d,%d) exceeds target length %d",
			ErrInvalidArgument, offset, offset+len(data), len(s.target))
	}

	s.store.Add(anchor.Anchor{Data: data, Offset: offset, Confidence: confidence})
	return nil
}

// ClearAnchors removes all registered anchors.
func (s *Session) ClearAnchors() {
	s.store.Clear()
}

// #endregion add-anchor

// #region dispatch

// resolve maps the configured method to a concrete domain and profile.
// The Auto decision is made exactly once here, never inside the loop.
func (s *Session) resolve() (Method, generator.Profile) {
	profile := generator.ProfileBalanced
	domain := s.cfg.Method

	switch s.cfg.Method {
	case MethodFast:
		profile = generator.ProfileFast
		domain = MethodAuto
	case MethodAccurate:
		profile = generator.ProfileAccurate
		domain = MethodAuto
	}

	if domain == MethodAuto {
		domain = InferMethod(s.target, s.store.All())
	}
	return domain, profile
}

func (s *Session) generatorFor(domain Method, profile generator.Profile, threads int) generator.Generator {
	switch domain {
	case MethodCrypto:
		return generator.NewVoting(profile, threads)
	case MethodSignal:
		return generator.NewSmoothing(profile)
	default:
		return generator.NewProjection(profile)
	}
}

// #endregion dispatch

// #region run

// Run drives the iteration loop until convergence, plateau exhaustion,
// or the iteration budget. Non-convergence is a normal outcome, not an
// error. Run is re-entrant only after SetTarget replaces the consumed
// target.
func (s *Session) Run() (*Result, error) {
	if s.running {
		return nil, fmt.Errorf("%w: concurrent Run on one session", ErrInternal)
	}
	if s.target == nil || s.consumed {
		return nil, fmt.Errorf("%w: call SetTarget before Run", ErrNoTarget)
	}
	if len(s.target) > maxTargetLen {
		return nil, fmt.Errorf("%w: target length %d exceeds %d", ErrOutOfMemory, len(s.target), maxTargetLen)
	}

	domain, profile := s.resolve()
	if domain == MethodCrypto && s.store.Len() == 0 {
		return nil, fmt.Errorf("%w: crypto domain requires at least one anchor", ErrNoAnchors)
	}

	threads := s.cfg.NumThreads
	if threads == 0 {
		threads = runtime.NumCPU()
	}

	s.running = true
	defer func() { s.running = false }()
	s.events = nil

	start := time.Now()
	gen := s.generatorFor(domain, profile, threads)
	st := candidate.New(s.target)
	st.ApplyAnchors(s.store, s.cfg.BlendPolicy == BlendHighestWins)
	mon := monitor.New(s.cfg.ConvergenceThreshold)
	pinned, pinVal := s.store.Pinned(st.Len())

	if s.cfg.Verbose >= 1 {
		log.Printf("[SESSION] run: len=%d anchors=%d domain=%s profile=%s threads=%d",
			st.Len(), s.store.Len(), domain, profile, threads)
		if s.cfg.UseGPU {
			log.Printf("[SESSION] use_gpu set but no acceleration backend present; ignoring")
		}
	}

	converged := false
	iterations := 0
	escapes := 0

	for it := 1; it <= s.cfg.MaxIterations; it++ {
		proposal, touched, err := gen.Step(st, s.store)
		if err != nil {
			return nil, fmt.Errorf("%w: generator %s: %v", ErrInternal, gen.Name(), err)
		}
		if len(proposal) != st.Len() {
			return nil, fmt.Errorf("%w: generator %s changed buffer length", ErrInternal, gen.Name())
		}
		for i := range pinned {
			if pinned[i] && proposal[i] != pinVal[i] {
				return nil, fmt.Errorf("%w: generator %s moved pinned position %d", ErrInternal, gen.Name(), i)
			}
		}

		st.Commit(proposal)
		iterations = it

		v := mon.Observe(st.TotalOscillation())
		if s.cfg.Verbose >= 2 {
			log.Printf("[SESSION] iter=%d oscillation=%.6f rate=%.6f touched=%d",
				it, v.Total, v.Rate, countTrue(touched))
		}

		if v.Converged {
			converged = true
			s.events = append(s.events, Event{Iteration: it, Kind: "converged"})
			break
		}
		if v.Exhausted {
			s.events = append(s.events, Event{Iteration: it, Kind: "exhausted",
				Detail: fmt.Sprintf("plateau cap %d exceeded", monitor.PlateauCap)})
			break
		}
		if v.Plateau {
			escProposal, escTouched := generator.Escape(st, s.store)
			st.Commit(escProposal)
			mon.NoteEscape()
			escapes++
			s.events = append(s.events, Event{Iteration: it, Kind: "plateau_escape",
				Detail: fmt.Sprintf("escape %d, perturbed %d positions", escapes, countTrue(escTouched))})
			if s.cfg.Verbose >= 1 {
				log.Printf("[SESSION] plateau at iter=%d, escape %d", it, escapes)
			}
		}
	}

	if iterations == s.cfg.MaxIterations && !converged {
		s.events = append(s.events, Event{Iteration: iterations, Kind: "budget"})
	}

	elapsed := time.Since(start)
	s.consumed = true

	res := &Result{
		Data:             st.Snapshot(),
		Iterations:       iterations,
		FinalOscillation: st.TotalOscillation(),
		ConvergenceRate:  mon.Rate(),
		QualityScore:     monitor.Quality(st, s.store),
		Converged:        converged,
		TimeSeconds:      elapsed.Seconds(),
		Method:           domain,
	}

	if s.cfg.Verbose >= 1 {
		log.Printf("[SESSION] done: converged=%v iterations=%d oscillation=%.6f quality=%.4f time=%.4fs",
			res.Converged, res.Iterations, res.FinalOscillation, res.QualityScore, res.TimeSeconds)
	}
	return res, nil
}

// #endregion run

// #region helpers

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

// #endregion helpers
