package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	recovery "github.com/danielpatrickdp/anchored-recovery"
	"github.com/danielpatrickdp/anchored-recovery/internal/archive"
	"github.com/danielpatrickdp/anchored-recovery/internal/fixture"
)

// #region main

func main() {
	inPath := flag.String("in", "", "path to corrupted input file (file mode)")
	anchorsPath := flag.String("anchors", "", "path to anchor list JSON (file mode)")
	outPath := flag.String("out", "", "path to write the reconstruction (file mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	method := flag.String("method", "auto", "recovery method: auto|crypto|signal|binary|fast|accurate")
	maxIter := flag.Int("max-iter", 0, "iteration budget (0 = default)")
	threshold := flag.Float64("threshold", -1, "convergence threshold (negative = default)")
	threads := flag.Int("threads", 0, "worker threads (0 = auto)")
	highestWins := flag.Bool("highest-wins", false, "reconcile overlapping anchors by highest confidence instead of blending")
	dbPath := flag.String("db", "", "optional run archive database")
	verbose := flag.Int("v", 0, "verbosity: 0 silent, 1 summary, 2 per-iteration")
	flag.Parse()

	if (*inPath == "" && *fixturePath == "") || (*inPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: recover --in corrupted.bin --anchors anchors.json [--out recovered.bin]")
		fmt.Fprintln(os.Stderr, "       recover --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *dbPath, *threads, *verbose)
	} else {
		exitCode = runFileMode(fileModeArgs{
			in:          *inPath,
			anchors:     *anchorsPath,
			out:         *outPath,
			method:      *method,
			maxIter:     *maxIter,
			threshold:   *threshold,
			threads:     *threads,
			highestWins: *highestWins,
			db:          *dbPath,
			verbose:     *verbose,
		})
	}
	os.Exit(exitCode)
}

// #endregion main

// #region file-mode

type fileModeArgs struct {
	in, anchors, out, method, db string
	maxIter, threads, verbose    int
	threshold                    float64
	highestWins                  bool
}

func runFileMode(args fileModeArgs) int {
	target, err := os.ReadFile(args.in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		return 2
	}

	var anchors []fixture.Anchor
	if args.anchors != "" {
		data, err := os.ReadFile(args.anchors)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read anchors: %v\n", err)
			return 2
		}
		if err := json.Unmarshal(data, &anchors); err != nil {
			fmt.Fprintf(os.Stderr, "parse anchors: %v\n", err)
			return 2
		}
	}

	cfg := recovery.DefaultConfig()
	if args.maxIter > 0 {
		cfg.MaxIterations = args.maxIter
	}
	if args.threshold >= 0 {
		cfg.ConvergenceThreshold = args.threshold
	}
	m, err := recovery.ParseMethod(args.method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	cfg.Method = m
	cfg.NumThreads = args.threads
	cfg.Verbose = args.verbose
	if args.highestWins {
		cfg.BlendPolicy = recovery.BlendHighestWins
	}

	res, sess, err := runSession(cfg, target, anchors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recover: %v\n", err)
		return 2
	}

	fmt.Printf("method=%s converged=%v iterations=%d oscillation=%.6f rate=%.6f quality=%.4f time=%.4fs\n",
		res.Method, res.Converged, res.Iterations, res.FinalOscillation,
		res.ConvergenceRate, res.QualityScore, res.TimeSeconds)

	if args.out != "" {
		if err := os.WriteFile(args.out, res.Data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write output: %v\n", err)
			return 2
		}
	}

	if args.db != "" {
		if err := archiveRun(args.db, args.in, res, sess, len(target), len(anchors)); err != nil {
			fmt.Fprintf(os.Stderr, "archive: %v\n", err)
			return 2
		}
	}

	if !res.Converged {
		return 1
	}
	return 0
}

// #endregion file-mode

// #region fixture-mode

func runFixtureMode(path, dbPath string, threads, verbose int) int {
	f, err := fixture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	target, err := f.TargetBytes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture: %v\n", err)
		return 2
	}

	cfg := recovery.DefaultConfig()
	if f.MaxIterations > 0 {
		cfg.MaxIterations = f.MaxIterations
	}
	if f.ConvergenceThreshold > 0 {
		cfg.ConvergenceThreshold = f.ConvergenceThreshold
	}
	m, err := recovery.ParseMethod(f.Method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture: %v\n", err)
		return 2
	}
	cfg.Method = m
	cfg.NumThreads = threads
	cfg.Verbose = verbose

	res, sess, err := runSession(cfg, target, f.Anchors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recover: %v\n", err)
		return 2
	}

	if dbPath != "" {
		if err := archiveRun(dbPath, path, res, sess, len(target), len(f.Anchors)); err != nil {
			fmt.Fprintf(os.Stderr, "archive: %v\n", err)
			return 2
		}
	}

	return printComparison(f, res)
}

// printComparison checks the fixture expectations and prints an
// OK/DIFF table. Returns the process exit code.
func printComparison(f *fixture.Fixture, res *recovery.Result) int {
	fmt.Printf("%-16s| %-12s| %-12s| %s\n", "Check", "Expected", "Got", "Match")
	fmt.Printf("%-16s+%-13s+%-13s+%s\n",
		"----------------", "-------------", "-------------", "------")

	diverge := 0
	check := func(name, expected, got string, ok bool) {
		match := "OK"
		if !ok {
			match = "DIFF"
			diverge++
		}
		fmt.Printf("%-16s| %-12s| %-12s| %s\n", name, expected, got, match)
	}

	if f.Expect == nil {
		fmt.Printf("\nno expectations in fixture; converged=%v quality=%.4f\n",
			res.Converged, res.QualityScore)
		return 0
	}

	check("converged",
		fmt.Sprintf("%v", f.Expect.Converged),
		fmt.Sprintf("%v", res.Converged),
		res.Converged == f.Expect.Converged)
	check("quality",
		fmt.Sprintf(">=%.3f", f.Expect.MinQuality),
		fmt.Sprintf("%.4f", res.QualityScore),
		res.QualityScore >= f.Expect.MinQuality)
	if f.Expect.MaxIterations > 0 {
		check("iterations",
			fmt.Sprintf("<=%d", f.Expect.MaxIterations),
			fmt.Sprintf("%d", res.Iterations),
			res.Iterations <= f.Expect.MaxIterations)
	}

	fmt.Printf("\nSummary: %d diverging check(s)\n", diverge)
	if diverge > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode

// #region shared

// runSession builds a session from config, target, and fixture-shaped
// anchors, and runs it.
func runSession(cfg recovery.Config, target []byte, anchors []fixture.Anchor) (*recovery.Result, *recovery.Session, error) {
	sess, err := recovery.NewSession(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.SetTarget(target); err != nil {
		return nil, nil, err
	}
	for _, a := range anchors {
		data, err := a.DataBytes()
		if err != nil {
			return nil, nil, err
		}
		if err := sess.AddAnchor(data, a.Offset, a.Confidence); err != nil {
			return nil, nil, err
		}
	}
	res, err := sess.Run()
	if err != nil {
		return nil, nil, err
	}
	return res, sess, nil
}

// archiveRun records the run and its events in the archive database.
func archiveRun(dbPath, source string, res *recovery.Result, sess *recovery.Session, targetLen, numAnchors int) error {
	store, err := archive.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runID := archive.NewRunID()
	if err := store.RecordRun(archive.RunRecord{
		RunID:            runID,
		Source:           source,
		Method:           res.Method.String(),
		TargetLen:        targetLen,
		NumAnchors:       numAnchors,
		Iterations:       res.Iterations,
		Converged:        res.Converged,
		FinalOscillation: res.FinalOscillation,
		ConvergenceRate:  res.ConvergenceRate,
		QualityScore:     res.QualityScore,
		TimeSeconds:      res.TimeSeconds,
	}); err != nil {
		return err
	}
	for _, ev := range sess.Events() {
		if err := store.LogEvent(archive.EventRecord{
			RunID:     runID,
			Iteration: ev.Iteration,
			Kind:      ev.Kind,
			Detail:    ev.Detail,
		}); err != nil {
			return err
		}
	}
	return nil
}

// #endregion shared
