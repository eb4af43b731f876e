package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/anchored-recovery/internal/fixture"
)

// #region main

func main() {
	seed := flag.Int64("seed", 1, "seed for deterministic generation")
	length := flag.Int("len", 64, "target buffer length")
	kind := flag.String("kind", "ascii", "target kind: ascii|signal|random")
	corruptRate := flag.Float64("corrupt", 0.25, "fraction of bytes to corrupt")
	anchorCount := flag.Int("anchors", 3, "number of anchor fragments to cut from the clean buffer")
	anchorSize := flag.Int("anchor-size", 8, "anchor fragment size in bytes")
	confidence := flag.Float64("confidence", 0.9, "anchor confidence")
	method := flag.String("method", "auto", "method to record in the fixture")
	maxIter := flag.Int("max-iter", 200, "iteration budget to record in the fixture")
	desc := flag.String("desc", "", "fixture description")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-gen --out path/to/fixture.json [--seed N] [--kind ascii|signal|random]")
		os.Exit(2)
	}

	if err := run(*seed, *length, *kind, *corruptRate, *anchorCount, *anchorSize,
		*confidence, *method, *maxIter, *desc, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region generate

func run(seed int64, length int, kind string, corruptRate float64,
	anchorCount, anchorSize int, confidence float64,
	method string, maxIter int, desc, outPath string) error {

	var clean []byte
	switch kind {
	case "ascii":
		clean = fixture.ASCIITarget(seed, length)
	case "signal":
		clean = fixture.SignalTarget(seed, length)
	case "random":
		clean = fixture.RandomTarget(seed, length)
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}

	// Corruption and anchor placement draw from offset seeds so they
	// are independent of the target stream.
	corrupted := fixture.Corrupt(clean, corruptRate, seed+1)
	anchors := fixture.SliceAnchors(clean, anchorCount, anchorSize, confidence, seed+2)

	if desc == "" {
		desc = fmt.Sprintf("%s target, len=%d, seed=%d, corrupt=%.2f", kind, length, seed, corruptRate)
	}

	f := &fixture.Fixture{
		Description:   desc,
		Target:        fmt.Sprintf("%x", corrupted),
		Method:        method,
		MaxIterations: maxIter,
		Anchors:       anchors,
		Expect: &fixture.Expect{
			Converged:  true,
			MinQuality: 0.5,
		},
	}
	if err := f.Save(outPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d bytes, %d anchors\n", outPath, length, len(anchors))
	return nil
}

// #endregion generate
