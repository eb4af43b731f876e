package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/anchored-recovery/internal/archive"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to run archive database")
	last := flag.Int("last", 10, "number of most recent runs to show")
	runID := flag.String("run", "", "show events for one run")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/archive.db [--last N] [--run RUN_ID]")
		os.Exit(2)
	}

	store, err := archive.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open archive: %v\n", err)
		os.Exit(2)
	}
	defer store.Close()

	if *runID != "" {
		if err := printEvents(store, *runID); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := printRuns(store, *last); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region output

func printRuns(store *archive.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs archived")
		return nil
	}

	fmt.Printf("%-36s  %-8s  %-5s  %-9s  %-8s  %-8s  %s\n",
		"Run", "Method", "Conv", "Iter", "Quality", "Time(s)", "Source")
	for _, r := range runs {
		fmt.Printf("%-36s  %-8s  %-5v  %-9d  %-8.4f  %-8.4f  %s\n",
			r.RunID, r.Method, r.Converged, r.Iterations, r.QualityScore, r.TimeSeconds, r.Source)
	}
	return nil
}

func printEvents(store *archive.Store, runID string) error {
	events, err := store.ListEvents(runID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Printf("no events for run %s\n", runID)
		return nil
	}

	fmt.Printf("%-9s  %-16s  %s\n", "Iter", "Kind", "Detail")
	for _, ev := range events {
		fmt.Printf("%-9d  %-16s  %s\n", ev.Iteration, ev.Kind, ev.Detail)
	}
	return nil
}

// #endregion output
