// Causality Engine Demo
//
// This is the main entry point for the in-process demonstration of the
// causality engine: three simulated processes stamp local events, exchange
// sum-of-range request/reply messages, and reconstruct the causal order of
// everything that happened from the snapshots in their event logs.
//
// Architecture:
//   - Vector clocks: one per process, merge-then-tick on every receive
//   - Analyzer: happened-before / happened-after / concurrent verdicts
//   - Event logs: insertion-ordered histories with pairwise annotations
//   - Dgraph export: optional causal graph visualization
//
// Run modes:
//   - default: scripted walkthrough of the full scenario
//   - INTERACTIVE_MODE=true: drive the processes from a terminal menu
//   - DGRAPH_URL=localhost:9080: export the event graph for visualization

package main

import (
	"fmt"
	"os"

	"github.com/hetu-project/causality-engine/dgraph"
	"github.com/hetu-project/causality-engine/sim/demo"
)

func main() {
	interactive := os.Getenv("INTERACTIVE_MODE") == "true"

	if interactive {
		fmt.Println("=== Causality Engine: Interactive Demo ===")
	} else {
		fmt.Println("=== Causality Engine: Scripted Demo ===")
	}
	fmt.Println("Three processes, one shared roster, no network required")
	fmt.Println("")

	coordinator, err := demo.NewCoordinator("P1", "P2", "P3")
	if err != nil {
		fmt.Printf("Failed to create processes: %v\n", err)
		os.Exit(1)
	}

	// Graph export is optional; the demo runs fine without Dgraph.
	dgraphURL := os.Getenv("DGRAPH_URL")
	if dgraphURL != "" {
		client, err := dgraph.Connect(dgraphURL)
		if err != nil {
			fmt.Printf("⚠️  Dgraph not available: %v\n", err)
			fmt.Println("Running demo without graph visualization...")
			fmt.Println("Start Dgraph with: docker run --rm -d --name dgraph-standalone -p 8080:8080 -p 9080:9080 -p 8000:8000 dgraph/standalone")
		} else {
			fmt.Println("✅ Dgraph connected, event graph export enabled")
			coordinator.SetGraph(dgraph.NewEventGraph(client))
		}
		fmt.Println("")
	}

	if interactive {
		coordinator.RunInteractive(os.Stdin)
	} else {
		coordinator.RunScripted()
	}

	if err := coordinator.CommitGraph(); err != nil {
		fmt.Printf("⚠️  Error committing graph to Dgraph: %v\n", err)
	} else if coordinator.Graph != nil {
		fmt.Println("✅ Event graph committed to Dgraph")
		fmt.Println("Visualization: Ratel UI at http://localhost:8000")
	}

	fmt.Println("")
	fmt.Println("🎉 Demo complete.")
}
