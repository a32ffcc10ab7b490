// Soak runner for the Łatynkatar scenarios.
//
// Repeats the scenario catalog in fresh browser sessions for a long
// period and reports flaky scenarios, browser processes that outlive their
// session, and heap growth.
//
// Usage:
//
//	go run ./cmd/soak --fixture --duration 1h
//	go run ./cmd/soak --base-url https://latynkatar.org/ --rounds 50
//
// Exposes a pprof endpoint at :6060 for live profiling.
package main

import (
	"fmt"
	"os"

	"github.com/thesyncim/latynkatar-e2e/internal/cli"
)

func main() {
	if err := cli.NewSoakCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
