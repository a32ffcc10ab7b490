// Command latynkatar-e2e runs the browser regression scenarios against the
// Łatynkatar converter page.
//
// Usage:
//
//	BASE_URL=https://latynkatar.org/ latynkatar-e2e run
//	latynkatar-e2e run --fixture --seed 1234
//	latynkatar-e2e list -v
//	latynkatar-e2e serve-fixture --addr :8080
package main

import (
	"fmt"
	"os"

	"github.com/thesyncim/latynkatar-e2e/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
