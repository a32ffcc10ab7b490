package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof" // Enable pprof endpoints
	"os"
	"os/signal"
	"runtime"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thesyncim/latynkatar-e2e/pkg/config"
	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

// heapLimitMB fails a soak whose heap grows past it.
const heapLimitMB = 200

// SoakOptions contains options for the soak command.
type SoakOptions struct {
	*RootOptions

	Duration  time.Duration
	Rounds    int
	Only      []string
	Fixture   bool
	PprofPort int

	acquire harness.AcquireFunc
}

// SoakResult contains the results of a soak run.
type SoakResult struct {
	Duration      time.Duration
	Rounds        int
	Runs          int
	Outcomes      map[string]map[harness.Outcome]int
	Flaky         []string // Passed in some rounds, not in others
	Failing       []string // Never passed
	LeakedPIDs    []int
	PeakHeapMB    float64
	PeakGoroutine int
	Status        string
}

// NewSoakCommand creates the soak command. It repeats the catalog in fresh
// sessions, reshuffled each round, and watches for flaky scenarios,
// browser processes outliving their session, and memory growth.
func NewSoakCommand() *cobra.Command {
	opts := &SoakOptions{RootOptions: newRootOptions()}

	cmd := newBaseCommand(opts.RootOptions, &cobra.Command{
		Use:   "soak",
		Short: "Repeat the scenario catalog to find flaky scenarios and leaked browsers",
		Long: `Runs the catalog round after round until --duration elapses or --rounds
complete. Round n uses seed+n, so any round can be replayed with run --seed.

Exposes pprof while running:
  curl http://localhost:6060/debug/pprof/heap > heap.pprof
  go tool pprof heap.pprof`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSoak(cmd.Context(), opts, cmd.OutOrStdout())
		},
	})

	cmd.Flags().DurationVar(&opts.Duration, "duration", time.Hour, "test duration (e.g., 10m, 24h)")
	cmd.Flags().IntVar(&opts.Rounds, "rounds", 0, "stop after this many rounds (0 means until --duration)")
	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "soak only these scenarios (comma separated)")
	cmd.Flags().BoolVar(&opts.Fixture, "fixture", false, "soak the built-in stand-in page")
	cmd.Flags().IntVar(&opts.PprofPort, "pprof-port", 6060, "port for the pprof HTTP server (0 disables)")
	bindInt64(cmd.Flags(), opts.v, config.KeySeed, "seed", "seed of the first round (0 picks one)")
	bindInt(cmd.Flags(), opts.v, config.KeyParallel, "parallel", "scenarios run concurrently")
	return cmd
}

func runSoak(ctx context.Context, opts *SoakOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := *opts.Config
	logger := opts.Logger
	if opts.Duration <= 0 && opts.Rounds <= 0 {
		return NewExitError(ExitCommandError, "need a positive --duration or --rounds")
	}

	if opts.Fixture {
		srv, err := startFixture(&cfg, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "fixture", err)
		}
		defer stopFixture(srv, logger)
		cfg.BaseURL = srv.URL()
	}
	if err := cfg.RequireBaseURL(); err != nil {
		return WrapExitError(ExitCommandError, "nothing to test (set --base-url or use --fixture)", err)
	}

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}
	scenarios, err := catalog.Select(opts.Only...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to select scenarios", err)
	}

	acquire := opts.acquire
	if acquire == nil {
		if acquire, err = browserAcquire(&cfg, logger); err != nil {
			return WrapExitError(ExitCommandError, "invalid session settings", err)
		}
	}
	tracker := &pidTracker{}
	runner, err := newRunner(&cfg, tracker.wrap(acquire), logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create runner", err)
	}

	if opts.PprofPort > 0 {
		go func() {
			addr := fmt.Sprintf("localhost:%d", opts.PprofPort)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Warn("pprof server failed.", zap.Error(err))
			}
		}()
	}

	seed := pickSeed(cfg.Seed)
	fmt.Fprintf(out, "Łatynkatar Soak Runner\n")
	fmt.Fprintf(out, "======================\n")
	fmt.Fprintf(out, "Page:      %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "Scenarios: %d\n", len(scenarios))
	fmt.Fprintf(out, "Duration:  %v\n", opts.Duration)
	if opts.Rounds > 0 {
		fmt.Fprintf(out, "Rounds:    %d\n", opts.Rounds)
	}
	fmt.Fprintf(out, "Seed:      %d\n", seed)
	if opts.PprofPort > 0 {
		fmt.Fprintf(out, "Pprof:     http://localhost:%d/debug/pprof/\n", opts.PprofPort)
	}
	fmt.Fprintf(out, "\n")

	suite := &harness.Suite{
		Runner:   runner,
		Parallel: cfg.Parallel,
		BaseURL:  cfg.BaseURL,
	}
	result := soak(ctx, suite, scenarios, tracker, soakLimits{
		seed:     seed,
		duration: opts.Duration,
		rounds:   opts.Rounds,
	}, out)
	printSoakSummary(out, result)

	if result.Status != "PASS" {
		return NewExitError(ExitFailure, "soak failed")
	}
	return nil
}

type soakLimits struct {
	seed     int64
	duration time.Duration // zero means no time limit
	rounds   int           // zero means no round limit
}

func (l soakLimits) done(round int, elapsed time.Duration) bool {
	if l.rounds > 0 && round >= l.rounds {
		return true
	}
	return l.duration > 0 && elapsed >= l.duration
}

// soak runs rounds until limits say stop or ctx is cancelled. A round cut
// short by cancellation is discarded.
func soak(ctx context.Context, s *harness.Suite, scenarios []harness.Scenario, tracker *pidTracker, limits soakLimits, out io.Writer) SoakResult {
	result := SoakResult{
		Status:   "PASS",
		Outcomes: make(map[string]map[harness.Outcome]int),
	}
	var memStats runtime.MemStats
	start := time.Now()

	fmt.Fprintf(out, "[%s] Starting soak...\n", formatDuration(0))
	for round := 0; !limits.done(round, time.Since(start)); round++ {
		if ctx.Err() != nil {
			break
		}
		s.Seed = limits.seed + int64(round)
		report, err := s.Run(ctx, scenarios)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(out, "[%s] ERROR: round %d: %v\n", formatDuration(elapsed), round, err)
			result.Status = "FAIL"
			break
		}
		if ctx.Err() != nil {
			break
		}

		result.Rounds++
		for _, res := range report.Results {
			byOutcome := result.Outcomes[res.Scenario]
			if byOutcome == nil {
				byOutcome = make(map[harness.Outcome]int)
				result.Outcomes[res.Scenario] = byOutcome
			}
			byOutcome[res.Outcome]++
			result.Runs++
			if !res.Passed() {
				fmt.Fprintf(out, "[%s] %s: %s (seed %d): %s\n",
					formatDuration(elapsed), res.Outcome, res.Scenario, s.Seed, res.Message)
			}
		}

		if leaked := tracker.sweep(); len(leaked) > 0 {
			fmt.Fprintf(out, "[%s] ERROR: browser processes still alive after teardown: %v\n", formatDuration(elapsed), leaked)
			result.LeakedPIDs = append(result.LeakedPIDs, leaked...)
		}

		runtime.ReadMemStats(&memStats)
		heapMB := float64(memStats.HeapAlloc) / (1024 * 1024)
		result.PeakHeapMB = max(result.PeakHeapMB, heapMB)
		result.PeakGoroutine = max(result.PeakGoroutine, runtime.NumGoroutine())

		sum := report.Tally()
		fmt.Fprintf(out, "[%s] Round %d: %d/%d passed, HeapAlloc: %.2f MB, Goroutines: %d\n",
			formatDuration(elapsed), round, sum.Passed, sum.Total, heapMB, runtime.NumGoroutine())
	}
	result.Duration = time.Since(start)
	result.Flaky, result.Failing = classify(result.Outcomes)

	if result.Rounds == 0 || len(result.Flaky) > 0 || len(result.Failing) > 0 || len(result.LeakedPIDs) > 0 || result.PeakHeapMB > heapLimitMB {
		result.Status = "FAIL"
	}
	return result
}

// classify splits scenarios into those with mixed outcomes and those that
// never passed. Both lists are sorted.
func classify(outcomes map[string]map[harness.Outcome]int) (flaky, failing []string) {
	for name, byOutcome := range outcomes {
		passed := byOutcome[harness.OutcomePass]
		total := 0
		for _, n := range byOutcome {
			total += n
		}
		switch {
		case passed == 0:
			failing = append(failing, name)
		case passed < total:
			flaky = append(flaky, name)
		}
	}
	slices.Sort(flaky)
	slices.Sort(failing)
	return flaky, failing
}

// pidTracker remembers the browser process of every acquired session.
type pidTracker struct {
	mu   sync.Mutex
	pids []int
}

type pidReporter interface {
	PID() int
}

func (t *pidTracker) wrap(acquire harness.AcquireFunc) harness.AcquireFunc {
	return func(ctx context.Context) (harness.Driver, error) {
		d, err := acquire(ctx)
		if err != nil {
			return d, err
		}
		if p, ok := d.(pidReporter); ok && p.PID() > 0 {
			t.mu.Lock()
			t.pids = append(t.pids, p.PID())
			t.mu.Unlock()
		}
		return d, nil
	}
}

// sweep returns the tracked processes that are still alive and forgets
// all of them.
func (t *pidTracker) sweep() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var leaked []int
	for _, pid := range t.pids {
		if harness.ProcessAlive(pid) {
			leaked = append(leaked, pid)
		}
	}
	t.pids = t.pids[:0]
	return leaked
}

func printSoakSummary(w io.Writer, result SoakResult) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Soak Complete\n")
	fmt.Fprintf(w, "=============\n")
	fmt.Fprintf(w, "Duration:          %v\n", result.Duration.Round(time.Second))
	fmt.Fprintf(w, "Rounds:            %d\n", result.Rounds)
	fmt.Fprintf(w, "Scenario runs:     %d\n", result.Runs)
	fmt.Fprintf(w, "Peak HeapAlloc:    %.2f MB\n", result.PeakHeapMB)
	fmt.Fprintf(w, "Peak goroutines:   %d\n", result.PeakGoroutine)
	fmt.Fprintf(w, "Flaky scenarios:   %v\n", result.Flaky)
	fmt.Fprintf(w, "Failing scenarios: %v\n", result.Failing)
	fmt.Fprintf(w, "Leaked browsers:   %v\n", result.LeakedPIDs)
	fmt.Fprintf(w, "Status:            %s\n", result.Status)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Pass Criteria:\n")
	fmt.Fprintf(w, "  - At least one round:     %s\n", checkMark(result.Rounds > 0))
	fmt.Fprintf(w, "  - No flaky scenarios:     %s\n", checkMark(len(result.Flaky) == 0))
	fmt.Fprintf(w, "  - No failing scenarios:   %s\n", checkMark(len(result.Failing) == 0))
	fmt.Fprintf(w, "  - No leaked browsers:     %s\n", checkMark(len(result.LeakedPIDs) == 0))
	fmt.Fprintf(w, "  - Peak memory < %d MB:   %s\n", heapLimitMB, checkMark(result.PeakHeapMB < heapLimitMB))
}

func formatDuration(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func checkMark(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
