package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thesyncim/latynkatar-e2e/pkg/config"
	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

// RunOptions contains options for the run command.
type RunOptions struct {
	*RootOptions

	Only    []string
	Fixture bool

	// acquire replaces the browser launcher in tests.
	acquire harness.AcquireFunc
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scenario catalog against the page",
		Long: `Runs every scenario (or those named by --only) in an order shuffled by the
seed, each in a fresh browser session, and writes report.json and
report.html to the report directory.

Exit codes:
  0  every scenario passed
  1  at least one scenario failed or errored
  2  configuration or report error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "run only these scenarios (comma separated)")
	cmd.Flags().BoolVar(&opts.Fixture, "fixture", false, "serve the built-in stand-in page and test it instead of --base-url")
	bindInt64(cmd.Flags(), rootOpts.v, config.KeySeed, "seed", "shuffle seed (0 picks one and prints it)")
	bindInt(cmd.Flags(), rootOpts.v, config.KeyParallel, "parallel", "scenarios run concurrently")
	bindString(cmd.Flags(), rootOpts.v, config.KeyReportDir, "report-dir", "where report.json and report.html go")
	bindBool(cmd.Flags(), rootOpts.v, config.KeyScreenshots, "screenshots", "capture a screenshot of failing scenarios")
	return cmd
}

func runScenarios(ctx context.Context, opts *RunOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := *opts.Config
	logger := opts.Logger

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
	runner, err := newRunner(&cfg, acquire, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create runner", err)
	}

	suite := &harness.Suite{
		Runner:   runner,
		Seed:     pickSeed(cfg.Seed),
		Parallel: cfg.Parallel,
		BaseURL:  cfg.BaseURL,
		Metadata: cfg.Metadata(),
	}
	logger.Info("Running scenarios.",
		zap.Int("count", len(scenarios)),
		zap.Int64("seed", suite.Seed),
		zap.String("base_url", cfg.BaseURL))
	fmt.Fprintf(out, "Using --seed=%d\n", suite.Seed)

	report, err := suite.Run(ctx, scenarios)
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}
	printReport(out, report)

	jsonPath, htmlPath, err := report.WriteFiles(cfg.ReportDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}
	fmt.Fprintf(out, "Report: %s, %s\n", jsonPath, htmlPath)

	if !report.OK() {
		s := report.Tally()
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios did not pass", s.Failed+s.Errored, s.Total))
	}
	return nil
}

func printReport(w io.Writer, r *harness.Report) {
	for _, res := range r.Results {
		switch res.Outcome {
		case harness.OutcomePass:
			fmt.Fprintf(w, "PASS   %s (%dms)\n", res.Scenario, res.DurationMS)
		case harness.OutcomeFail:
			fmt.Fprintf(w, "FAIL   %s (%dms): %s\n", res.Scenario, res.DurationMS, res.Message)
		default:
			fmt.Fprintf(w, "ERROR  %s (%dms) [%s at %s]: %s\n", res.Scenario, res.DurationMS, res.Kind, res.State, res.Message)
		}
	}
	s := r.Tally()
	fmt.Fprintf(w, "\n%d scenarios: %d passed, %d failed, %d errors\n", s.Total, s.Passed, s.Failed, s.Errored)
}
