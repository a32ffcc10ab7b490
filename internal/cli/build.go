package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/thesyncim/latynkatar-e2e/cmd/latynkatar-e2e/fixture"
	"github.com/thesyncim/latynkatar-e2e/pkg/config"
	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

// newRunner builds a scenario runner from cfg around acquire.
func newRunner(cfg *config.Config, acquire harness.AcquireFunc, logger *zap.Logger) (*harness.Runner, error) {
	stab, err := harness.NewStabilizer(cfg.StabilizePolicy())
	if err != nil {
		return nil, err
	}
	opts := []harness.RunnerOption{
		harness.WithStabilizer(stab),
		harness.WithLogger(logger),
		harness.WithScenarioTimeout(cfg.ScenarioTimeout),
	}
	if cfg.Screenshots {
		opts = append(opts, harness.WithScreenshotDir(filepath.Join(cfg.ReportDir, "screenshots")))
	}
	return harness.NewRunner(acquire, opts...)
}

// browserAcquire launches one Chromium session per scenario.
func browserAcquire(cfg *config.Config, logger *zap.Logger) (harness.AcquireFunc, error) {
	sc, err := cfg.SessionConfig(logger.Named("session"))
	if err != nil {
		return nil, err
	}
	return harness.AcquireWith(sc), nil
}

// startFixture serves the stand-in page on a random local port.
func startFixture(cfg *config.Config, logger *zap.Logger) (*fixture.Server, error) {
	fc := fixture.DefaultConfig()
	fc.Addr = "127.0.0.1:0"
	fc.ConvertTitle = cfg.ConvertTitle
	fc.ClearTitle = cfg.ClearTitle
	fc.Logger = logger.Named("fixture")

	srv, err := fixture.NewServer(fc)
	if err != nil {
		return nil, err
	}
	if _, err := srv.Start(); err != nil {
		return nil, fmt.Errorf("failed to start fixture: %w", err)
	}
	return srv, nil
}

func stopFixture(srv *fixture.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Fixture shutdown failed.", zap.Error(err))
	}
}

// pickSeed returns seed, or a fresh random one when seed is zero.
func pickSeed(seed int64) int64 {
	for seed == 0 {
		seed = rand.Int64N(1 << 31)
	}
	return seed
}
