//go:build e2e

package e2e

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

func sessionConfig(t *testing.T) harness.SessionConfig {
	t.Helper()
	sc, err := cfg.SessionConfig(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("invalid session config: %v", err)
	}
	return sc
}

// acquire launches browsers and records their processes for the leak
// sweep in TestMain.
func acquire(t *testing.T) harness.AcquireFunc {
	sc := sessionConfig(t)
	return func(ctx context.Context) (harness.Driver, error) {
		s, err := harness.Acquire(ctx, sc)
		if err != nil {
			return nil, err
		}
		recordLaunch(s.PID())
		return s, nil
	}
}

func newRunner(t *testing.T) *harness.Runner {
	t.Helper()
	stab, err := harness.NewStabilizer(cfg.StabilizePolicy())
	if err != nil {
		t.Fatalf("invalid stabilize policy: %v", err)
	}
	r, err := harness.NewRunner(acquire(t),
		harness.WithStabilizer(stab),
		harness.WithLogger(zaptest.NewLogger(t)),
		harness.WithScreenshotDir(t.TempDir()),
		harness.WithScenarioTimeout(cfg.ScenarioTimeout),
	)
	if err != nil {
		t.Fatalf("failed to create runner: %v", err)
	}
	return r
}

func lookup(t *testing.T, name string) harness.Scenario {
	t.Helper()
	sc, ok := catalog.Lookup(name)
	if !ok {
		t.Fatalf("scenario %q not in catalog", name)
	}
	return sc
}

// mustPass runs sc and fails the test unless it passed.
func mustPass(t *testing.T, sc harness.Scenario) harness.Result {
	t.Helper()
	res := newRunner(t).Run(context.Background(), sc)
	if !res.TornDown {
		t.Errorf("%s: session not torn down", sc.Name)
	}
	if !res.Passed() {
		t.Fatalf("%s: %s [%s at %s]: %s", sc.Name, res.Outcome, res.Kind, res.State, res.Message)
	}
	return res
}
