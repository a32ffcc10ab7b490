package harness

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Suite runs a set of scenarios in seed-determined order and collects a
// Report. The seed is supplied by the caller and only recorded here, so a
// failing order can be replayed exactly.
type Suite struct {
	Runner   *Runner
	Seed     int64
	Parallel int // Concurrent scenarios (default: 1)
	Title    string
	BaseURL  string
	Metadata map[string]string

	now func() time.Time
}

// Order returns scenarios shuffled deterministically by seed. The input
// slice is not modified.
func Order(scenarios []Scenario, seed int64) []Scenario {
	out := slices.Clone(scenarios)
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Run executes every scenario and returns the report. Results appear in
// execution order. Cancelling ctx stops scheduling; scenarios already
// started still tear down.
func (s *Suite) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	if s.Runner == nil {
		return nil, errors.New("suite has no runner")
	}
	now := s.now
	if now == nil {
		now = time.Now
	}
	title := s.Title
	if title == "" {
		title = DefaultReportTitle
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Title:     title,
		Seed:      s.Seed,
		BaseURL:   s.BaseURL,
		StartedAt: now(),
		Metadata:  s.Metadata,
	}

	ordered := Order(scenarios, s.Seed)
	results := make([]Result, len(ordered))

	limit := s.Parallel
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, sc := range ordered {
		if ctx.Err() != nil {
			results[i] = Result{
				Scenario: sc.Name,
				Outcome:  OutcomeError,
				Kind:     KindInternal.String(),
				Message:  "not started: " + ctx.Err().Error(),
			}
			continue
		}
		g.Go(func() error {
			results[i] = s.Runner.Run(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results
	report.FinishedAt = now()
	return report, nil
}
