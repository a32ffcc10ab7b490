package cli

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
	"github.com/thesyncim/latynkatar-e2e/pkg/harness/testutil"
	"github.com/thesyncim/latynkatar-e2e/pkg/latynkatar"
)

var titleScenario = harness.Scenario{
	Name:   "page-title",
	Expect: []harness.Expectation{harness.TitleEquals(latynkatar.Title)},
}

func soakSuite(t *testing.T, acquire harness.AcquireFunc, tracker *pidTracker) *harness.Suite {
	t.Helper()
	r, err := harness.NewRunner(tracker.wrap(acquire), harness.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return &harness.Suite{Runner: r, Parallel: 1}
}

// pidPage reports a process id the way a browser session does.
type pidPage struct {
	*testutil.FakePage
	pid int
}

func (p pidPage) PID() int { return p.pid }

func TestSoak_AllPass(t *testing.T) {
	tracker := &pidTracker{}
	s := soakSuite(t, testutil.NewFakePage(latynkatar.Title).Acquire(), tracker)

	res := soak(context.Background(), s, []harness.Scenario{titleScenario}, tracker,
		soakLimits{seed: 1, rounds: 3}, io.Discard)

	assert.Equal(t, "PASS", res.Status)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, 3, res.Runs)
	assert.Equal(t, 3, res.Outcomes["page-title"][harness.OutcomePass])
	assert.Empty(t, res.Flaky)
	assert.Empty(t, res.Failing)
	assert.Positive(t, res.PeakGoroutine)
}

func TestSoak_FlakyScenario(t *testing.T) {
	good := testutil.NewFakePage(latynkatar.Title)
	bad := testutil.NewFakePage("Loading…")
	var n atomic.Int32
	acquire := func(ctx context.Context) (harness.Driver, error) {
		if n.Add(1)%2 == 0 {
			return bad, nil
		}
		return good, nil
	}
	tracker := &pidTracker{}
	s := soakSuite(t, acquire, tracker)

	res := soak(context.Background(), s, []harness.Scenario{titleScenario}, tracker,
		soakLimits{seed: 1, rounds: 4}, io.Discard)

	assert.Equal(t, "FAIL", res.Status)
	assert.Equal(t, []string{"page-title"}, res.Flaky)
	assert.Empty(t, res.Failing)
}

func TestSoak_FailingScenario(t *testing.T) {
	tracker := &pidTracker{}
	s := soakSuite(t, testutil.NewFakePage("Wrong").Acquire(), tracker)

	res := soak(context.Background(), s, []harness.Scenario{titleScenario}, tracker,
		soakLimits{seed: 1, rounds: 2}, io.Discard)

	assert.Equal(t, "FAIL", res.Status)
	assert.Equal(t, []string{"page-title"}, res.Failing)
	assert.Equal(t, 2, res.Outcomes["page-title"][harness.OutcomeFail])
}

func TestSoak_DetectsLiveBrowserProcess(t *testing.T) {
	// The test process itself stands in for a browser that outlived
	// its session.
	page := pidPage{FakePage: testutil.NewFakePage(latynkatar.Title), pid: os.Getpid()}
	acquire := func(ctx context.Context) (harness.Driver, error) { return page, nil }
	tracker := &pidTracker{}
	s := soakSuite(t, acquire, tracker)

	res := soak(context.Background(), s, []harness.Scenario{titleScenario}, tracker,
		soakLimits{seed: 1, rounds: 2}, io.Discard)

	assert.Equal(t, "FAIL", res.Status)
	assert.Equal(t, []int{os.Getpid(), os.Getpid()}, res.LeakedPIDs)
	assert.Empty(t, res.Flaky)
}

func TestSoak_CancelledBeforeFirstRound(t *testing.T) {
	tracker := &pidTracker{}
	s := soakSuite(t, testutil.NewFakePage(latynkatar.Title).Acquire(), tracker)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := soak(ctx, s, []harness.Scenario{titleScenario}, tracker,
		soakLimits{seed: 1, duration: time.Hour}, io.Discard)

	assert.Equal(t, 0, res.Rounds)
	assert.Equal(t, "FAIL", res.Status)
}

func TestSoakLimits_Done(t *testing.T) {
	assert.True(t, soakLimits{rounds: 2}.done(2, 0))
	assert.False(t, soakLimits{rounds: 2}.done(1, time.Hour))
	assert.True(t, soakLimits{duration: time.Minute}.done(100, time.Minute))
	assert.False(t, soakLimits{duration: time.Minute}.done(100, time.Second))
	assert.True(t, soakLimits{rounds: 5, duration: time.Minute}.done(1, 2*time.Minute))
}

func TestClassify(t *testing.T) {
	flaky, failing := classify(map[string]map[harness.Outcome]int{
		"b": {harness.OutcomePass: 2, harness.OutcomeError: 1},
		"a": {harness.OutcomePass: 1, harness.OutcomeFail: 1},
		"c": {harness.OutcomePass: 3},
		"d": {harness.OutcomeError: 3},
	})
	assert.Equal(t, []string{"a", "b"}, flaky)
	assert.Equal(t, []string{"d"}, failing)
}

func TestPidTracker_IgnoresDriversWithoutPID(t *testing.T) {
	tracker := &pidTracker{}
	acquire := tracker.wrap(testutil.NewFakePage("").Acquire())
	_, err := acquire(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tracker.sweep())
}

func TestRunSoak_NeedsALimit(t *testing.T) {
	opts := &SoakOptions{RootOptions: testRoot(t)}
	err := runSoak(context.Background(), opts, io.Discard)
	assert.Equal(t, ExitCommandError, ExitCode(err))
}

func TestRunSoak_WithFixture(t *testing.T) {
	opts := &SoakOptions{
		RootOptions: testRoot(t),
		Rounds:      2,
		Fixture:     true,
		Only:        []string{"page-title"},
		acquire:     testutil.NewFakePage(latynkatar.Title).Acquire(),
	}
	require.NoError(t, runSoak(context.Background(), opts, io.Discard))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", formatDuration(0))
	assert.Equal(t, "01:02:03", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}
