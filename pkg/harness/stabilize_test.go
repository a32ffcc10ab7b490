package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness/internal"
)

// manualStabilizer polls without sleeping: each "sleep" advances the clock
// by the policy interval.
func manualStabilizer(t *testing.T, p StabilizePolicy) (*Stabilizer, *internal.ManualClock) {
	t.Helper()
	clock := internal.NewManualClock(time.Time{})
	s, err := NewStabilizer(p,
		WithClock(clock),
		WithSleeper(func() utils.Sleeper {
			return func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				clock.Advance(p.Interval)
				return nil
			}
		}),
	)
	require.NoError(t, err)
	return s, clock
}

// sequence returns a sample yielding values in order, then repeating the last.
func sequence(values ...string) (Sampler, *int) {
	reads := 0
	return func(context.Context) (string, error) {
		i := reads
		if i >= len(values) {
			i = len(values) - 1
		}
		reads++
		return values[i], nil
	}, &reads
}

var testPolicy = StabilizePolicy{
	Timeout:  time.Second,
	Interval: 50 * time.Millisecond,
	Quiet:    200 * time.Millisecond,
}

func TestStabilize_WaitsForQuietWindow(t *testing.T) {
	s, _ := manualStabilizer(t, testPolicy)
	sample, reads := sequence("", "", "Chi", "Chiba", "Chiba ž")

	v, err := s.Stabilize(context.Background(), "#output", sample)
	require.NoError(t, err)
	assert.Equal(t, "Chiba ž", v)
	// 5 reads to reach the final value, then 4 more intervals of quiet.
	assert.Equal(t, 9, *reads)
}

func TestStabilize_AlreadyStable(t *testing.T) {
	s, clock := manualStabilizer(t, testPolicy)
	start := clock.Now()
	sample, _ := sequence("Łatynkatar")

	v, err := s.Stabilize(context.Background(), "title", sample)
	require.NoError(t, err)
	assert.Equal(t, "Łatynkatar", v)
	assert.Equal(t, testPolicy.Quiet, clock.Now().Sub(start))
}

func TestStabilize_TimeoutIsStabilizationKind(t *testing.T) {
	s, _ := manualStabilizer(t, testPolicy)
	n := 0
	flapping := func(context.Context) (string, error) {
		n++
		if n%2 == 0 {
			return "a", nil
		}
		return "b", nil
	}

	v, err := s.Stabilize(context.Background(), "#output", flapping)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStabilization))
	assert.ErrorIs(t, err, ErrNotStable)
	assert.Contains(t, []string{"a", "b"}, v)

	var he *Error
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "#output", he.Selector)
	assert.Equal(t, v, he.Actual)
}

func TestStabilize_SampleErrorKeepsItsKind(t *testing.T) {
	s, _ := manualStabilizer(t, testPolicy)
	notFound := &Error{Kind: KindResolution, Op: "find", Selector: "#output", Err: ErrNotFound}

	_, err := s.Stabilize(context.Background(), "#output", func(context.Context) (string, error) {
		return "", notFound
	})
	assert.True(t, IsKind(err, KindResolution))

	_, err = s.Stabilize(context.Background(), "clipboard", func(context.Context) (string, error) {
		return "", errors.New("xclip missing")
	})
	assert.True(t, IsKind(err, KindInternal))
}

func TestStabilize_ContextDeadline(t *testing.T) {
	p := StabilizePolicy{Timeout: time.Minute, Interval: 5 * time.Millisecond, Quiet: 30 * time.Second}
	s, err := NewStabilizer(p)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sample, _ := sequence("x")

	_, err = s.Stabilize(ctx, "#output", sample)
	assert.True(t, IsKind(err, KindStabilization))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStabilize_RealClock(t *testing.T) {
	p := StabilizePolicy{Timeout: 2 * time.Second, Interval: 5 * time.Millisecond, Quiet: 30 * time.Millisecond}
	s, err := NewStabilizer(p)
	require.NoError(t, err)
	sample, _ := sequence("", "x", "xy")

	start := time.Now()
	v, err := s.Stabilize(context.Background(), "#output", sample)
	require.NoError(t, err)
	assert.Equal(t, "xy", v)
	assert.GreaterOrEqual(t, time.Since(start), p.Quiet)
}

func TestStabilizePolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultStabilizePolicy().Validate())

	bad := []StabilizePolicy{
		{Timeout: 0, Interval: time.Millisecond},
		{Timeout: time.Second, Interval: 0},
		{Timeout: time.Second, Interval: time.Millisecond, Quiet: -1},
		{Timeout: time.Second, Interval: time.Millisecond, Quiet: time.Second},
	}
	for _, p := range bad {
		_, err := NewStabilizer(p)
		assert.Error(t, err, "%+v", p)
	}
}

func TestNewStabilizer_InvalidOptions(t *testing.T) {
	_, err := NewStabilizer(DefaultStabilizePolicy(), WithClock(nil))
	assert.Error(t, err)
	_, err = NewStabilizer(DefaultStabilizePolicy(), WithSleeper(nil))
	assert.Error(t, err)
}
