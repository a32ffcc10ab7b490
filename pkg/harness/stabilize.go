package harness

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod/lib/utils"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness/internal"
)

// StabilizePolicy bounds the wait between an action and its assertion.
//
// A value is stable once it has read the same for Quiet. Quiet must be
// longer than the page's observed update latency, otherwise a value that
// has not started changing yet looks settled.
type StabilizePolicy struct {
	Timeout  time.Duration // Give up after this long (default: 10s)
	Interval time.Duration // Delay between reads (default: 50ms)
	Quiet    time.Duration // Unchanged for this long counts as stable (default: 400ms)
}

// DefaultStabilizePolicy returns the policy used when nothing is configured.
func DefaultStabilizePolicy() StabilizePolicy {
	return StabilizePolicy{
		Timeout:  10 * time.Second,
		Interval: 50 * time.Millisecond,
		Quiet:    400 * time.Millisecond,
	}
}

// Validate rejects policies that can never succeed.
func (p StabilizePolicy) Validate() error {
	switch {
	case p.Timeout <= 0:
		return errors.New("stabilize timeout must be positive")
	case p.Interval <= 0:
		return errors.New("stabilize interval must be positive")
	case p.Quiet < 0:
		return errors.New("stabilize quiet window must not be negative")
	case p.Quiet >= p.Timeout:
		return errors.New("stabilize quiet window must be shorter than the timeout")
	}
	return nil
}

// Sampler reads the current value of something on the page.
type Sampler func(ctx context.Context) (string, error)

// StabilizerOption configures a Stabilizer.
type StabilizerOption func(*Stabilizer) error

// WithClock replaces the clock used to measure the quiet window and timeout.
func WithClock(c internal.Clock) StabilizerOption {
	return func(s *Stabilizer) error {
		if c == nil {
			return errors.New("clock must not be nil")
		}
		s.clock = c
		return nil
	}
}

// WithSleeper replaces the sleeper factory. One sleeper is created per
// Stabilize call.
func WithSleeper(fn func() utils.Sleeper) StabilizerOption {
	return func(s *Stabilizer) error {
		if fn == nil {
			return errors.New("sleeper factory must not be nil")
		}
		s.newSleeper = fn
		return nil
	}
}

// Stabilizer waits for sampled values to settle.
type Stabilizer struct {
	policy     StabilizePolicy
	clock      internal.Clock
	newSleeper func() utils.Sleeper
}

// NewStabilizer validates p and builds a Stabilizer polling at p.Interval.
func NewStabilizer(p StabilizePolicy, opts ...StabilizerOption) (*Stabilizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Stabilizer{
		policy: p,
		clock:  internal.SystemClock{},
		newSleeper: func() utils.Sleeper {
			return utils.BackoffSleeper(p.Interval, p.Interval, func(d time.Duration) time.Duration { return d })
		},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Policy returns the policy s was built with.
func (s *Stabilizer) Policy() StabilizePolicy {
	return s.policy
}

// Stabilize reads sample until it returns the same value for the quiet
// window and returns that value. If the timeout elapses first the error is
// KindStabilization and carries the last value read. Sampler errors are
// returned as they are (a resolution error stays a resolution error).
func (s *Stabilizer) Stabilize(ctx context.Context, what string, sample Sampler) (string, error) {
	sleep := s.newSleeper()
	start := s.clock.Now()

	var (
		last  string
		seen  bool
		since time.Time
	)
	for {
		v, err := sample(ctx)
		if err != nil {
			return last, internalError("stabilize", what, err)
		}
		now := s.clock.Now()
		switch {
		case !seen || v != last:
			last, seen, since = v, true, now
		case now.Sub(since) >= s.policy.Quiet:
			return v, nil
		}
		if now.Sub(start) >= s.policy.Timeout {
			return last, &Error{Kind: KindStabilization, Op: "stabilize", Selector: what, Actual: last, Err: ErrNotStable}
		}
		if err := sleep(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return last, &Error{Kind: KindStabilization, Op: "stabilize", Selector: what, Actual: last, Err: err}
			}
			return last, internalError("stabilize", what, err)
		}
	}
}
