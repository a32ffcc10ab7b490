package harness

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Outcome is the reported end of a scenario.
type Outcome string

const (
	OutcomePass  Outcome = "pass"
	OutcomeFail  Outcome = "fail"  // assertion mismatch
	OutcomeError Outcome = "error" // launch, resolution, stabilization or internal fault
)

// Result records how one scenario run ended.
type Result struct {
	Scenario   string            `json:"scenario"`
	Outcome    Outcome           `json:"outcome"`
	Kind       string            `json:"kind,omitempty"`
	State      State             `json:"state"` // Last state reached before teardown
	TornDown   bool              `json:"torn_down"`
	Message    string            `json:"message,omitempty"`
	Selector   string            `json:"selector,omitempty"`
	Expected   string            `json:"expected,omitempty"`
	Actual     string            `json:"actual,omitempty"`
	Observed   map[string]string `json:"observed,omitempty"`
	Screenshot string            `json:"screenshot,omitempty"`
	DurationMS int64             `json:"duration_ms"`

	Duration time.Duration `json:"-"`
	Err      error         `json:"-"`
}

// FinalState returns StateTornDown once teardown ran, otherwise the last
// state reached.
func (r Result) FinalState() State {
	if r.TornDown {
		return StateTornDown
	}
	return r.State
}

// Passed reports whether the scenario passed.
func (r Result) Passed() bool {
	return r.Outcome == OutcomePass
}

func (r *Result) finish(err error, d time.Duration) {
	r.Duration = d
	r.DurationMS = d.Milliseconds()
	r.Err = err
	if err == nil {
		r.Outcome = OutcomePass
		return
	}
	primary := primaryError(err)
	kind := KindOf(primary)
	r.Kind = kind.String()
	r.Outcome = OutcomeError
	if kind == KindAssertion {
		r.Outcome = OutcomeFail
	}
	r.Message = err.Error()
	var he *Error
	if errors.As(primary, &he) {
		r.Selector, r.Expected, r.Actual = he.Selector, he.Expected, he.Actual
	}
}

func panicError(p any) error {
	return &Error{Kind: KindInternal, Op: "panic", Err: fmt.Errorf("%v", p)}
}

// primaryError picks the error that decides the outcome: the first
// non-assertion fault if there is one, otherwise the first mismatch.
func primaryError(err error) error {
	errs := multierr.Errors(err)
	for _, e := range errs {
		if KindOf(e) != KindAssertion {
			return e
		}
	}
	return errs[0]
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithStabilizer sets the synchronization policy used before assertions.
func WithStabilizer(s *Stabilizer) RunnerOption {
	return func(r *Runner) error {
		if s == nil {
			return errors.New("stabilizer must not be nil")
		}
		r.stabilizer = s
		return nil
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) error {
		if l == nil {
			return errors.New("logger must not be nil")
		}
		r.logger = l
		return nil
	}
}

// WithClipboardGuard replaces the lock that serializes clipboard scenarios.
// Default: SharedClipboardGuard().
func WithClipboardGuard(l sync.Locker) RunnerOption {
	return func(r *Runner) error {
		if l == nil {
			return errors.New("clipboard guard must not be nil")
		}
		r.guard = l
		return nil
	}
}

// WithScreenshotDir captures a screenshot of every non-passing scenario
// into dir before teardown.
func WithScreenshotDir(dir string) RunnerOption {
	return func(r *Runner) error {
		r.screenshotDir = dir
		return nil
	}
}

// WithScenarioTimeout bounds a whole scenario run, teardown excluded.
func WithScenarioTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) error {
		if d < 0 {
			return errors.New("scenario timeout must not be negative")
		}
		r.timeout = d
		return nil
	}
}

// Runner executes scenarios, each in its own session.
type Runner struct {
	acquire       AcquireFunc
	stabilizer    *Stabilizer
	logger        *zap.Logger
	guard         sync.Locker
	screenshotDir string
	timeout       time.Duration
}

// NewRunner builds a Runner that acquires one session per scenario.
func NewRunner(acquire AcquireFunc, opts ...RunnerOption) (*Runner, error) {
	if acquire == nil {
		return nil, errors.New("acquire func must not be nil")
	}
	stab, err := NewStabilizer(DefaultStabilizePolicy())
	if err != nil {
		return nil, err
	}
	r := &Runner{
		acquire:    acquire,
		stabilizer: stab,
		logger:     zap.NewNop(),
		guard:      SharedClipboardGuard(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run executes sc and always returns a Result. The session is released
// on every path, panics included.
func (r *Runner) Run(ctx context.Context, sc Scenario) (res Result) {
	start := time.Now()
	res = Result{Scenario: sc.Name, State: StateInit}
	log := r.logger.With(zap.String("scenario", sc.Name))

	var err error
	defer func() {
		// Panics after acquire are recovered by execute's teardown.
		if p := recover(); p != nil {
			err = multierr.Append(err, panicError(p))
		}
		res.finish(err, time.Since(start))
		log.Info("Scenario finished.",
			zap.String("outcome", string(res.Outcome)),
			zap.String("kind", res.Kind),
			zap.Stringer("state", res.State),
			zap.Stringer("final_state", res.FinalState()),
			zap.Duration("duration", res.Duration),
			zap.Error(res.Err))
	}()

	err = r.execute(ctx, sc, &res, log)
	return res
}

func (r *Runner) execute(ctx context.Context, sc Scenario, res *Result, log *zap.Logger) (err error) {
	if err := sc.Validate(); err != nil {
		return &Error{Kind: KindInternal, Op: "validate", Err: err}
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if sc.UsesClipboard() {
		r.guard.Lock()
		defer r.guard.Unlock()
	}

	d, err := r.acquire(ctx)
	if err != nil {
		res.TornDown = true
		var he *Error
		if errors.As(err, &he) {
			return err
		}
		return &Error{Kind: KindLaunch, Op: "acquire", Err: err}
	}
	res.State = StateNavigated
	log.Debug("Session ready.", zap.Stringer("state", res.State))

	defer func() {
		if p := recover(); p != nil {
			err = multierr.Append(err, panicError(p))
		}
		if err != nil {
			res.Screenshot = r.screenshot(d, sc.Name, log)
		}
		if rerr := d.Release(); rerr != nil {
			err = multierr.Append(err, internalError("release", "", rerr))
		}
		res.TornDown = true
		log.Debug("Session torn down.", zap.Stringer("state", res.FinalState()))
	}()

	controls := make(map[Selector]Control)
	for _, sel := range sc.Selectors() {
		c, err := d.Find(ctx, sel)
		if err != nil {
			return err
		}
		controls[sel] = c
	}
	res.State = StateControlsResolved

	for _, a := range sc.Actions {
		log.Debug("Applying action.", zap.Stringer("action", a))
		if err := r.apply(ctx, d, controls, a); err != nil {
			return err
		}
	}
	res.State = StateActionsApplied

	if len(sc.Actions) > 0 {
		for _, e := range sc.Expect {
			if e.Kind == ExpectClipboardMatchesValue {
				sel := e.Target
				if _, err := r.stabilizer.Stabilize(ctx, sel.String(), func(ctx context.Context) (string, error) {
					return readValue(ctx, d, sel)
				}); err != nil {
					return err
				}
			}
			if _, err := r.stabilizer.Stabilize(ctx, e.key(), e.sample(d)); err != nil {
				return err
			}
		}
	}
	res.State = StateStable

	res.Observed = make(map[string]string, len(sc.Expect))
	var mismatches error
	for _, e := range sc.Expect {
		actual, err := e.assert(ctx, d)
		if err != nil && !IsKind(err, KindAssertion) {
			return err
		}
		res.Observed[e.key()] = actual
		mismatches = multierr.Append(mismatches, err)
	}
	res.State = StateAsserted
	return mismatches
}

func (r *Runner) apply(ctx context.Context, d Driver, controls map[Selector]Control, a Action) error {
	switch a.Op {
	case OpType:
		return d.TypeText(ctx, controls[a.Target], a.Text)
	case OpClick:
		return d.Click(ctx, controls[a.Target])
	case OpSetChecked:
		return d.SetChecked(ctx, controls[a.Target], a.Checked)
	case OpChord:
		return d.Chord(ctx, a.Chord)
	case OpSettle:
		_, err := r.stabilizer.Stabilize(ctx, a.Target.String(), func(ctx context.Context) (string, error) {
			return readValue(ctx, d, a.Target)
		})
		return err
	default:
		return &Error{Kind: KindInternal, Op: a.Op.String(), Err: errors.New("unknown action")}
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (r *Runner) screenshot(d Driver, name string, log *zap.Logger) string {
	if r.screenshotDir == "" {
		return ""
	}
	shooter, ok := d.(Screenshotter)
	if !ok {
		return ""
	}
	path := filepath.Join(r.screenshotDir, fmt.Sprintf("%s_%d.png", unsafeFileChars.ReplaceAllString(name, "_"), time.Now().Unix()))
	if err := shooter.Screenshot(path); err != nil {
		log.Warn("Failed to capture screenshot.", zap.Error(err))
		return ""
	}
	return path
}
