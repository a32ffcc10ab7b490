package harness

import "context"

// Control is a resolved, time-bound handle to a page element. It is only
// valid inside the session that resolved it and until the page navigates.
type Control interface {
	Selector() Selector
	Value(ctx context.Context) (string, error)
	Checked(ctx context.Context) (bool, error)
}

// Driver is everything a scenario needs from a live session. *Session is
// the browser-backed implementation; tests substitute a fake page.
type Driver interface {
	Find(ctx context.Context, sel Selector) (Control, error)
	TypeText(ctx context.Context, c Control, text string) error
	Click(ctx context.Context, c Control) error
	SetChecked(ctx context.Context, c Control, want bool) error
	Chord(ctx context.Context, ch Chord) error
	ReadClipboard(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Release() error
}

// Screenshotter is implemented by drivers that can capture the page.
type Screenshotter interface {
	Screenshot(path string) error
}

// AcquireFunc produces a navigated session for one scenario run.
type AcquireFunc func(ctx context.Context) (Driver, error)

// AcquireWith returns an AcquireFunc launching a browser session from cfg.
func AcquireWith(cfg SessionConfig) AcquireFunc {
	return func(ctx context.Context) (Driver, error) {
		s, err := Acquire(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
