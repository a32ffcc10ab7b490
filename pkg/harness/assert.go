package harness

import (
	"context"
	"strconv"
)

// sample returns a fresh reader for the value e observes. Controls are
// re-resolved on every read.
func (e Expectation) sample(d Driver) Sampler {
	switch e.Kind {
	case ExpectValue:
		return func(ctx context.Context) (string, error) {
			return readValue(ctx, d, e.Target)
		}
	case ExpectChecked:
		return func(ctx context.Context) (string, error) {
			c, err := d.Find(ctx, e.Target)
			if err != nil {
				return "", err
			}
			checked, err := c.Checked(ctx)
			return strconv.FormatBool(checked), err
		}
	case ExpectClipboard, ExpectClipboardMatchesValue:
		return d.ReadClipboard
	case ExpectTitle:
		return d.Title
	default:
		return func(context.Context) (string, error) {
			return "", &Error{Kind: KindInternal, Op: "sample", Selector: e.Target.String()}
		}
	}
}

func readValue(ctx context.Context, d Driver, sel Selector) (string, error) {
	c, err := d.Find(ctx, sel)
	if err != nil {
		return "", err
	}
	return c.Value(ctx)
}

// assert reads the current value once and compares it with the literal.
// It returns the observed value and a KindAssertion error on mismatch.
func (e Expectation) assert(ctx context.Context, d Driver) (string, error) {
	actual, err := e.sample(d)(ctx)
	if err != nil {
		return "", err
	}

	want := e.Want
	target := e.Target.String()
	switch e.Kind {
	case ExpectChecked:
		want = strconv.FormatBool(e.Checked)
	case ExpectClipboard:
		target = "clipboard"
	case ExpectTitle:
		target = "title"
	case ExpectClipboardMatchesValue:
		want, err = readValue(ctx, d, e.Target)
		if err != nil {
			return actual, err
		}
		target = "clipboard vs " + target
	}

	if actual != want {
		return actual, &Error{
			Kind:     KindAssertion,
			Op:       "assert",
			Selector: target,
			Expected: want,
			Actual:   actual,
			Err:      ErrMismatch,
		}
	}
	return actual, nil
}
