package harness

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why a scenario did not pass.
type Kind int

const (
	// KindInternal is a harness fault: clipboard read failure, CDP error,
	// teardown failure, panic.
	KindInternal Kind = iota
	// KindLaunch means the browser could not be started or the page could
	// not be reached.
	KindLaunch
	// KindResolution means an expected control did not appear within the
	// implicit wait.
	KindResolution
	// KindStabilization means an observed value kept changing past the
	// stabilization timeout.
	KindStabilization
	// KindAssertion means the page settled on a value other than the
	// expected one.
	KindAssertion
)

// String returns the lower-case name used in reports.
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindLaunch:
		return "launch"
	case KindResolution:
		return "resolution"
	case KindStabilization:
		return "stabilization"
	case KindAssertion:
		return "assertion"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{KindInternal, KindLaunch, KindResolution, KindStabilization, KindAssertion} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown failure kind %q", b)
}

var (
	// ErrNotFound is wrapped by resolution errors.
	ErrNotFound = errors.New("element not found")
	// ErrNotStable is wrapped by stabilization timeouts.
	ErrNotStable = errors.New("value did not stabilize")
	// ErrMismatch is wrapped by assertion errors.
	ErrMismatch = errors.New("value mismatch")
)

// Error is the error type produced by every harness operation.
type Error struct {
	Kind     Kind
	Op       string // find, type, click, chord, clipboard, stabilize, assert, ...
	Selector string
	Expected string
	Actual   string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Selector != "" {
		b.WriteString(" ")
		b.WriteString(e.Selector)
	}
	switch e.Kind {
	case KindAssertion:
		fmt.Fprintf(&b, ": expected %q, got %q", e.Expected, e.Actual)
	case KindStabilization:
		fmt.Fprintf(&b, ": last value %q", e.Actual)
	}
	if e.Err != nil && !errors.Is(e.Err, ErrMismatch) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain.
// Errors that did not come from the harness are internal.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a harness error of kind k.
func IsKind(err error, k Kind) bool {
	var he *Error
	return errors.As(err, &he) && he.Kind == k
}

// internalError wraps err as a KindInternal error unless it already is a
// harness error.
func internalError(op, selector string, err error) error {
	if err == nil {
		return nil
	}
	var he *Error
	if errors.As(err, &he) {
		return err
	}
	return &Error{Kind: KindInternal, Op: op, Selector: selector, Err: err}
}
