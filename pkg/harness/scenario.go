package harness

import (
	"fmt"
	"slices"
)

// State is a scenario's position in its lifecycle.
type State int

const (
	StateInit State = iota
	StateNavigated
	StateControlsResolved
	StateActionsApplied
	StateStable
	StateAsserted
	StateTornDown
)

var stateNames = [...]string{
	StateInit:             "INIT",
	StateNavigated:        "NAVIGATED",
	StateControlsResolved: "CONTROLS_RESOLVED",
	StateActionsApplied:   "ACTIONS_APPLIED",
	StateStable:           "STABLE",
	StateAsserted:         "ASSERTED",
	StateTornDown:         "TORN_DOWN",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ActionOp is the kind of user action.
type ActionOp int

const (
	OpType ActionOp = iota + 1
	OpClick
	OpChord
	OpSetChecked
	OpSettle
)

func (op ActionOp) String() string {
	switch op {
	case OpType:
		return "type"
	case OpClick:
		return "click"
	case OpChord:
		return "chord"
	case OpSetChecked:
		return "set-checked"
	case OpSettle:
		return "settle"
	default:
		return "unknown"
	}
}

// Action is one user-equivalent step.
type Action struct {
	Op      ActionOp
	Target  Selector // unused for OpChord
	Text    string   // OpType
	Chord   Chord    // OpChord
	Checked bool     // OpSetChecked
}

// TypeInto types text into the control at sel.
func TypeInto(sel Selector, text string) Action {
	return Action{Op: OpType, Target: sel, Text: text}
}

// ClickOn clicks the control at sel.
func ClickOn(sel Selector) Action {
	return Action{Op: OpClick, Target: sel}
}

// Press plays a key chord on the page.
func Press(ch Chord) Action {
	return Action{Op: OpChord, Chord: ch}
}

// Check makes the checkbox or radio at sel checked (or unchecked),
// clicking only if needed.
func Check(sel Selector, checked bool) Action {
	return Action{Op: OpSetChecked, Target: sel, Checked: checked}
}

// Settle waits for the value of the control at sel to stop changing
// before the next action runs.
func Settle(sel Selector) Action {
	return Action{Op: OpSettle, Target: sel}
}

func (a Action) String() string {
	switch a.Op {
	case OpType:
		return fmt.Sprintf("type %q into %s", a.Text, a.Target)
	case OpChord:
		return "press " + a.Chord.String()
	case OpSetChecked:
		return fmt.Sprintf("set %s checked=%t", a.Target, a.Checked)
	default:
		return a.Op.String() + " " + a.Target.String()
	}
}

// ExpectKind is what an Expectation compares.
type ExpectKind int

const (
	ExpectValue ExpectKind = iota + 1
	ExpectChecked
	ExpectClipboard
	ExpectClipboardMatchesValue
	ExpectTitle
)

// Expectation compares one observed value against a literal.
type Expectation struct {
	Kind    ExpectKind
	Target  Selector
	Want    string
	Checked bool
}

// ValueEquals expects the value property of the control at sel to be want.
func ValueEquals(sel Selector, want string) Expectation {
	return Expectation{Kind: ExpectValue, Target: sel, Want: want}
}

// CheckedEquals expects the checked property of the control at sel.
func CheckedEquals(sel Selector, checked bool) Expectation {
	return Expectation{Kind: ExpectChecked, Target: sel, Checked: checked}
}

// ClipboardEquals expects the clipboard to hold want.
func ClipboardEquals(want string) Expectation {
	return Expectation{Kind: ExpectClipboard, Want: want}
}

// ClipboardMatchesValue expects the clipboard to equal the value displayed
// in the control at sel, byte for byte.
func ClipboardMatchesValue(sel Selector) Expectation {
	return Expectation{Kind: ExpectClipboardMatchesValue, Target: sel}
}

// TitleEquals expects document.title to be want.
func TitleEquals(want string) Expectation {
	return Expectation{Kind: ExpectTitle, Want: want}
}

func (e Expectation) String() string {
	switch e.Kind {
	case ExpectValue:
		return fmt.Sprintf("%s == %q", e.Target, e.Want)
	case ExpectChecked:
		return fmt.Sprintf("%s checked == %t", e.Target, e.Checked)
	case ExpectClipboard:
		return fmt.Sprintf("clipboard == %q", e.Want)
	case ExpectClipboardMatchesValue:
		return "clipboard == value of " + e.Target.String()
	case ExpectTitle:
		return fmt.Sprintf("title == %q", e.Want)
	default:
		return fmt.Sprintf("unknown expectation %d", int(e.Kind))
	}
}

// key names the observed value in Result.Observed.
func (e Expectation) key() string {
	switch e.Kind {
	case ExpectClipboard, ExpectClipboardMatchesValue:
		return "clipboard"
	case ExpectTitle:
		return "title"
	case ExpectChecked:
		return e.Target.String() + ":checked"
	default:
		return e.Target.String()
	}
}

// Tags understood by the runner.
const (
	// TagClipboard serializes the scenario with every other clipboard user.
	TagClipboard = "clipboard"
)

// Scenario is an immutable description of one independent check.
type Scenario struct {
	Name    string
	Tags    []string
	Actions []Action
	Expect  []Expectation
}

// HasTag reports whether the scenario carries tag.
func (sc Scenario) HasTag(tag string) bool {
	return slices.Contains(sc.Tags, tag)
}

// UsesClipboard reports whether the scenario touches the shared clipboard.
func (sc Scenario) UsesClipboard() bool {
	if sc.HasTag(TagClipboard) {
		return true
	}
	for _, e := range sc.Expect {
		if e.Kind == ExpectClipboard || e.Kind == ExpectClipboardMatchesValue {
			return true
		}
	}
	return false
}

// Selectors returns every distinct selector the scenario references, in
// first-use order.
func (sc Scenario) Selectors() []Selector {
	var out []Selector
	add := func(s Selector) {
		if s.IsZero() || slices.Contains(out, s) {
			return
		}
		out = append(out, s)
	}
	for _, a := range sc.Actions {
		add(a.Target)
	}
	for _, e := range sc.Expect {
		add(e.Target)
	}
	return out
}

// Validate checks that the scenario can be run.
func (sc Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(sc.Expect) == 0 {
		return fmt.Errorf("scenario %s: no expectations", sc.Name)
	}
	for i, a := range sc.Actions {
		switch a.Op {
		case OpChord:
			if a.Chord.IsZero() {
				return fmt.Errorf("scenario %s: action %d: empty chord", sc.Name, i)
			}
		case OpType, OpClick, OpSetChecked, OpSettle:
			if a.Target.IsZero() {
				return fmt.Errorf("scenario %s: action %d: %s without target", sc.Name, i, a.Op)
			}
		default:
			return fmt.Errorf("scenario %s: action %d: unknown op", sc.Name, i)
		}
	}
	for i, e := range sc.Expect {
		switch e.Kind {
		case ExpectValue, ExpectChecked, ExpectClipboardMatchesValue:
			if e.Target.IsZero() {
				return fmt.Errorf("scenario %s: expectation %d: missing target", sc.Name, i)
			}
		case ExpectClipboard, ExpectTitle:
		default:
			return fmt.Errorf("scenario %s: expectation %d: unknown kind", sc.Name, i)
		}
	}
	return nil
}
