package harness

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Key names a physical key by its DOM key value.
type Key string

// Named keys. Digits and lower-case letters are spelled as themselves,
// e.g. Key("1") or Key("a").
const (
	KeyControl   Key = "Control"
	KeyShift     Key = "Shift"
	KeyAlt       Key = "Alt"
	KeyMeta      Key = "Meta"
	KeyEnter     Key = "Enter"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyTab       Key = "Tab"
	KeyEscape    Key = "Escape"
)

var keyAliases = map[string]Key{
	"ctrl":      KeyControl,
	"control":   KeyControl,
	"shift":     KeyShift,
	"alt":       KeyAlt,
	"meta":      KeyMeta,
	"cmd":       KeyMeta,
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"delete":    KeyDelete,
	"del":       KeyDelete,
	"backspace": KeyBackspace,
	"tab":       KeyTab,
	"escape":    KeyEscape,
	"esc":       KeyEscape,
}

// Valid reports whether k is a key the harness can dispatch.
func (k Key) Valid() bool {
	switch k {
	case KeyControl, KeyShift, KeyAlt, KeyMeta, KeyEnter, KeyDelete, KeyBackspace, KeyTab, KeyEscape:
		return true
	}
	if len(k) != 1 {
		return false
	}
	c := k[0]
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z'
}

// KeyAction is the half of a key stroke.
type KeyAction int

const (
	KeyDown KeyAction = iota
	KeyUp
)

func (a KeyAction) String() string {
	if a == KeyDown {
		return "down"
	}
	return "up"
}

// KeyEvent is one step of a chord.
type KeyEvent struct {
	Key    Key
	Action KeyAction
}

func (e KeyEvent) String() string {
	return string(e.Key) + ":" + e.Action.String()
}

// Chord is an ordered set of keys held together, such as Control+Enter.
// Keys go down in order and come up in reverse order.
type Chord struct {
	keys []Key
}

// NewChord validates keys and builds a chord. Keys must be non-empty,
// known and distinct.
func NewChord(keys ...Key) (Chord, error) {
	if len(keys) == 0 {
		return Chord{}, errors.New("chord needs at least one key")
	}
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if !k.Valid() {
			return Chord{}, fmt.Errorf("unknown key %q", k)
		}
		if seen[k] {
			return Chord{}, fmt.Errorf("key %q repeated in chord", k)
		}
		seen[k] = true
	}
	return Chord{keys: append([]Key(nil), keys...)}, nil
}

// MustChord is NewChord for package-level hotkey tables.
func MustChord(keys ...Key) Chord {
	c, err := NewChord(keys...)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseChord parses "Control+Enter", "ctrl+2" and similar.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(s, "+")
	keys := make([]Key, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Chord{}, fmt.Errorf("invalid chord %q", s)
		}
		if k, ok := keyAliases[strings.ToLower(p)]; ok {
			keys = append(keys, k)
			continue
		}
		keys = append(keys, Key(strings.ToLower(p)))
	}
	return NewChord(keys...)
}

// Keys returns a copy of the chord's keys in press order.
func (c Chord) Keys() []Key {
	return append([]Key(nil), c.keys...)
}

// IsZero reports whether c has no keys.
func (c Chord) IsZero() bool {
	return len(c.keys) == 0
}

func (c Chord) String() string {
	names := make([]string, len(c.keys))
	for i, k := range c.keys {
		names[i] = string(k)
	}
	return strings.Join(names, "+")
}

// Events expands the chord into the exact sequence a keyboard produces:
// every key down in order, then every key up in reverse order.
func (c Chord) Events() []KeyEvent {
	events := make([]KeyEvent, 0, 2*len(c.keys))
	for _, k := range c.keys {
		events = append(events, KeyEvent{Key: k, Action: KeyDown})
	}
	for i := len(c.keys) - 1; i >= 0; i-- {
		events = append(events, KeyEvent{Key: c.keys[i], Action: KeyUp})
	}
	return events
}

// Keyboard receives individual key strokes.
type Keyboard interface {
	Press(k Key) error
	Release(k Key) error
}

// Dispatch plays c on kb. If a press fails, the keys already held are
// still released, in reverse order, so no modifier is left stuck down.
func Dispatch(kb Keyboard, c Chord) (err error) {
	if c.IsZero() {
		return errors.New("empty chord")
	}
	held := make([]Key, 0, len(c.keys))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			if rerr := kb.Release(held[i]); rerr != nil {
				err = multierr.Append(err, fmt.Errorf("failed to release %s: %w", held[i], rerr))
			}
		}
	}()
	for _, k := range c.keys {
		if err := kb.Press(k); err != nil {
			return fmt.Errorf("failed to press %s: %w", k, err)
		}
		held = append(held, k)
	}
	return nil
}
