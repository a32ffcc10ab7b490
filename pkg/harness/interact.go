package harness

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

func zapSelector(sel Selector) zap.Field {
	return zap.Stringer("selector", sel)
}

func rodElement(c Control) (*element, error) {
	el, ok := c.(*element)
	if !ok {
		return nil, &Error{Kind: KindInternal, Op: "control", Selector: c.Selector().String(),
			Err: fmt.Errorf("control %T was not resolved by a browser session", c)}
	}
	return el, nil
}

// TypeText inserts text at the caret of an editable control. The text is
// sent as-is, so Cyrillic and combining marks arrive unchanged.
func (s *Session) TypeText(ctx context.Context, c Control, text string) error {
	el, err := rodElement(c)
	if err != nil {
		return err
	}
	s.logger.Debug("Typing text.", zapSelector(el.sel), zap.Int("runes", len([]rune(text))))
	if err := el.el.Context(ctx).Input(text); err != nil {
		return internalError("type", el.sel.String(), err)
	}
	return nil
}

// Click dispatches a single primary-button click on the control.
func (s *Session) Click(ctx context.Context, c Control) error {
	el, err := rodElement(c)
	if err != nil {
		return err
	}
	s.logger.Debug("Clicking control.", zapSelector(el.sel))
	if err := el.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return internalError("click", el.sel.String(), err)
	}
	return nil
}

// SetChecked clicks a checkbox or radio button only if its checked state
// differs from want.
func (s *Session) SetChecked(ctx context.Context, c Control, want bool) error {
	got, err := c.Checked(ctx)
	if err != nil {
		return err
	}
	if got == want {
		return nil
	}
	return s.Click(ctx, c)
}

// Chord presses every key of ch in order, holds them, and releases them in
// reverse order.
func (s *Session) Chord(ctx context.Context, ch Chord) error {
	if err := ctx.Err(); err != nil {
		return internalError("chord", "", err)
	}
	s.logger.Debug("Pressing chord.", zap.Stringer("chord", ch))
	if err := Dispatch(rodKeyboard{kb: s.page.Keyboard}, ch); err != nil {
		return &Error{Kind: KindInternal, Op: "chord " + ch.String(), Err: err}
	}
	return nil
}

// ReadClipboard returns the clipboard text through the configured backend.
func (s *Session) ReadClipboard(ctx context.Context) (string, error) {
	text, err := s.clipboard.ReadClipboard(ctx)
	if err != nil {
		return "", internalError("clipboard", "", err)
	}
	return text, nil
}

// Title returns document.title.
func (s *Session) Title(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.title`)
	if err != nil {
		return "", internalError("title", "", err)
	}
	return res.Value.Str(), nil
}

// rodKeyboard adapts rod's keyboard to the Keyboard interface.
type rodKeyboard struct {
	kb *rod.Keyboard
}

func (k rodKeyboard) Press(key Key) error {
	ik, err := rodKey(key)
	if err != nil {
		return err
	}
	return k.kb.Press(ik)
}

func (k rodKeyboard) Release(key Key) error {
	ik, err := rodKey(key)
	if err != nil {
		return err
	}
	return k.kb.Release(ik)
}

var rodKeys = map[Key]input.Key{
	KeyControl:   input.ControlLeft,
	KeyShift:     input.ShiftLeft,
	KeyAlt:       input.AltLeft,
	KeyMeta:      input.MetaLeft,
	KeyEnter:     input.Enter,
	KeyDelete:    input.Delete,
	KeyBackspace: input.Backspace,
	KeyTab:       input.Tab,
	KeyEscape:    input.Escape,
	"0":          input.Digit0,
	"1":          input.Digit1,
	"2":          input.Digit2,
	"3":          input.Digit3,
	"4":          input.Digit4,
	"5":          input.Digit5,
	"6":          input.Digit6,
	"7":          input.Digit7,
	"8":          input.Digit8,
	"9":          input.Digit9,
	"a":          input.KeyA,
	"b":          input.KeyB,
	"c":          input.KeyC,
	"d":          input.KeyD,
	"e":          input.KeyE,
	"f":          input.KeyF,
	"g":          input.KeyG,
	"h":          input.KeyH,
	"i":          input.KeyI,
	"j":          input.KeyJ,
	"k":          input.KeyK,
	"l":          input.KeyL,
	"m":          input.KeyM,
	"n":          input.KeyN,
	"o":          input.KeyO,
	"p":          input.KeyP,
	"q":          input.KeyQ,
	"r":          input.KeyR,
	"s":          input.KeyS,
	"t":          input.KeyT,
	"u":          input.KeyU,
	"v":          input.KeyV,
	"w":          input.KeyW,
	"x":          input.KeyX,
	"y":          input.KeyY,
	"z":          input.KeyZ,
}

func rodKey(k Key) (input.Key, error) {
	ik, ok := rodKeys[k]
	if !ok {
		return 0, fmt.Errorf("no key mapping for %q", k)
	}
	return ik, nil
}
