// Package testutil provides an in-memory page that satisfies harness.Driver,
// for exercising the runner without a browser.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

// FakeControl is one element of a FakePage.
type FakeControl struct {
	sel     harness.Selector
	page    *FakePage
	value   string
	checked bool

	// pending is shown after lag more reads of Value, imitating an
	// asynchronous DOM update.
	pending *string
	lag     int
	// flapping makes every read return a different value.
	flapping bool
	flips    int
}

func (c *FakeControl) Selector() harness.Selector { return c.sel }

func (c *FakeControl) Value(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	if c.flapping {
		c.flips++
		if c.flips%2 == 0 {
			return c.value + "…", nil
		}
		return c.value, nil
	}
	if c.pending != nil {
		if c.lag > 0 {
			c.lag--
		} else {
			c.value, c.pending = *c.pending, nil
		}
	}
	return c.value, nil
}

func (c *FakeControl) Checked(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	return c.checked, nil
}

// SetLater schedules v to become visible after reads more reads.
func (c *FakeControl) SetLater(v string, reads int) {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	c.pending, c.lag = &v, reads
}

// Set changes the value immediately.
func (c *FakeControl) Set(v string) {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	c.value, c.pending = v, nil
}

// SetChecked changes the checked state immediately.
func (c *FakeControl) SetChecked(v bool) {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	c.checked = v
}

// Flap makes the control's value change on every read.
func (c *FakeControl) Flap() {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	c.flapping = true
}

// FakePage is a scripted page. Handlers run synchronously inside Click and
// Chord with the page unlocked.
type FakePage struct {
	mu sync.Mutex

	TitleText     string
	ClipboardText string
	ReleaseErr    error
	ClipboardErr  error

	controls map[harness.Selector]*FakeControl
	onClick  map[harness.Selector]func(*FakePage)
	onChord  map[string]func(*FakePage)

	events   []harness.KeyEvent
	actions  []string
	released int
}

// NewFakePage returns an empty page titled title.
func NewFakePage(title string) *FakePage {
	return &FakePage{
		TitleText: title,
		controls:  make(map[harness.Selector]*FakeControl),
		onClick:   make(map[harness.Selector]func(*FakePage)),
		onChord:   make(map[string]func(*FakePage)),
	}
}

// Add creates a control resolvable by sel.
func (p *FakePage) Add(sel harness.Selector) *FakeControl {
	c := &FakeControl{sel: sel, page: p}
	p.controls[sel] = c
	return c
}

// Control returns the control at sel, or nil.
func (p *FakePage) Control(sel harness.Selector) *FakeControl {
	return p.controls[sel]
}

// OnClick registers what clicking sel does.
func (p *FakePage) OnClick(sel harness.Selector, fn func(*FakePage)) {
	p.onClick[sel] = fn
}

// OnChord registers what pressing ch does.
func (p *FakePage) OnChord(ch harness.Chord, fn func(*FakePage)) {
	p.onChord[ch.String()] = fn
}

// Acquire returns an AcquireFunc handing out this page.
func (p *FakePage) Acquire() harness.AcquireFunc {
	return func(ctx context.Context) (harness.Driver, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return p, nil
	}
}

func (p *FakePage) Find(ctx context.Context, sel harness.Selector) (harness.Control, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := p.controls[sel]
	if !ok {
		return nil, &harness.Error{Kind: harness.KindResolution, Op: "find", Selector: sel.String(), Err: harness.ErrNotFound}
	}
	return c, nil
}

func (p *FakePage) TypeText(ctx context.Context, c harness.Control, text string) error {
	fc := c.(*FakeControl)
	p.mu.Lock()
	fc.value += text
	p.actions = append(p.actions, "type "+c.Selector().String())
	p.mu.Unlock()
	return nil
}

func (p *FakePage) Click(ctx context.Context, c harness.Control) error {
	p.mu.Lock()
	p.actions = append(p.actions, "click "+c.Selector().String())
	fn := p.onClick[c.Selector()]
	p.mu.Unlock()
	if fn != nil {
		fn(p)
	}
	return nil
}

func (p *FakePage) SetChecked(ctx context.Context, c harness.Control, want bool) error {
	got, err := c.Checked(ctx)
	if err != nil {
		return err
	}
	if got == want {
		return nil
	}
	return p.Click(ctx, c)
}

func (p *FakePage) Chord(ctx context.Context, ch harness.Chord) error {
	if err := harness.Dispatch(fakeKeyboard{p}, ch); err != nil {
		return err
	}
	p.mu.Lock()
	p.actions = append(p.actions, "chord "+ch.String())
	fn := p.onChord[ch.String()]
	p.mu.Unlock()
	if fn != nil {
		fn(p)
	}
	return nil
}

// fakeKeyboard records key strokes on its page.
type fakeKeyboard struct {
	p *FakePage
}

func (k fakeKeyboard) Press(key harness.Key) error {
	k.p.mu.Lock()
	defer k.p.mu.Unlock()
	k.p.events = append(k.p.events, harness.KeyEvent{Key: key, Action: harness.KeyDown})
	return nil
}

func (k fakeKeyboard) Release(key harness.Key) error {
	k.p.mu.Lock()
	defer k.p.mu.Unlock()
	k.p.events = append(k.p.events, harness.KeyEvent{Key: key, Action: harness.KeyUp})
	return nil
}

func (p *FakePage) ReadClipboard(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ClipboardErr != nil {
		return "", p.ClipboardErr
	}
	return p.ClipboardText, nil
}

func (p *FakePage) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.TitleText, nil
}

func (p *FakePage) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
	return p.ReleaseErr
}

// Released returns how many times Release was called.
func (p *FakePage) Released() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// Events returns every key event seen so far.
func (p *FakePage) Events() []harness.KeyEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]harness.KeyEvent(nil), p.events...)
}

// Actions returns a log of the actions applied so far.
func (p *FakePage) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

// FailingAcquire returns an AcquireFunc that always fails with err.
func FailingAcquire(err error) harness.AcquireFunc {
	if err == nil {
		err = errors.New("browser failed to start")
	}
	return func(context.Context) (harness.Driver, error) {
		return nil, err
	}
}
