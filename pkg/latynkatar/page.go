// Package latynkatar describes the Łatynkatar converter page: its controls,
// hotkeys, toggle modes and the catalog of regression scenarios run
// against it.
package latynkatar

import (
	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

// Title is the document title of the converter page.
const Title = "Łatynkatar"

// Default titles of the convert and clear buttons.
const (
	DefaultConvertTitle = "Пераўтварыць"
	DefaultClearTitle   = "Ачысціць"
)

// Hotkeys understood by the page.
var (
	HotkeyClear   = harness.MustChord(harness.KeyControl, harness.KeyDelete)
	HotkeyConvert = harness.MustChord(harness.KeyControl, harness.KeyEnter)
	HotkeyModern  = harness.MustChord(harness.KeyControl, harness.Key("1"))
	HotkeyOld     = harness.MustChord(harness.KeyControl, harness.Key("2"))
)

// Page locates the converter's controls. The buttons carry no id and are
// found by their title attribute, which the deployment may localize.
type Page struct {
	ConvertTitle string
	ClearTitle   string
}

// NewPage returns a Page, substituting the default for an empty title.
func NewPage(convertTitle, clearTitle string) Page {
	if convertTitle == "" {
		convertTitle = DefaultConvertTitle
	}
	if clearTitle == "" {
		clearTitle = DefaultClearTitle
	}
	return Page{ConvertTitle: convertTitle, ClearTitle: clearTitle}
}

func (p Page) Input() harness.Selector          { return harness.ByID("input") }
func (p Page) Output() harness.Selector         { return harness.ByID("output") }
func (p Page) Convert() harness.Selector        { return harness.ByAttr("title", p.ConvertTitle) }
func (p Page) Clear() harness.Selector          { return harness.ByAttr("title", p.ClearTitle) }
func (p Page) Palatalization() harness.Selector { return harness.ByID("palatalization") }
func (p Page) Modern() harness.Selector         { return harness.ByID("type-modern") }
func (p Page) Old() harness.Selector            { return harness.ByID("type-old") }
func (p Page) Copy() harness.Selector           { return harness.ByID("clipboard-copy") }

// Control returns the selector for a control by the name used in scenario
// files: input, output, convert, clear, palatalization, type-modern,
// type-old or clipboard-copy.
func (p Page) Control(name string) (harness.Selector, bool) {
	switch name {
	case "input":
		return p.Input(), true
	case "output":
		return p.Output(), true
	case "convert":
		return p.Convert(), true
	case "clear":
		return p.Clear(), true
	case "palatalization":
		return p.Palatalization(), true
	case "type-modern", "modern":
		return p.Modern(), true
	case "type-old", "old":
		return p.Old(), true
	case "clipboard-copy", "copy":
		return p.Copy(), true
	default:
		return harness.Selector{}, false
	}
}

// Hotkey returns a page hotkey by name: clear, convert, modern or old.
func Hotkey(name string) (harness.Chord, bool) {
	switch name {
	case "clear":
		return HotkeyClear, true
	case "convert":
		return HotkeyConvert, true
	case "modern":
		return HotkeyModern, true
	case "old":
		return HotkeyOld, true
	default:
		return harness.Chord{}, false
	}
}
