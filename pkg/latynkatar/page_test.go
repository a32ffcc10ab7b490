package latynkatar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

func TestNewPage_Defaults(t *testing.T) {
	p := NewPage("", "")
	assert.Equal(t, harness.ByAttr("title", DefaultConvertTitle), p.Convert())
	assert.Equal(t, harness.ByAttr("title", DefaultClearTitle), p.Clear())

	p = NewPage("Convert", "Clear")
	assert.Equal(t, `[title="Convert"]`, p.Convert().String())
	assert.Equal(t, `[title="Clear"]`, p.Clear().String())
}

func TestPage_Control(t *testing.T) {
	p := NewPage("", "")
	for name, want := range map[string]string{
		"input":          "#input",
		"output":         "#output",
		"palatalization": "#palatalization",
		"type-modern":    "#type-modern",
		"old":            "#type-old",
		"clipboard-copy": "#clipboard-copy",
	} {
		sel, ok := p.Control(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, sel.String(), name)
	}
	_, ok := p.Control("submit")
	assert.False(t, ok)
}

func TestHotkeys(t *testing.T) {
	for name, want := range map[string]string{
		"clear":   "Control+Delete",
		"convert": "Control+Enter",
		"modern":  "Control+1",
		"old":     "Control+2",
	} {
		ch, ok := Hotkey(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, ch.String())
	}
	_, ok := Hotkey("copy")
	assert.False(t, ok)
}

func TestToggles(t *testing.T) {
	p := NewPage("", "")
	old := Toggles{Palatalization: false, Graphics: GraphicsOld}

	assert.Equal(t, []harness.Action{
		harness.Check(p.Palatalization(), false),
		harness.Check(p.Old(), true),
	}, old.Actions(p))
	assert.Equal(t, []harness.Expectation{
		harness.CheckedEquals(p.Palatalization(), false),
		harness.CheckedEquals(p.Modern(), false),
		harness.CheckedEquals(p.Old(), true),
	}, old.Expectations(p))
	assert.Equal(t, "palatalization=off graphics=old", old.String())
	assert.Equal(t, Toggles{Palatalization: true, Graphics: GraphicsModern}, DefaultToggles())
}

func TestSampleOutput(t *testing.T) {
	assert.Equal(t, "Chiba ž heta špakoŭnia? Śmiech dy j hodzie!", SampleOutput(DefaultToggles()))
	assert.Equal(t, "Chiba ž heta špakoŭnia? Smiech dy j hodzie!", SampleOutput(Toggles{Graphics: GraphicsModern}))
	assert.Equal(t, "Chiba ż heta szpakoŭnia? Śmiech dy j hodzie!", SampleOutput(Toggles{Palatalization: true, Graphics: GraphicsOld}))
	assert.Equal(t, "Chiba ż heta szpakoŭnia? Smiech dy j hodzie!", SampleOutput(Toggles{Graphics: GraphicsOld}))
}

func TestGraphics_UnmarshalText(t *testing.T) {
	var g Graphics
	assert.NoError(t, g.UnmarshalText([]byte("old")))
	assert.Equal(t, GraphicsOld, g)
	assert.NoError(t, g.UnmarshalText(nil))
	assert.Equal(t, GraphicsModern, g)
	assert.Error(t, g.UnmarshalText([]byte("ancient")))
}
