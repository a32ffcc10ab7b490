package latynkatar

import (
	"fmt"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

// Graphics is the output alphabet variant.
type Graphics string

const (
	GraphicsModern Graphics = "modern"
	GraphicsOld    Graphics = "old"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Graphics) UnmarshalText(b []byte) error {
	switch v := Graphics(b); v {
	case GraphicsModern, GraphicsOld:
		*g = v
		return nil
	case "":
		*g = GraphicsModern
		return nil
	default:
		return fmt.Errorf("unknown graphics variant %q", b)
	}
}

// Toggles is the converter's mode as selected in the UI.
type Toggles struct {
	Palatalization bool     `yaml:"palatalization"`
	Graphics       Graphics `yaml:"graphics"`
}

// DefaultToggles is the state of a freshly loaded page.
func DefaultToggles() Toggles {
	return Toggles{Palatalization: true, Graphics: GraphicsModern}
}

func (t Toggles) String() string {
	pal := "on"
	if !t.Palatalization {
		pal = "off"
	}
	return fmt.Sprintf("palatalization=%s graphics=%s", pal, t.Graphics)
}

func (t Toggles) graphicsSelector(p Page) harness.Selector {
	if t.Graphics == GraphicsOld {
		return p.Old()
	}
	return p.Modern()
}

// Actions selects t in the UI, clicking only controls not already in the
// wanted state.
func (t Toggles) Actions(p Page) []harness.Action {
	return []harness.Action{
		harness.Check(p.Palatalization(), t.Palatalization),
		harness.Check(t.graphicsSelector(p), true),
	}
}

// Expectations assert that the UI shows exactly t.
func (t Toggles) Expectations(p Page) []harness.Expectation {
	return []harness.Expectation{
		harness.CheckedEquals(p.Palatalization(), t.Palatalization),
		harness.CheckedEquals(p.Modern(), t.Graphics != GraphicsOld),
		harness.CheckedEquals(p.Old(), t.Graphics == GraphicsOld),
	}
}

// SampleInput is the Cyrillic sentence the toggle scenarios convert.
const SampleInput = "Хіба ж гэта шпакоўня? Смех ды й годзе!"

// SampleOutput returns the conversion of SampleInput under t.
func SampleOutput(t Toggles) string {
	switch {
	case t.Graphics == GraphicsOld && t.Palatalization:
		return "Chiba ż heta szpakoŭnia? Śmiech dy j hodzie!"
	case t.Graphics == GraphicsOld:
		return "Chiba ż heta szpakoŭnia? Smiech dy j hodzie!"
	case t.Palatalization:
		return "Chiba ž heta špakoŭnia? Śmiech dy j hodzie!"
	default:
		return "Chiba ž heta špakoŭnia? Smiech dy j hodzie!"
	}
}

// AllToggles lists every toggle combination.
func AllToggles() []Toggles {
	return []Toggles{
		{Palatalization: true, Graphics: GraphicsModern},
		{Palatalization: false, Graphics: GraphicsModern},
		{Palatalization: true, Graphics: GraphicsOld},
		{Palatalization: false, Graphics: GraphicsOld},
	}
}
