package latynkatar

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
)

//go:embed scenarios.yaml
var defaultCatalog []byte

type catalogFile struct {
	Sample    string         `yaml:"sample"`
	Scenarios []scenarioSpec `yaml:"scenarios"`
}

type scenarioSpec struct {
	Name    string       `yaml:"name"`
	Tags    []string     `yaml:"tags"`
	Toggles *Toggles     `yaml:"toggles"`
	Steps   []stepSpec   `yaml:"steps"`
	Expect  []expectSpec `yaml:"expect"`
}

// stepSpec holds exactly one action.
type stepSpec struct {
	Type    string `yaml:"type"`
	Text    string `yaml:"text"`
	Click   string `yaml:"click"`
	Press   string `yaml:"press"`
	Check   string `yaml:"check"`
	Uncheck string `yaml:"uncheck"`
	Settle  string `yaml:"settle"`
}

type expectSpec struct {
	Control          string  `yaml:"control"`
	Value            *string `yaml:"value"`
	Checked          *bool   `yaml:"checked"`
	Clipboard        *string `yaml:"clipboard"`
	ClipboardMatches string  `yaml:"clipboard_matches"`
	Title            *string `yaml:"title"`
}

// Catalog is an ordered, name-indexed set of compiled scenarios.
type Catalog struct {
	sample    string
	scenarios []harness.Scenario
	index     map[string]int
}

// Default compiles the built-in scenario catalog for p.
func Default(p Page) (*Catalog, error) {
	return Parse(defaultCatalog, p)
}

// Load compiles the scenario file at path for p.
func Load(path string, p Page) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data, p)
}

// Parse compiles a YAML scenario catalog. Unknown fields, unknown controls
// and duplicate names are errors.
func Parse(data []byte, p Page) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{sample: f.Sample, index: make(map[string]int, len(f.Scenarios))}
	for _, spec := range f.Scenarios {
		if _, dup := c.index[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", spec.Name)
		}
		sc, err := spec.compile(p)
		if err != nil {
			return nil, err
		}
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		c.index[sc.Name] = len(c.scenarios)
		c.scenarios = append(c.scenarios, sc)
	}
	if len(c.scenarios) == 0 {
		return nil, errors.New("catalog has no scenarios")
	}
	return c, nil
}

func (s scenarioSpec) compile(p Page) (harness.Scenario, error) {
	sc := harness.Scenario{Name: s.Name, Tags: slices.Clone(s.Tags)}
	if s.Toggles != nil {
		sc.Actions = append(sc.Actions, s.Toggles.Actions(p)...)
	}
	for i, st := range s.Steps {
		a, err := st.compile(p)
		if err != nil {
			return harness.Scenario{}, fmt.Errorf("scenario %s: step %d: %w", s.Name, i, err)
		}
		sc.Actions = append(sc.Actions, a)
	}
	if s.Toggles != nil {
		sc.Expect = append(sc.Expect, s.Toggles.Expectations(p)...)
	}
	for i, ex := range s.Expect {
		e, err := ex.compile(p)
		if err != nil {
			return harness.Scenario{}, fmt.Errorf("scenario %s: expectation %d: %w", s.Name, i, err)
		}
		sc.Expect = append(sc.Expect, e)
	}
	return sc, nil
}

func control(p Page, name string) (harness.Selector, error) {
	sel, ok := p.Control(name)
	if !ok {
		return harness.Selector{}, fmt.Errorf("unknown control %q", name)
	}
	return sel, nil
}

func (st stepSpec) compile(p Page) (harness.Action, error) {
	set := 0
	for _, v := range []string{st.Type, st.Click, st.Press, st.Check, st.Uncheck, st.Settle} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return harness.Action{}, errors.New("step must name exactly one action")
	}

	switch {
	case st.Press != "":
		if ch, ok := Hotkey(st.Press); ok {
			return harness.Press(ch), nil
		}
		ch, err := harness.ParseChord(st.Press)
		if err != nil {
			return harness.Action{}, err
		}
		return harness.Press(ch), nil
	case st.Type != "":
		sel, err := control(p, st.Type)
		return harness.TypeInto(sel, st.Text), err
	case st.Click != "":
		sel, err := control(p, st.Click)
		return harness.ClickOn(sel), err
	case st.Check != "":
		sel, err := control(p, st.Check)
		return harness.Check(sel, true), err
	case st.Uncheck != "":
		sel, err := control(p, st.Uncheck)
		return harness.Check(sel, false), err
	default:
		sel, err := control(p, st.Settle)
		return harness.Settle(sel), err
	}
}

func (ex expectSpec) compile(p Page) (harness.Expectation, error) {
	switch {
	case ex.Title != nil:
		return harness.TitleEquals(*ex.Title), nil
	case ex.Clipboard != nil:
		return harness.ClipboardEquals(*ex.Clipboard), nil
	case ex.ClipboardMatches != "":
		sel, err := control(p, ex.ClipboardMatches)
		return harness.ClipboardMatchesValue(sel), err
	case ex.Value != nil:
		sel, err := control(p, ex.Control)
		return harness.ValueEquals(sel, *ex.Value), err
	case ex.Checked != nil:
		sel, err := control(p, ex.Control)
		return harness.CheckedEquals(sel, *ex.Checked), err
	default:
		return harness.Expectation{}, errors.New("expectation compares nothing")
	}
}

// Sample returns the catalog's sample input text.
func (c *Catalog) Sample() string {
	return c.sample
}

// Len returns the number of scenarios.
func (c *Catalog) Len() int {
	return len(c.scenarios)
}

// Names returns scenario names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.scenarios))
	for i, sc := range c.scenarios {
		names[i] = sc.Name
	}
	return names
}

// Scenarios returns every scenario in catalog order.
func (c *Catalog) Scenarios() []harness.Scenario {
	return slices.Clone(c.scenarios)
}

// Lookup returns the scenario called name.
func (c *Catalog) Lookup(name string) (harness.Scenario, bool) {
	i, ok := c.index[name]
	if !ok {
		return harness.Scenario{}, false
	}
	return c.scenarios[i], true
}

// Select returns the named scenarios in the given order, or every scenario
// when names is empty.
func (c *Catalog) Select(names ...string) ([]harness.Scenario, error) {
	if len(names) == 0 {
		return c.Scenarios(), nil
	}
	out := make([]harness.Scenario, 0, len(names))
	for _, n := range names {
		sc, ok := c.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", n)
		}
		out = append(out, sc)
	}
	return out, nil
}
