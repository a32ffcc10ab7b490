package harness

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-rod/rod"
)

type selectorKind int

const (
	selectorID selectorKind = iota + 1
	selectorAttr
	selectorCSS
	selectorXPath
)

// Selector is a stable, semantic reference to a page control.
// The zero value is invalid.
type Selector struct {
	kind  selectorKind
	name  string // id, attribute name, CSS or XPath expression
	value string // attribute value
}

// ByID selects the element whose id is id.
func ByID(id string) Selector {
	return Selector{kind: selectorID, name: id}
}

// ByAttr selects the element whose attribute attr equals value exactly,
// e.g. ByAttr("title", "Clear").
func ByAttr(attr, value string) Selector {
	return Selector{kind: selectorAttr, name: attr, value: value}
}

// ByCSS selects by a structural CSS selector.
func ByCSS(css string) Selector {
	return Selector{kind: selectorCSS, name: css}
}

// ByXPath selects by an XPath expression.
func ByXPath(xpath string) Selector {
	return Selector{kind: selectorXPath, name: xpath}
}

// IsZero reports whether s was never set.
func (s Selector) IsZero() bool {
	return s.kind == 0
}

var cssIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// CSS returns the selector as CSS. ok is false for XPath selectors.
func (s Selector) CSS() (css string, ok bool) {
	switch s.kind {
	case selectorID:
		if cssIdent.MatchString(s.name) {
			return "#" + s.name, true
		}
		return "[id=" + cssQuote(s.name) + "]", true
	case selectorAttr:
		return "[" + s.name + "=" + cssQuote(s.value) + "]", true
	case selectorCSS:
		return s.name, true
	default:
		return "", false
	}
}

// String is the form used in logs, reports and error messages.
func (s Selector) String() string {
	switch s.kind {
	case selectorXPath:
		return "xpath=" + s.name
	case 0:
		return "<none>"
	default:
		css, _ := s.CSS()
		return css
	}
}

var cssEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)

func cssQuote(v string) string {
	return `"` + cssEscaper.Replace(v) + `"`
}

// Find resolves sel in the session's page. It blocks until a matching
// element exists or the implicit wait elapses, whichever comes first.
func (s *Session) Find(ctx context.Context, sel Selector) (Control, error) {
	if sel.IsZero() {
		return nil, &Error{Kind: KindInternal, Op: "find", Err: errors.New("empty selector")}
	}
	page := s.page.Context(ctx).Timeout(s.implicitWait)
	defer page.CancelTimeout()

	var (
		el  *rod.Element
		err error
	)
	if css, ok := sel.CSS(); ok {
		el, err = page.Element(css)
	} else {
		el, err = page.ElementX(sel.name)
	}
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Kind: KindResolution, Op: "find", Selector: sel.String(), Err: ErrNotFound}
		}
		return nil, internalError("find", sel.String(), err)
	}
	s.logger.Debug("Resolved control.", zapSelector(sel))
	return &element{sel: sel, el: el.Context(ctx)}, nil
}

// element is the rod-backed Control.
type element struct {
	sel Selector
	el  *rod.Element
}

func (e *element) Selector() Selector { return e.sel }

func (e *element) Value(ctx context.Context) (string, error) {
	v, err := e.el.Context(ctx).Property("value")
	if err != nil {
		return "", internalError("read value", e.sel.String(), err)
	}
	return v.Str(), nil
}

func (e *element) Checked(ctx context.Context) (bool, error) {
	v, err := e.el.Context(ctx).Property("checked")
	if err != nil {
		return false, internalError("read checked", e.sel.String(), err)
	}
	return v.Bool(), nil
}
