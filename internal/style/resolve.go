// internal/style/resolve.go
package style

import (
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/dom"
)

// Cascader is the selector-matching engine, consumed as a black box. It
// overlays whatever declarations match n onto s. The zero implementation
// (nil) applies nothing beyond inheritance and attribute styling.
type Cascader interface {
	Cascade(n *html.Node, s *ComputedStyle)
}

// Resolver produces the computed style for a node: inheritance from the
// parent style, the cascade, legacy presentational attributes, the inline
// style attribute, then display solving per CSS 2.1 section 9.7.
type Resolver struct {
	cascade Cascader
	baseURL *url.URL
	log     *zap.Logger
}

// NewResolver builds a resolver. cascade may be nil. baseURL is the
// document URL; it anchors relative background image references and guards
// against self-inclusion.
func NewResolver(cascade Cascader, baseURL *url.URL, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cascade: cascade, baseURL: baseURL, log: log}
}

// InheritFrom carries the inherited properties over from the parent
// computed style; the rest reset to their initial values. It seeds the
// cascade for child elements and serves as the blank reset for boxes
// synthesized without a matching element.
func InheritFrom(parent *ComputedStyle) ComputedStyle {
	s := Blank()
	s.Color = parent.Color
	s.WhiteSpace = parent.WhiteSpace
	s.TextTransform = parent.TextTransform
	s.FontSize = parent.FontSize
	s.CellPadding = parent.CellPadding
	return s
}

// Resolve returns the computed style for element node n under parent.
func (r *Resolver) Resolve(parent *ComputedStyle, n *html.Node) *ComputedStyle {
	s := InheritFrom(parent)

	if r.cascade != nil {
		r.cascade.Cascade(n, &s)
	}

	r.applyAttributes(&s, n)

	if raw, ok := dom.Attr(n, "style"); ok {
		applyDeclarations(&s, raw)
	}

	r.absolveBackground(&s)

	solveDisplay(&s, n.Parent == nil || n.Parent.Type == html.DocumentNode)
	return &s
}

// absolveBackground makes any background image reference absolute and
// drops references to the document itself.
func (r *Resolver) absolveBackground(s *ComputedStyle) {
	if s.BackgroundImage == "" || r.baseURL == nil {
		return
	}
	ref, err := url.Parse(dom.Strip(s.BackgroundImage))
	if err != nil {
		s.BackgroundImage = ""
		return
	}
	abs := r.baseURL.ResolveReference(ref).String()
	if abs == r.baseURL.String() {
		s.BackgroundImage = ""
		return
	}
	s.BackgroundImage = abs
}

// applyAttributes folds non-CSS presentational HTML attributes into the
// computed style. Invalid values are ignored, never an error.
func (r *Resolver) applyAttributes(s *ComputedStyle, n *html.Node) {
	tag := dom.TagName(n)

	// HTML restricts background to body; every browser honours it on
	// arbitrary elements, so be generic.
	if bg, ok := dom.Attr(n, "background"); ok && r.baseURL != nil {
		if ref, err := url.Parse(dom.Strip(bg)); err == nil {
			abs := r.baseURL.ResolveReference(ref).String()
			// resolving to the document itself would recurse forever
			if abs != r.baseURL.String() {
				s.BackgroundImage = abs
			}
		}
	}

	if v, ok := dom.Attr(n, "bgcolor"); ok {
		if c, ok := ParseColor(v); ok {
			s.BackgroundColor = c
		}
	}
	if v, ok := dom.Attr(n, "color"); ok {
		if c, ok := ParseColor(v); ok {
			s.Color = c
		}
	}

	if v, ok := dom.Attr(n, "height"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(dom.Strip(v), "%"), 64); err == nil && f >= 0 && v != "" {
			// percentage heights are underspecified; ignore them
			if !strings.Contains(v, "%") {
				s.Height = Px(f)
			}
		}
	}

	if tag == "input" {
		r.applyInputSize(s, n)
	}

	if tag == "body" {
		if v, ok := dom.Attr(n, "text"); ok {
			if c, ok := ParseColor(v); ok {
				s.Color = c
			}
		}
	}

	if v, ok := dom.Attr(n, "width"); ok {
		trimmed := dom.Strip(v)
		if f, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, "%"), 64); err == nil && f >= 0 && trimmed != "" {
			if strings.Contains(trimmed, "%") {
				s.Width = Percent(f)
			} else {
				s.Width = Px(f)
			}
		}
	}

	if tag == "textarea" {
		if v, ok := dom.Attr(n, "rows"); ok {
			if rows, err := strconv.Atoi(dom.Strip(v)); err == nil && rows > 0 {
				s.Height = Dimension{Kind: DimensionLength, Value: float64(rows), Unit: UnitEm}
			}
		}
		if v, ok := dom.Attr(n, "cols"); ok {
			if cols, err := strconv.Atoi(dom.Strip(v)); err == nil && cols > 0 {
				s.Width = Dimension{Kind: DimensionLength, Value: float64(cols), Unit: UnitEx}
			}
		}
	}

	if tag == "table" {
		if v, ok := dom.Attr(n, "cellspacing"); ok && !strings.Contains(v, "%") {
			if sp, err := strconv.Atoi(dom.Strip(v)); err == nil && sp >= 0 {
				s.BorderSpacing = BorderSpacing{Set: true, Horz: float64(sp), Vert: float64(sp)}
			}
		}
		// cellpadding defaults to 1 when absent
		s.CellPadding = CellPadding{Set: true, Value: 1}
		if v, ok := dom.Attr(n, "cellpadding"); ok && !strings.Contains(v, "%") {
			if pad, err := strconv.Atoi(dom.Strip(v)); err == nil && pad >= 0 {
				s.CellPadding = CellPadding{Set: true, Value: float64(pad)}
			}
		}
	}
}

// applyInputSize maps <input size=...> to a width: character units (ex) for
// text and password, pixels for everything except file inputs.
func (r *Resolver) applyInputSize(s *ComputedStyle, n *html.Node) {
	v, ok := dom.Attr(n, "size")
	if !ok {
		return
	}
	size, err := strconv.Atoi(dom.Strip(v))
	if err != nil || size <= 0 {
		return
	}
	typ, _ := dom.Attr(n, "type")
	typ = strings.ToLower(typ)
	switch typ {
	case "", "text", "password":
		s.Width = Dimension{Kind: DimensionLength, Value: float64(size), Unit: UnitEx}
	case "file":
		// file widgets size themselves
	default:
		s.Width = Px(float64(size))
	}
}

// applyDeclarations parses a style attribute ("prop: value; ...") and applies
// the properties this engine understands. Unknown properties are skipped.
func applyDeclarations(s *ComputedStyle, raw string) {
	for _, decl := range strings.Split(raw, ";") {
		prop, val, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "" {
			continue
		}
		switch prop {
		case "display":
			if d, ok := parseDisplay(val); ok {
				s.Display = d
			}
		case "float":
			if f, ok := parseFloatProp(val); ok {
				s.Float = f
			}
		case "position":
			if p, ok := parsePosition(val); ok {
				s.Position = p
			}
		case "white-space":
			if ws, ok := parseWhiteSpace(val); ok {
				s.WhiteSpace = ws
			}
		case "text-transform":
			if tt, ok := parseTextTransform(val); ok {
				s.TextTransform = tt
			}
		case "width":
			if d, ok := ParseLength(val); ok {
				s.Width = d
			}
		case "height":
			if d, ok := ParseLength(val); ok {
				s.Height = d
			}
		case "color":
			if c, ok := ParseColor(val); ok {
				s.Color = c
			}
		case "background-color":
			if c, ok := ParseColor(val); ok {
				s.BackgroundColor = c
			}
		case "background-image":
			if uri, ok := cutURL(val); ok {
				s.BackgroundImage = uri
			}
		case "overflow":
			switch val {
			case "visible":
				s.Overflow = OverflowVisible
			case "auto":
				s.Overflow = OverflowAuto
			case "hidden":
				s.Overflow = OverflowHidden
			case "scroll":
				s.Overflow = OverflowScroll
			}
		}
	}
}

func cutURL(val string) (string, bool) {
	if !strings.HasPrefix(val, "url(") || !strings.HasSuffix(val, ")") {
		return "", false
	}
	uri := strings.TrimSpace(val[4 : len(val)-1])
	uri = strings.Trim(uri, `"'`)
	if uri == "" {
		return "", false
	}
	return uri, true
}

// solveDisplay computes 'display' from 'display', 'position' and 'float'
// per the table in CSS 2.1 section 9.7.
func solveDisplay(s *ComputedStyle, root bool) {
	switch {
	case s.Display == DisplayNone: // 1.
		return
	case s.Position == PositionAbsolute || s.Position == PositionFixed: // 2.
		s.Float = FloatNone
	case s.Float != FloatNone: // 3.
	case root: // 4.
	default: // 5.
		return
	}

	switch s.Display {
	case DisplayInlineTable:
		s.Display = DisplayTable
	case DisplayListItem, DisplayTable:
		// same as specified
	default:
		s.Display = DisplayBlock
	}
}
