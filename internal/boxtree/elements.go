// internal/boxtree/elements.go
package boxtree

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/dom"
	"github.com/xkilldash9x/boxtree/internal/forms"
	"github.com/xkilldash9x/boxtree/internal/style"
)

// Placeholder text for rendered form controls.
const (
	textSubmit = "Submit"
	textReset  = "Reset"
	textButton = "Button"
	textNone   = ""
	textMany   = "(Many)"
)

// boxResult is what an element handler hands back: the box for the
// element (nil when the element produces no box), whether the caller
// should still convert the children, and a fatal error if any.
type boxResult struct {
	box             *Box
	convertChildren bool
	err             error
}

type elementHandler func(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult

// elementTable must stay sorted by name; lookupElement binary-searches it.
var elementTable = []struct {
	name    string
	convert elementHandler
}{
	{"a", elementA},
	{"applet", elementApplet},
	{"body", elementBody},
	{"br", elementBR},
	{"button", elementButton},
	{"embed", elementEmbed},
	{"form", elementForm},
	{"frameset", elementFrameset},
	{"iframe", elementIFrame},
	{"img", elementImg},
	{"input", elementInput},
	{"object", elementObject},
	{"select", elementSelect},
	{"textarea", elementTextarea},
}

func lookupElement(name string) (elementHandler, bool) {
	i := sort.Search(len(elementTable), func(i int) bool {
		return elementTable[i].name >= name
	})
	if i < len(elementTable) && elementTable[i].name == name {
		return elementTable[i].convert, true
	}
	return nil, false
}

// joinURL resolves raw against base. A nil base or an unparseable
// reference reports failure rather than a partial URL.
func joinURL(base *url.URL, raw string) (string, bool) {
	if base == nil {
		return "", false
	}
	ref, err := url.Parse(dom.Strip(raw))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// sameAsBase reports whether u names this document itself, which would
// mean infinite inclusion.
func (cv *Converter) sameAsBase(u string) bool {
	return cv.content.BaseURL != nil &&
		strings.EqualFold(u, cv.content.BaseURL.String())
}

func elementA(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	if href, ok := dom.Attr(n, "href"); ok {
		dup, err := cv.pool.DupString(href)
		if err != nil {
			return boxResult{err: err}
		}
		st.href = dup
	}

	// name and id share the same namespace
	id := st.id
	if name, ok := dom.Attr(n, "name"); ok {
		switch {
		case st.id != "" && st.id == name:
			// both specified and they match
			id = st.id
		case st.id == "":
			squashed, err := cv.pool.DupString(dom.SquashWhitespace(name))
			if err != nil {
				return boxResult{err: err}
			}
			id = squashed
		default:
			// both specified but no match
			id = ""
		}
	}

	box, err := cv.pool.NewBox(sty, st.href, st.title, id)
	if err != nil {
		return boxResult{err: err}
	}
	return boxResult{box: box, convertChildren: true}
}

func elementBody(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	cv.content.BackgroundColor = sty.BackgroundColor
	box, err := cv.pool.NewBox(sty, st.href, st.title, st.id)
	if err != nil {
		return boxResult{err: err}
	}
	return boxResult{box: box, convertChildren: true}
}

func elementBR(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	box, err := cv.pool.NewBox(sty, st.href, st.title, st.id)
	if err != nil {
		return boxResult{err: err}
	}
	box.Type = BoxBR
	return boxResult{box: box}
}

func elementImg(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	box, err := cv.pool.NewBox(sty, st.href, st.title, st.id)
	if err != nil {
		return boxResult{err: err}
	}

	if alt, ok := dom.Attr(n, "alt"); ok {
		box.Text, err = cv.pool.DupString(dom.SquashWhitespace(alt))
		if err != nil {
			return boxResult{err: err}
		}
	}

	if err := applyUsemap(cv, box, n); err != nil {
		return boxResult{err: err}
	}

	// img without src renders alt text only
	src, ok := dom.Attr(n, "src")
	if !ok {
		return boxResult{box: box}
	}
	u, ok := joinURL(cv.content.BaseURL, src)
	if !ok || cv.sameAsBase(u) {
		// unincluding ourselves would recurse forever
		return boxResult{box: box}
	}

	if !cv.content.fetchObject(u, box, imageTypes,
		cv.content.AvailableWidth, 1000, false) {
		return boxResult{err: ErrMemory}
	}
	return boxResult{box: box}
}

// applyUsemap attaches the image map name, with any leading '#' removed.
func applyUsemap(cv *Converter, box *Box, n *html.Node) error {
	m, ok := dom.Attr(n, "usemap")
	if !ok {
		return nil
	}
	m = strings.TrimPrefix(m, "#")
	dup, err := cv.pool.DupString(m)
	if err != nil {
		return err
	}
	box.Usemap = dup
	return nil
}

func elementForm(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	box, err := cv.pool.NewBox(sty, st.href, st.title, st.id)
	if err != nil {
		return boxResult{err: err}
	}

	action, ok := dom.Attr(n, "action")
	if !ok {
		// the action attribute is required; no form context opens
		return boxResult{box: box, convertChildren: true}
	}

	method := forms.MethodGet
	if m, ok := dom.Attr(n, "method"); ok && strings.EqualFold(m, "post") {
		method = forms.MethodPostURLEncoded
		if enc, ok := dom.Attr(n, "enctype"); ok &&
			strings.EqualFold(enc, "multipart/form-data") {
			method = forms.MethodPostMultipart
		}
	}

	st.form = forms.New(action, method)
	return boxResult{box: box, convertChildren: true}
}

func elementTextarea(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	// A textarea is an INLINE_BLOCK containing a single INLINE_CONTAINER,
	// which holds the text as runs of INLINE separated by BR. There is
	// at least one INLINE and never two BR in a row; blank lines become
	// empty INLINE boxes.
	box, err := cv.pool.NewBox(sty, "", "", st.id)
	if err != nil {
		return boxResult{err: err}
	}
	box.Type = BoxInlineBlock
	gadget := forms.NewControl(forms.ControlTextarea)
	box.Gadget = gadget
	gadget.Box = box

	if name, ok := dom.Attr(n, "name"); ok {
		gadget.Name, err = cv.pool.DupString(name)
		if err != nil {
			return boxResult{err: err}
		}
	}

	ic, err := cv.pool.NewBox(nil, "", "", "")
	if err != nil {
		return boxResult{err: err}
	}
	ic.Type = BoxInlineContainer
	box.AddChild(ic)

	text := dom.TextContent(n)
	for {
		cut := strings.IndexAny(text, "\r\n")
		line := text
		if cut >= 0 {
			line = text[:cut]
		}

		inline, err := cv.pool.NewBox(sty, "", "", "")
		if err != nil {
			return boxResult{err: err}
		}
		inline.Type = BoxInline
		inline.StyleClone = true
		inline.Text, err = cv.pool.DupString(line)
		if err != nil {
			return boxResult{err: err}
		}
		ic.AddChild(inline)

		if cut < 0 {
			break
		}

		br, err := cv.pool.NewBox(sty, "", "", "")
		if err != nil {
			return boxResult{err: err}
		}
		br.Type = BoxBR
		br.StyleClone = true
		ic.AddChild(br)

		if strings.HasPrefix(text[cut:], "\r\n") {
			text = text[cut+2:]
		} else {
			text = text[cut+1:]
		}
	}

	if st.form != nil {
		st.form.AddControl(gadget)
	}
	return boxResult{box: box}
}

func elementSelect(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	gadget := forms.NewControl(forms.ControlSelect)
	gadget.Select.Multiple = dom.HasAttr(n, "multiple")

	// options are gathered eagerly, one level of optgroup deep
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !dom.IsElement(c) {
			continue
		}
		switch dom.TagName(c) {
		case "option":
			if err := addSelectOption(cv, gadget, c); err != nil {
				return boxResult{err: err}
			}
		case "optgroup":
			for c2 := c.FirstChild; c2 != nil; c2 = c2.NextSibling {
				if dom.IsElement(c2) && dom.TagName(c2) == "option" {
					if err := addSelectOption(cv, gadget, c2); err != nil {
						return boxResult{err: err}
					}
				}
			}
		}
	}

	if len(gadget.Select.Items) == 0 {
		// no options: ignore entire select
		return boxResult{}
	}

	if name, ok := dom.Attr(n, "name"); ok {
		dup, err := cv.pool.DupString(name)
		if err != nil {
			return boxResult{err: err}
		}
		gadget.Name = dup
	}

	box, err := cv.pool.NewBox(sty, "", "", st.id)
	if err != nil {
		return boxResult{err: err}
	}
	box.Type = BoxInlineBlock
	box.Gadget = gadget
	gadget.Box = box

	ic, err := cv.pool.NewBox(nil, "", "", "")
	if err != nil {
		return boxResult{err: err}
	}
	ic.Type = BoxInlineContainer
	inline, err := cv.pool.NewBox(sty, "", "", "")
	if err != nil {
		return boxResult{err: err}
	}
	inline.Type = BoxInline
	inline.StyleClone = true
	ic.AddChild(inline)
	box.AddChild(ic)

	// a single select always has a selection
	if !gadget.Select.Multiple && gadget.Select.NumSelected == 0 {
		first := gadget.Select.Items[0]
		first.Selected = true
		first.InitialSelected = true
		gadget.Select.Current = first
		gadget.Select.NumSelected = 1
	}

	var display string
	switch gadget.Select.NumSelected {
	case 0:
		display = textNone
	case 1:
		display = gadget.Select.Current.Text
	default:
		display = textMany
	}
	inline.Text, err = cv.pool.DupString(display)
	if err != nil {
		return boxResult{err: err}
	}

	if st.form != nil {
		st.form.AddControl(gadget)
	}
	return boxResult{box: box}
}

func addSelectOption(cv *Converter, gadget *forms.Control, n *html.Node) error {
	text, err := cv.pool.DupString(dom.SquashWhitespace(dom.TextContent(n)))
	if err != nil {
		return err
	}
	value := text
	if v, ok := dom.Attr(n, "value"); ok {
		value, err = cv.pool.DupString(v)
		if err != nil {
			return err
		}
	}
	forms.AddOption(gadget, value, text, dom.HasAttr(n, "selected"))
	return nil
}

func elementInput(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	var box *Box
	var gadget *forms.Control
	var err error

	itype, _ := dom.Attr(n, "type")
	switch {
	case strings.EqualFold(itype, "password"):
		box, err = inputTextBox(cv, n, st, sty, true)
		if err != nil {
			return boxResult{err: err}
		}
		gadget = box.Gadget
		gadget.Box = box

	case strings.EqualFold(itype, "file"):
		box, err = cv.pool.NewBox(sty, "", "", st.id)
		if err != nil {
			return boxResult{err: err}
		}
		box.Type = BoxInlineBlock
		gadget = forms.NewControl(forms.ControlFile)
		box.Gadget = gadget
		gadget.Box = box

	case strings.EqualFold(itype, "hidden"):
		// no box for hidden inputs
		gadget = forms.NewControl(forms.ControlHidden)
		if v, ok := dom.Attr(n, "value"); ok {
			gadget.Value, err = cv.pool.DupString(v)
			if err != nil {
				return boxResult{err: err}
			}
		}

	case strings.EqualFold(itype, "checkbox") || strings.EqualFold(itype, "radio"):
		box, err = cv.pool.NewBox(sty, "", "", st.id)
		if err != nil {
			return boxResult{err: err}
		}
		kind := forms.ControlRadio
		if strings.EqualFold(itype, "checkbox") {
			kind = forms.ControlCheckbox
		}
		gadget = forms.NewControl(kind)
		box.Gadget = gadget
		gadget.Box = box
		gadget.Selected = dom.HasAttr(n, "checked")
		if v, ok := dom.Attr(n, "value"); ok {
			gadget.Value, err = cv.pool.DupString(v)
			if err != nil {
				return boxResult{err: err}
			}
		}

	case strings.EqualFold(itype, "submit") || strings.EqualFold(itype, "reset") ||
		strings.EqualFold(itype, "button"):
		res := elementButton(cv, n, st, sty)
		if res.err != nil {
			return res
		}
		box = res.box
		label := ""
		switch {
		case box.Gadget != nil && box.Gadget.Value != "":
			label = box.Gadget.Value
		case strings.EqualFold(itype, "button"):
			if v, ok := dom.Attr(n, "value"); ok {
				label = v
			} else {
				label = textButton
			}
		case strings.EqualFold(itype, "reset"):
			label = textReset
		default:
			label = textSubmit
		}
		if err := buttonLabel(cv, box, sty, label); err != nil {
			return boxResult{err: err}
		}

	case strings.EqualFold(itype, "image"):
		box, err = cv.pool.NewBox(sty, "", "", st.id)
		if err != nil {
			return boxResult{err: err}
		}
		gadget = forms.NewControl(forms.ControlImage)
		box.Gadget = gadget
		gadget.Box = box
		if src, ok := dom.Attr(n, "src"); ok {
			if u, ok := joinURL(cv.content.BaseURL, src); ok && !cv.sameAsBase(u) {
				if !cv.content.fetchObject(u, box, imageTypes,
					cv.content.AvailableWidth, 1000, false) {
					return boxResult{err: ErrMemory}
				}
			}
		}

	default:
		// the default type is "text"
		box, err = inputTextBox(cv, n, st, sty, false)
		if err != nil {
			return boxResult{err: err}
		}
		gadget = box.Gadget
		gadget.Box = box
	}

	if gadget != nil {
		if st.form != nil {
			st.form.AddControl(gadget)
		}
		if name, ok := dom.Attr(n, "name"); ok {
			gadget.Name, err = cv.pool.DupString(name)
			if err != nil {
				return boxResult{err: err}
			}
		}
	}

	return boxResult{box: box}
}

// inputTextBox builds the INLINE_BLOCK for a text or password input,
// with the current value rendered inside it.
func inputTextBox(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle, password bool) (*Box, error) {

	box, err := cv.pool.NewBox(sty, "", "", st.id)
	if err != nil {
		return nil, err
	}
	box.Type = BoxInlineBlock

	kind := forms.ControlTextbox
	if password {
		kind = forms.ControlPassword
	}
	gadget := forms.NewControl(kind)
	box.Gadget = gadget
	gadget.Box = box

	gadget.MaxLength = 100
	if s, ok := dom.Attr(n, "maxlength"); ok {
		if v, err := strconv.Atoi(dom.Strip(s)); err == nil {
			gadget.MaxLength = v
		}
	}

	value, _ := dom.Attr(n, "value")
	gadget.Value, err = cv.pool.DupString(value)
	if err != nil {
		return nil, err
	}
	gadget.InitialValue, err = cv.pool.DupString(gadget.Value)
	if err != nil {
		return nil, err
	}

	ic, err := cv.pool.NewBox(nil, "", "", "")
	if err != nil {
		return nil, err
	}
	ic.Type = BoxInlineContainer
	inline, err := cv.pool.NewBox(sty, "", "", "")
	if err != nil {
		return nil, err
	}
	inline.Type = BoxInline
	inline.StyleClone = true
	if password {
		inline.Text, err = cv.pool.DupString(strings.Repeat("*", len(gadget.Value)))
	} else {
		// hard spaces prevent line wrapping of the value
		inline.Text, err = cv.pool.DupString(dom.SpacesToNBSP(gadget.Value))
	}
	if err != nil {
		return nil, err
	}
	ic.AddChild(inline)
	box.AddChild(ic)

	return box, nil
}

// buttonLabel fills a button-like box with the single inline run holding
// its label text.
func buttonLabel(cv *Converter, box *Box, sty *style.ComputedStyle, label string) error {
	ic, err := cv.pool.NewBox(nil, "", "", "")
	if err != nil {
		return err
	}
	ic.Type = BoxInlineContainer
	inline, err := cv.pool.NewBox(sty, "", "", "")
	if err != nil {
		return err
	}
	inline.Type = BoxInline
	inline.StyleClone = true
	inline.Text, err = cv.pool.DupString(label)
	if err != nil {
		return err
	}
	ic.AddChild(inline)
	box.AddChild(ic)
	return nil
}

func elementButton(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	box, err := cv.pool.NewBox(sty, "", "", st.id)
	if err != nil {
		return boxResult{err: err}
	}
	box.Type = BoxInlineBlock

	btype, hasType := dom.Attr(n, "type")
	switch {
	case !hasType || strings.EqualFold(btype, "submit"):
		box.Gadget = forms.NewControl(forms.ControlSubmit)
	case strings.EqualFold(btype, "reset"):
		box.Gadget = forms.NewControl(forms.ControlReset)
	default:
		// type="button" or unknown: just render the contents
		return boxResult{box: box, convertChildren: true}
	}

	if st.form != nil {
		st.form.AddControl(box.Gadget)
	}
	box.Gadget.Box = box
	if name, ok := dom.Attr(n, "name"); ok {
		box.Gadget.Name, err = cv.pool.DupString(name)
		if err != nil {
			return boxResult{err: err}
		}
	}
	if v, ok := dom.Attr(n, "value"); ok {
		box.Gadget.Value, err = cv.pool.DupString(v)
		if err != nil {
			return boxResult{err: err}
		}
	}

	return boxResult{box: box, convertChildren: true}
}
