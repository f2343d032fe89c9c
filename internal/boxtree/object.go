// internal/boxtree/object.go
package boxtree

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/dom"
	"github.com/xkilldash9x/boxtree/internal/style"
)

const flashClassID = "clsid:D27CDB6E-AE6D-11cf-96B8-444553540000"

// supportedMIMETypes lists the content types a declared object may carry
// and still be worth fetching. An object declaring anything else is left
// to its fallback content.
var supportedMIMETypes = map[string]bool{
	"text/html":                     true,
	"text/plain":                    true,
	"text/css":                      true,
	"image/png":                     true,
	"image/jpeg":                    true,
	"image/pjpeg":                   true,
	"image/gif":                     true,
	"application/x-shockwave-flash": true,
}

func supportedMIMEType(t string) bool {
	return supportedMIMETypes[strings.ToLower(dom.Strip(t))]
}

// Param is one parameter of an embedded object, in document order.
type Param struct {
	Name      string
	Value     string
	Type      string
	ValueType string
}

// ObjectParams collects the attributes that describe an embedded object,
// gathered from whichever of object/embed/applet/iframe declared it.
type ObjectParams struct {
	Data     string
	Type     string
	CodeType string
	CodeBase string
	ClassID  string
	BaseHref string
	Params   []Param
}

// FindParam returns the named parameter, matched case-insensitively.
func (po *ObjectParams) FindParam(name string) (Param, bool) {
	for _, p := range po.Params {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Param{}, false
}

// collectParams reads the leading run of param children of n. The first
// non-param element child starts the alternative content, so collection
// stops there.
func collectParams(cv *Converter, n *html.Node, po *ObjectParams) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !dom.IsElement(c) {
			continue
		}
		if dom.TagName(c) != "param" {
			break
		}
		var p Param
		var err error
		if v, ok := dom.Attr(c, "name"); ok {
			if p.Name, err = cv.pool.DupString(v); err != nil {
				return err
			}
		}
		if v, ok := dom.Attr(c, "value"); ok {
			if p.Value, err = cv.pool.DupString(v); err != nil {
				return err
			}
		}
		if v, ok := dom.Attr(c, "type"); ok {
			if p.Type, err = cv.pool.DupString(v); err != nil {
				return err
			}
		}
		if v, ok := dom.Attr(c, "valuetype"); ok {
			if p.ValueType, err = cv.pool.DupString(v); err != nil {
				return err
			}
		} else {
			if p.ValueType, err = cv.pool.DupString("data"); err != nil {
				return err
			}
		}
		po.Params = append(po.Params, p)
	}
	return nil
}

// decodeObject validates the declared object and, if it looks usable,
// starts the fetch. A false return leaves the box as it was so the
// alternative content can render instead; it is never a fatal error.
func (cv *Converter) decodeObject(box *Box) bool {
	po := box.Object
	base := cv.content.BaseURL

	// absent codebase defaults to the document's own directory
	codebaseRef := po.CodeBase
	if codebaseRef == "" {
		codebaseRef = "./"
	}
	codebase, ok := joinURL(base, codebaseRef)
	if !ok {
		return false
	}
	po.CodeBase = codebase
	if base != nil {
		po.BaseHref = base.String()
	}

	if po.Data == "" && po.ClassID == "" {
		// no data, nothing to fetch
		return false
	}

	var target string
	switch {
	case po.Data == "" && po.ClassID != "":
		if strings.HasPrefix(strings.ToLower(po.ClassID), "clsid:") {
			if !strings.EqualFold(po.ClassID, flashClassID) {
				// ActiveX object, not handled
				return false
			}
			movie, found := po.FindParam("movie")
			if !found {
				return false
			}
			u, ok := joinURL(base, movie.Value)
			if !ok {
				return false
			}
			target = u
			if cb, ok := joinURL(base, "./"); ok {
				po.CodeBase = cb
			}
		} else {
			u, ok := joinURLString(po.CodeBase, po.ClassID)
			if !ok {
				return false
			}
			target = u
		}
	default:
		// data takes precedence when both are given
		u, ok := joinURLString(po.CodeBase, po.Data)
		if !ok {
			return false
		}
		target = u
	}

	if po.Type != "" && !supportedMIMEType(po.Type) {
		return false
	}
	if po.CodeType != "" && !supportedMIMEType(po.CodeType) {
		return false
	}
	if cv.sameAsBase(target) {
		return false
	}

	// the fetched body may still turn out to be a type we cannot handle;
	// that is resolved at completion, not here
	return cv.content.fetchObject(target, box, nil, 1000, 1000, false)
}

// joinURLString is joinURL for a base held as a string.
func joinURLString(base, raw string) (string, bool) {
	u, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	return joinURL(u, raw)
}

func elementObject(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	po := &ObjectParams{}
	box, err := cv.pool.NewBox(sty, st.href, "", st.id)
	if err != nil {
		return boxResult{err: err}
	}

	if v, ok := dom.Attr(n, "data"); ok {
		if po.Data, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
		cv.log.Debug("object", zap.String("data", po.Data))
	}
	if err := applyUsemap(cv, box, n); err != nil {
		return boxResult{err: err}
	}
	if v, ok := dom.Attr(n, "type"); ok {
		if po.Type, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
	}
	if v, ok := dom.Attr(n, "codetype"); ok {
		if po.CodeType, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
	}
	if v, ok := dom.Attr(n, "codebase"); ok {
		if po.CodeBase, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
	}
	if v, ok := dom.Attr(n, "classid"); ok {
		if po.ClassID, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
	}
	if err := collectParams(cv, n, po); err != nil {
		return boxResult{err: err}
	}

	box.Object = po
	if cv.decodeObject(box) {
		return boxResult{box: box}
	}
	// object not usable: render the alternative content instead
	return boxResult{box: box, convertChildren: true}
}

func elementEmbed(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	po := &ObjectParams{}
	box, err := cv.pool.NewBox(sty, st.href, "", st.id)
	if err != nil {
		return boxResult{err: err}
	}

	if v, ok := dom.Attr(n, "src"); ok {
		if po.Data, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
		cv.log.Debug("embed", zap.String("src", po.Data))
	}

	// every other attribute is munged into a parameter
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "src") || a.Val == "" {
			continue
		}
		p := Param{}
		if p.Name, err = cv.pool.DupString(a.Key); err != nil {
			return boxResult{err: err}
		}
		if p.Value, err = cv.pool.DupString(a.Val); err != nil {
			return boxResult{err: err}
		}
		if p.ValueType, err = cv.pool.DupString("data"); err != nil {
			return boxResult{err: err}
		}
		po.Params = append(po.Params, p)
	}

	box.Object = po
	// embeds carry no fallback content, so the outcome does not matter
	cv.decodeObject(box)
	return boxResult{box: box}
}

func elementApplet(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	po := &ObjectParams{}
	box, err := cv.pool.NewBox(sty, st.href, "", st.id)
	if err != nil {
		return boxResult{err: err}
	}

	if v, ok := dom.Attr(n, "archive"); ok {
		if po.Data, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
	}
	if v, ok := dom.Attr(n, "code"); ok {
		if po.ClassID, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
	}
	if v, ok := dom.Attr(n, "codebase"); ok {
		if po.CodeBase, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
	}
	if err := collectParams(cv, n, po); err != nil {
		return boxResult{err: err}
	}

	box.Object = po
	if cv.decodeObject(box) {
		return boxResult{box: box}
	}
	return boxResult{box: box, convertChildren: true}
}

func elementIFrame(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	po := &ObjectParams{}
	box, err := cv.pool.NewBox(sty, st.href, "", st.id)
	if err != nil {
		return boxResult{err: err}
	}

	if v, ok := dom.Attr(n, "src"); ok {
		if po.Data, err = cv.pool.DupString(v); err != nil {
			return boxResult{err: err}
		}
	}

	box.Object = po
	cv.decodeObject(box)
	return boxResult{box: box}
}
