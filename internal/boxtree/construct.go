// internal/boxtree/construct.go
//
// Conversion of a parsed HTML node tree plus computed styles into the box
// tree consumed by layout. The walk is depth-first, synchronous and
// single-threaded; replaced-content fetches started along the way complete
// asynchronously via the content handle.
package boxtree

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/dom"
	"github.com/xkilldash9x/boxtree/internal/forms"
	"github.com/xkilldash9x/boxtree/internal/style"
)

// imageTypes lists the content types accepted for image fetches.
var imageTypes = []string{
	"image/jpeg",
	"image/gif",
	"image/png",
}

// constructStatus carries the conversion state inherited down the walk:
// the enclosing anchor's href, title/id attribution, and the open form
// context controls attach to. It is passed by value so sibling subtrees
// cannot leak state into each other; the form pointer is the one field
// deliberately shared downward.
type constructStatus struct {
	href  string
	title string
	id    string
	form  *forms.Form
}

// Converter builds box trees. One converter may be reused across
// documents, but a single conversion is strictly sequential.
type Converter struct {
	pool       *Pool
	resolver   *style.Resolver
	normalizer Normalizer
	log        *zap.Logger

	content *Content
	visited int
}

// NewConverter assembles a converter. normalizer may be nil to skip the
// normalization pass (tests exercising raw converter output do this).
func NewConverter(pool *Pool, resolver *style.Resolver, normalizer Normalizer, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{pool: pool, resolver: resolver, normalizer: normalizer, log: log}
}

// Visited reports how many element nodes have been dispatched. Hidden
// subtrees are never visited, which tests rely on.
func (cv *Converter) Visited() int { return cv.visited }

// BuildTree converts the node tree rooted at n into a box tree for c.
// On success the content's layout root is set; on failure no tree is
// exposed and the caller disposes of the whole pool.
func (cv *Converter) BuildTree(n *html.Node, c *Content) error {
	cv.content = c

	rootStyle := style.Base()
	root := &Box{Type: BoxBlock}

	status := constructStatus{}
	var inlineContainer *Box

	if err := cv.convertNode(n, &rootStyle, root, &inlineContainer, status); err != nil {
		return fmt.Errorf("box construction: %w", err)
	}

	if cv.normalizer != nil {
		if err := cv.normalizer.NormalizeBlock(root, cv.pool); err != nil {
			return fmt.Errorf("box normalisation: %w", err)
		}
	}

	layout := root.FirstChild
	if layout == nil {
		// empty document still yields a root block
		layout = root
	}
	layout.Parent = nil
	c.layoutRoot = layout
	return nil
}

// convertNode recursively constructs boxes for one node.
func (cv *Converter) convertNode(n *html.Node, parentStyle *style.ComputedStyle,
	parent *Box, inlineContainer **Box, status constructStatus) error {

	switch n.Type {
	case html.ElementNode:
		return cv.convertElement(n, parentStyle, parent, inlineContainer, status)
	case html.TextNode:
		return cv.convertText(n, parentStyle, parent, inlineContainer, status)
	default:
		// comments, doctypes: ignore, but descend through the document node
		if n.Type == html.DocumentNode {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if err := cv.convertNode(c, parentStyle, parent, inlineContainer, status); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func (cv *Converter) convertElement(n *html.Node, parentStyle *style.ComputedStyle,
	parent *Box, inlineContainer **Box, status constructStatus) error {

	cv.content.yield()
	cv.visited++

	st := cv.resolver.Resolve(parentStyle, n)
	if st.Display == style.DisplayNone {
		// no box, and the subtree is never visited
		return nil
	}

	if title, ok := dom.Attr(n, "title"); ok {
		squashed, err := cv.pool.DupString(dom.SquashWhitespace(title))
		if err != nil {
			return err
		}
		status.title = squashed
	}
	if id, ok := dom.Attr(n, "id"); ok {
		squashed, err := cv.pool.DupString(dom.SquashWhitespace(id))
		if err != nil {
			return err
		}
		status.id = squashed
	}

	var box *Box
	convertChildren := true

	if handler, ok := lookupElement(dom.TagName(n)); ok {
		res := handler(cv, n, &status, st)
		if res.err != nil {
			return res.err
		}
		if res.box == nil {
			// no box for this element, children already handled
			return nil
		}
		box = res.box
		convertChildren = res.convertChildren
	} else {
		var err error
		box, err = cv.pool.NewBox(st, status.href, status.title, status.id)
		if err != nil {
			return err
		}
	}
	box.Node = n

	// set box type from style unless the handler fixed it already
	if box.Type == BoxInline {
		box.Type = boxTypeForDisplay[st.Display]
	}

	if box.Type == BoxInline || box.Type == BoxBR ||
		box.Type == BoxInlineBlock ||
		st.Float == style.FloatLeft || st.Float == style.FloatRight {
		// inline-flow content
		if err := cv.ensureInlineContainer(parent, inlineContainer); err != nil {
			return err
		}

		switch {
		case box.Type == BoxInline || box.Type == BoxBR:
			// stay in the same container and containment level so nested
			// inline markup flattens into one run
			(*inlineContainer).AddChild(box)
			if convertChildren {
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if err := cv.convertNode(c, st, parent, inlineContainer, status); err != nil {
						return err
					}
				}
			}
			return cv.finishElement(n, box, st)

		case box.Type == BoxInlineBlock:
			(*inlineContainer).AddChild(box)
			if convertChildren {
				var nested *Box
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if err := cv.convertNode(c, st, box, &nested, status); err != nil {
						return err
					}
				}
			}
			return cv.finishElement(n, box, st)

		default:
			// float: interpose a float wrapper between the block ancestor
			// and the floated subtree
			wrapper, err := cv.pool.NewBox(nil, status.href, status.title, status.id)
			if err != nil {
				return err
			}
			if st.Float == style.FloatLeft {
				wrapper.Type = BoxFloatLeft
			} else {
				wrapper.Type = BoxFloatRight
			}
			(*inlineContainer).AddChild(wrapper)
			parent.AddFloat(wrapper)
			if box.Type == BoxInline || box.Type == BoxInlineBlock {
				box.Type = BoxBlock
			}
			parent = wrapper
		}
	}

	// non-inline (or float subtree root): add to tree and recurse with a
	// fresh inline-container scope
	parent.AddChild(box)
	if convertChildren {
		var nested *Box
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := cv.convertNode(c, st, box, &nested, status); err != nil {
				return err
			}
		}
	}
	if st.Float == style.FloatNone {
		// a block-level box ends the caller's inline run; floats do not
		*inlineContainer = nil
	}

	box.Columns = spanAttr(n, "colspan")
	box.Rows = spanAttr(n, "rowspan")

	return cv.finishElement(n, box, st)
}

// finishElement starts a background-image fetch, if the resolved style
// names one. The resolver has already made the URI absolute and rejected
// self-references.
func (cv *Converter) finishElement(n *html.Node, box *Box, st *style.ComputedStyle) error {
	if box == nil || box.Style == nil || box.Style.BackgroundImage == "" {
		return nil
	}
	uri, err := cv.pool.DupString(box.Style.BackgroundImage)
	if err != nil {
		return err
	}
	if !cv.content.fetchObject(uri, box, imageTypes,
		cv.content.AvailableWidth, 1000, true) {
		return ErrMemory
	}
	return nil
}

// ensureInlineContainer materializes the synthetic container for the
// current run of inline content, exactly once per maximal run.
func (cv *Converter) ensureInlineContainer(parent *Box, inlineContainer **Box) error {
	if *inlineContainer != nil {
		return nil
	}
	ic, err := cv.pool.NewBox(nil, "", "", "")
	if err != nil {
		return err
	}
	ic.Type = BoxInlineContainer
	parent.AddChild(ic)
	*inlineContainer = ic
	return nil
}

// spanAttr parses a colspan/rowspan attribute. Malformed or out-of-range
// values are never an error: anything outside [1, MaxSpan] stores 1.
func spanAttr(n *html.Node, name string) int {
	v, ok := dom.Attr(n, name)
	if !ok {
		return 1
	}
	span, err := strconv.Atoi(dom.Strip(v))
	if err != nil || span < 1 || MaxSpan < span {
		return 1
	}
	return span
}

func (cv *Converter) convertText(n *html.Node, parentStyle *style.ComputedStyle,
	parent *Box, inlineContainer **Box, status constructStatus) error {

	if !parentStyle.WhiteSpace.Preserved() {
		return cv.convertCollapsedText(n, parentStyle, parent, inlineContainer, status)
	}
	return cv.convertPreText(n, parentStyle, parent, inlineContainer, status)
}

// convertCollapsedText handles white-space: normal and nowrap.
func (cv *Converter) convertCollapsedText(n *html.Node, parentStyle *style.ComputedStyle,
	parent *Box, inlineContainer **Box, status constructStatus) error {

	text, err := cv.pool.DupString(dom.SquashWhitespace(n.Data))
	if err != nil {
		return err
	}

	// a lone collapsible space merges into the preceding inline box
	if text == " " {
		if *inlineContainer != nil {
			(*inlineContainer).LastChild.Space = true
		}
		return nil
	}

	if err := cv.ensureInlineContainer(parent, inlineContainer); err != nil {
		return err
	}

	box, err := cv.pool.NewBox(parentStyle, status.href, "", "")
	if err != nil {
		return err
	}
	box.StyleClone = true
	box.Text = text

	// strip a trailing space into the space flag
	if len(box.Text) > 1 && strings.HasSuffix(box.Text, " ") {
		box.Space = true
		box.Text = box.Text[:len(box.Text)-1]
	}
	if parentStyle.TextTransform != style.TextTransformNone {
		box.Text = transformText(box.Text, parentStyle.TextTransform)
	}
	if parentStyle.WhiteSpace == style.WhiteSpaceNowrap && strings.Contains(box.Text, " ") {
		// hard spaces stop the layout engine breaking the run
		nbsp, err := cv.pool.DupString(dom.SpacesToNBSP(box.Text))
		if err != nil {
			return err
		}
		box.Text = nbsp
	}

	(*inlineContainer).AddChild(box)

	// a leading space moves onto the previous box's space flag
	if strings.HasPrefix(box.Text, " ") {
		box.Text = box.Text[1:]
		if box.Prev != nil {
			box.Prev.Space = true
		}
	}
	return nil
}

// convertPreText splits preserved text into one INLINE per line with BR
// scope breaks: the inline container ends at each hard line break.
func (cv *Converter) convertPreText(n *html.Node, parentStyle *style.ComputedStyle,
	parent *Box, inlineContainer **Box, status constructStatus) error {

	text, err := cv.pool.DupString(dom.SpacesToNBSP(n.Data))
	if err != nil {
		return err
	}
	if parentStyle.TextTransform != style.TextTransformNone {
		text = transformText(text, parentStyle.TextTransform)
	}

	for {
		cut := strings.IndexAny(text, "\r\n")
		line := text
		if cut >= 0 {
			line = text[:cut]
		}

		if err := cv.ensureInlineContainer(parent, inlineContainer); err != nil {
			return err
		}
		box, err := cv.pool.NewBox(parentStyle, status.href, "", "")
		if err != nil {
			return err
		}
		box.Type = BoxInline
		box.StyleClone = true
		box.Text, err = cv.pool.DupString(line)
		if err != nil {
			return err
		}
		(*inlineContainer).AddChild(box)

		if cut < 0 {
			return nil
		}
		if strings.HasPrefix(text[cut:], "\r\n") {
			text = text[cut+2:]
		} else {
			text = text[cut+1:]
		}
		// hard line break: the next line starts a new container
		*inlineContainer = nil
		if text == "" {
			return nil
		}
	}
}

// transformText applies text-transform to the ASCII characters of s, the
// way the layout engine expects legacy documents to behave.
func transformText(s string, tt style.TextTransform) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	switch tt {
	case style.TextTransformUppercase:
		for i := range b {
			if b[i] < 0x80 {
				b[i] = byte(toUpper(rune(b[i])))
			}
		}
	case style.TextTransformLowercase:
		for i := range b {
			if b[i] < 0x80 {
				b[i] = byte(toLower(rune(b[i])))
			}
		}
	case style.TextTransformCapitalize:
		if b[0] < 0x80 {
			b[0] = byte(toUpper(rune(b[0])))
		}
		for i := 1; i < len(b); i++ {
			if b[i] < 0x80 && isSpace(b[i-1]) {
				b[i] = byte(toUpper(rune(b[i])))
			}
		}
	}
	return string(b)
}

func toUpper(r rune) rune {
	if 'a' <= r && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

func toLower(r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v'
}
