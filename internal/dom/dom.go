// internal/dom/dom.go
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Thin helpers over the x/net/html node tree. The parser is a collaborator;
// the converter only ever needs tag names, attribute lookup and text
// gathering, so that surface is wrapped here.

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// TagName returns the lower-cased tag name of an element node.
func TagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

// Attr looks up an attribute by name. The html parser lower-cases attribute
// keys, so the lookup is case-insensitive for well-formed input.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the attribute is present, ignoring its value.
// Boolean HTML attributes (selected, checked, multiple) are tested this way.
func HasAttr(n *html.Node, name string) bool {
	_, ok := Attr(n, name)
	return ok
}

// TextContent concatenates the text of n and all its descendants, in
// document order.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	walk(n)
	return sb.String()
}

// SquashWhitespace collapses every run of whitespace (space, tab, CR, LF)
// into a single space. Leading and trailing runs collapse to a single
// leading/trailing space rather than being stripped; the converter relies
// on those sentinel spaces for inter-box spacing decisions.
func SquashWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			inSpace = true
			continue
		}
		if inSpace {
			sb.WriteByte(' ')
			inSpace = false
		}
		sb.WriteByte(c)
	}
	if inSpace {
		// trailing run, or an all-whitespace string
		sb.WriteByte(' ')
	}
	return sb.String()
}

// SpacesToNBSP replaces each space and tab with a no-break space (U+00A0).
// Used for white-space:nowrap runs and text-input values so the layout
// engine never finds a soft break inside them.
func SpacesToNBSP(s string) string {
	if !strings.ContainsAny(s, " \t") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for _, r := range s {
		if r == ' ' || r == '\t' {
			sb.WriteRune(' ')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Strip trims leading and trailing ASCII whitespace. URL attributes arrive
// with stray newlines from pretty-printed markup.
func Strip(s string) string {
	return strings.TrimSpace(s)
}
