// internal/style/ua.go
package style

import (
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/dom"
)

// UACascader is a minimal user-agent level cascade: per-tag display
// defaults sufficient to build a sensible box tree without a full CSS
// engine. A real cascade implementation wraps or replaces it.
type UACascader struct{}

var uaDisplay = map[string]Display{
	"html": DisplayBlock, "body": DisplayBlock, "div": DisplayBlock,
	"p": DisplayBlock, "h1": DisplayBlock, "h2": DisplayBlock,
	"h3": DisplayBlock, "h4": DisplayBlock, "h5": DisplayBlock,
	"h6": DisplayBlock, "ul": DisplayBlock, "ol": DisplayBlock,
	"dl": DisplayBlock, "dt": DisplayBlock, "dd": DisplayBlock,
	"li": DisplayListItem, "form": DisplayBlock, "fieldset": DisplayBlock,
	"address": DisplayBlock, "blockquote": DisplayBlock,
	"center": DisplayBlock, "hr": DisplayBlock, "pre": DisplayBlock,
	"header": DisplayBlock, "footer": DisplayBlock, "section": DisplayBlock,
	"article": DisplayBlock, "nav": DisplayBlock, "main": DisplayBlock,
	"frameset": DisplayBlock, "iframe": DisplayInlineBlock,

	"table": DisplayTable, "caption": DisplayTableCaption,
	"thead": DisplayTableHeaderGroup, "tbody": DisplayTableRowGroup,
	"tfoot": DisplayTableFooterGroup, "tr": DisplayTableRow,
	"td": DisplayTableCell, "th": DisplayTableCell,
	"col": DisplayTableColumn, "colgroup": DisplayTableColumnGroup,

	"input": DisplayInlineBlock, "button": DisplayInlineBlock,
	"select": DisplayInlineBlock, "textarea": DisplayInlineBlock,

	"head": DisplayNone, "title": DisplayNone, "meta": DisplayNone,
	"link": DisplayNone, "script": DisplayNone, "style": DisplayNone,
	"base": DisplayNone, "noscript": DisplayNone, "param": DisplayNone,
	"option": DisplayNone, "optgroup": DisplayNone,
}

// Cascade applies the tag defaults. It runs before attribute and inline
// styling, so anything it sets can still be overridden.
func (UACascader) Cascade(n *html.Node, s *ComputedStyle) {
	tag := dom.TagName(n)
	if d, ok := uaDisplay[tag]; ok {
		s.Display = d
	}
	if tag == "pre" {
		s.WhiteSpace = WhiteSpacePre
	}
}
