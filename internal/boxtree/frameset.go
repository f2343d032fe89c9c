// internal/boxtree/frameset.go
//
// Framesets are modelled as tables: the frameset becomes a TABLE, each
// row a TABLE_ROW, each frame a TABLE_CELL holding a BLOCK that the
// framed document is fetched into.
package boxtree

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/dom"
	"github.com/xkilldash9x/boxtree/internal/style"
)

// LengthKind classifies one entry of a multi-length list.
type LengthKind int

const (
	LengthPx LengthKind = iota
	LengthPercent
	LengthRelative
)

// MultiLength is one entry of an HTML 4.01 multi-length list, as used by
// frameset rows and cols.
type MultiLength struct {
	Value float64
	Kind  LengthKind
}

// ParseMultiLengths parses a comma-separated multi-length list. Values
// that are missing, unparseable or not positive become 1; the suffix
// decides the kind, defaulting to pixels. The result always has one
// entry per comma-separated field.
func ParseMultiLengths(s string) []MultiLength {
	fields := strings.Split(s, ",")
	lengths := make([]MultiLength, len(fields))
	for i, f := range fields {
		f = strings.TrimLeft(f, " \t\r\n\f\v")
		v, rest := leadingFloat(f)
		if v <= 0 {
			v = 1
		}
		kind := LengthPx
		if rest != "" {
			switch rest[0] {
			case '%':
				kind = LengthPercent
			case '*':
				kind = LengthRelative
			}
		}
		lengths[i] = MultiLength{Value: v, Kind: kind}
	}
	return lengths
}

// leadingFloat parses the longest numeric prefix of s, returning the
// value and the remainder. No prefix parses as 0.
func leadingFloat(s string) (float64, string) {
	i := 0
	for i < len(s) && (s[i] == '+' || s[i] == '-' || s[i] == '.' ||
		('0' <= s[i] && s[i] <= '9')) {
		i++
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, s
	}
	return v, s[i:]
}

func elementFrameset(cv *Converter, n *html.Node, st *constructStatus,
	sty *style.ComputedStyle) boxResult {

	box, err := cv.pool.NewBox(sty, "", st.title, st.id)
	if err != nil {
		return boxResult{err: err}
	}
	box.Type = BoxTable

	rows, cols := 1, 1
	var colWidths []MultiLength
	if s, ok := dom.Attr(n, "rows"); ok {
		rows = len(ParseMultiLengths(s))
	}
	if s, ok := dom.Attr(n, "cols"); ok {
		colWidths = ParseMultiLengths(s)
		cols = len(colWidths)
	}

	box.MinWidth = 1
	box.MaxWidth = 10000
	if colWidths != nil {
		box.ColTracks = make([]ColumnTrack, cols)
		for col, w := range colWidths {
			kind := ColumnRelative
			switch w.Kind {
			case LengthPx:
				kind = ColumnFixed
			case LengthPercent:
				kind = ColumnPercent
			}
			box.ColTracks[col] = ColumnTrack{Kind: kind, Width: w.Value, Min: 1, Max: 10000}
		}
	} else {
		box.ColTracks = []ColumnTrack{{Kind: ColumnRelative, Width: 1, Min: 1, Max: 10000}}
	}

	c := n.FirstChild
	for row := 0; c != nil && row != rows; row++ {
		rowBox, err := cv.pool.NewBox(style.Duplicate(sty), "", "", "")
		if err != nil {
			return boxResult{err: err}
		}
		rowBox.Type = BoxTableRow
		box.AddChild(rowBox)

		objectHeight := 1000 // no better height estimate at this point

		for col := 0; c != nil && col != cols; col++ {
			for c != nil && !isFrameNode(c) {
				c = c.NextSibling
			}
			if c == nil {
				break
			}

			// estimate frame width
			objectWidth := cv.content.AvailableWidth
			if colWidths != nil && colWidths[col].Kind == LengthPx {
				objectWidth = int(colWidths[col].Value)
			}

			// Cells take the blank reset over the frameset style so only
			// inherited properties carry through.
			reset := style.InheritFrom(sty)
			cellStyle := &reset
			cellStyle.Overflow = style.OverflowAuto
			cellBox, err := cv.pool.NewBox(cellStyle, "", "", "")
			if err != nil {
				return boxResult{err: err}
			}
			cellBox.Type = BoxTableCell
			rowBox.AddChild(cellBox)

			if dom.TagName(c) == "frameset" {
				r := elementFrameset(cv, c, st, sty)
				if r.err != nil {
					return r
				}
				r.box.StyleClone = true
				cellBox.AddChild(r.box)
				c = c.NextSibling
				continue
			}

			objectStyle := style.Duplicate(sty)
			if colWidths != nil && colWidths[col].Kind == LengthPx {
				objectStyle.Width = style.Px(float64(objectWidth))
			}
			objectBox, err := cv.pool.NewBox(objectStyle, "", "", "")
			if err != nil {
				return boxResult{err: err}
			}
			objectBox.Type = BoxBlock
			cellBox.AddChild(objectBox)

			src, ok := dom.Attr(c, "src")
			if !ok {
				c = c.NextSibling
				continue
			}
			u, ok := joinURL(cv.content.BaseURL, src)
			if !ok || cv.sameAsBase(u) {
				c = c.NextSibling
				continue
			}
			if !cv.content.fetchObject(u, objectBox, nil,
				objectWidth, objectHeight, false) {
				return boxResult{err: ErrMemory}
			}

			c = c.NextSibling
		}
	}

	// the frameset always fills the available width
	sty.Width = style.Percent(100)

	return boxResult{box: box}
}

func isFrameNode(n *html.Node) bool {
	if !dom.IsElement(n) {
		return false
	}
	name := dom.TagName(n)
	return name == "frame" || name == "frameset"
}
