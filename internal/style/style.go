// internal/style/style.go
package style

import (
	"strconv"
	"strings"
)

// -- Constants and Configuration --

const (
	BaseFontSize = 16.0 // Default root font size in px.
)

// -- Property Value Types --

// Display is the computed CSS display value.
type Display int

const (
	DisplayInline Display = iota
	DisplayBlock
	DisplayListItem
	DisplayRunIn
	DisplayInlineBlock
	DisplayTable
	DisplayInlineTable
	DisplayTableRowGroup
	DisplayTableHeaderGroup
	DisplayTableFooterGroup
	DisplayTableRow
	DisplayTableColumnGroup
	DisplayTableColumn
	DisplayTableCell
	DisplayTableCaption
	DisplayNone
)

// Float is the computed CSS float value.
type Float int

const (
	FloatNone Float = iota
	FloatLeft
	FloatRight
)

// Position is the computed CSS position value.
type Position int

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
)

// WhiteSpace is the computed CSS white-space value.
type WhiteSpace int

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpaceNowrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
)

// Preserved reports whether line breaks in source text are honoured.
func (ws WhiteSpace) Preserved() bool {
	switch ws {
	case WhiteSpacePre, WhiteSpacePreWrap, WhiteSpacePreLine:
		return true
	}
	return false
}

// TextTransform is the computed CSS text-transform value.
type TextTransform int

const (
	TextTransformNone TextTransform = iota
	TextTransformUppercase
	TextTransformLowercase
	TextTransformCapitalize
)

// Overflow is the computed CSS overflow value.
type Overflow int

const (
	OverflowVisible Overflow = iota
	OverflowAuto
	OverflowHidden
	OverflowScroll
)

// Unit identifies the unit of a resolved length.
type Unit int

const (
	UnitPx Unit = iota
	UnitEm
	UnitEx
)

// DimensionKind discriminates a Dimension value.
type DimensionKind int

const (
	DimensionAuto DimensionKind = iota
	DimensionLength
	DimensionPercent
)

// Dimension is a computed width or height.
type Dimension struct {
	Kind  DimensionKind
	Value float64
	Unit  Unit // meaningful only for DimensionLength
}

// Px is shorthand for a pixel length dimension.
func Px(v float64) Dimension { return Dimension{Kind: DimensionLength, Value: v, Unit: UnitPx} }

// Percent is shorthand for a percentage dimension.
func Percent(v float64) Dimension { return Dimension{Kind: DimensionPercent, Value: v} }

// Color represents an RGBA color.
type Color struct {
	R, G, B, A uint8
}

var namedColors = map[string]Color{
	"black":   {0, 0, 0, 255},
	"silver":  {192, 192, 192, 255},
	"gray":    {128, 128, 128, 255},
	"white":   {255, 255, 255, 255},
	"maroon":  {128, 0, 0, 255},
	"red":     {255, 0, 0, 255},
	"purple":  {128, 0, 128, 255},
	"fuchsia": {255, 0, 255, 255},
	"green":   {0, 128, 0, 255},
	"lime":    {0, 255, 0, 255},
	"olive":   {128, 128, 0, 255},
	"yellow":  {255, 255, 0, 255},
	"navy":    {0, 0, 128, 255},
	"blue":    {0, 0, 255, 255},
	"teal":    {0, 128, 128, 255},
	"aqua":    {0, 255, 255, 255},
	"orange":  {255, 165, 0, 255},
}

// ParseColor understands #rrggbb, #rgb and the HTML4 named colors.
// Anything else is rejected; legacy attribute values that fail to parse
// are simply ignored by the resolver.
func ParseColor(s string) (Color, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Color{}, false
	}
	if s[0] == '#' {
		hex := s[1:]
		switch len(hex) {
		case 6:
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return Color{}, false
			}
			return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
		case 3:
			v, err := strconv.ParseUint(hex, 16, 16)
			if err != nil {
				return Color{}, false
			}
			r := uint8(v >> 8 & 0xf)
			g := uint8(v >> 4 & 0xf)
			b := uint8(v & 0xf)
			return Color{R: r*16 + r, G: g*16 + g, B: b*16 + b, A: 255}, true
		}
		return Color{}, false
	}
	c, ok := namedColors[s]
	return c, ok
}

// BorderSpacing holds the computed table border-spacing, if any.
type BorderSpacing struct {
	Set        bool
	Horz, Vert float64 // px
}

// CellPadding carries the legacy <table cellpadding> attribute down to the
// cells, outside the normal cascade.
type CellPadding struct {
	Set   bool
	Value float64 // px
}

// -- Computed Style --

// ComputedStyle is a fully resolved style for one node. It is a plain value
// struct: duplication is assignment. Boxes either own their style or hold a
// shared reference (see boxtree.Box.StyleClone); shared styles must never
// be written through a box.
type ComputedStyle struct {
	Display       Display
	Float         Float
	Position      Position
	WhiteSpace    WhiteSpace
	TextTransform TextTransform
	Overflow      Overflow

	Width  Dimension
	Height Dimension

	Color           Color
	BackgroundColor Color // A == 0 means transparent / unset

	// BackgroundImage is the absolute URI of a background image, or empty.
	BackgroundImage string

	BorderSpacing BorderSpacing
	CellPadding   CellPadding

	FontSize float64 // px
}

// Base returns the root default style: the style of the synthetic document
// root before any cascade runs.
func Base() ComputedStyle {
	return ComputedStyle{
		Display:  DisplayBlock,
		Width:    Dimension{Kind: DimensionAuto},
		Height:   Dimension{Kind: DimensionAuto},
		Color:    Color{0, 0, 0, 255},
		FontSize: BaseFontSize,
	}
}

// Blank returns the style all properties default to before the cascade
// overlays matched declarations: inline display, everything else initial.
func Blank() ComputedStyle {
	s := Base()
	s.Display = DisplayInline
	return s
}

// Duplicate returns an independent copy of s.
func Duplicate(s *ComputedStyle) *ComputedStyle {
	c := *s
	return &c
}

// -- Parsing helpers --

// ParseLength parses a CSS length or percentage token ("12px", "2em",
// "3ex", "50%", bare number treated as px). Returns false for anything it
// does not understand.
func ParseLength(s string) (Dimension, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Dimension{}, false
	}
	if s == "auto" {
		return Dimension{Kind: DimensionAuto}, true
	}
	unit := UnitPx
	kind := DimensionLength
	switch {
	case strings.HasSuffix(s, "px"):
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "em"):
		s, unit = s[:len(s)-2], UnitEm
	case strings.HasSuffix(s, "ex"):
		s, unit = s[:len(s)-2], UnitEx
	case strings.HasSuffix(s, "%"):
		s, kind = s[:len(s)-1], DimensionPercent
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Dimension{}, false
	}
	return Dimension{Kind: kind, Value: v, Unit: unit}, true
}

func parseDisplay(s string) (Display, bool) {
	switch s {
	case "inline":
		return DisplayInline, true
	case "block":
		return DisplayBlock, true
	case "list-item":
		return DisplayListItem, true
	case "run-in":
		return DisplayRunIn, true
	case "inline-block":
		return DisplayInlineBlock, true
	case "table":
		return DisplayTable, true
	case "inline-table":
		return DisplayInlineTable, true
	case "table-row-group":
		return DisplayTableRowGroup, true
	case "table-header-group":
		return DisplayTableHeaderGroup, true
	case "table-footer-group":
		return DisplayTableFooterGroup, true
	case "table-row":
		return DisplayTableRow, true
	case "table-column-group":
		return DisplayTableColumnGroup, true
	case "table-column":
		return DisplayTableColumn, true
	case "table-cell":
		return DisplayTableCell, true
	case "table-caption":
		return DisplayTableCaption, true
	case "none":
		return DisplayNone, true
	}
	return 0, false
}

func parseFloatProp(s string) (Float, bool) {
	switch s {
	case "none":
		return FloatNone, true
	case "left":
		return FloatLeft, true
	case "right":
		return FloatRight, true
	}
	return 0, false
}

func parsePosition(s string) (Position, bool) {
	switch s {
	case "static":
		return PositionStatic, true
	case "relative":
		return PositionRelative, true
	case "absolute":
		return PositionAbsolute, true
	case "fixed":
		return PositionFixed, true
	}
	return 0, false
}

func parseWhiteSpace(s string) (WhiteSpace, bool) {
	switch s {
	case "normal":
		return WhiteSpaceNormal, true
	case "nowrap":
		return WhiteSpaceNowrap, true
	case "pre":
		return WhiteSpacePre, true
	case "pre-wrap":
		return WhiteSpacePreWrap, true
	case "pre-line":
		return WhiteSpacePreLine, true
	}
	return 0, false
}

func parseTextTransform(s string) (TextTransform, bool) {
	switch s {
	case "none":
		return TextTransformNone, true
	case "uppercase":
		return TextTransformUppercase, true
	case "lowercase":
		return TextTransformLowercase, true
	case "capitalize":
		return TextTransformCapitalize, true
	}
	return 0, false
}
