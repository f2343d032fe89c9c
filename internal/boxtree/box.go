// internal/boxtree/box.go
package boxtree

import (
	"errors"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/forms"
	"github.com/xkilldash9x/boxtree/internal/style"
)

// ErrMemory is the converter's single failure taxonomy: an allocation
// failed. It aborts the whole conversion; malformed markup never produces
// an error.
var ErrMemory = errors.New("boxtree: memory exhausted")

// MaxSpan bounds colspan/rowspan attributes; larger values are treated as
// hostile markup and clamped to 1.
const MaxSpan = 100

// BoxType defines the type of box generated for a node.
type BoxType int

const (
	BoxBlock BoxType = iota
	BoxInlineContainer
	BoxInline
	BoxTable
	BoxTableRow
	BoxTableCell
	BoxTableRowGroup
	BoxFloatLeft
	BoxFloatRight
	BoxInlineBlock
	BoxBR
)

var boxTypeNames = map[BoxType]string{
	BoxBlock:           "BLOCK",
	BoxInlineContainer: "INLINE_CONTAINER",
	BoxInline:          "INLINE",
	BoxTable:           "TABLE",
	BoxTableRow:        "TABLE_ROW",
	BoxTableCell:       "TABLE_CELL",
	BoxTableRowGroup:   "TABLE_ROW_GROUP",
	BoxFloatLeft:       "FLOAT_LEFT",
	BoxFloatRight:      "FLOAT_RIGHT",
	BoxInlineBlock:     "INLINE_BLOCK",
	BoxBR:              "BR",
}

func (t BoxType) String() string {
	if s, ok := boxTypeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// ColumnKind discriminates a frameset column track.
type ColumnKind int

const (
	ColumnFixed ColumnKind = iota
	ColumnPercent
	ColumnRelative
)

// ColumnTrack is one column sizing entry of a TABLE box built from a
// frameset.
type ColumnTrack struct {
	Kind     ColumnKind
	Width    float64
	Min, Max float64
}

// Box is a node in the constructed box tree.
type Box struct {
	Type BoxType

	// Style is the computed style, owned unless StyleClone is set. A
	// shared style must only ever be replaced, never written through.
	Style      *style.ComputedStyle
	StyleClone bool

	Href  string
	Title string
	ID    string

	// Text content for INLINE boxes. A Go string carries its own length,
	// which also satisfies the not-null-terminated ownership rule.
	Text string
	// Space records a stripped trailing collapsible space, consumed by
	// inline layout when joining adjacent boxes.
	Space bool

	// Columns/Rows are the clamped colspan/rowspan values.
	Columns int
	Rows    int

	Usemap string
	Gadget *forms.Control
	Object *ObjectParams

	// ColTracks carries frameset column sizing on TABLE boxes.
	ColTracks []ColumnTrack
	MinWidth  float64
	MaxWidth  float64

	// Node is the source DOM node, nil for synthetic boxes.
	Node *html.Node

	Parent     *Box
	FirstChild *Box
	LastChild  *Box
	Prev       *Box
	Next       *Box

	// FloatChildren chains floated descendant wrappers anchored at this
	// box, linked through NextFloat.
	FloatChildren *Box
	NextFloat     *Box
}

// AddChild links child as the last child of b.
func (b *Box) AddChild(child *Box) {
	child.Parent = b
	if b.LastChild != nil {
		b.LastChild.Next = child
		child.Prev = b.LastChild
		b.LastChild = child
		return
	}
	b.FirstChild = child
	b.LastChild = child
}

// AddFloat pushes a float wrapper onto b's float-children list.
func (b *Box) AddFloat(f *Box) {
	f.NextFloat = b.FloatChildren
	b.FloatChildren = f
}

// Children returns the child list as a slice, in order. Convenience for
// tests and tree dumps; the tree itself stays linked.
func (b *Box) Children() []*Box {
	var out []*Box
	for c := b.FirstChild; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// MutableStyle returns a style safe to write through b. Shared styles are
// replaced by an owned duplicate first.
func (b *Box) MutableStyle() *style.ComputedStyle {
	if b.StyleClone && b.Style != nil {
		b.Style = style.Duplicate(b.Style)
		b.StyleClone = false
	}
	return b.Style
}

// Pool allocates boxes with lifetime scoped to one document; the whole
// pool is dropped on document teardown. The allocation hook exists so
// tests can inject exhaustion at any single allocation point.
type Pool struct {
	count     int
	allocHook func() error
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// SetAllocHook installs a hook consulted before every allocation. A non-nil
// return aborts that allocation with the hook's error.
func (p *Pool) SetAllocHook(hook func() error) {
	p.allocHook = hook
}

// Count reports how many boxes the pool has handed out.
func (p *Pool) Count() int { return p.count }

func (p *Pool) alloc() error {
	if p.allocHook != nil {
		if err := p.allocHook(); err != nil {
			return err
		}
	}
	p.count++
	return nil
}

// NewBox allocates a box with the given style and inherited attribution.
// The box type defaults to BoxInline, matching the style-driven mapping
// applied afterwards by the converter.
func (p *Pool) NewBox(s *style.ComputedStyle, href, title, id string) (*Box, error) {
	if err := p.alloc(); err != nil {
		return nil, err
	}
	return &Box{
		Type:    BoxInline,
		Style:   s,
		Href:    href,
		Title:   title,
		ID:      id,
		Columns: 1,
		Rows:    1,
	}, nil
}

// DupString mirrors the original's string duplications as fault-injection
// points. The returned string is the same value; only the hook runs.
func (p *Pool) DupString(s string) (string, error) {
	if p.allocHook != nil {
		if err := p.allocHook(); err != nil {
			return "", err
		}
	}
	return s, nil
}

// boxTypeForDisplay maps a computed display value to a box type. Kept in
// sync with the style.Display constants.
var boxTypeForDisplay = map[style.Display]BoxType{
	style.DisplayInline:           BoxInline,
	style.DisplayBlock:            BoxBlock,
	style.DisplayListItem:         BoxBlock,
	style.DisplayRunIn:            BoxInline,
	style.DisplayInlineBlock:      BoxInlineBlock,
	style.DisplayTable:            BoxTable,
	style.DisplayInlineTable:      BoxTable,
	style.DisplayTableRowGroup:    BoxTableRowGroup,
	style.DisplayTableHeaderGroup: BoxTableRowGroup,
	style.DisplayTableFooterGroup: BoxTableRowGroup,
	style.DisplayTableRow:         BoxTableRow,
	style.DisplayTableColumnGroup: BoxInline,
	style.DisplayTableColumn:      BoxInline,
	style.DisplayTableCell:        BoxTableCell,
	style.DisplayTableCaption:     BoxInline,
}
