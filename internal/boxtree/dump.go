// internal/boxtree/dump.go
package boxtree

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DumpNode is the serializable form of one box, used by the CLI to emit
// the constructed tree.
type DumpNode struct {
	Type     string      `json:"type"`
	Element  string      `json:"element,omitempty"`
	Text     string      `json:"text,omitempty"`
	Space    bool        `json:"space,omitempty"`
	Href     string      `json:"href,omitempty"`
	Title    string      `json:"title,omitempty"`
	ID       string      `json:"id,omitempty"`
	Usemap   string      `json:"usemap,omitempty"`
	Columns  int         `json:"columns,omitempty"`
	Rows     int         `json:"rows,omitempty"`
	Gadget   string      `json:"gadget,omitempty"`
	Object   string      `json:"object,omitempty"`
	Floats   []*DumpNode `json:"floats,omitempty"`
	Children []*DumpNode `json:"children,omitempty"`
}

// DumpTree converts the box tree rooted at b into its serializable form.
func DumpTree(b *Box) *DumpNode {
	if b == nil {
		return nil
	}
	n := &DumpNode{
		Type:   b.Type.String(),
		Text:   b.Text,
		Space:  b.Space,
		Href:   b.Href,
		Title:  b.Title,
		ID:     b.ID,
		Usemap: b.Usemap,
	}
	if b.Node != nil {
		n.Element = b.Node.Data
	}
	// Spans default to 1; only report widened cells.
	if b.Columns > 1 {
		n.Columns = b.Columns
	}
	if b.Rows > 1 {
		n.Rows = b.Rows
	}
	if b.Gadget != nil {
		n.Gadget = b.Gadget.Kind.String()
	}
	if b.Object != nil {
		n.Object = b.Object.Data
	}
	for f := b.FloatChildren; f != nil; f = f.NextFloat {
		n.Floats = append(n.Floats, DumpTree(f))
	}
	for c := b.FirstChild; c != nil; c = c.Next {
		// Float wrappers sit in both the child list and the float chain
		// of their anchor; report them only through Floats.
		if c.Type == BoxFloatLeft || c.Type == BoxFloatRight {
			continue
		}
		n.Children = append(n.Children, DumpTree(c))
	}
	return n
}

// WriteText writes an indented one-line-per-box rendering of the tree,
// convenient for eyeballing a conversion.
func WriteText(w io.Writer, b *Box) error {
	return writeTextIndent(w, b, 0)
}

func writeTextIndent(w io.Writer, b *Box, depth int) error {
	if b == nil {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(b.Type.String())
	if b.Node != nil {
		sb.WriteString(" <" + b.Node.Data + ">")
	}
	if b.Text != "" {
		sb.WriteString(" " + strconv.Quote(b.Text))
	}
	if b.Space {
		sb.WriteString(" +space")
	}
	if b.Href != "" {
		sb.WriteString(" href=" + b.Href)
	}
	if b.Gadget != nil {
		sb.WriteString(" gadget=" + b.Gadget.Kind.String())
	}
	if b.Object != nil {
		sb.WriteString(" object=" + b.Object.Data)
	}
	sb.WriteByte('\n')
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	for f := b.FloatChildren; f != nil; f = f.NextFloat {
		if _, err := fmt.Fprintf(w, "%sfloat:\n", strings.Repeat("  ", depth+1)); err != nil {
			return err
		}
		if err := writeTextIndent(w, f, depth+2); err != nil {
			return err
		}
	}
	for c := b.FirstChild; c != nil; c = c.Next {
		if c.Type == BoxFloatLeft || c.Type == BoxFloatRight {
			continue
		}
		if err := writeTextIndent(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
