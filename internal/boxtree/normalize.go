// internal/boxtree/normalize.go
//
// Post-construction normalization. Real documents misplace table parts
// freely, so the raw converter output is repaired here until every TABLE
// contains only ROW_GROUPs, every ROW_GROUP only ROWs and every ROW only
// CELLs, with missing levels synthesized and stray content wrapped.
package boxtree

import (
	"go.uber.org/zap"
)

// Normalizer repairs a constructed box tree in place.
type Normalizer interface {
	NormalizeBlock(block *Box, pool *Pool) error
}

// TableNormalizer is the standard Normalizer.
type TableNormalizer struct {
	log *zap.Logger
}

func NewTableNormalizer(log *zap.Logger) *TableNormalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &TableNormalizer{log: log}
}

func isTablePart(t BoxType) bool {
	return t == BoxTableRowGroup || t == BoxTableRow || t == BoxTableCell
}

// newWrapper makes a synthetic box sharing the parent's style.
func (tn *TableNormalizer) newWrapper(pool *Pool, t BoxType, like *Box) (*Box, error) {
	w, err := pool.NewBox(like.Style, like.Href, "", "")
	if err != nil {
		return nil, err
	}
	w.Type = t
	w.StyleClone = true
	return w, nil
}

// NormalizeBlock fixes the children of a BLOCK, INLINE_BLOCK or
// TABLE_CELL box. Runs of loose table parts are collected under a
// synthetic TABLE.
func (tn *TableNormalizer) NormalizeBlock(block *Box, pool *Pool) error {
	child := block.FirstChild
	for child != nil {
		next := child.Next
		switch child.Type {
		case BoxBlock, BoxInlineBlock:
			if err := tn.NormalizeBlock(child, pool); err != nil {
				return err
			}
		case BoxInlineContainer:
			if err := tn.normalizeInlineContainer(child, pool); err != nil {
				return err
			}
		case BoxTable:
			if err := tn.normalizeTable(child, pool); err != nil {
				return err
			}
		case BoxTableRowGroup, BoxTableRow, BoxTableCell:
			table, err := tn.newWrapper(pool, BoxTable, block)
			if err != nil {
				return err
			}
			// move the whole run of table parts under the new table
			run := child
			for run != nil && isTablePart(run.Type) {
				after := run.Next
				unlink(run)
				table.AddChild(run)
				run = after
			}
			next = run
			insertBefore(block, table, next)
			if err := tn.normalizeTable(table, pool); err != nil {
				return err
			}
			tn.log.Debug("wrapped loose table parts",
				zap.String("parent", block.Type.String()))
		}
		child = next
	}
	return nil
}

func (tn *TableNormalizer) normalizeTable(table *Box, pool *Pool) error {
	child := table.FirstChild
	for child != nil {
		next := child.Next
		switch child.Type {
		case BoxTableRowGroup:
			if err := tn.normalizeRowGroup(child, pool); err != nil {
				return err
			}
		case BoxTableRow, BoxTableCell:
			group, err := tn.newWrapper(pool, BoxTableRowGroup, table)
			if err != nil {
				return err
			}
			run := child
			for run != nil && (run.Type == BoxTableRow || run.Type == BoxTableCell) {
				after := run.Next
				unlink(run)
				group.AddChild(run)
				run = after
			}
			next = run
			insertBefore(table, group, next)
			if err := tn.normalizeRowGroup(group, pool); err != nil {
				return err
			}
		default:
			// content that cannot live in a table moves out in front of it
			unlink(child)
			insertBefore(table.Parent, child, table)
			if child.Type == BoxBlock || child.Type == BoxInlineBlock {
				if err := tn.NormalizeBlock(child, pool); err != nil {
					return err
				}
			}
		}
		child = next
	}

	// a table with no rows left renders nothing
	if table.FirstChild == nil && table.Parent != nil {
		unlink(table)
	}
	return nil
}

func (tn *TableNormalizer) normalizeRowGroup(group *Box, pool *Pool) error {
	child := group.FirstChild
	for child != nil {
		next := child.Next
		switch child.Type {
		case BoxTableRow:
			if err := tn.normalizeRow(child, pool); err != nil {
				return err
			}
		case BoxTableCell:
			row, err := tn.newWrapper(pool, BoxTableRow, group)
			if err != nil {
				return err
			}
			run := child
			for run != nil && run.Type == BoxTableCell {
				after := run.Next
				unlink(run)
				row.AddChild(run)
				run = after
			}
			next = run
			insertBefore(group, row, next)
			if err := tn.normalizeRow(row, pool); err != nil {
				return err
			}
		default:
			unlink(child)
			insertBefore(group.Parent.Parent, child, group.Parent)
		}
		child = next
	}
	return nil
}

func (tn *TableNormalizer) normalizeRow(row *Box, pool *Pool) error {
	child := row.FirstChild
	for child != nil {
		next := child.Next
		if child.Type == BoxTableCell {
			if err := tn.NormalizeBlock(child, pool); err != nil {
				return err
			}
		} else {
			// wrap loose row content in a synthetic cell
			cell, err := tn.newWrapper(pool, BoxTableCell, row)
			if err != nil {
				return err
			}
			run := child
			for run != nil && run.Type != BoxTableCell {
				after := run.Next
				unlink(run)
				cell.AddChild(run)
				run = after
			}
			next = run
			insertBefore(row, cell, next)
			if err := tn.NormalizeBlock(cell, pool); err != nil {
				return err
			}
		}
		child = next
	}
	return nil
}

func (tn *TableNormalizer) normalizeInlineContainer(ic *Box, pool *Pool) error {
	for child := ic.FirstChild; child != nil; child = child.Next {
		switch child.Type {
		case BoxInlineBlock:
			if err := tn.NormalizeBlock(child, pool); err != nil {
				return err
			}
		case BoxFloatLeft, BoxFloatRight:
			if err := tn.NormalizeBlock(child, pool); err != nil {
				return err
			}
		}
	}
	return nil
}

// unlink removes b from its parent's child list, leaving b's own child
// links intact.
func unlink(b *Box) {
	p := b.Parent
	if p == nil {
		return
	}
	if b.Prev != nil {
		b.Prev.Next = b.Next
	} else {
		p.FirstChild = b.Next
	}
	if b.Next != nil {
		b.Next.Prev = b.Prev
	} else {
		p.LastChild = b.Prev
	}
	b.Parent, b.Prev, b.Next = nil, nil, nil
}

// insertBefore links child into parent immediately before ref. A nil ref
// appends.
func insertBefore(parent, child, ref *Box) {
	if ref == nil {
		parent.AddChild(child)
		return
	}
	child.Parent = parent
	child.Next = ref
	child.Prev = ref.Prev
	if ref.Prev != nil {
		ref.Prev.Next = child
	} else {
		parent.FirstChild = child
	}
	ref.Prev = child
}
