// internal/boxtree/normalize_test.go
package boxtree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxtree/internal/boxtree"
	"github.com/xkilldash9x/boxtree/internal/style"
)

// makeBox is a raw box factory for normalizer tests.
func makeBox(t *testing.T, pool *boxtree.Pool, typ boxtree.BoxType) *boxtree.Box {
	t.Helper()
	base := style.Base()
	b, err := pool.NewBox(&base, "", "", "")
	require.NoError(t, err)
	b.Type = typ
	return b
}

func TestNormalize_LooseCellsGetFullTableStructure(t *testing.T) {
	pool := boxtree.NewPool()
	tn := boxtree.NewTableNormalizer(nil)

	block := makeBox(t, pool, boxtree.BoxBlock)
	cell1 := makeBox(t, pool, boxtree.BoxTableCell)
	cell2 := makeBox(t, pool, boxtree.BoxTableCell)
	block.AddChild(cell1)
	block.AddChild(cell2)

	require.NoError(t, tn.NormalizeBlock(block, pool))

	// cell -> synthetic table -> row group -> row -> both cells
	require.Equal(t, []boxtree.BoxType{boxtree.BoxTable}, childTypes(block))
	table := block.FirstChild
	require.Equal(t, []boxtree.BoxType{boxtree.BoxTableRowGroup}, childTypes(table))
	group := table.FirstChild
	require.Equal(t, []boxtree.BoxType{boxtree.BoxTableRow}, childTypes(group))
	row := group.FirstChild
	require.Equal(t, []boxtree.BoxType{
		boxtree.BoxTableCell, boxtree.BoxTableCell,
	}, childTypes(row))
	assert.Same(t, cell1, row.FirstChild)
	assert.Same(t, cell2, row.LastChild)
}

func TestNormalize_RowsWrappedInRowGroup(t *testing.T) {
	pool := boxtree.NewPool()
	tn := boxtree.NewTableNormalizer(nil)

	block := makeBox(t, pool, boxtree.BoxBlock)
	table := makeBox(t, pool, boxtree.BoxTable)
	row := makeBox(t, pool, boxtree.BoxTableRow)
	cell := makeBox(t, pool, boxtree.BoxTableCell)
	block.AddChild(table)
	table.AddChild(row)
	row.AddChild(cell)

	require.NoError(t, tn.NormalizeBlock(block, pool))

	require.Equal(t, []boxtree.BoxType{boxtree.BoxTableRowGroup}, childTypes(table))
	assert.Same(t, row, table.FirstChild.FirstChild)

	// synthetic wrappers share a style rather than owning one
	assert.True(t, table.FirstChild.StyleClone)
}

func TestNormalize_StrayBlockMovesOutOfTable(t *testing.T) {
	pool := boxtree.NewPool()
	tn := boxtree.NewTableNormalizer(nil)

	block := makeBox(t, pool, boxtree.BoxBlock)
	table := makeBox(t, pool, boxtree.BoxTable)
	stray := makeBox(t, pool, boxtree.BoxBlock)
	group := makeBox(t, pool, boxtree.BoxTableRowGroup)
	row := makeBox(t, pool, boxtree.BoxTableRow)
	cell := makeBox(t, pool, boxtree.BoxTableCell)

	block.AddChild(table)
	table.AddChild(stray)
	table.AddChild(group)
	group.AddChild(row)
	row.AddChild(cell)

	require.NoError(t, tn.NormalizeBlock(block, pool))

	// the stray block now precedes the table
	require.Equal(t, []boxtree.BoxType{boxtree.BoxBlock, boxtree.BoxTable}, childTypes(block))
	assert.Same(t, stray, block.FirstChild)
	require.Equal(t, []boxtree.BoxType{boxtree.BoxTableRowGroup}, childTypes(table))
}

func TestNormalize_EmptyTableIsRemoved(t *testing.T) {
	pool := boxtree.NewPool()
	tn := boxtree.NewTableNormalizer(nil)

	block := makeBox(t, pool, boxtree.BoxBlock)
	table := makeBox(t, pool, boxtree.BoxTable)
	after := makeBox(t, pool, boxtree.BoxBlock)
	block.AddChild(table)
	block.AddChild(after)

	require.NoError(t, tn.NormalizeBlock(block, pool))

	require.Equal(t, []boxtree.BoxType{boxtree.BoxBlock}, childTypes(block))
	assert.Same(t, after, block.FirstChild)
}

func TestNormalize_LooseRowContentGetsCell(t *testing.T) {
	pool := boxtree.NewPool()
	tn := boxtree.NewTableNormalizer(nil)

	block := makeBox(t, pool, boxtree.BoxBlock)
	table := makeBox(t, pool, boxtree.BoxTable)
	group := makeBox(t, pool, boxtree.BoxTableRowGroup)
	row := makeBox(t, pool, boxtree.BoxTableRow)
	loose := makeBox(t, pool, boxtree.BoxBlock)
	cell := makeBox(t, pool, boxtree.BoxTableCell)

	block.AddChild(table)
	table.AddChild(group)
	group.AddChild(row)
	row.AddChild(loose)
	row.AddChild(cell)

	require.NoError(t, tn.NormalizeBlock(block, pool))

	types := childTypes(row)
	require.Equal(t, []boxtree.BoxType{boxtree.BoxTableCell, boxtree.BoxTableCell}, types)
	assert.Same(t, loose, row.FirstChild.FirstChild)
	assert.Same(t, cell, row.LastChild)
}

func TestNormalize_AllocationFailurePropagates(t *testing.T) {
	pool := boxtree.NewPool()
	tn := boxtree.NewTableNormalizer(nil)

	block := makeBox(t, pool, boxtree.BoxBlock)
	cell := makeBox(t, pool, boxtree.BoxTableCell)
	block.AddChild(cell)

	pool.SetAllocHook(func() error { return boxtree.ErrMemory })
	err := tn.NormalizeBlock(block, pool)
	assert.ErrorIs(t, err, boxtree.ErrMemory)
}
