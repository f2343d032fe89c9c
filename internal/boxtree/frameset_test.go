// internal/boxtree/frameset_test.go
package boxtree_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxtree/internal/boxtree"
	"github.com/xkilldash9x/boxtree/internal/style"
)

func TestParseMultiLengths(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []boxtree.MultiLength
	}{
		{
			name: "mixed units",
			in:   "50%,*,100",
			want: []boxtree.MultiLength{
				{Value: 50, Kind: boxtree.LengthPercent},
				{Value: 1, Kind: boxtree.LengthRelative},
				{Value: 100, Kind: boxtree.LengthPx},
			},
		},
		{
			name: "weighted relative",
			in:   "2*,3*",
			want: []boxtree.MultiLength{
				{Value: 2, Kind: boxtree.LengthRelative},
				{Value: 3, Kind: boxtree.LengthRelative},
			},
		},
		{
			name: "zero and negative default to one",
			in:   "0,-5,10",
			want: []boxtree.MultiLength{
				{Value: 1, Kind: boxtree.LengthPx},
				{Value: 1, Kind: boxtree.LengthPx},
				{Value: 10, Kind: boxtree.LengthPx},
			},
		},
		{
			name: "garbage defaults to one pixel entry",
			in:   "abc",
			want: []boxtree.MultiLength{
				{Value: 1, Kind: boxtree.LengthPx},
			},
		},
		{
			name: "surrounding whitespace",
			in:   " 25% , 75% ",
			want: []boxtree.MultiLength{
				{Value: 25, Kind: boxtree.LengthPercent},
				{Value: 75, Kind: boxtree.LengthPercent},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := boxtree.ParseMultiLengths(tc.in)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseMultiLengths(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestFrameset(t *testing.T) {
	t.Run("becomes a table grid", func(t *testing.T) {
		fx := setupConvert(t, `<html><frameset rows="50%,50%" cols="100,*">
			<frame src="a.html">
			<frame src="b.html">
			<frame src="c.html">
			<frame src="d.html">
		</frameset></html>`)

		fs := findBox(fx.root, "frameset")
		require.NotNil(t, fs)
		assert.Equal(t, boxtree.BoxTable, fs.Type)

		// normalization wraps the rows in a synthetic row group
		require.Equal(t, []boxtree.BoxType{boxtree.BoxTableRowGroup}, childTypes(fs))
		group := fs.FirstChild
		require.Equal(t, []boxtree.BoxType{boxtree.BoxTableRow, boxtree.BoxTableRow},
			childTypes(group))

		firstRow := group.FirstChild
		require.Equal(t, []boxtree.BoxType{boxtree.BoxTableCell, boxtree.BoxTableCell},
			childTypes(firstRow))

		// each cell holds the block the framed document loads into
		cell := firstRow.FirstChild
		require.Equal(t, []boxtree.BoxType{boxtree.BoxBlock}, childTypes(cell))

		require.Len(t, fx.fetcher.calls, 4)
		assert.Equal(t, "http://example.net/a.html", fx.fetcher.calls[0].url)
		// fixed column width is used as the fetch width hint
		assert.Equal(t, 100, fx.fetcher.calls[0].width)
		assert.Equal(t, 1000, fx.fetcher.calls[0].height)
		// relative column falls back to the viewport width
		assert.Equal(t, fx.content.AvailableWidth, fx.fetcher.calls[1].width)
	})

	t.Run("column tracks follow the cols attribute", func(t *testing.T) {
		fx := setupConvert(t, `<html><frameset cols="50%,*,100">
			<frame src="a.html"><frame src="b.html"><frame src="c.html">
		</frameset></html>`)

		fs := findBox(fx.root, "frameset")
		require.NotNil(t, fs)
		require.Len(t, fs.ColTracks, 3)
		assert.Equal(t, boxtree.ColumnPercent, fs.ColTracks[0].Kind)
		assert.Equal(t, 50.0, fs.ColTracks[0].Width)
		assert.Equal(t, boxtree.ColumnRelative, fs.ColTracks[1].Kind)
		assert.Equal(t, boxtree.ColumnFixed, fs.ColTracks[2].Kind)
		assert.Equal(t, 100.0, fs.ColTracks[2].Width)
	})

	t.Run("absent cols yields a single relative track", func(t *testing.T) {
		fx := setupConvert(t, `<html><frameset>
			<frame src="a.html">
		</frameset></html>`)

		fs := findBox(fx.root, "frameset")
		require.NotNil(t, fs)
		require.Len(t, fs.ColTracks, 1)
		assert.Equal(t, boxtree.ColumnRelative, fs.ColTracks[0].Kind)
		assert.Equal(t, 1.0, fs.ColTracks[0].Width)
	})

	t.Run("cell styles keep only inherited properties", func(t *testing.T) {
		fx := setupConvert(t, `<html><frameset cols="*" style="width: 120px; color: red">
			<frame src="a.html">
		</frameset></html>`)

		fs := findBox(fx.root, "frameset")
		require.NotNil(t, fs)
		cell := fs.FirstChild.FirstChild.FirstChild
		require.NotNil(t, cell)
		require.Equal(t, boxtree.BoxTableCell, cell.Type)

		assert.Equal(t, style.OverflowAuto, cell.Style.Overflow)
		// width does not inherit; it resets to auto on the cell
		assert.Equal(t, style.DimensionAuto, cell.Style.Width.Kind)
		// color does inherit
		assert.Equal(t, fs.Style.Color, cell.Style.Color)
	})

	t.Run("nested framesets recurse", func(t *testing.T) {
		fx := setupConvert(t, `<html><frameset cols="*,*">
			<frame src="left.html">
			<frameset rows="*,*">
				<frame src="top.html">
				<frame src="bottom.html">
			</frameset>
		</frameset></html>`)

		outer := findBox(fx.root, "frameset")
		require.NotNil(t, outer)
		require.Len(t, fx.fetcher.calls, 3)

		// the inner frameset sits inside a cell of the outer
		secondCell := outer.FirstChild.FirstChild.LastChild
		require.NotNil(t, secondCell)
		require.NotNil(t, secondCell.FirstChild)
		assert.Equal(t, boxtree.BoxTable, secondCell.FirstChild.Type)
		assert.True(t, secondCell.FirstChild.StyleClone)
	})

	t.Run("frame without src still occupies its cell", func(t *testing.T) {
		fx := setupConvert(t, `<html><frameset cols="*,*">
			<frame>
			<frame src="b.html">
		</frameset></html>`)

		require.Len(t, fx.fetcher.calls, 1)
		assert.Equal(t, "http://example.net/b.html", fx.fetcher.calls[0].url)
	})

	t.Run("self inclusion is skipped", func(t *testing.T) {
		fx := setupConvert(t, `<html><frameset>
			<frame src="page.html">
		</frameset></html>`)
		assert.Empty(t, fx.fetcher.calls)
	})
}
