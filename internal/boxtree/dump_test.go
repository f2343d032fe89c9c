// internal/boxtree/dump_test.go
package boxtree_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxtree/internal/boxtree"
)

func TestDumpTree(t *testing.T) {
	fx := setupConvert(t, `<html><body><div><a href="x.html">go</a> on</div></body></html>`)

	dump := boxtree.DumpTree(fx.content.LayoutRoot())
	require.NotNil(t, dump)
	assert.Equal(t, "BLOCK", dump.Type)
	assert.Equal(t, "html", dump.Element)

	var anchor *boxtree.DumpNode
	var walk func(n *boxtree.DumpNode)
	walk = func(n *boxtree.DumpNode) {
		if n.Element == "a" {
			anchor = n
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(dump)
	require.NotNil(t, anchor)
	assert.Equal(t, "INLINE", anchor.Type)
	assert.Equal(t, "x.html", anchor.Href)
}

func TestDumpTree_Nil(t *testing.T) {
	assert.Nil(t, boxtree.DumpTree(nil))
}

func TestDumpTree_FloatAppearsOnce(t *testing.T) {
	fx := setupConvert(t, `<html><body><div style="float: left">f</div>after</body></html>`)

	dump := boxtree.DumpTree(fx.content.LayoutRoot())
	require.NotNil(t, dump)

	var floats, children int
	var walk func(n *boxtree.DumpNode)
	walk = func(n *boxtree.DumpNode) {
		for _, f := range n.Floats {
			if strings.HasPrefix(f.Type, "FLOAT_") {
				floats++
			}
			walk(f)
		}
		for _, c := range n.Children {
			if strings.HasPrefix(c.Type, "FLOAT_") {
				children++
			}
			walk(c)
		}
	}
	walk(dump)
	assert.Equal(t, 1, floats, "float wrapper should be listed under floats")
	assert.Zero(t, children, "float wrapper must not also appear as a child")
}

func TestWriteText(t *testing.T) {
	fx := setupConvert(t, `<html><body><div style="float: left">f</div>after</body></html>`)

	var sb strings.Builder
	require.NoError(t, boxtree.WriteText(&sb, fx.content.LayoutRoot()))
	out := sb.String()

	assert.Contains(t, out, "BLOCK <html>")
	assert.Equal(t, 1, strings.Count(out, "FLOAT_LEFT"))
	assert.Contains(t, out, "float:")
	assert.Contains(t, out, `"after"`)
}
