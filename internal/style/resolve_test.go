// internal/style/resolve_test.go
package style_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxtree/internal/dom"
	"github.com/xkilldash9x/boxtree/internal/style"
)

func newTestResolver(t *testing.T) *style.Resolver {
	t.Helper()
	base, err := url.Parse("http://example.net/doc.html")
	require.NoError(t, err)
	return style.NewResolver(style.UACascader{}, base, nil)
}

// resolveFirst parses src and resolves the style of the first element with
// the given tag, with default parent styling above it.
func resolveFirst(t *testing.T, src, tag string) *style.ComputedStyle {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)

	var target *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if target == nil && dom.IsElement(n) && dom.TagName(n) == tag {
			target = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	require.NotNil(t, target, "tag %q not found", tag)

	r := newTestResolver(t)
	parent := style.Base()
	return r.Resolve(&parent, target)
}

func TestResolve_TagDefaults(t *testing.T) {
	assert.Equal(t, style.DisplayBlock, resolveFirst(t, `<div></div>`, "div").Display)
	assert.Equal(t, style.DisplayInline, resolveFirst(t, `<p><span>x</span></p>`, "span").Display)
	assert.Equal(t, style.DisplayNone, resolveFirst(t, `<head></head>`, "head").Display)
	assert.Equal(t, style.DisplayTableCell, resolveFirst(t, `<table><tr><td>x</td></tr></table>`, "td").Display)
	assert.Equal(t, style.WhiteSpacePre, resolveFirst(t, `<pre>x</pre>`, "pre").WhiteSpace)
}

func TestResolve_StyleAttribute(t *testing.T) {
	s := resolveFirst(t, `<span style="display: block; width: 10px; color: red"></span>`, "span")
	assert.Equal(t, style.DisplayBlock, s.Display)
	assert.Equal(t, style.Px(10), s.Width)
	assert.Equal(t, style.Color{R: 255, A: 255}, s.Color)
}

func TestResolve_FloatForcesBlock(t *testing.T) {
	// display solving per CSS 2.1 section 9.7: floated inlines become blocks
	s := resolveFirst(t, `<span style="float: left"></span>`, "span")
	assert.Equal(t, style.FloatLeft, s.Float)
	assert.Equal(t, style.DisplayBlock, s.Display)
}

func TestResolve_AbsolutePositionClearsFloat(t *testing.T) {
	s := resolveFirst(t, `<span style="position: absolute; float: right"></span>`, "span")
	assert.Equal(t, style.FloatNone, s.Float)
	assert.Equal(t, style.DisplayBlock, s.Display)
}

func TestResolve_BackgroundAttribute(t *testing.T) {
	t.Run("relative reference is made absolute", func(t *testing.T) {
		s := resolveFirst(t, `<body background="img/bg.gif"></body>`, "body")
		assert.Equal(t, "http://example.net/img/bg.gif", s.BackgroundImage)
	})

	t.Run("reference to the document itself is dropped", func(t *testing.T) {
		s := resolveFirst(t, `<body background="doc.html"></body>`, "body")
		assert.Empty(t, s.BackgroundImage)
	})

	t.Run("style attribute url is resolved too", func(t *testing.T) {
		s := resolveFirst(t, `<div style="background-image: url('x.png')"></div>`, "div")
		assert.Equal(t, "http://example.net/x.png", s.BackgroundImage)
	})
}

func TestResolve_LegacyAttributes(t *testing.T) {
	t.Run("bgcolor and text", func(t *testing.T) {
		s := resolveFirst(t, `<body bgcolor="#001122" text="white"></body>`, "body")
		assert.Equal(t, style.Color{R: 0x00, G: 0x11, B: 0x22, A: 255}, s.BackgroundColor)
		assert.Equal(t, style.Color{R: 255, G: 255, B: 255, A: 255}, s.Color)
	})

	t.Run("width in pixels and percent", func(t *testing.T) {
		assert.Equal(t, style.Px(300), resolveFirst(t, `<table width="300"></table>`, "table").Width)
		assert.Equal(t, style.Percent(80), resolveFirst(t, `<table width="80%"></table>`, "table").Width)
	})

	t.Run("negative sizes are ignored", func(t *testing.T) {
		s := resolveFirst(t, `<table width="-5" height="-5"></table>`, "table")
		assert.Equal(t, style.DimensionAuto, s.Width.Kind)
		assert.Equal(t, style.DimensionAuto, s.Height.Kind)
	})

	t.Run("percentage heights are ignored", func(t *testing.T) {
		s := resolveFirst(t, `<iframe height="50%"></iframe>`, "iframe")
		assert.Equal(t, style.DimensionAuto, s.Height.Kind)
	})

	t.Run("input size in character units", func(t *testing.T) {
		s := resolveFirst(t, `<input type="text" size="20">`, "input")
		assert.Equal(t, style.Dimension{Kind: style.DimensionLength, Value: 20, Unit: style.UnitEx}, s.Width)
	})

	t.Run("file input ignores size", func(t *testing.T) {
		s := resolveFirst(t, `<input type="file" size="20">`, "input")
		assert.Equal(t, style.DimensionAuto, s.Width.Kind)
	})

	t.Run("textarea rows and cols", func(t *testing.T) {
		s := resolveFirst(t, `<textarea rows="4" cols="40"></textarea>`, "textarea")
		assert.Equal(t, style.Dimension{Kind: style.DimensionLength, Value: 4, Unit: style.UnitEm}, s.Height)
		assert.Equal(t, style.Dimension{Kind: style.DimensionLength, Value: 40, Unit: style.UnitEx}, s.Width)
	})

	t.Run("table cellpadding defaults to one", func(t *testing.T) {
		s := resolveFirst(t, `<table></table>`, "table")
		assert.Equal(t, style.CellPadding{Set: true, Value: 1}, s.CellPadding)
	})

	t.Run("table cellspacing", func(t *testing.T) {
		s := resolveFirst(t, `<table cellspacing="6" cellpadding="2"></table>`, "table")
		assert.Equal(t, style.BorderSpacing{Set: true, Horz: 6, Vert: 6}, s.BorderSpacing)
		assert.Equal(t, style.CellPadding{Set: true, Value: 2}, s.CellPadding)
	})
}

func TestResolve_Inheritance(t *testing.T) {
	r := newTestResolver(t)

	parent := style.Base()
	parent.Color = style.Color{R: 1, G: 2, B: 3, A: 255}
	parent.WhiteSpace = style.WhiteSpacePre
	parent.TextTransform = style.TextTransformUppercase
	parent.Width = style.Px(500)

	doc, err := html.Parse(strings.NewReader(`<p><span>x</span></p>`))
	require.NoError(t, err)
	var span *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if span == nil && dom.IsElement(n) && dom.TagName(n) == "span" {
			span = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	require.NotNil(t, span)

	s := r.Resolve(&parent, span)
	assert.Equal(t, parent.Color, s.Color, "color inherits")
	assert.Equal(t, style.WhiteSpacePre, s.WhiteSpace, "white-space inherits")
	assert.Equal(t, style.TextTransformUppercase, s.TextTransform, "text-transform inherits")
	assert.Equal(t, style.DimensionAuto, s.Width.Kind, "width does not inherit")
}
