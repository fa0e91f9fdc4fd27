package style

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/folio/dom"
)

const sampleSheet = `
/* block structure */
* { display: inline; }
book, chapter, para { display: block; margin: 4px 2px; }
para { font-size: 10pt; line-height: 1.5; }
title { display: block; font-weight: bold; padding-left: 3mm; }
pre { display: block; white-space: pre; }
#comment { display: none; }
chapter::before { content: "Chapter " "${attr.n}"; }
para { margin-top: 8px; }
`

func TestParseAST(t *testing.T) {
	ast, err := ParseAST(strings.NewReader(sampleSheet))
	require.NoError(t, err)
	require.Len(t, ast.Rules, 8)

	rule := ast.Rules[1]
	require.Len(t, rule.Selectors, 3)
	assert.Equal(t, "chapter", rule.Selectors[1].Name)
	require.Len(t, rule.Declarations, 2)
	assert.Equal(t, "margin", rule.Declarations[1].Property)
	assert.Len(t, rule.Declarations[1].Values, 2)

	before := ast.Rules[6].Selectors[0]
	assert.Equal(t, "chapter::before", before.String())
	assert.Equal(t, "#comment", ast.Rules[5].Selectors[0].Name)
}

func TestParseRejectsSyntaxErrors(t *testing.T) {
	_, err := ParseString(`para { display block; }`)
	require.Error(t, err)
}

func TestStrictUnknownProperty(t *testing.T) {
	_, err := ParseStrict(strings.NewReader(`para { colour: red; }`))
	require.ErrorIs(t, err, ErrUnknownProperty)

	sheet, err := ParseString(`para { colour: red; display: block; }`)
	require.NoError(t, err)
	require.Len(t, sheet.Warnings, 1)
	assert.Contains(t, sheet.Warnings[0], "colour")
}

func sampleDoc(t *testing.T) *dom.Document {
	t.Helper()
	return dom.NewBuilder("book").
		Start("chapter", dom.Attr{Key: "n", Value: "1"}).
		Element("title", "Intro").
		Start("para").Text("Hello ").Element("em", "world").End().
		Comment("hidden").
		End().
		MustBuild()
}

func TestComputeCascadeAndInheritance(t *testing.T) {
	sheet, err := ParseString(sampleSheet)
	require.NoError(t, err)
	require.Empty(t, sheet.Warnings)

	doc := sampleDoc(t)
	cache := NewCache(doc, sheet)
	defer cache.Close()

	chapter := doc.Children(doc.Root())[0]
	kids := doc.Children(chapter)
	title, para, comment := kids[0], kids[1], kids[2]
	em := doc.Children(para)[1]

	cs := cache.Styles(chapter)
	assert.Equal(t, DisplayBlock, cs.Display)
	assert.Equal(t, Edges{Px(4), Px(2), Px(4), Px(2)}, cs.Margin)

	ts := cache.Styles(title)
	assert.True(t, ts.Font.Bold)
	assert.Equal(t, Length{Value: 3, Unit: UnitMM}, ts.Padding.Left)
	assert.Equal(t, 11, DefaultRendering().Horizontal(ts.Padding.Left))

	ps := cache.Styles(para)
	assert.Equal(t, Pt(10), ps.Font.Size)
	assert.Equal(t, Px(8), ps.Margin.Top, "later rule overrides one side")
	assert.Equal(t, Px(2), ps.Margin.Left)
	assert.Equal(t, LineHeightSpec{Kind: LineHeightFactor, Factor: 1.5}, ps.LineHeight)

	es := cache.Styles(em)
	assert.Equal(t, DisplayInline, es.Display)
	assert.Equal(t, Pt(10), es.Font.Size, "font size is inherited")
	assert.Equal(t, LineHeightFactor, es.LineHeight.Kind)
	assert.True(t, es.Margin.Top.IsZero(), "margins are not inherited")

	assert.Equal(t, DisplayNone, cache.Styles(comment).Display)
	assert.Equal(t, DisplayInline, cache.Styles(doc.Children(title)[0]).Display)
}

func TestPseudoStyles(t *testing.T) {
	sheet, err := ParseString(sampleSheet)
	require.NoError(t, err)
	doc := sampleDoc(t)
	cache := NewCache(doc, sheet)
	defer cache.Close()

	chapter := doc.Children(doc.Root())[0]
	before := cache.PseudoStyles(chapter, PseudoBefore)
	require.NotNil(t, before)
	assert.Equal(t, "Chapter ${attr.n}", before.ContentText())
	assert.Nil(t, cache.PseudoStyles(chapter, PseudoAfter))
	assert.Nil(t, cache.PseudoStyles(doc.Root(), PseudoBefore))
}

func TestCacheInvalidatedOnDelete(t *testing.T) {
	sheet, err := ParseString(sampleSheet)
	require.NoError(t, err)
	doc := sampleDoc(t)
	cache := NewCache(doc, sheet)
	defer cache.Close()

	chapter := doc.Children(doc.Root())[0]
	para := doc.Children(chapter)[1]
	em := doc.Children(para)[1]
	cache.Styles(em)
	before := cache.Len()

	require.NoError(t, doc.Delete(doc.Range(em)))
	assert.Less(t, cache.Len(), before)
	_, stillCached := cache.styles[em]
	assert.False(t, stillCached)
}

func TestLengthPixels(t *testing.T) {
	rc := DefaultRendering()
	assert.Equal(t, 16, rc.Vertical(Pt(12)))
	assert.Equal(t, 96, rc.Horizontal(Length{Value: 1, Unit: UnitIN}))
	assert.Equal(t, 38, rc.Horizontal(Length{Value: 1, Unit: UnitCM}))
	assert.Equal(t, 7, rc.Horizontal(Px(7)))
	assert.InDelta(t, 9.0, Px(12).ToPT(96), 1e-9)

	l, err := ParseLength("2.5mm")
	require.NoError(t, err)
	assert.Equal(t, Length{Value: 2.5, Unit: UnitMM}, l)
	l, err = ParseLength("4")
	require.NoError(t, err)
	assert.Equal(t, Px(4), l)
	_, err = ParseLength("wide")
	assert.Error(t, err)
}

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度。
func TestPtMmRoundTrip(t *testing.T) {
	for _, pt := range []float64{0, 0.001, 1, 12, 14.4, 72, 96, 1000} {
		back := pt * PtToMm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt back=%g diff=%g", pt, back, diff)
		}
	}
}

func TestLineHeightResolve(t *testing.T) {
	rc := DefaultRendering()
	assert.Equal(t, 14, LineHeightSpec{}.Resolve(12, 14, rc))
	assert.Equal(t, 18, LineHeightSpec{Kind: LineHeightFactor, Factor: 1.5}.Resolve(12, 14, rc))
	assert.Equal(t, 24, LineHeightSpec{Kind: LineHeightAbsolute, Len: Pt(18)}.Resolve(12, 14, rc))

	lh, err := parseLineHeight("1.2x")
	require.NoError(t, err)
	assert.Equal(t, LineHeightFactor, lh.Kind)
	lh, err = parseLineHeight("20px")
	require.NoError(t, err)
	assert.Equal(t, LineHeightAbsolute, lh.Kind)
}
