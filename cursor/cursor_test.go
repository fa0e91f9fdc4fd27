package cursor

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/style"
	"github.com/ByLCY/folio/topology"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// 等宽测量器：字符宽 10，行高 12，基线 10。
const charW = 10

type fixedMeasurer struct{}

func (fixedMeasurer) StringWidth(_ style.Font, s string) int {
	return utf8.RuneCountInString(s) * charW
}
func (fixedMeasurer) CharsWidth(_ style.Font, _ []rune, _, n int) int { return n * charW }
func (fixedMeasurer) FontMetrics(style.Font) layout.FontMetrics {
	return layout.FontMetrics{Ascent: 10, Descent: 2}
}

const sheet = `
* { display: inline; }
doc, para, section { display: block; }
table { display: table; }
tr { display: table-row; }
td { display: table-cell; }
`

func newTopology(t *testing.T, doc *dom.Document, css string, width int) *topology.Topology {
	t.Helper()
	sh, err := style.ParseString(css)
	require.NoError(t, err)
	cache := style.NewCache(doc, sh)
	t.Cleanup(cache.Close)
	tree, err := layout.Build(doc, layout.BuildOptions{Measurer: fixedMeasurer{}, Styles: cache, Width: width})
	require.NoError(t, err)
	return topology.New(tree)
}

func newCursor(t *testing.T, doc *dom.Document, width int) *Cursor {
	t.Helper()
	return New(newTopology(t, doc, sheet, width), Options{})
}

// 0 <doc, 1 <para, 2-9 abcdefgh, 10 /para>, 11 <para, 12-13 ab, 14 /para>,
// 15 <para, 16-23 abcdefgh, 24 /para>, 25 /doc>
func columnsDoc() *dom.Document {
	return dom.NewBuilder("doc").
		Element("para", "abcdefgh").
		Element("para", "ab").
		Element("para", "abcdefgh").
		MustBuild()
}

// 0 <doc, 1 <para, 2-18 "line1 line2 line3", 19 /para>, 20 /doc>
func splitDoc() *dom.Document {
	return dom.NewBuilder("doc").Element("para", "line1 line2 line3").MustBuild()
}

func TestNewStartsAtFirstOffset(t *testing.T) {
	c := newCursor(t, columnsDoc(), 400)
	assert.Equal(t, 0, c.Offset())
	assert.Equal(t, c.topo.Tree().Root(), c.Box())
}

func TestLeftRightAreInverse(t *testing.T) {
	docs := map[string]*dom.Document{
		"columns": columnsDoc(),
		"split":   splitDoc(),
		"mixed": dom.NewBuilder("doc").
			Start("para").Text("ab").Element("em", "cd").Text("e").End().
			Start("para").End().
			Start("table").Start("tr").Element("td", "x").Start("td").End().End().End().
			MustBuild(),
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			c := newCursor(t, doc, 60)
			for o := 1; o < doc.LastOffset(); o++ {
				c.Move(To(o))
				require.Equal(t, o, c.Offset())
				c.Move(Step(MoveRight))
				c.Move(Step(MoveLeft))
				assert.Equal(t, o, c.Offset(), "offset %d", o)
			}
		})
	}
}

func TestHorizontalEdgesAreNoOps(t *testing.T) {
	c := newCursor(t, columnsDoc(), 400)
	assert.Equal(t, 0, c.Move(Step(MoveLeft)))
	c.Move(To(25))
	assert.Equal(t, 25, c.Move(Step(MoveRight)))
}

func TestHorizontalSkipsHiddenContent(t *testing.T) {
	doc := dom.NewBuilder("doc").
		Start("para").Text("ab").Element("hidden", "zz").Text("cd").End().
		MustBuild()
	// 0 <doc, 1 <para, 2 a, 3 b, 4 <hidden, 5-6 zz, 7 /hidden>, 8 c, 9 d, 10 /para>, 11 /doc>
	topo := newTopology(t, doc, sheet+"hidden { display: none; }", 400)
	c := New(topo, Options{})
	c.Move(To(3))
	assert.Equal(t, 8, c.Move(Step(MoveRight)))
	assert.Equal(t, 3, c.Move(Step(MoveLeft)))
	// 目标偏移不可认领时取其后最近的偏移
	assert.Equal(t, 8, c.Move(To(5)))
}

func TestToOffsetClamps(t *testing.T) {
	c := newCursor(t, columnsDoc(), 400)
	assert.Equal(t, 25, c.Move(To(1000)))
	assert.Equal(t, 0, c.Move(To(-3)))
}

func TestStickyColumn(t *testing.T) {
	c := newCursor(t, columnsDoc(), 400)
	c.Move(To(7))

	assert.Equal(t, 14, c.Move(Step(MoveDown)), "短行末尾")
	assert.Equal(t, 50, c.PreferredX())
	assert.Equal(t, 21, c.Move(Step(MoveDown)), "回到首选列")
	assert.Equal(t, 50, c.PreferredX())

	c.Move(Step(MoveRight))
	assert.Equal(t, 22, c.Offset())
	assert.Equal(t, 14, c.Move(Step(MoveUp)))
	assert.Equal(t, 60, c.PreferredX(), "水平移动后刷新首选列")
}

func TestDownThroughSplitLines(t *testing.T) {
	c := newCursor(t, splitDoc(), 60)
	c.Move(To(4))
	assert.Equal(t, 10, c.Move(Step(MoveDown)))
	assert.Equal(t, 16, c.Move(Step(MoveDown)))
	assert.Equal(t, 16, c.Move(Step(MoveDown)), "最后一行")
	assert.Equal(t, 10, c.Move(Step(MoveUp)))
	assert.Equal(t, 4, c.Move(Step(MoveUp)))
}

func TestLinePositionFunctions(t *testing.T) {
	topo := newTopology(t, splitDoc(), sheet, 60)
	assert.Equal(t, 8, NextLinePosition(topo, 2, 0))
	assert.Equal(t, 2, PreviousLinePosition(topo, 8, 0))
	assert.Equal(t, 2, PreviousLinePosition(topo, 2, 0))
	assert.Equal(t, 20, NextLinePosition(topo, 99, 0), "越界偏移被截断")
	assert.Equal(t, 0, PreviousLinePosition(topo, -5, 0))
}

// 0 <doc, 1 <para, 2 a, 3 b, 4 <em, 5 c, 6 d, 7 /em>, 8 e, 9 /para>, 10 <para, 11 /para>,
// 12 <section, 13 <para, 14 x, 15 /para>, 16 /section>, 17 /doc>
func structuredDoc() *dom.Document {
	return dom.NewBuilder("doc").
		Start("para").Text("ab").Element("em", "cd").Text("e").End().
		Start("para").End().
		Start("section").Element("para", "x").End().
		MustBuild()
}

func TestVerticalEmptyNode(t *testing.T) {
	c := newCursor(t, structuredDoc(), 400)
	c.Move(To(10))
	assert.Equal(t, 11, c.Move(Step(MoveDown)))
	assert.Equal(t, 10, c.Move(Step(MoveUp)))
}

func TestVerticalEntersBlocks(t *testing.T) {
	c := newCursor(t, structuredDoc(), 400)
	c.Move(To(12))
	assert.Equal(t, 14, c.Move(Step(MoveDown)), "块起点进入第一行")

	c.Move(To(9))
	assert.Equal(t, 11, c.Move(Step(MoveDown)), "下一段为空时落在占位符上")
}

// 0 <doc, 1 <table, 2 <tr, 3 <td, 4 a, 5 /td>, 6 <td, 7 b, 8 /td>, 9 /tr>,
// 10 <tr, 11 <td, 12 c, 13 /td>, 14 <td, 15 d, 16 /td>, 17 /tr>, 18 /table>, 19 /doc>
func TestVerticalAcrossTableRows(t *testing.T) {
	doc := dom.NewBuilder("doc").
		Start("table").
		Start("tr").Element("td", "a").Element("td", "b").End().
		Start("tr").Element("td", "c").Element("td", "d").End().
		End().
		MustBuild()
	c := newCursor(t, doc, 200)
	c.Move(To(7))
	assert.Equal(t, 15, c.Move(Step(MoveDown)))
	assert.Equal(t, 7, c.Move(Step(MoveUp)))
}

// 0 <doc, 1 <para, 2-6 hello, 7 ',', 8 ' ', 9-13 world, 14 ' ', 15-16 42, 17 /para>, 18 /doc>
func wordsDoc() *dom.Document {
	return dom.NewBuilder("doc").Element("para", "hello, world 42").MustBuild()
}

func TestWordMoves(t *testing.T) {
	c := newCursor(t, wordsDoc(), 400)

	c.Move(To(4))
	assert.Equal(t, 2, c.Move(Step(MoveWordStart)))
	c.Move(To(4))
	assert.Equal(t, 7, c.Move(Step(MoveWordEnd)))

	c.Move(To(2))
	for _, want := range []int{7, 14, 17, 18, 18} {
		assert.Equal(t, want, c.Move(Step(MoveNextWord)))
	}
	c.Move(To(17))
	for _, want := range []int{15, 9, 2, 1, 0, 0} {
		assert.Equal(t, want, c.Move(Step(MovePreviousWord)))
	}
}

func TestLineStartEnd(t *testing.T) {
	c := newCursor(t, splitDoc(), 60)

	c.Move(To(10))
	assert.Equal(t, 8, c.Move(Step(MoveLineStart)))
	c.Move(To(10))
	assert.Equal(t, 13, c.Move(Step(MoveLineEnd)), "折行处停在行内最后一个字符之前")

	c.Move(To(16))
	assert.Equal(t, 19, c.Move(Step(MoveLineEnd)))
	assert.Equal(t, 14, c.Move(Step(MoveLineStart)), "块末尾回到最后一行行首")
}

func TestSelection(t *testing.T) {
	c := newCursor(t, columnsDoc(), 400)
	c.Move(To(2))
	c.Select(Step(MoveRight))
	c.Select(Step(MoveRight))

	sel, ok := c.Selection().(*RangeSelection)
	require.True(t, ok)
	start, end := sel.Bounds()
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end)

	c.Select(Step(MoveLeft))
	c.Select(Step(MoveLeft))
	c.Select(Step(MoveLeft))
	start, end = sel.Bounds()
	assert.Equal(t, 1, start)
	assert.Equal(t, 2, end)

	c.Move(Step(MoveRight))
	assert.True(t, sel.Empty())
	assert.Equal(t, 2, sel.Caret)
}

func TestQueueIsFIFO(t *testing.T) {
	c := newCursor(t, columnsDoc(), 400)
	c.Enqueue(To(5))
	c.Enqueue(Step(MoveRight))
	c.EnqueueSelect(Step(MoveRight))
	assert.Equal(t, 3, c.Pending())
	assert.Equal(t, 0, c.Offset(), "入队不移动")

	assert.Equal(t, 7, c.Flush())
	assert.Equal(t, 0, c.Pending())
	start, end := c.Selection().(*RangeSelection).Bounds()
	assert.Equal(t, 6, start)
	assert.Equal(t, 7, end)
}

// 10 段 "p0".."p9"：段 i 的起始标记在 1+4i，文本在 2+4i。
func pagesDoc() *dom.Document {
	b := dom.NewBuilder("doc")
	for i := range 10 {
		b.Element("para", "p"+string(rune('0'+i)))
	}
	return b.MustBuild()
}

func TestPageMoves(t *testing.T) {
	c := newCursor(t, pagesDoc(), 400)

	c.SetViewport(layout.Rect{Width: 400, Height: 24})
	assert.Equal(t, 14, c.Move(Step(MovePageDown)))

	c.SetViewport(layout.Rect{Y: 100, Width: 400, Height: 24})
	assert.Equal(t, 41, c.Move(Step(MovePageDown)), "越过内容底部")

	c.SetViewport(layout.Rect{Y: 60, Width: 400, Height: 24})
	assert.Equal(t, 14, c.Move(Step(MovePageUp)))

	c.SetViewport(layout.Rect{Width: 400, Height: 24})
	assert.Equal(t, 0, c.Move(Step(MovePageUp)))
}

func TestScrollToCaretFollowsPageMoves(t *testing.T) {
	c := newCursor(t, pagesDoc(), 400)
	c.SetViewport(layout.Rect{Width: 400, Height: 24})
	assert.False(t, c.ScrollToCaret(), "光标已可见")

	// y = 0 + 45 落在第 4 段 (36..48)
	assert.Equal(t, 14, c.Move(Step(MovePageDown)))
	require.True(t, c.ScrollToCaret())
	assert.Equal(t, 24, c.Viewport().Y)

	// y = 24 + 45 落在第 6 段 (60..72)
	assert.Equal(t, 22, c.Move(Step(MovePageDown)))
	require.True(t, c.ScrollToCaret())
	assert.Equal(t, 48, c.Viewport().Y)

	// y = 48 - 21 落在第 3 段 (24..36)
	assert.Equal(t, 10, c.Move(Step(MovePageUp)))
	require.True(t, c.ScrollToCaret())
	assert.Equal(t, 24, c.Viewport().Y)

	c.SetViewport(layout.Rect{Width: 400})
	assert.False(t, c.ScrollToCaret())
}

func TestPageFactors(t *testing.T) {
	topo := newTopology(t, pagesDoc(), sheet, 400)
	c := New(topo, Options{PageDownFactor: 1})
	c.SetViewport(layout.Rect{Width: 400, Height: 24})
	// y = 24 落在第三段
	assert.Equal(t, 10, c.Move(Step(MovePageDown)))
}

func TestMoveIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	topo := newTopology(t, columnsDoc(), sheet, 400)
	c := New(topo, Options{Logger: zap.New(core)})

	c.Move(Step(MoveRight))
	entries := logs.FilterMessage("move").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "right", fields["kind"])
	assert.EqualValues(t, 0, fields["from"])
	assert.EqualValues(t, 1, fields["to"])
}

func TestSetTopologyKeepsOffset(t *testing.T) {
	doc := columnsDoc()
	c := newCursor(t, doc, 400)
	c.Move(To(20))

	c.SetTopology(newTopology(t, doc, sheet, 30))
	assert.Equal(t, 20, c.Offset())
	assert.NotEqual(t, layout.NoBox, c.Box())
}

func TestParseMoveKind(t *testing.T) {
	for k := MoveLeft; k <= MovePageDown; k++ {
		got, err := ParseMoveKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParseMoveKind(" Line-End ")
	require.NoError(t, err)
	assert.Equal(t, MoveLineEnd, got)

	_, err = ParseMoveKind("sideways")
	assert.Error(t, err)
}

func TestMoveString(t *testing.T) {
	assert.Equal(t, "to-offset(3)", To(3).String())
	assert.Equal(t, "to-coordinates(1,2)", At(1, 2).String())
	assert.Equal(t, "down", Step(MoveDown).String())
	assert.Equal(t, "MoveKind(200)", MoveKind(200).String())
}

// 0 <doc, 1 <para, 2-3 ab, 4 /para>, 5 <section, 6 <para, 7-17 "aaa bbb ccc", 18 /para>,
// 19 /section>, 20 <para, 21-22 zz, 23 /para>, 24 /doc>
// section 内缩 50px，段落每行 4 个字符："aaa " / "bbb " / "ccc"。
func indentedDoc() *dom.Document {
	return dom.NewBuilder("doc").
		Element("para", "ab").
		Start("section").Element("para", "aaa bbb ccc").End().
		Element("para", "zz").
		MustBuild()
}

func TestDownIntoShortLastLineStopsAtBlockEnd(t *testing.T) {
	topo := newTopology(t, indentedDoc(), sheet+`section { padding-left: 50px; }`, 90)
	c := New(topo, Options{})

	c.Move(To(2))
	assert.Equal(t, 7, c.Move(Step(MoveDown)))
	assert.Equal(t, 11, c.Move(Step(MoveDown)))
	// 最后一行位于 x=0 右侧：停在段落末尾而不是进入 "ccc"
	assert.Equal(t, 18, c.Move(Step(MoveDown)))
	caret := c.Caret()
	assert.Equal(t, ShapeAppendWithText, caret.Shape)
	assert.Equal(t, 80, caret.Rect.X)
}

func TestUpIntoIndentedLastLineStopsAtBlockEnd(t *testing.T) {
	topo := newTopology(t, indentedDoc(), sheet+`section { padding-left: 50px; }`, 90)
	c := New(topo, Options{})

	c.Move(To(21))
	// 上一块最后一行的首个叶子在 x=50：停在 section 末尾
	assert.Equal(t, 19, c.Move(Step(MoveUp)))
	assert.Equal(t, ShapeAppendStructural, c.Caret().Shape)
	for _, want := range []int{15, 11, 7, 2} {
		assert.Equal(t, want, c.Move(Step(MoveUp)))
	}
}
