package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/folio/dom"
)

func newTestEngine(t *testing.T, doc *dom.Document, width int) *Engine {
	t.Helper()
	e, err := NewEngine(doc, testOptions(t, doc, testSheet, width))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	_, err = e.Layout()
	require.NoError(t, err)
	return e
}

func TestRelayoutRebuildsOnlyDirtyBlock(t *testing.T) {
	// 0 <doc, 1 <para, 2-4 aaa, 5 /para>, 6 <para, 7-9 bbb, 10 /para>, 11 /doc>
	doc := dom.NewBuilder("doc").Element("para", "aaa").Element("para", "bbb").MustBuild()
	e := newTestEngine(t, doc, 6*charW)
	tree := e.Tree()
	second := tree.Children(tree.Root())[1]
	secondLeaf := tree.Leaves(second)[0]

	_, err := doc.InsertText(3, "xyz ")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Dirty())

	got, err := e.Relayout()
	require.NoError(t, err)
	assert.Same(t, tree, got)
	assert.Equal(t, 1, got.Generation())
	assert.False(t, got.Superseded())
	assert.Equal(t, 0, e.Dirty())

	kids := got.Children(got.Root())
	require.Len(t, kids, 2)
	// 未变更的段落原样复用，只被重新堆叠
	assert.Equal(t, second, kids[1])
	assert.Equal(t, secondLeaf, got.Leaves(kids[1])[0])
	assert.Equal(t, 24, got.RelativeRect(kids[1]).Y)
	assert.Equal(t, "bbb", got.Text(secondLeaf))
	assert.Equal(t, dom.Range{Start: 11, End: 13}, got.Range(secondLeaf))

	first := got.Leaves(kids[0])
	require.Len(t, first, 2)
	assert.Equal(t, "axyz ", got.Text(first[0]))
	assert.Equal(t, "aa", got.Text(first[1]))

	got.Walk(got.Root(), func(id BoxID) bool {
		assert.Equal(t, StatusClean, got.Status(id))
		return true
	})
	assert.Equal(t, 36, got.RelativeRect(got.Root()).Height)
}

func TestRelayoutEscalatesToTable(t *testing.T) {
	doc := dom.NewBuilder("doc").
		Start("table").Start("tr").Element("td", "a").Element("td", "b").End().End().
		Element("para", "tail").
		MustBuild()
	e := newTestEngine(t, doc, 200)
	tree := e.Tree()
	table := tree.Children(tree.Root())[0]
	a := doc.Children(doc.Children(doc.Children(doc.Children(doc.Root())[0])[0])[0])[0]

	_, err := doc.InsertText(doc.Range(a).Start, "aaaaa")
	require.NoError(t, err)
	_, err = e.Relayout()
	require.NoError(t, err)

	newTable := tree.Children(tree.Root())[0]
	assert.NotEqual(t, table, newTable)
	assert.Equal(t, KindTable, tree.Kind(newTable))
	cells := cellsOf(tree)
	require.Len(t, cells, 2)
	// 列宽按新的自然宽度 60:10 重新分配
	assert.Equal(t, 171, tree.RelativeRect(cells[0]).Width)
	assert.Equal(t, 29, tree.RelativeRect(cells[1]).Width)
	assert.Equal(t, "aaaaaabtail", leafText(tree))
}

func TestRelayoutRootChangeIsFullLayout(t *testing.T) {
	doc := dom.NewBuilder("doc").Element("para", "aaa").Element("para", "bbb").MustBuild()
	e := newTestEngine(t, doc, 200)
	old := e.Tree()

	require.NoError(t, doc.Delete(doc.Range(doc.Children(doc.Root())[1])))
	got, err := e.Relayout()
	require.NoError(t, err)

	assert.True(t, old.Superseded())
	assert.NotSame(t, old, got)
	assert.Equal(t, 1, got.Generation())
	assert.Len(t, got.Children(got.Root()), 1)
}

func TestSetWidthSupersedes(t *testing.T) {
	doc := dom.NewBuilder("doc").Element("para", "aaa bbb").MustBuild()
	e := newTestEngine(t, doc, 200)
	old := e.Tree()

	got, err := e.SetWidth(4 * charW)
	require.NoError(t, err)
	assert.True(t, old.Superseded())
	assert.Len(t, got.Leaves(got.Root()), 2)
}

func TestCompactDropsOrphans(t *testing.T) {
	doc := dom.NewBuilder("doc").Element("para", "a").MustBuild()
	e := newTestEngine(t, doc, 200)
	tree := e.Tree()
	para := doc.Children(doc.Root())[0]

	for i := 0; i < 10; i++ {
		_, err := doc.InsertText(doc.Range(para).Start+1, "b")
		require.NoError(t, err)
		_, err = e.Relayout()
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, tree.Len(), 2*tree.reachable())
	assert.Equal(t, "bbbbbbbbbba", leafText(tree))
}
