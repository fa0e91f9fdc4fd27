package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/folio/dom"
)

func cellsOf(tree *Tree) []BoxID {
	var out []BoxID
	tree.Walk(tree.Root(), func(id BoxID) bool {
		if tree.Kind(id) == KindTableCell {
			out = append(out, id)
		}
		return true
	})
	return out
}

func TestTwoByTwoTable(t *testing.T) {
	doc := dom.NewBuilder("doc").
		Text("_").
		Start("table").
		Start("tr").Element("td", "a").Element("td", "b").End().
		Start("tr").Element("td", "c").Element("td", "d").End().
		End().
		MustBuild()
	tree := buildTree(t, doc, testSheet, 200)

	counts := countKinds(tree)
	assert.Equal(t, 1, counts[KindTable])
	assert.Equal(t, 2, counts[KindTableRow])
	assert.Equal(t, 4, counts[KindTableCell])
	assert.Equal(t, "_abcd", leafText(tree))

	cells := cellsOf(tree)
	assert.Equal(t, 0, tree.RelativeRect(cells[0]).X)
	assert.Equal(t, 100, tree.RelativeRect(cells[1]).X)
	assert.Equal(t, 100, tree.RelativeRect(cells[1]).Width)
	// 第二行位于第一行之下
	assert.Equal(t, 12+12, tree.AbsRect(cells[2]).Y)
}

func TestExplicitColumnWidth(t *testing.T) {
	doc := dom.NewBuilder("doc").
		Start("table").
		Start("col").End().
		Start("tr").Element("td", "a").Element("td", "b").End().
		End().
		MustBuild()
	tree := buildTree(t, doc, testSheet+"col { width: 50px; }", 200)

	cells := cellsOf(tree)
	require.Len(t, cells, 2)
	assert.Equal(t, Rect{X: 0, Y: 0, Width: 50, Height: 12}, tree.RelativeRect(cells[0]))
	assert.Equal(t, Rect{X: 50, Y: 0, Width: 150, Height: 12}, tree.RelativeRect(cells[1]))

	var col BoxID = NoBox
	tree.Walk(tree.Root(), func(id BoxID) bool {
		if tree.Kind(id) == KindTableColumn {
			col = id
		}
		return true
	})
	require.NotEqual(t, NoBox, col)
	assert.Equal(t, 50, tree.RelativeRect(col).Width)
	assert.Equal(t, 0, tree.RelativeRect(col).Height)
}

func TestRowHeightIsTallestCell(t *testing.T) {
	doc := dom.NewBuilder("doc").
		Start("table").
		Start("tr").Element("td", "a").Element("td", "aaa bbb ccc").End().
		End().
		MustBuild()
	tree := buildTree(t, doc, testSheet, 100)

	cells := cellsOf(tree)
	require.Len(t, cells, 2)
	total := tree.RelativeRect(cells[0]).Width + tree.RelativeRect(cells[1]).Width
	assert.Equal(t, 100, total)
	assert.Equal(t, 24, tree.RelativeRect(cells[0]).Height)
	assert.Equal(t, 24, tree.RelativeRect(cells[1]).Height)
}

func TestStrayContentInRowFormsCell(t *testing.T) {
	doc := dom.NewBuilder("doc").
		Start("table").
		Text("\n").
		Start("tr").Text("x").Element("td", "a").End().
		Text("\n").
		End().
		MustBuild()
	tree := buildTree(t, doc, testSheet, 200)

	table := tree.Children(tree.Root())[0]
	require.Len(t, tree.Children(table), 1)
	cells := cellsOf(tree)
	require.Len(t, cells, 2)
	assert.Equal(t, dom.NoNode, tree.Node(cells[0]))
	assert.Equal(t, "xa", leafText(tree))
}

func TestRowGroupAndCaption(t *testing.T) {
	doc := dom.NewBuilder("doc").
		Start("table").
		Element("caption", "cap").
		Start("tbody").
		Start("tr").Element("td", "a").End().
		Start("tr").Element("td", "b").End().
		End().
		End().
		MustBuild()
	tree := buildTree(t, doc, testSheet, 200)

	table := tree.Children(tree.Root())[0]
	kids := tree.Children(table)
	require.Len(t, kids, 2)
	assert.Equal(t, KindTableCaption, tree.Kind(kids[0]))
	assert.Equal(t, KindTableRowGroup, tree.Kind(kids[1]))
	assert.Equal(t, 12, tree.RelativeRect(kids[1]).Y)
	assert.Equal(t, 24, tree.RelativeRect(kids[1]).Height)
	assert.Equal(t, 36, tree.RelativeRect(table).Height)
}

// TestTableFallback 检查位置不合法的表格角色与普通行内元素产生相同的盒子。
func TestTableFallback(t *testing.T) {
	cases := []struct {
		name  string
		build func(tag string) *dom.Document
	}{
		{"td in inline", func(tag string) *dom.Document {
			return dom.NewBuilder("doc").Start("para").Start("em").Element(tag, "x").End().End().MustBuild()
		}},
		{"td directly in table", func(tag string) *dom.Document {
			return dom.NewBuilder("doc").Start("table").Element(tag, "x").End().MustBuild()
		}},
		{"tr in td", func(tag string) *dom.Document {
			return dom.NewBuilder("doc").Start("table").Start("tr").Start("td").Element(tag, "x").End().End().End().MustBuild()
		}},
		{"caption outside table", func(tag string) *dom.Document {
			return dom.NewBuilder("doc").Start("para").Element(tag, "x").End().MustBuild()
		}},
	}
	tags := map[string]string{
		"td in inline":          "td",
		"td directly in table":  "td",
		"tr in td":              "tr",
		"caption outside table": "caption",
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			misplaced := buildTree(t, tc.build(tags[tc.name]), testSheet, 200)
			plain := buildTree(t, tc.build("span"), testSheet, 200)

			assert.Empty(t, cmp.Diff(kindSequence(plain), kindSequence(misplaced)))
			var texts []string
			for _, l := range misplaced.Leaves(misplaced.Root()) {
				texts = append(texts, misplaced.Text(l))
			}
			assert.Equal(t, []string{"x"}, texts)
		})
	}
}
