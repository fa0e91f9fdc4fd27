package cursor

import (
	"math"

	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/topology"
)

// lineStart 移到所在行第一个叶子的起点。光标位于含段落的块末尾时，
// 移到该段落最后一行的起点而不是块的起点。
func lineStart(topo *topology.Topology, offset int, box layout.BoxID) int {
	tree := topo.Tree()
	if tree.Kind(box).BlockLevel() && tree.Node(box) != dom.NoNode && offset == tree.Range(box).End {
		leaf := trailingLeaf(tree, box)
		if leaf == layout.NoBox {
			return offset
		}
		return tree.Range(lineLeaves(tree, leaf)[0]).Start
	}
	leaf := caretLeaf(tree, box, offset)
	if leaf == layout.NoBox {
		return offset
	}
	return tree.Range(lineLeaves(tree, leaf)[0]).Start
}

// lineEnd 移到所在行最后一个叶子之后；若该位置会显示在下一行，则停在最后一个字符之前。
func lineEnd(topo *topology.Topology, offset int, box layout.BoxID) int {
	tree := topo.Tree()
	leaf := caretLeaf(tree, box, offset)
	if leaf == layout.NoBox {
		return offset
	}
	line := lineLeaves(tree, leaf)
	last := line[len(line)-1]
	o := tree.OffsetAtX(last, math.MaxInt32)
	if o == offset || topo.Claims(o) {
		return o
	}
	return tree.Range(last).End
}

// lineLeaves 返回与 leaf 同一基线的段落叶子，按文档顺序。
func lineLeaves(tree *layout.Tree, leaf layout.BoxID) []layout.BoxID {
	para := tree.Ancestor(leaf, layout.KindParagraph)
	if para == layout.NoBox {
		return []layout.BoxID{leaf}
	}
	baseline := tree.AbsBaseline(leaf)
	var out []layout.BoxID
	for _, l := range tree.Leaves(para) {
		if tree.AbsBaseline(l) == baseline {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []layout.BoxID{leaf}
	}
	return out
}
