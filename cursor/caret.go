package cursor

import (
	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/topology"
)

// Shape 是光标的四种形态。
type Shape uint8

const (
	// ShapeText 位于文本之中，竖线画在字符之间。
	ShapeText Shape = iota
	// ShapeInsertBefore 位于节点起点：行内节点为竖线，块级节点为顶部横线。
	ShapeInsertBefore
	// ShapeAppendWithText 位于可容纳文本的节点末尾，竖线紧跟最后的内容。
	ShapeAppendWithText
	// ShapeAppendStructural 位于只含块级内容的节点末尾，横线画在底部。
	ShapeAppendStructural
)

func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeInsertBefore:
		return "insert-before"
	case ShapeAppendWithText:
		return "append-with-text"
	case ShapeAppendStructural:
		return "append-structural"
	default:
		return "unknown"
	}
}

// Caret 是某个偏移的光标几何；Rect 为绝对坐标。
type Caret struct {
	Shape  Shape
	Offset int
	Box    layout.BoxID
	Rect   layout.Rect
}

// CaretAt 计算 offset 处的光标；越界的 offset 先被截断。没有盒子认领时 Box 为 layout.NoBox。
func CaretAt(topo *topology.Topology, offset int) Caret {
	offset = topo.Clamp(offset)
	c := Caret{Offset: offset, Box: topo.BoxAt(offset)}
	if c.Box == layout.NoBox {
		return c
	}
	tree := topo.Tree()
	box := c.Box
	abs := tree.AbsRect(box)
	r := tree.Range(box)

	switch k := tree.Kind(box); {
	case k == layout.KindText:
		c.Shape = ShapeText
		c.Rect = layout.Rect{X: tree.CaretX(box, offset), Y: abs.Y, Width: 1, Height: abs.Height}
	case k == layout.KindPlaceholder:
		c.Shape = ShapeAppendWithText
		c.Rect = layout.Rect{X: abs.X, Y: abs.Y, Width: 1, Height: abs.Height}
	case k == layout.KindInline:
		leaves := tree.Leaves(box)
		if offset == r.Start || len(leaves) == 0 {
			c.Shape = ShapeInsertBefore
			c.Rect = layout.Rect{X: abs.X, Y: abs.Y, Width: 1, Height: abs.Height}
			if len(leaves) > 0 {
				lr := tree.AbsRect(leaves[0])
				c.Rect.Y, c.Rect.Height = lr.Y, lr.Height
			}
			return c
		}
		lr := tree.AbsRect(leaves[len(leaves)-1])
		c.Shape = ShapeAppendWithText
		c.Rect = layout.Rect{X: lr.Right(), Y: lr.Y, Width: 1, Height: lr.Height}
	case offset == r.Start:
		c.Shape = ShapeInsertBefore
		c.Rect = layout.Rect{X: abs.X, Y: abs.Y, Width: abs.Width, Height: 1}
	default:
		if leaf := trailingLeaf(tree, box); leaf != layout.NoBox {
			lr := tree.AbsRect(leaf)
			c.Shape = ShapeAppendWithText
			c.Rect = layout.Rect{X: lr.Right(), Y: lr.Y, Width: 1, Height: lr.Height}
			return c
		}
		c.Shape = ShapeAppendStructural
		c.Rect = layout.Rect{X: abs.X, Y: abs.Bottom() - 1, Width: abs.Width, Height: 1}
	}
	return c
}

// trailingLeaf 返回块级盒最后一个子盒为段落时该段落的最后一个叶子。
func trailingLeaf(tree *layout.Tree, box layout.BoxID) layout.BoxID {
	kids := tree.Children(box)
	if len(kids) == 0 {
		return layout.NoBox
	}
	last := kids[len(kids)-1]
	if tree.Kind(last) != layout.KindParagraph {
		return layout.NoBox
	}
	leaves := tree.Leaves(last)
	if len(leaves) == 0 {
		return layout.NoBox
	}
	return leaves[len(leaves)-1]
}

// caretLeaf 返回光标所在行上的叶子；位于块级盒起点或没有文字的块末尾时返回 NoBox。
func caretLeaf(tree *layout.Tree, box layout.BoxID, offset int) layout.BoxID {
	switch k := tree.Kind(box); {
	case k.Leaf():
		return box
	case k == layout.KindInline:
		leaves := tree.Leaves(box)
		if len(leaves) == 0 {
			return layout.NoBox
		}
		if offset == tree.Range(box).Start {
			return leaves[0]
		}
		return leaves[len(leaves)-1]
	case tree.Node(box) != dom.NoNode && offset == tree.Range(box).End:
		return trailingLeaf(tree, box)
	default:
		return layout.NoBox
	}
}

// leafOffset 返回叶子内最接近 x 的偏移。
func leafOffset(tree *layout.Tree, leaf layout.BoxID, x int) int {
	if tree.Kind(leaf) == layout.KindText {
		return tree.OffsetAtX(leaf, x)
	}
	return tree.Range(leaf).Start
}
