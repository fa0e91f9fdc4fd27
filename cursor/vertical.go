package cursor

import (
	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/topology"
)

type direction int

const (
	up   direction = -1
	down direction = 1
)

// NextLinePosition 返回下一行中最接近 x 的偏移；没有下一行时返回 offset。
// 越界的 offset 先被截断到文档范围内。
func NextLinePosition(topo *topology.Topology, offset, x int) int {
	return vertical(topo, offset, x, down)
}

// PreviousLinePosition 返回上一行中最接近 x 的偏移；没有上一行时返回 offset。
func PreviousLinePosition(topo *topology.Topology, offset, x int) int {
	return vertical(topo, offset, x, up)
}

func vertical(topo *topology.Topology, offset, px int, dir direction) int {
	offset = topo.Clamp(offset)
	tree := topo.Tree()
	box := topo.BoxAt(offset)
	if box == layout.NoBox {
		return offset
	}
	kind := tree.Kind(box)

	// 空节点：起点向下到终点，终点向上到起点
	if node := tree.Node(box); kind != layout.KindText && node != dom.NoNode {
		if r := tree.Doc().Range(node); r.Len() == 2 {
			if dir == down && offset == r.Start {
				return r.End
			}
			if dir == up && offset == r.End {
				return r.Start
			}
		}
	}

	// 块的起点向下（终点向上）进入它的第一（最后）行
	if kind.BlockLevel() && tree.Node(box) != dom.NoNode {
		r := tree.Range(box)
		if dir == down && offset == r.Start || dir == up && offset == r.End {
			if o, _, ok := enter(tree, box, dir, px); ok {
				return o
			}
		}
	}

	cur := box
	if leaf := caretLeaf(tree, box, offset); leaf != layout.NoBox {
		if para := tree.Ancestor(leaf, layout.KindParagraph); para != layout.NoBox {
			if o, ok := withinParagraph(tree, para, leaf, dir, px); ok {
				return o
			}
			cur = para
		}
	}

	for cur != layout.NoBox {
		parent := tree.Parent(cur)
		if parent == layout.NoBox {
			break
		}
		if o, ok := siblingLine(tree, parent, cur, dir, px); ok {
			return o
		}
		cur = parent
	}
	return offset
}

// withinParagraph 在同一段落中寻找上一行或下一行：先取纵向最近的叶子集合，再取横向最近者。
func withinParagraph(tree *layout.Tree, para, leaf layout.BoxID, dir direction, px int) (int, bool) {
	ref := tree.AbsBaseline(leaf)
	leaves := tree.Leaves(para)
	best := layout.NoBox
	bestV, bestH := 0, 0
	lastLine := ref
	for _, l := range leaves {
		b := tree.AbsBaseline(l)
		lastLine = max(lastLine, b)
		if dir == down && b <= ref || dir == up && b >= ref {
			continue
		}
		v := topology.VerticalDistance(tree, l, ref)
		h := topology.HorizontalDistance(tree, l, px)
		if best == layout.NoBox || v < bestV || v == bestV && h < bestH {
			best, bestV, bestH = l, v, h
		}
	}
	if best == layout.NoBox {
		return 0, false
	}
	// 向下落到多行段落的最后一行、且 x 位于其左侧时，改为停在外层块的末尾
	if dir == down && tree.AbsBaseline(best) == lastLine && px < tree.AbsRect(best).X {
		if blk := enclosingBlock(tree, para); blk != layout.NoBox {
			return tree.Range(blk).End, true
		}
	}
	return leafOffset(tree, best, px), true
}

// siblingLine 在 parent 的子盒中寻找位于 cur 下方（上方）的候选并进入其最近的一行。
func siblingLine(tree *layout.Tree, parent, cur layout.BoxID, dir direction, px int) (int, bool) {
	cr := tree.AbsRect(cur)
	ref := cr.Y
	if dir == down {
		ref = cr.Bottom()
	}
	var candidates []layout.BoxID
	bestV := 0
	for _, c := range contentChildren(tree, parent) {
		if c == cur {
			continue
		}
		r := tree.AbsRect(c)
		if dir == down && r.Y < cr.Bottom() || dir == up && r.Bottom() > cr.Y {
			continue
		}
		v := topology.VerticalDistance(tree, c, ref)
		switch {
		case len(candidates) == 0 || v < bestV:
			candidates, bestV = []layout.BoxID{c}, v
		case v == bestV:
			candidates = append(candidates, c)
		}
	}
	best, bestH := layout.NoBox, 0
	for _, c := range candidates {
		h := topology.HorizontalDistance(tree, c, px)
		if best == layout.NoBox || h < bestH {
			best, bestH = c, h
		}
	}
	if best == layout.NoBox {
		return 0, false
	}
	o, lineX, ok := enter(tree, best, dir, px)
	if !ok {
		r := tree.Range(best)
		if dir == down {
			return r.Start, true
		}
		return r.End, true
	}
	// 向上进入候选的最后一行、且 x 位于该行第一个叶子左侧时，停在候选的末尾
	if dir == up && lineX >= 0 && px < lineX {
		return tree.Range(best).End, true
	}
	return o, true
}

// enter 进入 id 的第一行（向下）或最后一行（向上），返回最接近 px 的偏移，
// 以及该行第一个叶子的 x（不在段落中时为 -1）。
func enter(tree *layout.Tree, id layout.BoxID, dir direction, px int) (int, int, bool) {
	switch k := tree.Kind(id); {
	case k.Leaf():
		return leafOffset(tree, id, px), tree.AbsRect(id).X, true
	case k == layout.KindParagraph:
		leaves := tree.Leaves(id)
		if len(leaves) == 0 {
			return 0, -1, false
		}
		line := tree.AbsBaseline(leaves[0])
		if dir == up {
			line = tree.AbsBaseline(leaves[len(leaves)-1])
		}
		best, bestH, lineX := layout.NoBox, 0, -1
		for _, l := range leaves {
			if tree.AbsBaseline(l) != line {
				continue
			}
			if lineX < 0 {
				lineX = tree.AbsRect(l).X
			}
			h := topology.HorizontalDistance(tree, l, px)
			if best == layout.NoBox || h < bestH {
				best, bestH = l, h
			}
		}
		return leafOffset(tree, best, px), lineX, true
	case k == layout.KindTableRow:
		best, bestH := layout.NoBox, 0
		for _, c := range contentChildren(tree, id) {
			h := topology.HorizontalDistance(tree, c, px)
			if best == layout.NoBox || h < bestH {
				best, bestH = c, h
			}
		}
		if best == layout.NoBox {
			return 0, -1, false
		}
		return enter(tree, best, dir, px)
	default:
		kids := contentChildren(tree, id)
		for i := range kids {
			c := kids[i]
			if dir == up {
				c = kids[len(kids)-1-i]
			}
			if o, x, ok := enter(tree, c, dir, px); ok {
				return o, x, true
			}
		}
		return 0, -1, false
	}
}

// contentChildren 列出可承载光标的子盒：排除生成内容、没有区间的匿名盒与列。
func contentChildren(tree *layout.Tree, id layout.BoxID) []layout.BoxID {
	var out []layout.BoxID
	for _, c := range tree.Children(id) {
		switch tree.Kind(c) {
		case layout.KindGenerated, layout.KindTableColumn, layout.KindTableColumnGroup:
			continue
		}
		if tree.HasRange(c) {
			out = append(out, c)
		}
	}
	return out
}

// enclosingBlock 返回最近的绑定文档节点的块级祖先。
func enclosingBlock(tree *layout.Tree, id layout.BoxID) layout.BoxID {
	for b := tree.Parent(id); b != layout.NoBox; b = tree.Parent(b) {
		if tree.Kind(b).BlockLevel() && tree.Node(b) != dom.NoNode {
			return b
		}
	}
	return layout.NoBox
}
