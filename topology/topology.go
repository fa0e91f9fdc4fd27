// Package topology answers position, coordinate, range and node queries over
// one generation of a box tree.
package topology

import (
	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/layout"
)

// Topology 是盒树某一代的只读索引。盒树被全量重建后它随之失效，
// 调用方需重新获取；热路径上不做检查。
type Topology struct {
	tree       *layout.Tree
	generation int
}

// New 为 tree 的当前一代建立索引。
func New(tree *layout.Tree) *Topology {
	return &Topology{tree: tree, generation: tree.Generation()}
}

// Tree returns the indexed box tree.
func (t *Topology) Tree() *layout.Tree { return t.tree }

// Stale reports whether the tree was superseded or relaid out since New.
func (t *Topology) Stale() bool {
	return t.tree.Superseded() || t.tree.Generation() != t.generation
}

// FirstOffset is the root's start offset.
func (t *Topology) FirstOffset() int { return t.tree.Range(t.tree.Root()).Start }

// LastOffset is the root's end offset.
func (t *Topology) LastOffset() int { return t.tree.Range(t.tree.Root()).End }

// Clamp limits offset to the root's range.
func (t *Topology) Clamp(offset int) int {
	return min(max(offset, t.FirstOffset()), t.LastOffset())
}

// BoxAt 返回认领 offset 的最内层盒子。叶子认领其闭区间内的所有偏移；
// 绑定节点的非叶子盒只认领自身的起止偏移，且仅当没有子盒认领时。
// 生成内容不参与查询。
func (t *Topology) BoxAt(offset int) layout.BoxID {
	return t.find(t.tree.Root(), offset)
}

// Claims reports whether some box claims offset.
func (t *Topology) Claims(offset int) bool { return t.BoxAt(offset) != layout.NoBox }

func (t *Topology) find(id layout.BoxID, offset int) layout.BoxID {
	tree := t.tree
	if tree.Generated(id) || !tree.HasRange(id) {
		return layout.NoBox
	}
	r := tree.Range(id)
	if !r.Contains(offset) {
		return layout.NoBox
	}
	if tree.Kind(id).Leaf() {
		return id
	}
	for _, c := range tree.Children(id) {
		if tree.Generated(c) || !tree.HasRange(c) {
			continue
		}
		if tree.Range(c).Start > offset {
			break
		}
		if hit := t.find(c, offset); hit != layout.NoBox {
			return hit
		}
	}
	if tree.Node(id) != dom.NoNode && (offset == r.Start || offset == r.End) {
		return id
	}
	return layout.NoBox
}

// BoxAtPoint 自顶向下只进入包含 (x, y) 的子盒，返回最深的盒子。
func (t *Topology) BoxAtPoint(x, y int) layout.BoxID {
	tree := t.tree
	root := tree.Root()
	if !tree.AbsRect(root).Contains(x, y) {
		return layout.NoBox
	}
	id := root
	for {
		next := layout.NoBox
		for _, c := range tree.Children(id) {
			if tree.Generated(c) {
				continue
			}
			if tree.AbsRect(c).Contains(x, y) {
				next = c
				break
			}
		}
		if next == layout.NoBox {
			return id
		}
		id = next
	}
}

// BoxForRange 返回区间完全落在其中的最内层盒子。
func (t *Topology) BoxForRange(r dom.Range) layout.BoxID {
	tree := t.tree
	id := tree.Root()
	if !tree.Range(id).ContainsRange(r) {
		return layout.NoBox
	}
	for {
		next := layout.NoBox
		for _, c := range tree.Children(id) {
			if tree.Generated(c) || !tree.HasRange(c) {
				continue
			}
			if tree.Range(c).ContainsRange(r) {
				next = c
				break
			}
		}
		if next == layout.NoBox {
			return id
		}
		id = next
	}
}

// BoxesForNode 收集绑定 node 的所有盒子（折行后的文本节点对应多个叶子）。
// 区间与节点不相交的子树被剪枝。
func (t *Topology) BoxesForNode(node dom.NodeID) []layout.BoxID {
	tree := t.tree
	doc := tree.Doc()
	if !doc.Valid(node) {
		return nil
	}
	want := doc.Range(node)
	var out []layout.BoxID
	// inside 为真时已进入节点自身的盒子，只继续查找同一节点或匿名的子盒（如空元素的占位盒）
	var walk func(id layout.BoxID, inside bool)
	walk = func(id layout.BoxID, inside bool) {
		if tree.Generated(id) {
			return
		}
		if tree.Node(id) == node {
			out = append(out, id)
			inside = true
		}
		for _, c := range tree.Children(id) {
			if !tree.HasRange(c) {
				continue
			}
			if inside && tree.Node(c) != node && tree.Node(c) != dom.NoNode {
				continue
			}
			cr := tree.Range(c)
			if cr.Start > want.End {
				break
			}
			if cr.Intersects(want) {
				walk(c, inside)
			}
		}
	}
	walk(tree.Root(), false)
	return out
}

// VerticalDistance 返回 y 到盒子的纵向距离：叶子取到基线的距离，
// 其他盒子取到其纵向范围的距离（范围内为 0）。
func VerticalDistance(tree *layout.Tree, id layout.BoxID, y int) int {
	if tree.Kind(id).Leaf() {
		return abs(tree.AbsBaseline(id) - y)
	}
	r := tree.AbsRect(id)
	switch {
	case y < r.Y:
		return r.Y - y
	case y >= r.Bottom():
		return y - r.Bottom() + 1
	default:
		return 0
	}
}

// HorizontalDistance 在 x 位于盒子横向范围 [X, Right) 内时为 0，否则为到最近边的距离。
func HorizontalDistance(tree *layout.Tree, id layout.BoxID, x int) int {
	r := tree.AbsRect(id)
	switch {
	case x < r.X:
		return r.X - x
	case x >= r.Right():
		return x - r.Right() + 1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
