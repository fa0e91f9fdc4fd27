package cursor

import (
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/topology"
)

// ViewToModel 将绝对坐标映射为偏移。落在盒子之间的点取最近的盒子：
// 点在其上方取起点，在其下方取终点；若它是父盒的最后一个子盒，则取终点之后的偏移。
// y 超出内容纵向范围时截断到第一个或最后一个偏移。
func ViewToModel(topo *topology.Topology, x, y int) int {
	tree := topo.Tree()
	root := tree.Root()
	rr := tree.AbsRect(root)
	switch {
	case y < rr.Y:
		return topo.FirstOffset()
	case y >= rr.Bottom():
		return topo.LastOffset()
	}
	x = min(max(x, rr.X), max(rr.X, rr.Right()-1))

	hit := topo.BoxAtPoint(x, y)
	if hit == layout.NoBox {
		hit = root
	}
	if tree.Kind(hit).Leaf() {
		return leafOffset(tree, hit, x)
	}
	for hit != root && (tree.Kind(hit) == layout.KindInline || !tree.HasRange(hit)) {
		hit = tree.Parent(hit)
	}
	return nearestClaimed(topo, resolvePoint(tree, hit, x, y))
}

func resolvePoint(tree *layout.Tree, id layout.BoxID, x, y int) int {
	switch k := tree.Kind(id); {
	case k.Leaf():
		return leafOffset(tree, id, x)
	case k == layout.KindParagraph:
		best := closest(tree, tree.Leaves(id), x, y)
		if best == layout.NoBox {
			return tree.Range(id).Start
		}
		return leafOffset(tree, best, x)
	}

	kids := contentChildren(tree, id)
	best := closest(tree, kids, x, y)
	if best == layout.NoBox {
		return tree.Range(id).Start
	}
	r := tree.AbsRect(best)
	switch {
	case tree.Kind(best) == layout.KindParagraph, tree.Kind(best).InlineLevel():
		return resolvePoint(tree, best, x, y)
	case y >= r.Y && y < r.Bottom():
		return resolvePoint(tree, best, x, y)
	case y < r.Y:
		return tree.Range(best).Start
	case best == kids[len(kids)-1]:
		return tree.Range(best).End + 1
	default:
		return tree.Range(best).End
	}
}

// closest 先比较纵向距离，再比较横向距离，相同时取靠前者。
func closest(tree *layout.Tree, boxes []layout.BoxID, x, y int) layout.BoxID {
	best := layout.NoBox
	bestV, bestH := 0, 0
	for _, b := range boxes {
		v := extentDistance(tree.AbsRect(b), y)
		h := topology.HorizontalDistance(tree, b, x)
		if best == layout.NoBox || v < bestV || v == bestV && h < bestH {
			best, bestV, bestH = b, v, h
		}
	}
	return best
}

func extentDistance(r layout.Rect, y int) int {
	switch {
	case y < r.Y:
		return r.Y - y
	case y >= r.Bottom():
		return y - r.Bottom() + 1
	default:
		return 0
	}
}
