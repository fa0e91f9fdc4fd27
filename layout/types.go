package layout

import (
	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/style"
)

// 该文件定义盒树：盒子种类、几何与树结构，供布局、拓扑查询、光标与渲染共用。

// BoxID 是盒子在 Tree 数组中的句柄。
type BoxID int32

// NoBox 表示不存在的盒子（根的父节点、查询未命中）。
const NoBox BoxID = -1

// Kind 是封闭的盒子种类集合。
type Kind uint8

const (
	KindStructural Kind = iota // 块级，绑定一个文档节点
	KindInline                 // 行内，绑定一个文档节点
	KindParagraph              // 匿名块，承载行内内容并折行
	KindText                   // 文本节点的一段连续字符
	KindPlaceholder            // 空节点末尾唯一可寻址的位置
	KindGenerated              // ::before / ::after 生成内容
	KindTable
	KindTableRowGroup
	KindTableRow
	KindTableCell
	KindTableColumnGroup
	KindTableColumn
	KindTableCaption
)

var kindNames = [...]string{
	KindStructural:       "structural",
	KindInline:           "inline",
	KindParagraph:        "paragraph",
	KindText:             "text",
	KindPlaceholder:      "placeholder",
	KindGenerated:        "generated",
	KindTable:            "table",
	KindTableRowGroup:    "table-row-group",
	KindTableRow:         "table-row",
	KindTableCell:        "table-cell",
	KindTableColumnGroup: "table-column-group",
	KindTableColumn:      "table-column",
	KindTableCaption:     "table-caption",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Leaf reports whether boxes of this kind never have children.
func (k Kind) Leaf() bool {
	return k == KindText || k == KindPlaceholder || k == KindGenerated
}

// InlineLevel reports whether the box takes part in line boxes.
func (k Kind) InlineLevel() bool { return k == KindInline || k.Leaf() }

// BlockLevel reports whether the box is stacked or placed as a block.
func (k Kind) BlockLevel() bool { return !k.InlineLevel() }

// Container reports whether the box lays out block and paragraph children.
func (k Kind) Container() bool {
	return k == KindStructural || k == KindTableCell || k == KindTableCaption
}

// TableInternal reports whether the box only exists inside a table.
func (k Kind) TableInternal() bool {
	return k >= KindTableRowGroup && k <= KindTableCaption
}

// Rect 以像素为单位。Box.Rect 相对父盒的边框盒左上角。
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Right() int  { return r.X + r.Width }
func (r Rect) Bottom() int { return r.Y + r.Height }

// Contains reports whether (x, y) lies in the half-open rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect { return Rect{r.X + dx, r.Y + dy, r.Width, r.Height} }

// Union returns the smallest rectangle covering both.
func (r Rect) Union(o Rect) Rect {
	x := min(r.X, o.X)
	y := min(r.Y, o.Y)
	return Rect{X: x, Y: y, Width: max(r.Right(), o.Right()) - x, Height: max(r.Bottom(), o.Bottom()) - y}
}

// LayoutStatus drives incremental relayout.
type LayoutStatus uint8

const (
	StatusClean                   LayoutStatus = iota
	StatusNeedsSelfRelayout                    // 自身需要重建
	StatusNeedsDescendantRelayout              // 某个后代需要重建，自身只需重新堆叠
)

func (s LayoutStatus) String() string {
	switch s {
	case StatusNeedsSelfRelayout:
		return "needs-self"
	case StatusNeedsDescendantRelayout:
		return "needs-descendant"
	default:
		return "clean"
	}
}

// Box 是盒树中的一个节点。
type Box struct {
	Kind     Kind
	Node     dom.NodeID // 匿名盒为 dom.NoNode；生成内容为宿主节点
	Parent   BoxID
	Children []BoxID
	Rect     Rect
	Baseline int // 第一条基线到盒顶的距离

	// 文本叶子相对节点起点的字符区间（闭区间），节点变更后仍可换算。
	RelStart, RelEnd int
	// 生成内容的文字
	Text   string
	Pseudo style.Pseudo
	Font   style.Font
	Pre    bool

	Margin, Border, Padding style.Insets
	Status                  LayoutStatus
}

// contentOrigin is the top-left of the content box relative to the border box.
func (b *Box) contentOrigin() (int, int) {
	return b.Border.Left + b.Padding.Left, b.Border.Top + b.Padding.Top
}

// contentWidth is the width available to children.
func (b *Box) contentWidth() int {
	return max(0, b.Rect.Width-b.Border.Horizontal()-b.Padding.Horizontal())
}

// Tree 是一次布局得到的盒树，盒子按句柄存放在数组中。
type Tree struct {
	doc        *dom.Document
	measurer   Measurer
	boxes      []Box
	root       BoxID
	width      int
	generation int
	superseded bool
}

func newTree(doc *dom.Document, m Measurer, width int) *Tree {
	return &Tree{doc: doc, measurer: m, root: NoBox, width: width}
}

// Doc returns the laid out document.
func (t *Tree) Doc() *dom.Document { return t.doc }

// Measurer returns the measurement provider used for this tree.
func (t *Tree) Measurer() Measurer { return t.measurer }

// Root returns the root box.
func (t *Tree) Root() BoxID { return t.root }

// Width is the available width the tree was laid out at.
func (t *Tree) Width() int { return t.width }

// Generation increases with every relayout pass.
func (t *Tree) Generation() int { return t.generation }

// Superseded reports whether a full layout replaced this tree.
func (t *Tree) Superseded() bool { return t.superseded }

// Len returns the arena size, including boxes orphaned by relayout.
func (t *Tree) Len() int { return len(t.boxes) }

// Valid reports whether id is a handle into the arena.
func (t *Tree) Valid(id BoxID) bool { return id >= 0 && int(id) < len(t.boxes) }

// Box returns a copy of the box record.
func (t *Tree) Box(id BoxID) Box {
	if !t.Valid(id) {
		return Box{Parent: NoBox, Node: dom.NoNode}
	}
	return t.boxes[id]
}

func (t *Tree) Kind(id BoxID) Kind             { return t.boxes[id].Kind }
func (t *Tree) Node(id BoxID) dom.NodeID       { return t.boxes[id].Node }
func (t *Tree) Parent(id BoxID) BoxID          { return t.boxes[id].Parent }
func (t *Tree) Children(id BoxID) []BoxID      { return t.boxes[id].Children }
func (t *Tree) Status(id BoxID) LayoutStatus   { return t.boxes[id].Status }
func (t *Tree) Generated(id BoxID) bool        { return t.boxes[id].Kind == KindGenerated }
func (t *Tree) RelativeRect(id BoxID) Rect     { return t.boxes[id].Rect }
func (t *Tree) Insets(id BoxID) (m, b, p style.Insets) {
	bx := &t.boxes[id]
	return bx.Margin, bx.Border, bx.Padding
}

// Range returns the offsets the box covers. Anonymous boxes cover the union
// of their children; generated content shares its host's range.
func (t *Tree) Range(id BoxID) dom.Range {
	r, _ := t.rangeOf(id)
	return r
}

// HasRange reports whether the box covers any offset.
func (t *Tree) HasRange(id BoxID) bool {
	_, ok := t.rangeOf(id)
	return ok
}

func (t *Tree) rangeOf(id BoxID) (dom.Range, bool) {
	b := &t.boxes[id]
	switch b.Kind {
	case KindText:
		start := t.doc.Range(b.Node).Start
		return dom.Range{Start: start + b.RelStart, End: start + b.RelEnd}, true
	case KindPlaceholder:
		end := t.doc.Range(b.Node).End
		return dom.Range{Start: end, End: end}, true
	}
	if b.Node != dom.NoNode {
		return t.doc.Range(b.Node), true
	}
	var out dom.Range
	found := false
	for _, c := range b.Children {
		if t.boxes[c].Kind == KindGenerated {
			continue
		}
		r, ok := t.rangeOf(c)
		if !ok {
			continue
		}
		if !found {
			out = r
			found = true
			continue
		}
		out.End = r.End
	}
	return out, found
}

// AbsRect sums the relative rectangles up to the root.
func (t *Tree) AbsRect(id BoxID) Rect {
	r := t.boxes[id].Rect
	for p := t.boxes[id].Parent; p != NoBox; p = t.boxes[p].Parent {
		r.X += t.boxes[p].Rect.X
		r.Y += t.boxes[p].Rect.Y
	}
	return r
}

// AbsBaseline is the absolute y of the box's first baseline.
func (t *Tree) AbsBaseline(id BoxID) int {
	return t.AbsRect(id).Y + t.boxes[id].Baseline
}

// Walk visits boxes depth-first in document order until fn returns false.
func (t *Tree) Walk(id BoxID, fn func(BoxID) bool) bool {
	if !fn(id) {
		return false
	}
	for _, c := range t.boxes[id].Children {
		if !t.Walk(c, fn) {
			return false
		}
	}
	return true
}

// Leaves returns the non-generated leaves below id in document order.
func (t *Tree) Leaves(id BoxID) []BoxID {
	var out []BoxID
	t.Walk(id, func(b BoxID) bool {
		k := t.boxes[b].Kind
		if k == KindText || k == KindPlaceholder {
			out = append(out, b)
		}
		return true
	})
	return out
}

// Ancestor returns the nearest ancestor (or id itself) of the given kind.
func (t *Tree) Ancestor(id BoxID, kinds ...Kind) BoxID {
	for b := id; b != NoBox; b = t.boxes[b].Parent {
		for _, k := range kinds {
			if t.boxes[b].Kind == k {
				return b
			}
		}
	}
	return NoBox
}

// Runes returns the raw characters of a text leaf.
func (t *Tree) Runes(id BoxID) []rune {
	if t.boxes[id].Kind != KindText {
		return nil
	}
	return t.doc.Runes(t.Range(id))
}

// Text returns the visible text of a leaf; empty for other boxes.
func (t *Tree) Text(id BoxID) string {
	switch t.boxes[id].Kind {
	case KindText:
		return string(t.Runes(id))
	case KindGenerated:
		return t.boxes[id].Text
	default:
		return ""
	}
}

// CaretX returns the absolute x of a caret placed before offset inside a
// text leaf. Other leaves answer their left edge.
func (t *Tree) CaretX(id BoxID, offset int) int {
	abs := t.AbsRect(id)
	b := &t.boxes[id]
	if b.Kind != KindText {
		return abs.X
	}
	r := t.Range(id)
	n := min(max(offset-r.Start, 0), r.Len())
	if n == r.Len() {
		return abs.Right()
	}
	return abs.X + t.measurer.CharsWidth(b.Font, sanitize(t.Runes(id)), 0, n)
}

// OffsetAtX returns the offset inside a text leaf whose caret position is
// closest to x. The result may be one past the leaf's last character.
func (t *Tree) OffsetAtX(id BoxID, x int) int {
	r := t.Range(id)
	if t.boxes[id].Kind != KindText {
		return r.Start
	}
	abs := t.AbsRect(id)
	if x <= abs.X {
		return r.Start
	}
	if x >= abs.Right() {
		if t.lineContinues(id) {
			return r.End + 1
		}
		return r.End
	}
	runes := sanitize(t.Runes(id))
	font := t.boxes[id].Font
	best, bestDist := 0, x-abs.X
	for k := 1; k <= len(runes); k++ {
		cx := abs.X + t.measurer.CharsWidth(font, runes, 0, k)
		d := cx - x
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = k, d
		}
		if cx > x {
			break
		}
	}
	return r.Start + best
}

// lineContinues reports whether the offset after the leaf's last character
// is still displayed on the leaf's line.
func (t *Tree) lineContinues(id BoxID) bool {
	para := t.Ancestor(id, KindParagraph)
	if para == NoBox {
		return true
	}
	leaves := t.Leaves(para)
	for i, l := range leaves {
		if l == id {
			if i == len(leaves)-1 {
				return true
			}
			return t.AbsBaseline(leaves[i+1]) == t.AbsBaseline(id)
		}
	}
	return true
}
