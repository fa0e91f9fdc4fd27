package layout

import (
	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/style"
)

// unconstrained 是测量单元格自然宽度时使用的可用宽度。
const unconstrained = 1 << 20

// tableRow 是解析后的一行：行节点（匿名行为 NoNode）及其单元格。
type tableRow struct {
	node  dom.NodeID
	cells []tableCell
}

// tableCell 是一个列槽：单元格节点，或行内散落内容组成的匿名单元格。
type tableCell struct {
	node  dom.NodeID
	stray []dom.NodeID
}

// tablePart 是表格的直接组成部分，按源顺序排版。
type tablePart struct {
	kind  Kind // TableCaption、TableColumnGroup、TableColumn、TableRowGroup、TableRow、Paragraph 或块级
	node  dom.NodeID
	rows  []*tableRow  // 行组或单独的行
	items []blockItem  // 散落的行内内容
	parts []*tablePart // 行组内散落的块级内容与段落
	cols  []dom.NodeID // 列组中的列
}

// table 构建表格：列宽取每列单元格自然宽度的最大值，再按可用宽度拉伸或压缩；
// 不支持跨行跨列，每个单元格占一列。
func (b *builder) table(node dom.NodeID, st *style.Styles, avail int) BoxID {
	m, br, p := b.insetsOf(st)
	id := b.newBox(Box{
		Kind:    KindTable,
		Node:    node,
		Margin:  m,
		Border:  br,
		Padding: p,
		Font:    st.Font,
		Rect:    Rect{Width: b.borderBoxWidth(st, avail, m, br, p)},
	})
	width := b.box(id).contentWidth()
	parts := b.tableParts(node)
	cols := b.columnWidths(parts, width)

	for _, part := range parts {
		b.appendChild(id, b.tablePartBox(part, width, cols))
	}
	b.tree.stack(id)
	return id
}

// tableParts 对表格子节点分类；不在合法位置的表格角色按行内内容处理。
func (b *builder) tableParts(node dom.NodeID) []*tablePart {
	var parts []*tablePart
	var run []blockItem
	flush := func() {
		if len(run) > 0 && !isWhitespaceRun(b, run) {
			parts = append(parts, &tablePart{kind: KindParagraph, items: run})
		}
		run = nil
	}
	for _, c := range b.doc.Children(node) {
		cs := b.styles.Styles(c)
		isElem := b.doc.Kind(c) == dom.KindElement
		switch d := cs.Display; {
		case d == style.DisplayNone:
		case isElem && d == style.DisplayTableCaption:
			flush()
			parts = append(parts, &tablePart{kind: KindTableCaption, node: c})
		case isElem && d == style.DisplayTableColumnGroup:
			flush()
			part := &tablePart{kind: KindTableColumnGroup, node: c}
			for _, col := range b.doc.Children(c) {
				if b.styles.Styles(col).Display == style.DisplayTableColumn {
					part.cols = append(part.cols, col)
				}
			}
			parts = append(parts, part)
		case isElem && d == style.DisplayTableColumn:
			flush()
			parts = append(parts, &tablePart{kind: KindTableColumn, node: c, cols: []dom.NodeID{c}})
		case isElem && d.RowGroup():
			flush()
			parts = append(parts, b.rowGroup(c))
		case isElem && d == style.DisplayTableRow:
			flush()
			parts = append(parts, &tablePart{kind: KindTableRow, node: c, rows: []*tableRow{b.tableRow(c)}})
		case isElem && (d == style.DisplayBlock || d == style.DisplayTable):
			flush()
			parts = append(parts, &tablePart{kind: KindStructural, node: c})
		default:
			run = append(run, blockItem{node: c})
		}
	}
	flush()
	return parts
}

func (b *builder) rowGroup(node dom.NodeID) *tablePart {
	part := &tablePart{kind: KindTableRowGroup, node: node}
	var run []blockItem
	flush := func() {
		if len(run) > 0 && !isWhitespaceRun(b, run) {
			part.parts = append(part.parts, &tablePart{kind: KindParagraph, items: run})
		}
		run = nil
	}
	for _, c := range b.doc.Children(node) {
		cs := b.styles.Styles(c)
		isElem := b.doc.Kind(c) == dom.KindElement
		switch d := cs.Display; {
		case d == style.DisplayNone:
		case isElem && d == style.DisplayTableRow:
			flush()
			row := b.tableRow(c)
			part.rows = append(part.rows, row)
			part.parts = append(part.parts, &tablePart{kind: KindTableRow, node: c, rows: []*tableRow{row}})
		case isElem && (d == style.DisplayBlock || d == style.DisplayTable):
			flush()
			part.parts = append(part.parts, &tablePart{kind: KindStructural, node: c})
		default:
			run = append(run, blockItem{node: c})
		}
	}
	flush()
	return part
}

// tableRow 收集行内的单元格；连续的散落内容合成一个匿名单元格，占一个列槽。
func (b *builder) tableRow(node dom.NodeID) *tableRow {
	row := &tableRow{node: node}
	var stray []dom.NodeID
	flush := func() {
		if len(stray) == 0 {
			return
		}
		items := make([]blockItem, len(stray))
		for i, s := range stray {
			items[i] = blockItem{node: s}
		}
		if !isWhitespaceRun(b, items) {
			row.cells = append(row.cells, tableCell{node: dom.NoNode, stray: stray})
		}
		stray = nil
	}
	for _, c := range b.doc.Children(node) {
		d := b.styles.Styles(c).Display
		switch {
		case d == style.DisplayNone:
		case d == style.DisplayTableCell && b.doc.Kind(c) == dom.KindElement:
			flush()
			row.cells = append(row.cells, tableCell{node: c})
		default:
			stray = append(stray, c)
		}
	}
	flush()
	return row
}

// columnWidths 计算列宽：自然宽度取最大值，显式列宽优先，其余列按比例分配剩余宽度。
func (b *builder) columnWidths(parts []*tablePart, width int) []int {
	var rows []*tableRow
	var colNodes []dom.NodeID
	for _, p := range parts {
		rows = append(rows, p.rows...)
		colNodes = append(colNodes, p.cols...)
	}
	n := len(colNodes)
	for _, r := range rows {
		n = max(n, len(r.cells))
	}
	if n == 0 {
		return nil
	}

	pref := make([]int, n)
	explicit := make([]int, n)
	for i, col := range colNodes {
		if w := b.styles.Styles(col).Width; !w.IsZero() {
			explicit[i] = b.rc.Horizontal(w)
		}
	}
	sb := b.scratch()
	for _, r := range rows {
		for i, c := range r.cells {
			pref[i] = max(pref[i], sb.naturalWidth(c))
		}
	}

	out := make([]int, n)
	fixed, flexSum, flexCount := 0, 0, 0
	for i := range n {
		if explicit[i] > 0 {
			out[i] = explicit[i]
			fixed += explicit[i]
			continue
		}
		flexSum += pref[i]
		flexCount++
	}
	remaining := max(0, width-fixed)
	if flexCount == 0 {
		return out
	}
	used, last := 0, -1
	for i := range n {
		if explicit[i] > 0 {
			continue
		}
		if flexSum == 0 {
			out[i] = remaining / flexCount
		} else {
			out[i] = pref[i] * remaining / flexSum
		}
		used += out[i]
		last = i
	}
	out[last] += remaining - used
	return out
}

// naturalWidth 以不受限宽度排版单元格，取其内容最右端作为自然宽度。
func (b *builder) naturalWidth(c tableCell) int {
	id := b.cell(c, unconstrained)
	bx := b.box(id)
	right := 0
	for _, leaf := range b.tree.inlineLeaves(id) {
		right = max(right, b.tree.AbsRect(leaf).Right())
	}
	for _, child := range bx.Children {
		cb := &b.tree.boxes[child]
		if cb.Kind != KindParagraph && !cb.Rect.isAuto(unconstrained) {
			right = max(right, cb.Rect.Right()+cb.Margin.Right)
		}
	}
	return right - b.tree.AbsRect(id).X + bx.Padding.Right + bx.Border.Right
}

// isAuto reports whether a block stretched to an unconstrained width.
func (r Rect) isAuto(limit int) bool { return r.Width >= limit/2 }

func (b *builder) cell(c tableCell, width int) BoxID {
	if c.node != dom.NoNode {
		return b.block(c.node, b.styles.Styles(c.node), width, KindTableCell)
	}
	id := b.newBox(Box{Kind: KindTableCell, Node: dom.NoNode, Rect: Rect{Width: width}})
	b.blockContent(id, dom.NoNode, c.stray)
	return id
}

func (b *builder) tablePartBox(part *tablePart, width int, cols []int) BoxID {
	switch part.kind {
	case KindTableCaption:
		return b.block(part.node, b.styles.Styles(part.node), width, KindTableCaption)
	case KindTableColumnGroup, KindTableColumn:
		return b.columns(part, width, cols)
	case KindTableRowGroup:
		st := b.styles.Styles(part.node)
		m, br, p := b.insetsOf(st)
		id := b.newBox(Box{Kind: KindTableRowGroup, Node: part.node, Margin: m, Border: br, Padding: p, Rect: Rect{Width: width - m.Horizontal()}})
		inner := b.box(id).contentWidth()
		for _, sub := range part.parts {
			b.appendChild(id, b.tablePartBox(sub, inner, cols))
		}
		b.tree.stack(id)
		return id
	case KindTableRow:
		return b.rowBox(part.rows[0], width, cols)
	case KindParagraph:
		return b.paragraph(part.items, width)
	default:
		st := b.styles.Styles(part.node)
		if st.Display == style.DisplayTable {
			return b.table(part.node, st, width)
		}
		return b.block(part.node, st, width, KindStructural)
	}
}

// columns 生成列与列组盒：高度为零，横向位置与列宽一致。
func (b *builder) columns(part *tablePart, width int, cols []int) BoxID {
	colBox := func(node dom.NodeID, x, w int) BoxID {
		return b.newBox(Box{Kind: KindTableColumn, Node: node, Rect: Rect{X: x, Width: w}})
	}
	index := b.columnIndex(part)
	xAt := func(i int) (int, int) {
		x := 0
		for j := 0; j < i && j < len(cols); j++ {
			x += cols[j]
		}
		if i < len(cols) {
			return x, cols[i]
		}
		return x, 0
	}
	if part.kind == KindTableColumn {
		x, w := xAt(index)
		return colBox(part.node, x, w)
	}
	id := b.newBox(Box{Kind: KindTableColumnGroup, Node: part.node, Rect: Rect{Width: width}})
	for i, col := range part.cols {
		x, w := xAt(index + i)
		b.appendChild(id, colBox(col, x, w))
	}
	return id
}

// columnIndex 返回该列部分第一列的列序号。
func (b *builder) columnIndex(part *tablePart) int {
	table := b.doc.Parent(part.node)
	i := 0
	for _, c := range b.doc.Children(table) {
		if c == part.node {
			return i
		}
		switch b.styles.Styles(c).Display {
		case style.DisplayTableColumn:
			i++
		case style.DisplayTableColumnGroup:
			for _, col := range b.doc.Children(c) {
				if b.styles.Styles(col).Display == style.DisplayTableColumn {
					i++
				}
			}
		}
	}
	return i
}

// rowBox 横向排列单元格，行高取单元格最大高度，所有单元格拉伸到行高。
func (b *builder) rowBox(row *tableRow, width int, cols []int) BoxID {
	id := b.newBox(Box{Kind: KindTableRow, Node: row.node, Rect: Rect{Width: width}})
	x, height := 0, 0
	for i, c := range row.cells {
		w := 0
		if i < len(cols) {
			w = cols[i]
		}
		cid := b.cell(c, w)
		cb := b.box(cid)
		cb.Rect.X = x
		x += w
		height = max(height, cb.Rect.Height)
		b.appendChild(id, cid)
	}
	for _, c := range b.box(id).Children {
		b.tree.boxes[c].Rect.Height = height
	}
	rb := b.box(id)
	rb.Rect.Height = height
	if len(rb.Children) > 0 {
		first := &b.tree.boxes[rb.Children[0]]
		rb.Baseline = first.Baseline
	}
	return id
}
