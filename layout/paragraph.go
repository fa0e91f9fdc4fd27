package layout

import "github.com/ByLCY/folio/dom"

// paragraph 构建匿名段落：先生成行内子树，再执行折行并定位每个叶子。
func (b *builder) paragraph(run []blockItem, width int) BoxID {
	id := b.newBox(Box{Kind: KindParagraph, Node: dom.NoNode})
	for _, it := range run {
		b.inline(id, it)
	}
	b.lineLayout(id, width)
	return id
}

// lineLayout 贪心折行：叶子从左到右累积宽度，文本超宽时调用 Splitter，
// 其他叶子整体换行（行首时无条件放置以保证前进）。
func (b *builder) lineLayout(para BoxID, width int) {
	t := b.tree
	leaves := t.inlineLeaves(para)
	var lines [][]BoxID
	var line []BoxID
	x := 0

	endLine := func() {
		lines = append(lines, line)
		line = nil
		x = 0
	}
	place := func(id BoxID) {
		t.boxes[id].Rect.X = x
		x += t.boxes[id].Rect.Width
		line = append(line, id)
	}

	for i := 0; i < len(leaves); i++ {
		id := leaves[i]
		w := t.boxes[id].Rect.Width
		if t.boxes[id].Kind != KindText {
			if x+w > width && len(line) > 0 {
				endLine()
			}
			place(id)
			continue
		}

		runes := t.Runes(id)
		pre := t.boxes[id].Pre
		if x+w <= width && !(pre && hasInteriorNewline(runes)) {
			place(id)
			if pre && endsWithNewline(runes) {
				endLine()
			}
			continue
		}

		sp := NewSplitter(b.measurer, b.styles.Styles(t.boxes[id].Node), b.rc)
		left, right := sp.Split(runes, t.Range(id).Start, width-x, len(line) == 0)
		if left == nil {
			// 当前行放不下，换到新行重试；新行上的切分是强制的，必然前进
			endLine()
			i--
			continue
		}
		if right != nil {
			leaves = insertBox(leaves, i+1, b.splitLeaf(id, left, right))
		} else {
			t.boxes[id].Rect.Width = left.Width
		}
		place(id)
		if right != nil || (pre && endsWithNewline(runes)) {
			endLine()
		}
	}
	if len(line) > 0 || len(lines) == 0 {
		endLine()
	}

	// 行高取行内各项的最大值，各项按基线对齐
	y := 0
	first := -1
	for _, ln := range lines {
		ascent, descent := 0, 0
		for _, id := range ln {
			bx := &t.boxes[id]
			ascent = max(ascent, bx.Baseline)
			descent = max(descent, bx.Rect.Height-bx.Baseline)
		}
		for _, id := range ln {
			bx := &t.boxes[id]
			bx.Rect.Y = y + ascent - bx.Baseline
		}
		if first < 0 {
			first = ascent
		}
		y += ascent + descent
	}

	pb := &t.boxes[para]
	pb.Rect.Width = width
	pb.Rect.Height = y
	pb.Baseline = max(first, 0)
	for _, c := range pb.Children {
		if t.boxes[c].Kind == KindInline {
			t.fitInline(c)
		}
	}
}

// splitLeaf 将文本叶子 id 缩短为 left，并在其后插入承载 right 的新叶子。
func (b *builder) splitLeaf(id BoxID, left, right *Piece) BoxID {
	t := b.tree
	node := t.boxes[id].Node
	start := t.doc.Range(node).Start
	rest := t.boxes[id]
	rest.Children = nil
	rest.RelStart = right.Range.Start - start
	rest.Rect.Width = right.Width
	nid := b.newBox(rest)

	orig := &t.boxes[id]
	orig.RelEnd = left.Range.End - start
	orig.Rect.Width = left.Width

	parent := orig.Parent
	t.boxes[nid].Parent = parent
	kids := t.boxes[parent].Children
	for i, c := range kids {
		if c == id {
			t.boxes[parent].Children = insertBox(kids, i+1, nid)
			break
		}
	}
	return nid
}

// fitInline 将行内盒的矩形设为子项（段落坐标）的并集，再把子项改为相对坐标。
func (t *Tree) fitInline(id BoxID) {
	for _, c := range t.boxes[id].Children {
		if t.boxes[c].Kind == KindInline {
			t.fitInline(c)
		}
	}
	kids := t.boxes[id].Children
	if len(kids) == 0 {
		return
	}
	r := t.boxes[kids[0]].Rect
	for _, c := range kids[1:] {
		r = r.Union(t.boxes[c].Rect)
	}
	first := &t.boxes[kids[0]]
	bx := &t.boxes[id]
	bx.Rect = r
	bx.Baseline = first.Rect.Y + first.Baseline - r.Y
	for _, c := range kids {
		t.boxes[c].Rect.X -= r.X
		t.boxes[c].Rect.Y -= r.Y
	}
}

// inlineLeaves 按文档顺序列出段落内所有叶子（包括生成内容）。
func (t *Tree) inlineLeaves(id BoxID) []BoxID {
	var out []BoxID
	t.Walk(id, func(b BoxID) bool {
		if t.boxes[b].Kind.Leaf() {
			out = append(out, b)
		}
		return true
	})
	return out
}

func insertBox(s []BoxID, i int, id BoxID) []BoxID {
	s = append(s, NoBox)
	copy(s[i+1:], s[i:])
	s[i] = id
	return s
}
