package layout

import (
	"fmt"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/style"
)

// Build 根据文档与样式生成盒树。
func Build(doc *dom.Document, opts BuildOptions) (*Tree, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	tree := newTree(doc, opts.Measurer, opts.Width)
	b := newBuilder(tree, opts)
	started := time.Now()
	tree.root = b.buildRoot()
	b.log.Debug("layout pass",
		zap.Int("boxes", tree.Len()),
		zap.Int("demoted", b.demoted),
		zap.Duration("elapsed", time.Since(started)))
	return tree, nil
}

// builder 持有一次布局所需的依赖，所有盒子都写入 tree 的数组。
type builder struct {
	tree     *Tree
	doc      *dom.Document
	styles   StyleSource
	measurer Measurer
	rc       style.RenderingConfig
	log      *zap.Logger
	demoted  int
}

func newBuilder(tree *Tree, opts BuildOptions) *builder {
	return &builder{
		tree:     tree,
		doc:      tree.doc,
		styles:   opts.Styles,
		measurer: opts.Measurer,
		rc:       opts.rendering(),
		log:      opts.logger(),
	}
}

// scratch returns a builder writing into a throwaway tree, used to measure
// natural widths.
func (b *builder) scratch() *builder {
	return &builder{
		tree:     newTree(b.doc, b.measurer, unconstrained),
		doc:      b.doc,
		styles:   b.styles,
		measurer: b.measurer,
		rc:       b.rc,
		log:      zap.NewNop(),
	}
}

func (b *builder) newBox(box Box) BoxID {
	box.Parent = NoBox
	id := BoxID(len(b.tree.boxes))
	b.tree.boxes = append(b.tree.boxes, box)
	return id
}

func (b *builder) appendChild(parent, child BoxID) {
	b.tree.boxes[child].Parent = parent
	b.tree.boxes[parent].Children = append(b.tree.boxes[parent].Children, child)
}

func (b *builder) box(id BoxID) *Box { return &b.tree.boxes[id] }

func (b *builder) buildRoot() BoxID {
	root := b.doc.Root()
	st := b.styles.Styles(root)
	var id BoxID
	if st.Display == style.DisplayTable {
		id = b.table(root, st, b.tree.width)
	} else {
		id = b.block(root, st, b.tree.width, KindStructural)
	}
	bx := b.box(id)
	bx.Rect.X = bx.Margin.Left
	bx.Rect.Y = bx.Margin.Top
	return id
}

// insetsOf 解析外边距、边框与内边距。
func (b *builder) insetsOf(st *style.Styles) (m, br, p style.Insets) {
	return st.Margin.Pixels(b.rc), st.Border.Pixels(b.rc), st.Padding.Pixels(b.rc)
}

// borderBoxWidth 计算块的边框盒宽度：显式宽度优先，否则撑满可用宽度。
func (b *builder) borderBoxWidth(st *style.Styles, avail int, m, br, p style.Insets) int {
	if !st.Width.IsZero() {
		return b.rc.Horizontal(st.Width) + br.Horizontal() + p.Horizontal()
	}
	return max(0, avail-m.Horizontal())
}

// block 生成块级容器（structural、单元格、标题），子节点按块格式化规则堆叠。
func (b *builder) block(node dom.NodeID, st *style.Styles, avail int, kind Kind) BoxID {
	m, br, p := b.insetsOf(st)
	id := b.newBox(Box{
		Kind:    kind,
		Node:    node,
		Margin:  m,
		Border:  br,
		Padding: p,
		Font:    st.Font,
		Pre:     st.Pre(),
		Rect:    Rect{Width: b.borderBoxWidth(st, avail, m, br, p)},
	})
	b.blockContent(id, node, b.doc.Children(node))
	return id
}

// blockItem 是待排版的行内单位：文档节点、宿主的生成内容或占位符。
type blockItem struct {
	node        dom.NodeID
	pseudo      style.Pseudo
	placeholder bool
}

// blockContent 将 kids 排入容器 id：块级子节点直接堆叠，连续的行内内容包进匿名段落。
// host 为 dom.NoNode 时表示匿名容器（没有生成内容与占位符）。
func (b *builder) blockContent(id BoxID, host dom.NodeID, kids []dom.NodeID) {
	width := b.box(id).contentWidth()
	var run []blockItem
	content := false

	flush := func(final bool) {
		if isWhitespaceRun(b, run) {
			run = generatedOnly(run)
		}
		if final && !content && host != dom.NoNode && !hasRealItem(run) {
			run = append(run, blockItem{node: host, placeholder: true})
		}
		if len(run) == 0 {
			return
		}
		if hasRealItem(run) {
			content = true
		}
		b.appendChild(id, b.paragraph(run, width))
		run = nil
	}

	if host != dom.NoNode && b.styles.PseudoStyles(host, style.PseudoBefore) != nil {
		run = append(run, blockItem{node: host, pseudo: style.PseudoBefore})
	}
	for _, c := range kids {
		cs := b.styles.Styles(c)
		switch d := cs.Display; {
		case d == style.DisplayNone:
			continue
		case d == style.DisplayBlock && b.doc.Kind(c) == dom.KindElement:
			flush(false)
			b.appendChild(id, b.block(c, cs, width, KindStructural))
			content = true
		case d == style.DisplayTable && b.doc.Kind(c) == dom.KindElement:
			flush(false)
			b.appendChild(id, b.table(c, cs, width))
			content = true
		default:
			run = append(run, blockItem{node: c})
		}
	}
	if host != dom.NoNode && b.styles.PseudoStyles(host, style.PseudoAfter) != nil {
		run = append(run, blockItem{node: host, pseudo: style.PseudoAfter})
	}
	flush(true)
	b.tree.stack(id)
}

// demote 记录一个在行内上下文中按行内处理的非行内节点（含位置不合法的表格角色）。
func (b *builder) demote(node dom.NodeID, d style.Display) {
	b.demoted++
	b.log.Debug("demoted to inline",
		zap.Int32("node", int32(node)),
		zap.String("name", b.doc.Node(node).Name),
		zap.Stringer("display", d))
}

func hasRealItem(run []blockItem) bool {
	for _, it := range run {
		if it.pseudo == style.PseudoNone {
			return true
		}
	}
	return false
}

func generatedOnly(run []blockItem) []blockItem {
	var out []blockItem
	for _, it := range run {
		if it.pseudo != style.PseudoNone {
			out = append(out, it)
		}
	}
	return out
}

// isWhitespaceRun 判断一段行内内容是否只由非 pre 的空白文本组成。
func isWhitespaceRun(b *builder, run []blockItem) bool {
	seen := false
	for _, it := range run {
		if it.pseudo != style.PseudoNone {
			continue
		}
		if it.placeholder || b.doc.Kind(it.node) != dom.KindText || b.styles.Styles(it.node).Pre() {
			return false
		}
		for _, r := range b.doc.TextContent(it.node) {
			if !unicode.IsSpace(r) {
				return false
			}
		}
		seen = true
	}
	return seen
}

// inline 在 parent 下构建一个行内单位。所有显示类型在行内上下文中都按行内处理。
func (b *builder) inline(parent BoxID, it blockItem) {
	switch {
	case it.placeholder:
		b.appendChild(parent, b.placeholder(it.node))
		return
	case it.pseudo != style.PseudoNone:
		if g := b.generated(it.node, it.pseudo); g != NoBox {
			b.appendChild(parent, g)
		}
		return
	}

	node := b.doc.Node(it.node)
	st := b.styles.Styles(it.node)
	if st.Display == style.DisplayNone {
		return
	}
	if node.Kind == dom.KindText {
		b.appendChild(parent, b.text(it.node, st, 0, node.Range.Len()-1))
		return
	}
	if st.Display != style.DisplayInline {
		b.demote(it.node, st.Display)
	}

	id := b.newBox(Box{Kind: KindInline, Node: it.node, Font: st.Font, Pre: st.Pre()})
	b.appendChild(parent, id)
	switch node.Kind {
	case dom.KindComment, dom.KindProcessingInstruction:
		if node.Range.Len() > 2 {
			b.appendChild(id, b.text(it.node, st, 1, node.Range.Len()-2))
		} else {
			b.appendChild(id, b.placeholder(it.node))
		}
		return
	}

	if b.styles.PseudoStyles(it.node, style.PseudoBefore) != nil {
		b.inline(id, blockItem{node: it.node, pseudo: style.PseudoBefore})
	}
	empty := true
	for _, c := range node.Children {
		if b.styles.Styles(c).Display == style.DisplayNone {
			continue
		}
		b.inline(id, blockItem{node: c})
		empty = false
	}
	if empty {
		b.appendChild(id, b.placeholder(it.node))
	}
	if b.styles.PseudoStyles(it.node, style.PseudoAfter) != nil {
		b.inline(id, blockItem{node: it.node, pseudo: style.PseudoAfter})
	}
}

// text 生成文本叶子，relStart/relEnd 为相对节点起点的闭区间。
func (b *builder) text(node dom.NodeID, st *style.Styles, relStart, relEnd int) BoxID {
	sp := NewSplitter(b.measurer, st, b.rc)
	start := b.doc.Range(node).Start
	runes := b.doc.Runes(dom.Range{Start: start + relStart, End: start + relEnd})
	return b.newBox(Box{
		Kind:     KindText,
		Node:     node,
		RelStart: relStart,
		RelEnd:   relEnd,
		Font:     st.Font,
		Pre:      st.Pre(),
		Rect:     Rect{Width: sp.Width(runes), Height: sp.LineHeight()},
		Baseline: sp.Ascent(),
	})
}

func (b *builder) placeholder(node dom.NodeID) BoxID {
	st := b.styles.Styles(node)
	sp := NewSplitter(b.measurer, st, b.rc)
	return b.newBox(Box{
		Kind:     KindPlaceholder,
		Node:     node,
		Font:     st.Font,
		Rect:     Rect{Height: sp.LineHeight()},
		Baseline: sp.Ascent(),
	})
}

// generated 为宿主节点生成 ::before/::after 内容，内容中的 ${...} 由宿主属性插值。
func (b *builder) generated(host dom.NodeID, pseudo style.Pseudo) BoxID {
	ps := b.styles.PseudoStyles(host, pseudo)
	if ps == nil {
		return NoBox
	}
	text := binding.Interpolate(ps.ContentText(), binding.NodeScope{Node: b.doc.Node(host)})
	sp := NewSplitter(b.measurer, ps, b.rc)
	return b.newBox(Box{
		Kind:     KindGenerated,
		Node:     host,
		Pseudo:   pseudo,
		Text:     text,
		Font:     ps.Font,
		Rect:     Rect{Width: sp.Width([]rune(text)), Height: sp.LineHeight()},
		Baseline: sp.Ascent(),
	})
}

// stack 依次纵向堆叠块级子盒并更新自身高度；外边距不折叠。
func (t *Tree) stack(id BoxID) {
	bx := &t.boxes[id]
	x0, y := bx.contentOrigin()
	for _, c := range bx.Children {
		cb := &t.boxes[c]
		if cb.Kind != KindTableColumn {
			cb.Rect.X = x0 + cb.Margin.Left
		}
		cb.Rect.Y = y + cb.Margin.Top
		y = cb.Rect.Bottom() + cb.Margin.Bottom
	}
	bx = &t.boxes[id]
	bx.Rect.Height = y + bx.Padding.Bottom + bx.Border.Bottom
	bx.Baseline = 0
	if len(bx.Children) > 0 {
		first := &t.boxes[bx.Children[0]]
		bx.Baseline = first.Rect.Y + first.Baseline
	}
}
