package layout

import (
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/style"
)

// Engine 持有当前盒树，并根据文档变更做增量重排。
type Engine struct {
	doc         *dom.Document
	opts        BuildOptions
	log         *zap.Logger
	tree        *Tree
	dirty       map[dom.NodeID]struct{}
	unsubscribe func()
}

// NewEngine 创建引擎并订阅文档变更；首次调用 Layout 之前没有盒树。
func NewEngine(doc *dom.Document, opts BuildOptions) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		doc:   doc,
		opts:  opts,
		log:   opts.logger(),
		dirty: map[dom.NodeID]struct{}{},
	}
	e.unsubscribe = doc.Subscribe(func(ch dom.Change) { e.Invalidate(ch.Node) })
	return e, nil
}

// Close 取消文档订阅。
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Tree returns the current box tree, nil before the first Layout.
func (e *Engine) Tree() *Tree { return e.tree }

// Dirty reports the number of changed nodes awaiting relayout.
func (e *Engine) Dirty() int { return len(e.dirty) }

// Invalidate records that node's content or geometry changed.
func (e *Engine) Invalidate(node dom.NodeID) {
	e.dirty[node] = struct{}{}
}

// Layout 全量重建盒树；旧树标记为已被取代。
func (e *Engine) Layout() (*Tree, error) {
	tree, err := Build(e.doc, e.opts)
	if err != nil {
		return nil, err
	}
	if e.tree != nil {
		e.tree.superseded = true
		tree.generation = e.tree.generation + 1
	}
	e.tree = tree
	clear(e.dirty)
	return tree, nil
}

// SetWidth 修改可用宽度，需要全量重排。
func (e *Engine) SetWidth(width int) (*Tree, error) {
	e.opts.Width = width
	return e.Layout()
}

// SetStyles 替换样式来源（样式表变更），整棵树重建。
func (e *Engine) SetStyles(styles StyleSource) (*Tree, error) {
	e.opts.Styles = styles
	return e.Layout()
}

// Relayout 处理积累的变更：NeedsSelfRelayout 的盒子重建，
// NeedsDescendantRelayout 的盒子递归后重新堆叠，Clean 子树原样复用。
func (e *Engine) Relayout() (*Tree, error) {
	if e.tree == nil {
		return e.Layout()
	}
	if len(e.dirty) == 0 {
		return e.tree, nil
	}
	started := time.Now()
	t := e.tree
	index := t.blockIndex()
	dirty := len(e.dirty)
	for node := range e.dirty {
		if !e.doc.Valid(node) {
			continue
		}
		target := t.relayoutTarget(node, index)
		if target == NoBox || target == t.root {
			return e.Layout()
		}
		t.markDirty(target)
	}
	clear(e.dirty)

	b := newBuilder(t, e.opts)
	rebuilt := 0
	b.relayout(t.root, &rebuilt)
	t.generation++
	if reachable := t.reachable(); len(t.boxes) > 2*reachable {
		t.compact()
	}
	e.log.Debug("relayout pass",
		zap.Int("dirty", dirty),
		zap.Int("rebuilt", rebuilt),
		zap.Int("generation", t.generation),
		zap.Duration("elapsed", time.Since(started)))
	return t, nil
}

// blockIndex 将文档节点映射到绑定它的块级盒。
func (t *Tree) blockIndex() map[dom.NodeID]BoxID {
	index := map[dom.NodeID]BoxID{}
	t.Walk(t.root, func(id BoxID) bool {
		bx := &t.boxes[id]
		if bx.Kind.InlineLevel() {
			return false
		}
		if bx.Node != dom.NoNode && bx.Kind != KindParagraph {
			index[bx.Node] = id
		}
		return true
	})
	return index
}

// relayoutTarget 找到需要重建的盒子：最近的拥有块级盒的祖先节点；
// 表格内部的变更升级为最外层表格，因为列宽可能改变。
func (t *Tree) relayoutTarget(node dom.NodeID, index map[dom.NodeID]BoxID) BoxID {
	target := NoBox
	for n := node; n != dom.NoNode; n = t.doc.Parent(n) {
		if id, ok := index[n]; ok {
			target = id
			break
		}
	}
	if target == NoBox {
		return NoBox
	}
	for p := target; p != NoBox; p = t.boxes[p].Parent {
		if t.boxes[p].Kind == KindTable {
			target = p
		}
	}
	return target
}

func (t *Tree) markDirty(id BoxID) {
	t.boxes[id].Status = StatusNeedsSelfRelayout
	for p := t.boxes[id].Parent; p != NoBox; p = t.boxes[p].Parent {
		if t.boxes[p].Status == StatusClean {
			t.boxes[p].Status = StatusNeedsDescendantRelayout
		}
	}
}

func (b *builder) relayout(id BoxID, rebuilt *int) {
	t := b.tree
	switch t.boxes[id].Status {
	case StatusClean:
		return
	case StatusNeedsSelfRelayout:
		b.rebuild(id)
		*rebuilt++
		return
	}
	for _, c := range t.boxes[id].Children {
		b.relayout(c, rebuilt)
	}
	t.stack(id)
	t.boxes[id].Status = StatusClean
}

// rebuild 在父盒的内容宽度下重建 id，并在父盒的子列表中替换它。
func (b *builder) rebuild(id BoxID) {
	t := b.tree
	old := t.boxes[id]
	width := t.boxes[old.Parent].contentWidth()
	st := b.styles.Styles(old.Node)
	var nid BoxID
	if old.Kind == KindTable {
		nid = b.table(old.Node, st, width)
	} else {
		nid = b.block(old.Node, st, width, old.Kind)
	}
	t.boxes[nid].Parent = old.Parent
	kids := t.boxes[old.Parent].Children
	for i, c := range kids {
		if c == id {
			kids[i] = nid
			break
		}
	}
	t.boxes[id].Parent = NoBox
	t.boxes[id].Status = StatusClean
}

func (t *Tree) reachable() int {
	n := 0
	t.Walk(t.root, func(BoxID) bool { n++; return true })
	return n
}

// compact 丢弃重排后不可达的盒子并重新编号。
func (t *Tree) compact() {
	remap := map[BoxID]BoxID{}
	var boxes []Box
	t.Walk(t.root, func(id BoxID) bool {
		remap[id] = BoxID(len(boxes))
		boxes = append(boxes, t.boxes[id])
		return true
	})
	for i := range boxes {
		bx := &boxes[i]
		if p, ok := remap[bx.Parent]; ok {
			bx.Parent = p
		} else {
			bx.Parent = NoBox
		}
		kids := make([]BoxID, len(bx.Children))
		for j, c := range bx.Children {
			kids[j] = remap[c]
		}
		bx.Children = kids
	}
	t.boxes = boxes
	t.root = 0
}

var _ StyleSource = (*style.Cache)(nil)
