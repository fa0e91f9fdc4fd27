package dom

import "fmt"

// ChangeKind classifies a document change.
type ChangeKind uint8

const (
	ChangeTextInserted ChangeKind = iota
	ChangeNodeInserted
	ChangeDeleted
)

// Change describes one completed mutation. Node is the node whose content
// changed (the extended text node, the new element, or the parent of a removed
// node); Parent is its parent at notification time.
type Change struct {
	Kind   ChangeKind
	Node   NodeID
	Parent NodeID
	Range  Range
}

// Subscribe registers fn for change notifications, delivered synchronously
// after every mutation. The returned func unregisters it.
func (d *Document) Subscribe(fn func(Change)) func() {
	if d.listeners == nil {
		d.listeners = map[int]func(Change){}
	}
	id := d.nextSub
	d.nextSub++
	d.listeners[id] = fn
	return func() { delete(d.listeners, id) }
}

func (d *Document) notify(c Change) {
	for i := 0; i < d.nextSub; i++ {
		if fn, ok := d.listeners[i]; ok {
			fn(c)
		}
	}
}

type insertion struct {
	parent NodeID
	index  int    // child index the new content goes before
	text   NodeID // text node containing offset (Start < offset), or NoNode
	data   bool   // offset lies inside comment or PI data
}

func (d *Document) childIndex(parent, child NodeID) int {
	for i, c := range d.nodes[parent].Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (d *Document) insertionPoint(offset int) (insertion, error) {
	n := d.NodeAt(offset)
	if n == NoNode {
		return insertion{}, fmt.Errorf("%w: %d", ErrOutOfRange, offset)
	}
	node := d.nodes[n]
	if node.Kind == KindText {
		ins := insertion{parent: node.Parent, index: d.childIndex(node.Parent, n), text: NoNode}
		if offset > node.Range.Start {
			ins.text = n
			ins.index++
		}
		return ins, nil
	}
	if offset == node.Range.Start {
		if n == d.root {
			return insertion{}, fmt.Errorf("%w: before the root element", ErrInvalidInsertion)
		}
		return insertion{parent: node.Parent, index: d.childIndex(node.Parent, n), text: NoNode}, nil
	}
	switch node.Kind {
	case KindElement:
		return insertion{parent: n, index: len(node.Children), text: NoNode}, nil
	case KindComment, KindProcessingInstruction:
		return insertion{parent: n, text: NoNode, data: true}, nil
	default:
		return insertion{}, fmt.Errorf("%w: inside %s", ErrInvalidInsertion, node.Kind)
	}
}

// shiftInsert moves every live node at or after offset by k, except skip.
func (d *Document) shiftInsert(offset, k int, skip NodeID) {
	for i := range d.nodes {
		n := &d.nodes[i]
		if n.removed || NodeID(i) == skip {
			continue
		}
		if n.Range.Start >= offset {
			n.Range.Start += k
		}
		if n.Range.End >= offset {
			n.Range.End += k
		}
	}
}

func (d *Document) spliceContent(offset int, runes []rune) {
	d.content = append(d.content[:offset], append(append([]rune(nil), runes...), d.content[offset:]...)...)
}

func (d *Document) insertChild(parent NodeID, index int, child NodeID) {
	p := &d.nodes[parent]
	p.Children = append(p.Children, NoNode)
	copy(p.Children[index+1:], p.Children[index:])
	p.Children[index] = child
}

// InsertText inserts s at offset, extending an adjacent text node when one
// exists. It returns the text node holding the new characters.
func (d *Document) InsertText(offset int, s string) (NodeID, error) {
	runes := []rune(s)
	if len(runes) == 0 {
		return NoNode, fmt.Errorf("%w: empty text", ErrInvalidInsertion)
	}
	for _, r := range runes {
		if r == TagMarker {
			return NoNode, fmt.Errorf("%w: text contains the tag marker", ErrInvalidInsertion)
		}
	}
	ins, err := d.insertionPoint(offset)
	if err != nil {
		return NoNode, err
	}
	k := len(runes)

	target := ins.text
	if target == NoNode && !ins.data {
		children := d.nodes[ins.parent].Children
		if ins.index > 0 {
			prev := children[ins.index-1]
			if d.nodes[prev].Kind == KindText && d.nodes[prev].Range.End == offset-1 {
				target = prev
			}
		}
		if target == NoNode && ins.index < len(children) {
			next := children[ins.index]
			if d.nodes[next].Kind == KindText && d.nodes[next].Range.Start == offset {
				target = next
			}
		}
	}

	d.spliceContent(offset, runes)
	switch {
	case ins.data:
		d.shiftInsert(offset, k, NoNode)
		target = ins.parent
	case target != NoNode:
		d.shiftInsert(offset, k, target)
		t := &d.nodes[target]
		if offset <= t.Range.End+1 {
			t.Range.End += k
		}
	default:
		d.shiftInsert(offset, k, NoNode)
		target = NodeID(len(d.nodes))
		d.nodes = append(d.nodes, Node{
			Kind:   KindText,
			Parent: ins.parent,
			Range:  Range{Start: offset, End: offset + k - 1},
		})
		d.insertChild(ins.parent, ins.index, target)
	}

	d.notify(Change{
		Kind:   ChangeTextInserted,
		Node:   target,
		Parent: d.nodes[target].Parent,
		Range:  Range{Start: offset, End: offset + k - 1},
	})
	return target, nil
}

// InsertElement inserts an empty element at offset, splitting a text node if
// offset falls inside one.
func (d *Document) InsertElement(offset int, name string, attrs ...Attr) (NodeID, error) {
	ins, err := d.insertionPoint(offset)
	if err != nil {
		return NoNode, err
	}
	if ins.data {
		return NoNode, fmt.Errorf("%w: inside comment or processing instruction", ErrInvalidInsertion)
	}
	if ins.text != NoNode {
		t := &d.nodes[ins.text]
		tail := Node{Kind: KindText, Parent: t.Parent, Range: Range{Start: offset, End: t.Range.End}}
		t.Range.End = offset - 1
		tailID := NodeID(len(d.nodes))
		d.nodes = append(d.nodes, tail)
		d.insertChild(ins.parent, ins.index, tailID)
	}

	d.spliceContent(offset, []rune{TagMarker, TagMarker})
	d.shiftInsert(offset, 2, NoNode)
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, Node{
		Kind:   KindElement,
		Name:   name,
		Attrs:  append([]Attr(nil), attrs...),
		Parent: ins.parent,
		Range:  Range{Start: offset, End: offset + 1},
	})
	d.insertChild(ins.parent, ins.index, id)

	d.notify(Change{Kind: ChangeNodeInserted, Node: id, Parent: ins.parent, Range: d.nodes[id].Range})
	return id, nil
}

// Delete removes r. r must either equal the range of a non-root node, or lie
// within the characters of one text node or the data of a comment or PI.
func (d *Document) Delete(r Range) error {
	if r.End < r.Start || !d.Range(d.root).ContainsRange(r) {
		return fmt.Errorf("%w: %s", ErrOutOfRange, r)
	}
	n := d.NodeAt(r.Start)
	for n != NoNode && !d.nodes[n].Range.ContainsRange(r) {
		n = d.nodes[n].Parent
	}
	if n == NoNode {
		return fmt.Errorf("%w: %s", ErrInvalidDeletion, r)
	}
	node := d.nodes[n]
	k := r.Len()

	var change Change
	switch {
	case node.Range == r && n != d.root:
		d.markRemoved(n)
		p := &d.nodes[node.Parent]
		idx := d.childIndex(node.Parent, n)
		p.Children = append(p.Children[:idx], p.Children[idx+1:]...)
		change = Change{Kind: ChangeDeleted, Node: node.Parent, Parent: d.nodes[node.Parent].Parent, Range: r}
	case node.Kind == KindText:
		d.nodes[n].Range.End -= k
		change = Change{Kind: ChangeDeleted, Node: n, Parent: node.Parent, Range: r}
	case (node.Kind == KindComment || node.Kind == KindProcessingInstruction) &&
		r.Start > node.Range.Start && r.End < node.Range.End:
		change = Change{Kind: ChangeDeleted, Node: n, Parent: node.Parent, Range: r}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDeletion, r)
	}

	d.content = append(d.content[:r.Start], d.content[r.End+1:]...)
	for i := range d.nodes {
		m := &d.nodes[i]
		if m.removed || (NodeID(i) == n && node.Kind == KindText) {
			continue
		}
		if m.Range.Start > r.End {
			m.Range.Start -= k
		}
		if m.Range.End > r.End {
			m.Range.End -= k
		}
	}
	d.notify(change)
	return nil
}

func (d *Document) markRemoved(id NodeID) {
	d.nodes[id].removed = true
	for _, c := range d.nodes[id].Children {
		d.markRemoved(c)
	}
}
