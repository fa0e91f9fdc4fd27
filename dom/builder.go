package dom

import "fmt"

// Builder assembles a Document in document order.
type Builder struct {
	doc   *Document
	stack []NodeID
	err   error
}

// NewBuilder starts a document whose root element is named root.
func NewBuilder(root string, attrs ...Attr) *Builder {
	b := &Builder{doc: &Document{root: NoNode, listeners: map[int]func(Change){}}}
	b.doc.root = b.open(KindElement, root, attrs)
	return b
}

func (b *Builder) current() NodeID {
	if len(b.stack) == 0 {
		return NoNode
	}
	return b.stack[len(b.stack)-1]
}

func (b *Builder) appendNode(n Node) NodeID {
	id := NodeID(len(b.doc.nodes))
	b.doc.nodes = append(b.doc.nodes, n)
	if n.Parent != NoNode {
		p := &b.doc.nodes[n.Parent]
		p.Children = append(p.Children, id)
	}
	return id
}

func (b *Builder) open(kind Kind, name string, attrs []Attr) NodeID {
	start := len(b.doc.content)
	b.doc.content = append(b.doc.content, TagMarker)
	id := b.appendNode(Node{
		Kind:   kind,
		Name:   name,
		Attrs:  append([]Attr(nil), attrs...),
		Parent: b.current(),
		Range:  Range{Start: start, End: start},
	})
	b.stack = append(b.stack, id)
	return id
}

func (b *Builder) close() NodeID {
	id := b.current()
	b.doc.nodes[id].Range.End = len(b.doc.content)
	b.doc.content = append(b.doc.content, TagMarker)
	b.stack = b.stack[:len(b.stack)-1]
	return id
}

// Start opens a child element.
func (b *Builder) Start(name string, attrs ...Attr) *Builder {
	if b.current() == NoNode {
		b.err = fmt.Errorf("element %s opened after the root was closed", name)
		return b
	}
	b.open(KindElement, name, attrs)
	return b
}

// End closes the innermost open element.
func (b *Builder) End() *Builder {
	if len(b.stack) <= 1 {
		b.err = fmt.Errorf("unbalanced End")
		return b
	}
	b.close()
	return b
}

// Text appends characters. Consecutive calls merge into one text node.
func (b *Builder) Text(s string) *Builder {
	if s == "" || b.current() == NoNode {
		return b
	}
	parent := b.current()
	runes := []rune(s)
	for _, r := range runes {
		if r == TagMarker {
			b.err = fmt.Errorf("text contains the tag marker rune")
			return b
		}
	}
	children := b.doc.nodes[parent].Children
	if n := len(children); n > 0 {
		last := &b.doc.nodes[children[n-1]]
		if last.Kind == KindText && last.Range.End == len(b.doc.content)-1 {
			b.doc.content = append(b.doc.content, runes...)
			last.Range.End += len(runes)
			return b
		}
	}
	start := len(b.doc.content)
	b.doc.content = append(b.doc.content, runes...)
	b.appendNode(Node{
		Kind:   KindText,
		Parent: parent,
		Range:  Range{Start: start, End: start + len(runes) - 1},
	})
	return b
}

// Element is shorthand for Start(name).Text(text).End().
func (b *Builder) Element(name, text string, attrs ...Attr) *Builder {
	return b.Start(name, attrs...).Text(text).End()
}

func (b *Builder) leaf(kind Kind, name, data string, attrs []Attr) *Builder {
	if b.current() == NoNode {
		return b
	}
	b.open(kind, name, attrs)
	b.doc.content = append(b.doc.content, []rune(data)...)
	b.close()
	return b
}

// Comment appends a comment node.
func (b *Builder) Comment(data string) *Builder { return b.leaf(KindComment, "", data, nil) }

// ProcessingInstruction appends a processing instruction.
func (b *Builder) ProcessingInstruction(target, data string) *Builder {
	text := target
	if data != "" {
		text += " " + data
	}
	return b.leaf(KindProcessingInstruction, target, text, nil)
}

// Include appends an include reference.
func (b *Builder) Include(href string) *Builder {
	return b.leaf(KindInclude, "include", "", []Attr{{Key: "href", Value: href}})
}

// Build closes any open elements and returns the document.
func (b *Builder) Build() (*Document, error) {
	if b.err != nil {
		return nil, b.err
	}
	for len(b.stack) > 0 {
		b.close()
	}
	return b.doc, nil
}

// MustBuild is Build for fixtures; it panics on error.
func (b *Builder) MustBuild() *Document {
	doc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return doc
}
