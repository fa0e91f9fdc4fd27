package dom

import (
	"errors"
	"fmt"
	"strings"
)

// TagMarker occupies the first and last offset of every structural node.
const TagMarker rune = 0

// NodeID is a handle into a Document's node arena.
type NodeID int32

// NoNode marks the absence of a node (anonymous boxes, root parent).
const NoNode NodeID = -1

var (
	// ErrOutOfRange is returned when an offset or range lies outside the content.
	ErrOutOfRange = errors.New("dom: offset out of range")
	// ErrInvalidInsertion is returned when content cannot be inserted at an offset.
	ErrInvalidInsertion = errors.New("dom: invalid insertion point")
	// ErrInvalidDeletion is returned when a range does not match a deletable unit.
	ErrInvalidDeletion = errors.New("dom: range is not deletable")
)

// Kind enumerates node kinds.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
	KindProcessingInstruction
	KindInclude
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindProcessingInstruction:
		return "pi"
	case KindInclude:
		return "include"
	default:
		return "unknown"
	}
}

// Structural reports whether nodes of this kind are delimited by tag markers.
func (k Kind) Structural() bool { return k != KindText }

// Range is an inclusive pair of offsets.
//
// Structural nodes put their tag markers at Start and End. Text nodes span their
// first and last character.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of offsets covered.
func (r Range) Len() int { return r.End - r.Start + 1 }

// Contains reports whether offset lies within [Start, End].
func (r Range) Contains(offset int) bool { return offset >= r.Start && offset <= r.End }

// ContainsRange reports whether o lies entirely within r.
func (r Range) ContainsRange(o Range) bool { return o.Start >= r.Start && o.End <= r.End }

// Intersects reports whether the two ranges share at least one offset.
func (r Range) Intersects(o Range) bool { return r.Start <= o.End && o.Start <= r.End }

func (r Range) String() string { return fmt.Sprintf("[%d,%d]", r.Start, r.End) }

// Attr is one element attribute, kept in source order.
type Attr struct {
	Key   string
	Value string
}

// Node is one entry of the node arena.
type Node struct {
	Kind     Kind
	Name     string // element name, PI target
	Attrs    []Attr
	Parent   NodeID
	Children []NodeID
	Range    Range
	removed  bool
}

// Attr returns the value of key, or "" when absent.
func (n Node) Attr(key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// Document holds the linear content stream and the node tree laid over it.
type Document struct {
	content   []rune
	nodes     []Node
	root      NodeID
	listeners map[int]func(Change)
	nextSub   int
}

// Root returns the root element.
func (d *Document) Root() NodeID { return d.root }

// Len returns the number of offsets in the content stream.
func (d *Document) Len() int { return len(d.content) }

// LastOffset is the largest addressable offset.
func (d *Document) LastOffset() int {
	if len(d.content) == 0 {
		return 0
	}
	return len(d.content) - 1
}

// CharAt returns the rune at offset, or TagMarker when offset is out of range.
func (d *Document) CharAt(offset int) rune {
	if offset < 0 || offset >= len(d.content) {
		return TagMarker
	}
	return d.content[offset]
}

// Node returns a copy of the node record. The Children slice is shared and
// must not be modified.
func (d *Document) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(d.nodes) {
		return Node{Parent: NoNode}
	}
	return d.nodes[id]
}

// Kind returns the kind of id.
func (d *Document) Kind(id NodeID) Kind { return d.Node(id).Kind }

// Range returns the offset range of id.
func (d *Document) Range(id NodeID) Range { return d.Node(id).Range }

// Parent returns the parent of id, or NoNode for the root.
func (d *Document) Parent(id NodeID) NodeID { return d.Node(id).Parent }

// Children returns the child handles of id in document order.
func (d *Document) Children(id NodeID) []NodeID { return d.Node(id).Children }

// Valid reports whether id refers to a live node.
func (d *Document) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes) && !d.nodes[id].removed
}

// Text returns the characters of r with tag markers dropped. r is clamped.
func (d *Document) Text(r Range) string {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End >= len(d.content) {
		r.End = len(d.content) - 1
	}
	if r.End < r.Start {
		return ""
	}
	var sb strings.Builder
	for _, c := range d.content[r.Start : r.End+1] {
		if c != TagMarker {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// Runes returns the raw runes of r, markers included. r is clamped.
func (d *Document) Runes(r Range) []rune {
	if r.Start < 0 {
		r.Start = 0
	}
	if r.End >= len(d.content) {
		r.End = len(d.content) - 1
	}
	if r.End < r.Start {
		return nil
	}
	out := make([]rune, r.End-r.Start+1)
	copy(out, d.content[r.Start:r.End+1])
	return out
}

// NodeAt returns the innermost node whose range contains offset.
func (d *Document) NodeAt(offset int) NodeID {
	if !d.Range(d.root).Contains(offset) {
		return NoNode
	}
	current := d.root
	for {
		next := NoNode
		for _, c := range d.nodes[current].Children {
			r := d.nodes[c].Range
			if r.Start > offset {
				break
			}
			if r.Contains(offset) {
				next = c
				break
			}
		}
		if next == NoNode {
			return current
		}
		current = next
	}
}

// TextContent returns the text inside a node: characters for text nodes, the
// data between the markers for comments and processing instructions, and the
// concatenated descendant text for elements.
func (d *Document) TextContent(id NodeID) string {
	n := d.Node(id)
	if n.Kind == KindText {
		return d.Text(n.Range)
	}
	return d.Text(Range{Start: n.Range.Start + 1, End: n.Range.End - 1})
}
