package style

import "github.com/ByLCY/folio/dom"

type pseudoKey struct {
	host   dom.NodeID
	pseudo Pseudo
}

// Cache memoizes resolved styles per node and per pseudo-element. Entries are
// dropped synchronously when the document reports a change touching them.
type Cache struct {
	doc         *dom.Document
	sheet       *Sheet
	styles      map[dom.NodeID]*Styles
	pseudo      map[pseudoKey]*Styles
	unsubscribe func()
}

// NewCache resolves styles of doc against sheet and subscribes to doc changes.
func NewCache(doc *dom.Document, sheet *Sheet) *Cache {
	c := &Cache{
		doc:    doc,
		sheet:  sheet,
		styles: map[dom.NodeID]*Styles{},
		pseudo: map[pseudoKey]*Styles{},
	}
	c.unsubscribe = doc.Subscribe(c.onChange)
	return c
}

// Close stops listening to the document.
func (c *Cache) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Sheet returns the stylesheet in use.
func (c *Cache) Sheet() *Sheet { return c.sheet }

// SetSheet swaps the stylesheet and drops every entry.
func (c *Cache) SetSheet(sheet *Sheet) {
	c.sheet = sheet
	c.Reset()
}

// Styles returns the resolved styles of id.
func (c *Cache) Styles(id dom.NodeID) *Styles {
	if s, ok := c.styles[id]; ok {
		return s
	}
	var parent *Styles
	if p := c.doc.Parent(id); p != dom.NoNode {
		parent = c.Styles(p)
	}
	s := c.sheet.Compute(c.doc.Node(id), parent, PseudoNone)
	c.styles[id] = &s
	return &s
}

// PseudoStyles returns the styles of host's generated content, or nil when no
// content is defined for it.
func (c *Cache) PseudoStyles(host dom.NodeID, pseudo Pseudo) *Styles {
	key := pseudoKey{host, pseudo}
	if s, ok := c.pseudo[key]; ok {
		return s
	}
	var out *Styles
	n := c.doc.Node(host)
	if (n.Kind == dom.KindElement || n.Kind == dom.KindInclude) && c.sheet.HasPseudo(n, pseudo) {
		s := c.sheet.Compute(n, c.Styles(host), pseudo)
		if s.HasContent() {
			out = &s
		}
	}
	c.pseudo[key] = out
	return out
}

// Invalidate drops the entries of id and its pseudo-elements.
func (c *Cache) Invalidate(id dom.NodeID) {
	delete(c.styles, id)
	delete(c.pseudo, pseudoKey{id, PseudoBefore})
	delete(c.pseudo, pseudoKey{id, PseudoAfter})
}

// Reset drops every entry.
func (c *Cache) Reset() {
	clear(c.styles)
	clear(c.pseudo)
}

// Len reports the number of cached node entries.
func (c *Cache) Len() int { return len(c.styles) }

func (c *Cache) onChange(ch dom.Change) {
	if ch.Kind == dom.ChangeDeleted {
		for id := range c.styles {
			if !c.doc.Valid(id) {
				c.Invalidate(id)
			}
		}
		for key := range c.pseudo {
			if !c.doc.Valid(key.host) {
				delete(c.pseudo, key)
			}
		}
	}
	c.Invalidate(ch.Node)
}
