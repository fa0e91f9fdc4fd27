package style

import "strings"

// Display selects the formatting role of a node.
type Display uint8

const (
	DisplayInline Display = iota
	DisplayBlock
	DisplayNone
	DisplayTable
	DisplayTableRowGroup
	DisplayTableHeaderGroup
	DisplayTableFooterGroup
	DisplayTableRow
	DisplayTableCell
	DisplayTableColumn
	DisplayTableColumnGroup
	DisplayTableCaption
)

var displayNames = map[Display]string{
	DisplayInline:           "inline",
	DisplayBlock:            "block",
	DisplayNone:             "none",
	DisplayTable:            "table",
	DisplayTableRowGroup:    "table-row-group",
	DisplayTableHeaderGroup: "table-header-group",
	DisplayTableFooterGroup: "table-footer-group",
	DisplayTableRow:         "table-row",
	DisplayTableCell:        "table-cell",
	DisplayTableColumn:      "table-column",
	DisplayTableColumnGroup: "table-column-group",
	DisplayTableCaption:     "table-caption",
}

func (d Display) String() string { return displayNames[d] }

// ParseDisplay maps a keyword to a Display.
func ParseDisplay(s string) (Display, bool) {
	s = strings.ToLower(s)
	for d, name := range displayNames {
		if name == s {
			return d, true
		}
	}
	return DisplayInline, false
}

// TableRole reports whether d is one of the table-internal roles (everything
// table-related except table itself).
func (d Display) TableRole() bool { return d >= DisplayTableRowGroup }

// RowGroup reports whether d groups rows.
func (d Display) RowGroup() bool {
	return d == DisplayTableRowGroup || d == DisplayTableHeaderGroup || d == DisplayTableFooterGroup
}

// WhiteSpace is the whitespace handling mode.
type WhiteSpace uint8

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpacePre
)

func (w WhiteSpace) String() string {
	if w == WhiteSpacePre {
		return "pre"
	}
	return "normal"
}

// Font names a face at a size.
type Font struct {
	Family string `json:"family"`
	Size   Length `json:"size"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

// Key identifies the face independently of size.
func (f Font) Key() string {
	k := strings.ToLower(f.Family)
	if f.Bold {
		k += "-bold"
	}
	if f.Italic {
		k += "-italic"
	}
	return k
}

// Edges holds one length per side.
type Edges struct {
	Top, Right, Bottom, Left Length
}

// Pixels resolves the four sides.
func (e Edges) Pixels(rc RenderingConfig) Insets {
	return Insets{
		Top:    rc.Vertical(e.Top),
		Right:  rc.Horizontal(e.Right),
		Bottom: rc.Vertical(e.Bottom),
		Left:   rc.Horizontal(e.Left),
	}
}

// Insets are resolved edges in pixels.
type Insets struct {
	Top    int `json:"top,omitempty"`
	Right  int `json:"right,omitempty"`
	Bottom int `json:"bottom,omitempty"`
	Left   int `json:"left,omitempty"`
}

// Add returns the side-wise sum.
func (i Insets) Add(o Insets) Insets {
	return Insets{Top: i.Top + o.Top, Right: i.Right + o.Right, Bottom: i.Bottom + o.Bottom, Left: i.Left + o.Left}
}

// Horizontal is Left+Right.
func (i Insets) Horizontal() int { return i.Left + i.Right }

// Vertical is Top+Bottom.
func (i Insets) Vertical() int { return i.Top + i.Bottom }

// Pseudo selects generated content around a host node.
type Pseudo uint8

const (
	PseudoNone Pseudo = iota
	PseudoBefore
	PseudoAfter
)

func (p Pseudo) String() string {
	switch p {
	case PseudoBefore:
		return "before"
	case PseudoAfter:
		return "after"
	default:
		return ""
	}
}

// Styles is the resolved style record of one node.
type Styles struct {
	Display    Display
	WhiteSpace WhiteSpace
	Font       Font
	LineHeight LineHeightSpec
	Margin     Edges
	Padding    Edges
	Border     Edges
	Width      Length // zero means auto
	// Content lists the literal pieces of generated content. Pseudo styles
	// without content produce no box.
	Content []string
}

// Default returns the initial styles of the root.
func Default() Styles {
	return Styles{
		Display: DisplayBlock,
		Font:    Font{Family: "serif", Size: Pt(12)},
	}
}

// Inherit returns a child's starting point: inherited properties from s, the
// rest at their initial values.
func (s *Styles) Inherit() Styles {
	return Styles{
		Display:    DisplayInline,
		WhiteSpace: s.WhiteSpace,
		Font:       s.Font,
		LineHeight: s.LineHeight,
	}
}

// Pre reports whether whitespace is preserved.
func (s *Styles) Pre() bool { return s.WhiteSpace == WhiteSpacePre }

// HasContent reports whether generated content is defined.
func (s *Styles) HasContent() bool { return s != nil && len(s.Content) > 0 }

// ContentText joins the generated content pieces.
func (s *Styles) ContentText() string { return strings.Join(s.Content, "") }
