package style

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/dom"
)

var (
	// ErrUnknownProperty is returned by strict compilation for unsupported properties.
	ErrUnknownProperty = errors.New("style: unknown property")
	// ErrInvalidValue is returned by strict compilation for malformed values.
	ErrInvalidValue = errors.New("style: invalid value")
)

// setter applies one compiled declaration.
type setter func(*Styles)

type compiledRule struct {
	name        string // "*", element name or #kind
	pseudo      Pseudo
	specificity int
	order       int
	setters     []setter
}

// Sheet is a compiled stylesheet. Later rules win over earlier ones of equal
// specificity; name and kind selectors beat *.
type Sheet struct {
	rules    []compiledRule
	Warnings []string
}

// Compile turns a parsed stylesheet into a Sheet.
func Compile(ast *Stylesheet, strict bool) (*Sheet, error) {
	sh := &Sheet{}
	if ast == nil {
		return sh, nil
	}
	order := 0
	for _, rule := range ast.Rules {
		var setters []setter
		for _, decl := range rule.Declarations {
			set, err := compileDeclaration(decl)
			if err != nil {
				if strict {
					return nil, fmt.Errorf("%s: %w", decl.Pos, err)
				}
				sh.Warnings = append(sh.Warnings, fmt.Sprintf("%s: %v", decl.Pos, err))
				continue
			}
			setters = append(setters, set)
		}
		for _, sel := range rule.Selectors {
			pseudo, ok := parsePseudo(sel.Pseudo)
			if !ok {
				err := fmt.Errorf("%w: pseudo-element %q", ErrInvalidValue, sel.Pseudo)
				if strict {
					return nil, fmt.Errorf("%s: %w", rule.Pos, err)
				}
				sh.Warnings = append(sh.Warnings, fmt.Sprintf("%s: %v", rule.Pos, err))
				continue
			}
			weight := 1
			if sel.Name == "*" {
				weight = 0
			}
			sh.rules = append(sh.rules, compiledRule{
				name:        sel.Name,
				pseudo:      pseudo,
				specificity: weight,
				order:       order,
				setters:     setters,
			})
			order++
		}
	}
	sort.SliceStable(sh.rules, func(i, j int) bool {
		if sh.rules[i].specificity != sh.rules[j].specificity {
			return sh.rules[i].specificity < sh.rules[j].specificity
		}
		return sh.rules[i].order < sh.rules[j].order
	})
	return sh, nil
}

func parsePseudo(s string) (Pseudo, bool) {
	switch strings.ToLower(s) {
	case "":
		return PseudoNone, true
	case "before":
		return PseudoBefore, true
	case "after":
		return PseudoAfter, true
	default:
		return PseudoNone, false
	}
}

// selectorName is the name a node is matched by.
func selectorName(n dom.Node) string {
	switch n.Kind {
	case dom.KindText:
		return "#text"
	case dom.KindComment:
		return "#comment"
	case dom.KindProcessingInstruction:
		return "#pi"
	case dom.KindInclude:
		return "#include"
	default:
		return n.Name
	}
}

// Compute resolves the styles of node given its parent's resolved styles
// (nil for the root).
func (sh *Sheet) Compute(n dom.Node, parent *Styles, pseudo Pseudo) Styles {
	var s Styles
	if parent == nil {
		s = Default()
	} else {
		s = parent.Inherit()
	}
	if sh == nil {
		return s
	}
	name := selectorName(n)
	for _, r := range sh.rules {
		if r.pseudo != pseudo || (r.name != "*" && r.name != name) {
			continue
		}
		for _, set := range r.setters {
			set(&s)
		}
	}
	return s
}

// HasPseudo reports whether any rule targets pseudo for nodes named like n.
func (sh *Sheet) HasPseudo(n dom.Node, pseudo Pseudo) bool {
	if sh == nil {
		return false
	}
	name := selectorName(n)
	for _, r := range sh.rules {
		if r.pseudo == pseudo && (r.name == "*" || r.name == name) {
			return true
		}
	}
	return false
}

func compileDeclaration(d *Declaration) (setter, error) {
	prop := strings.ToLower(d.Property)
	vals := make([]string, len(d.Values))
	for i, t := range d.Values {
		vals[i] = t.Raw()
	}
	one := func() (string, error) {
		if len(vals) != 1 {
			return "", fmt.Errorf("%w: %s expects one value, got %d", ErrInvalidValue, prop, len(vals))
		}
		return vals[0], nil
	}

	switch prop {
	case "display":
		v, err := one()
		if err != nil {
			return nil, err
		}
		disp, ok := ParseDisplay(v)
		if !ok {
			return nil, fmt.Errorf("%w: display %q", ErrInvalidValue, v)
		}
		return func(s *Styles) { s.Display = disp }, nil

	case "white-space":
		v, err := one()
		if err != nil {
			return nil, err
		}
		var ws WhiteSpace
		switch strings.ToLower(v) {
		case "normal", "nowrap":
			ws = WhiteSpaceNormal
		case "pre", "pre-wrap", "pre-line":
			ws = WhiteSpacePre
		default:
			return nil, fmt.Errorf("%w: white-space %q", ErrInvalidValue, v)
		}
		return func(s *Styles) { s.WhiteSpace = ws }, nil

	case "font-family":
		family := strings.Join(vals, " ")
		return func(s *Styles) { s.Font.Family = family }, nil

	case "font-size":
		v, err := one()
		if err != nil {
			return nil, err
		}
		l, err := ParseLength(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return func(s *Styles) { s.Font.Size = l }, nil

	case "font-weight":
		v, err := one()
		if err != nil {
			return nil, err
		}
		var bold bool
		switch strings.ToLower(v) {
		case "normal":
		case "bold", "bolder":
			bold = true
		default:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: font-weight %q", ErrInvalidValue, v)
			}
			bold = n >= 600
		}
		return func(s *Styles) { s.Font.Bold = bold }, nil

	case "font-style":
		v, err := one()
		if err != nil {
			return nil, err
		}
		var italic bool
		switch strings.ToLower(v) {
		case "normal":
		case "italic", "oblique":
			italic = true
		default:
			return nil, fmt.Errorf("%w: font-style %q", ErrInvalidValue, v)
		}
		return func(s *Styles) { s.Font.Italic = italic }, nil

	case "line-height":
		v, err := one()
		if err != nil {
			return nil, err
		}
		lh, err := parseLineHeight(v)
		if err != nil {
			return nil, err
		}
		return func(s *Styles) { s.LineHeight = lh }, nil

	case "width":
		v, err := one()
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(v, "auto") {
			return func(s *Styles) { s.Width = Length{} }, nil
		}
		l, err := ParseLength(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return func(s *Styles) { s.Width = l }, nil

	case "content":
		if len(vals) == 1 && len(d.Values) == 1 && d.Values[0].Ident != nil {
			switch strings.ToLower(vals[0]) {
			case "none", "normal":
				return func(s *Styles) { s.Content = nil }, nil
			}
		}
		pieces := make([]string, 0, len(d.Values))
		for _, t := range d.Values {
			if t.String == nil {
				return nil, fmt.Errorf("%w: content expects strings", ErrInvalidValue)
			}
			pieces = append(pieces, string(*t.String))
		}
		return func(s *Styles) { s.Content = append([]string(nil), pieces...) }, nil
	}

	if edges, side, ok := edgeProperty(prop); ok {
		lengths := make([]Length, len(vals))
		for i, v := range vals {
			l, err := ParseLength(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			lengths[i] = l
		}
		if side != "" {
			if len(lengths) != 1 {
				return nil, fmt.Errorf("%w: %s expects one value", ErrInvalidValue, prop)
			}
			l := lengths[0]
			return func(s *Styles) { setSide(edges(s), side, l) }, nil
		}
		e, err := shorthandEdges(lengths)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, prop, err)
		}
		return func(s *Styles) { *edges(s) = e }, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, d.Property)
}

func parseLineHeight(v string) (LineHeightSpec, error) {
	lower := strings.ToLower(v)
	if lower == "normal" {
		return LineHeightSpec{Kind: LineHeightNormal}, nil
	}
	if f, err := strconv.ParseFloat(strings.TrimSuffix(lower, "x"), 64); err == nil {
		return LineHeightSpec{Kind: LineHeightFactor, Factor: f}, nil
	}
	l, err := ParseLength(v)
	if err != nil {
		return LineHeightSpec{}, fmt.Errorf("%w: line-height %q", ErrInvalidValue, v)
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, nil
}

// edgeProperty splits margin-top style names into the edge group and side.
func edgeProperty(prop string) (func(*Styles) *Edges, string, bool) {
	groups := []struct {
		prefix string
		get    func(*Styles) *Edges
	}{
		{"margin", func(s *Styles) *Edges { return &s.Margin }},
		{"padding", func(s *Styles) *Edges { return &s.Padding }},
		{"border-width", func(s *Styles) *Edges { return &s.Border }},
	}
	for _, g := range groups {
		if prop == g.prefix {
			return g.get, "", true
		}
		if rest, ok := strings.CutPrefix(prop, g.prefix+"-"); ok {
			switch rest {
			case "top", "right", "bottom", "left":
				return g.get, rest, true
			}
		}
		// border-top-width
		if g.prefix == "border-width" {
			for _, side := range []string{"top", "right", "bottom", "left"} {
				if prop == "border-"+side+"-width" {
					return g.get, side, true
				}
			}
		}
	}
	return nil, "", false
}

func setSide(e *Edges, side string, l Length) {
	switch side {
	case "top":
		e.Top = l
	case "right":
		e.Right = l
	case "bottom":
		e.Bottom = l
	case "left":
		e.Left = l
	}
}

// shorthandEdges expands 1 to 4 values clockwise from the top.
func shorthandEdges(v []Length) (Edges, error) {
	switch len(v) {
	case 1:
		return Edges{v[0], v[0], v[0], v[0]}, nil
	case 2:
		return Edges{v[0], v[1], v[0], v[1]}, nil
	case 3:
		return Edges{v[0], v[1], v[2], v[1]}, nil
	case 4:
		return Edges{v[0], v[1], v[2], v[3]}, nil
	default:
		return Edges{}, fmt.Errorf("expects 1 to 4 values, got %d", len(v))
	}
}
