package layout

import (
	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/style"
)

// Piece is one side of a split: its offsets, text, font and measured size.
type Piece struct {
	Range      dom.Range
	Text       string
	Width      int
	Font       style.Font
	LineHeight int
}

// Splitter breaks a run of text at a pixel width.
type Splitter struct {
	measurer   Measurer
	font       style.Font
	pre        bool
	lineHeight int
	ascent     int
}

// NewSplitter prepares splitting for text resolved to st.
func NewSplitter(m Measurer, st *style.Styles, rc style.RenderingConfig) *Splitter {
	fm := m.FontMetrics(st.Font)
	lh := st.LineHeight.Resolve(rc.Vertical(st.Font.Size), fm.Height(), rc)
	if lh <= 0 {
		lh = fm.Height()
	}
	content := fm.Ascent + fm.Descent
	return &Splitter{
		measurer:   m,
		font:       st.Font,
		pre:        st.Pre(),
		lineHeight: lh,
		ascent:     fm.Ascent + (lh-content)/2,
	}
}

// LineHeight is the resolved line height in pixels.
func (s *Splitter) LineHeight() int { return s.lineHeight }

// Ascent is the distance from the top of a line item to its baseline.
func (s *Splitter) Ascent() int { return s.ascent }

// Width measures text.
func (s *Splitter) Width(text []rune) int {
	if len(text) == 0 {
		return 0
	}
	return s.measurer.CharsWidth(s.font, sanitize(text), 0, len(text))
}

// Split breaks text (whose first character sits at offset start) so that the
// left piece fits width. left is nil when nothing fits and force is false;
// right is nil when the whole text fits. A forced split always makes progress.
func (s *Splitter) Split(text []rune, start, width int, force bool) (left, right *Piece) {
	n := len(text)
	if n == 0 {
		return nil, s.piece(text, start, 0, 0)
	}
	m := sanitize(text)
	fits := func(k int) bool { return s.measurer.CharsWidth(s.font, m, 0, k) <= width }

	// pre 模式下第一个非末尾换行强制断行
	mandatory := -1
	if s.pre {
		for i := 0; i < n-1; i++ {
			if text[i] == '\n' {
				mandatory = i + 1
				break
			}
		}
	}
	if mandatory < 0 && fits(n) {
		return s.piece(text, start, 0, n), nil
	}

	best := 0
	if s.pre {
		if mandatory > 0 && fits(mandatory) {
			best = mandatory
		}
	} else {
		for k := 1; k < n; k++ {
			if !isSpace(text[k-1]) || isSpace(text[k]) {
				continue
			}
			if !fits(k) {
				break
			}
			best = k
		}
	}
	if best == 0 && force {
		best = 1
		for k := 2; k <= n; k++ {
			if !fits(k) {
				break
			}
			best = k
		}
	}
	switch {
	case best == 0:
		return nil, s.piece(text, start, 0, n)
	case best >= n:
		return s.piece(text, start, 0, n), nil
	default:
		return s.piece(text, start, 0, best), s.piece(text, start, best, n)
	}
}

func (s *Splitter) piece(text []rune, start, from, to int) *Piece {
	return &Piece{
		Range:      dom.Range{Start: start + from, End: start + to - 1},
		Text:       string(text[from:to]),
		Width:      s.Width(text[from:to]),
		Font:       s.font,
		LineHeight: s.lineHeight,
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// sanitize maps control whitespace to spaces for measurement.
func sanitize(text []rune) []rune {
	out := make([]rune, len(text))
	for i, r := range text {
		switch r {
		case '\n', '\t', '\r':
			out[i] = ' '
		default:
			out[i] = r
		}
	}
	return out
}

func hasInteriorNewline(text []rune) bool {
	for i := 0; i < len(text)-1; i++ {
		if text[i] == '\n' {
			return true
		}
	}
	return false
}

func endsWithNewline(text []rune) bool {
	return len(text) > 0 && text[len(text)-1] == '\n'
}
