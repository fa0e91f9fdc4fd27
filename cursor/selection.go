package cursor

// Selection 跟踪选区：move 折叠选区，select 扩展选区的活动端。
type Selection interface {
	Collapse(offset int)
	ExtendTo(offset int)
}

// RangeSelection 由锚点与活动端组成。
type RangeSelection struct {
	Anchor int
	Caret  int
}

func (s *RangeSelection) Collapse(offset int) { s.Anchor, s.Caret = offset, offset }

func (s *RangeSelection) ExtendTo(offset int) { s.Caret = offset }

// Empty reports whether the selection covers nothing.
func (s *RangeSelection) Empty() bool { return s.Anchor == s.Caret }

// Bounds returns the selected offsets as a half-open [start, end).
func (s *RangeSelection) Bounds() (start, end int) {
	return min(s.Anchor, s.Caret), max(s.Anchor, s.Caret)
}
