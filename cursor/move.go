package cursor

import (
	"fmt"
	"strings"
)

// MoveKind 是封闭的移动种类集合。
type MoveKind uint8

const (
	MoveLeft MoveKind = iota
	MoveRight
	MoveUp
	MoveDown
	MoveWordStart
	MoveWordEnd
	MoveNextWord
	MovePreviousWord
	MoveLineStart
	MoveLineEnd
	MoveToOffset
	MoveToCoordinates
	MovePageUp
	MovePageDown
)

var moveNames = [...]string{
	MoveLeft:          "left",
	MoveRight:         "right",
	MoveUp:            "up",
	MoveDown:          "down",
	MoveWordStart:     "word-start",
	MoveWordEnd:       "word-end",
	MoveNextWord:      "next-word",
	MovePreviousWord:  "previous-word",
	MoveLineStart:     "line-start",
	MoveLineEnd:       "line-end",
	MoveToOffset:      "to-offset",
	MoveToCoordinates: "to-coordinates",
	MovePageUp:        "page-up",
	MovePageDown:      "page-down",
}

func (k MoveKind) String() string {
	if int(k) < len(moveNames) {
		return moveNames[k]
	}
	return fmt.Sprintf("MoveKind(%d)", k)
}

// ParseMoveKind maps a name such as "line-end" to its kind.
func ParseMoveKind(s string) (MoveKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range moveNames {
		if name == s {
			return MoveKind(k), nil
		}
	}
	return 0, fmt.Errorf("未知的移动类型 %q", s)
}

// PreferX reports whether the move refreshes the sticky column. Vertical
// moves keep it.
func (k MoveKind) PreferX() bool {
	switch k {
	case MoveUp, MoveDown, MovePageUp, MovePageDown:
		return false
	default:
		return true
	}
}

// IsAbsolute reports whether the destination does not depend on the current
// offset.
func (k MoveKind) IsAbsolute() bool {
	switch k {
	case MoveToOffset, MoveToCoordinates, MovePageUp, MovePageDown:
		return true
	default:
		return false
	}
}

// Move 是一次移动请求；Offset 只用于 MoveToOffset，X/Y 只用于 MoveToCoordinates。
type Move struct {
	Kind   MoveKind
	Offset int
	X, Y   int
}

// Step returns a relative move of kind k.
func Step(k MoveKind) Move { return Move{Kind: k} }

// To returns a move to offset.
func To(offset int) Move { return Move{Kind: MoveToOffset, Offset: offset} }

// At returns a move to the position under (x, y).
func At(x, y int) Move { return Move{Kind: MoveToCoordinates, X: x, Y: y} }

func (m Move) String() string {
	switch m.Kind {
	case MoveToOffset:
		return fmt.Sprintf("%s(%d)", m.Kind, m.Offset)
	case MoveToCoordinates:
		return fmt.Sprintf("%s(%d,%d)", m.Kind, m.X, m.Y)
	default:
		return m.Kind.String()
	}
}
