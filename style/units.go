package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// This file defines unit-safe lengths and their conversion to device pixels.

// Unit represents the original unit of a length value as written in a stylesheet.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
	UnitPX               // device pixels
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u Unit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	default:
		return ""
	}
}

// RenderingConfig carries the device resolution used to turn lengths into
// pixels. It is passed explicitly wherever a conversion happens.
type RenderingConfig struct {
	HorizontalPPI float64 `mapstructure:"horizontal_ppi" json:"horizontalPPI"`
	VerticalPPI   float64 `mapstructure:"vertical_ppi" json:"verticalPPI"`
}

// DefaultRendering is a 96 ppi screen.
func DefaultRendering() RenderingConfig {
	return RenderingConfig{HorizontalPPI: 96, VerticalPPI: 96}
}

// Horizontal converts l to pixels along the x axis.
func (rc RenderingConfig) Horizontal(l Length) int { return l.Pixels(rc.HorizontalPPI) }

// Vertical converts l to pixels along the y axis.
func (rc RenderingConfig) Vertical(l Length) int { return l.Pixels(rc.VerticalPPI) }

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Px is shorthand for a pixel length.
func Px(v float64) Length { return Length{Value: v, Unit: UnitPX} }

// Pt is shorthand for a point length.
func Pt(v float64) Length { return Length{Value: v, Unit: UnitPT} }

func (l Length) IsZero() bool { return l.Value == 0 }

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

// inches returns the physical size; ok is false for pixel and unit-less values.
func (l Length) inches() (float64, bool) {
	switch l.Unit {
	case UnitMM:
		return l.Value / 25.4, true
	case UnitCM:
		return l.Value / 2.54, true
	case UnitIN:
		return l.Value, true
	case UnitPT:
		return l.Value / 72, true
	default:
		return 0, false
	}
}

// PixelsF converts to fractional pixels at ppi. Unit-less values count as pixels.
func (l Length) PixelsF(ppi float64) float64 {
	if in, ok := l.inches(); ok {
		return in * ppi
	}
	return l.Value
}

// Pixels converts to whole pixels at ppi.
func (l Length) Pixels(ppi float64) int { return int(math.Round(l.PixelsF(ppi))) }

// ToPT converts to points. Pixel lengths need ppi.
func (l Length) ToPT(ppi float64) float64 {
	if in, ok := l.inches(); ok {
		return in * 72
	}
	if ppi <= 0 {
		return l.Value
	}
	return l.Value * 72 / ppi
}

// ToMM converts to millimeters. Pixel lengths need ppi.
func (l Length) ToMM(ppi float64) float64 { return l.ToPT(ppi) * PtToMm }

var unitSuffixes = []struct {
	s string
	u Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}}

// ParseLength parses a stylesheet length such as 12pt, 3mm or 4 (pixels).
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("empty length")
	}
	unit := UnitNone
	num := v
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("invalid length %q: %w", value, err)
	}
	if unit == UnitNone && f != 0 {
		unit = UnitPX
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineHeightKind distinguishes the ways a line height can be written.
type LineHeightKind int

const (
	LineHeightNormal LineHeightKind = iota
	LineHeightFactor
	LineHeightAbsolute
)

// LineHeightSpec preserves author intent: normal, a factor (1.2 or 1.2x) or
// an absolute length (18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// Resolve computes the line height in vertical pixels. fontPx is the font size
// in pixels and normal the font's natural height (ascent+descent+leading).
func (s LineHeightSpec) Resolve(fontPx, normal int, rc RenderingConfig) int {
	switch s.Kind {
	case LineHeightFactor:
		return int(math.Round(float64(fontPx) * s.Factor))
	case LineHeightAbsolute:
		return rc.Vertical(s.Len)
	default:
		return normal
	}
}
