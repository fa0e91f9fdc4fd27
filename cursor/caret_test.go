package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ByLCY/folio/layout"
)

func TestCaretShapes(t *testing.T) {
	topo := newTopology(t, structuredDoc(), sheet, 400)

	tests := []struct {
		name   string
		offset int
		shape  Shape
		rect   layout.Rect
	}{
		{"text", 3, ShapeText, layout.Rect{X: 10, Width: 1, Height: 12}},
		{"inline start", 4, ShapeInsertBefore, layout.Rect{X: 20, Width: 1, Height: 12}},
		{"inline end", 7, ShapeAppendWithText, layout.Rect{X: 40, Width: 1, Height: 12}},
		{"block start", 1, ShapeInsertBefore, layout.Rect{Width: 400, Height: 1}},
		{"block end after text", 9, ShapeAppendWithText, layout.Rect{X: 50, Width: 1, Height: 12}},
		{"empty block", 11, ShapeAppendWithText, layout.Rect{Y: 12, Width: 1, Height: 12}},
		{"block end after blocks", 16, ShapeAppendStructural, layout.Rect{Y: 35, Width: 400, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CaretAt(topo, tt.offset)
			assert.Equal(t, tt.shape, c.Shape, c.Shape.String())
			assert.Equal(t, tt.rect, c.Rect)
			assert.Equal(t, tt.offset, c.Offset)
		})
	}

	// 越界偏移截断到文档末尾
	last := CaretAt(topo, 99)
	assert.Equal(t, CaretAt(topo, 17), last)
	assert.Equal(t, 17, last.Offset)
	assert.Equal(t, ShapeAppendStructural, last.Shape)
	assert.Equal(t, 0, CaretAt(topo, -3).Offset)
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "append-structural", ShapeAppendStructural.String())
	assert.Equal(t, "unknown", Shape(9).String())
}
