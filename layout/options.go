package layout

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/style"
)

var (
	// ErrNoMeasurer is returned when BuildOptions lacks a Measurer.
	ErrNoMeasurer = errors.New("layout: 缺少测量后端 Measurer")
	// ErrNoStyles is returned when BuildOptions lacks a StyleSource.
	ErrNoStyles = errors.New("layout: 缺少样式来源 StyleSource")
)

// BuildOptions 配置布局阶段所需的依赖：测量后端、样式来源与设备分辨率。
type BuildOptions struct {
	Measurer  Measurer
	Styles    StyleSource
	Rendering style.RenderingConfig
	Width     int
	Logger    *zap.Logger
}

func (o BuildOptions) validate() error {
	if o.Measurer == nil {
		return ErrNoMeasurer
	}
	if o.Styles == nil {
		return ErrNoStyles
	}
	return nil
}

func (o BuildOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o BuildOptions) rendering() style.RenderingConfig {
	if o.Rendering.HorizontalPPI <= 0 || o.Rendering.VerticalPPI <= 0 {
		return style.DefaultRendering()
	}
	return o.Rendering
}

// FontMetrics 以像素为单位描述字体的纵向尺寸。
type FontMetrics struct {
	Ascent  int
	Descent int
	Leading int
}

// Height is the natural line height.
func (m FontMetrics) Height() int { return m.Ascent + m.Descent + m.Leading }

// Measurer 负责按字体测量文本宽度与字体度量，结果均为像素。
type Measurer interface {
	StringWidth(font style.Font, s string) int
	CharsWidth(font style.Font, chars []rune, offset, length int) int
	FontMetrics(font style.Font) FontMetrics
}

// StyleSource 为每个节点提供已解析的样式；style.Cache 实现该接口。
type StyleSource interface {
	Styles(id dom.NodeID) *style.Styles
	PseudoStyles(host dom.NodeID, pseudo style.Pseudo) *style.Styles
}
