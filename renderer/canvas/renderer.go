package canvasrenderer

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"go.uber.org/zap"

	"github.com/ByLCY/folio/cursor"
	"github.com/ByLCY/folio/fonts"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/renderer"
	"github.com/ByLCY/folio/style"
)

const (
	mmPerInch     = 25.4
	ptPerInch     = 72.0
	defaultSizePt = 12.0
	// 光标竖线/横线的最小宽度（mm）
	caretMinWidth = 0.3
)

var (
	textColor  = canvas.Hex("#1e1e1e")
	caretColor = canvas.Hex("#d0342c")
	edgeColor  = canvas.Hex("#808080")
)

// Renderer 基于 github.com/tdewolff/canvas 测量文字并输出 PDF。
// 字体面按 (字体, 字号) 缓存，可被多个布局共享。
type Renderer struct {
	fontDir string
	fonts   map[string]string
	rc      style.RenderingConfig
	log     *zap.Logger
	title   string

	fontMu   sync.Mutex
	families map[string]*fontFamilyEntry
	faces    map[faceKey]*canvas.FontFace
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

type faceKey struct {
	font string
	size float64
}

// Options configures the canvas renderer.
type Options struct {
	// FontDir 是相对字体路径的根目录。
	FontDir string
	// Fonts 将 style.Font.Key()（如 "serif-bold"）或字体族名映射到字体来源，
	// 来源可为 "builtin:<name>" 或文件路径。未配置的字体使用内置 Latin Modern。
	Fonts     map[string]string
	Rendering style.RenderingConfig
	Logger    *zap.Logger
	Title     string
}

// NewRenderer creates a renderer; zero options select the built-in fonts at 96 ppi.
func NewRenderer(opts Options) *Renderer {
	rc := opts.Rendering
	if rc.HorizontalPPI <= 0 || rc.VerticalPPI <= 0 {
		rc = style.DefaultRendering()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fontMap := make(map[string]string, len(opts.Fonts))
	for k, v := range opts.Fonts {
		fontMap[strings.ToLower(k)] = v
	}
	return &Renderer{
		fontDir:  opts.FontDir,
		fonts:    fontMap,
		rc:       rc,
		log:      log,
		title:    opts.Title,
		families: map[string]*fontFamilyEntry{},
		faces:    map[faceKey]*canvas.FontFace{},
	}
}

// StringWidth 实现 layout.Measurer，返回 s 的像素宽度。
func (r *Renderer) StringWidth(font style.Font, s string) int {
	if s == "" {
		return 0
	}
	face := r.face(font)
	if face == nil {
		return 0
	}
	return r.pxX(face.TextWidth(s))
}

// CharsWidth 实现 layout.Measurer；越界的区间被截断。
func (r *Renderer) CharsWidth(font style.Font, chars []rune, offset, length int) int {
	start := min(max(offset, 0), len(chars))
	end := min(max(start+length, start), len(chars))
	return r.StringWidth(font, string(chars[start:end]))
}

// FontMetrics 实现 layout.Measurer；canvas 的度量单位为 mm，在此换算为像素。
func (r *Renderer) FontMetrics(font style.Font) layout.FontMetrics {
	face := r.face(font)
	if face == nil {
		return layout.FontMetrics{}
	}
	m := face.Metrics()
	ascent := r.pxY(math.Abs(m.Ascent))
	descent := r.pxY(math.Abs(m.Descent))
	return layout.FontMetrics{
		Ascent:  ascent,
		Descent: descent,
		Leading: max(0, r.pxY(m.LineHeight)-ascent-descent),
	}
}

// Render 将盒树绘制为单页 PDF：文字、边框与光标。
func (r *Renderer) Render(tree *layout.Tree, caret *cursor.Caret) ([]byte, error) {
	if tree == nil || tree.Root() == layout.NoBox {
		return nil, fmt.Errorf("盒树为空")
	}
	root := tree.AbsRect(tree.Root())
	width := r.mmX(max(root.Right(), 1))
	height := r.mmY(max(root.Bottom(), 1))

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	r.applyMeta(writer, tree)

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	tree.Walk(tree.Root(), func(id layout.BoxID) bool {
		r.drawEdges(ctx, tree, id)
		r.drawText(ctx, tree, id)
		return true
	})
	if caret != nil && caret.Box != layout.NoBox {
		r.drawCaret(ctx, caret.Rect)
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, tree *layout.Tree) {
	title := r.title
	if title == "" {
		doc := tree.Doc()
		title = doc.Node(doc.Root()).Name
	}
	writer.SetInfo(title, "", "", "", "folio")
}

func (r *Renderer) drawText(ctx *canvas.Context, tree *layout.Tree, id layout.BoxID) {
	switch tree.Kind(id) {
	case layout.KindText, layout.KindGenerated:
	default:
		return
	}
	text := strings.Map(func(c rune) rune {
		switch c {
		case '\n', '\t', '\r':
			return ' '
		}
		return c
	}, tree.Text(id))
	if strings.TrimSpace(text) == "" {
		return
	}
	face := r.face(tree.Box(id).Font)
	if face == nil {
		return
	}
	abs := tree.AbsRect(id)
	line := canvas.NewTextLine(face, text, canvas.Left)
	ctx.DrawText(r.mmX(abs.X), r.mmY(tree.AbsBaseline(id)), line)
}

// drawEdges 按各边的边框宽度绘制直线。
func (r *Renderer) drawEdges(ctx *canvas.Context, tree *layout.Tree, id layout.BoxID) {
	_, b, _ := tree.Insets(id)
	if b == (style.Insets{}) {
		return
	}
	abs := tree.AbsRect(id)
	x0, y0 := r.mmX(abs.X), r.mmY(abs.Y)
	x1, y1 := r.mmX(abs.Right()), r.mmY(abs.Bottom())
	ctx.SetStrokeColor(edgeColor)
	line := func(w int, ax, ay, bx, by float64) {
		if w <= 0 {
			return
		}
		ctx.SetStrokeWidth(r.mmX(w))
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(bx-ax, by-ay)
		ctx.DrawPath(ax, ay, p)
	}
	line(b.Top, x0, y0, x1, y0)
	line(b.Right, x1, y0, x1, y1)
	line(b.Bottom, x0, y1, x1, y1)
	line(b.Left, x0, y0, x0, y1)
}

func (r *Renderer) drawCaret(ctx *canvas.Context, rc layout.Rect) {
	w := math.Max(r.mmX(rc.Width), caretMinWidth)
	h := math.Max(r.mmY(rc.Height), caretMinWidth)
	ctx.SetFillColor(caretColor)
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(r.mmX(rc.X), r.mmY(rc.Y), canvas.Rectangle(w, h))
}

func (r *Renderer) face(font style.Font) *canvas.FontFace {
	size := r.sizePt(font)
	key := faceKey{font: font.Key(), size: size}

	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if face, ok := r.faces[key]; ok {
		return face
	}
	entry, err := r.ensureFontFamily(font)
	if err != nil {
		r.log.Error("无法加载任何字体", zap.String("font", font.Key()), zap.Error(err))
		r.faces[key] = nil
		return nil
	}
	face := entry.family.Face(size, textColor, entry.style, canvas.FontNormal)
	r.faces[key] = face
	return face
}

// ensureFontFamily 需持有 fontMu。配置的字体加载失败时退回内置字体。
func (r *Renderer) ensureFontFamily(font style.Font) (*fontFamilyEntry, error) {
	key := font.Key()
	if entry, ok := r.families[key]; ok {
		return entry, nil
	}

	st := fontStyle(font)
	src, ok := r.fonts[key]
	if !ok {
		src, ok = r.fonts[strings.ToLower(font.Family)]
	}
	if ok {
		family := canvas.NewFontFamily(key)
		err := r.loadFontIntoFamily(family, src, st)
		if err == nil {
			entry := &fontFamilyEntry{family: family, style: st}
			r.families[key] = entry
			return entry, nil
		}
		r.log.Warn("字体加载失败，使用内置字体", zap.String("font", key), zap.String("src", src), zap.Error(err))
	}

	family := canvas.NewFontFamily("folio-" + key)
	builtin := fonts.BuiltinPrefix + fonts.Builtin(font.Bold, font.Italic)
	if err := r.loadFontIntoFamily(family, builtin, st); err != nil {
		return nil, err
	}
	entry := &fontFamilyEntry{family: family, style: st}
	r.families[key] = entry
	return entry, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, src string, st canvas.FontStyle) error {
	data, err := fonts.Load(r.fontDir, src)
	if err != nil {
		return err
	}
	if err := family.LoadFont(data, 0, st); err != nil {
		return fmt.Errorf("解析字体 %s 失败: %w", src, err)
	}
	return nil
}

func fontStyle(font style.Font) canvas.FontStyle {
	st := canvas.FontRegular
	if font.Bold {
		st = canvas.FontBold
	}
	if font.Italic {
		st |= canvas.FontItalic
	}
	return st
}

// sizePt 将字号换算为 pt；canvas 的字体面以 pt 为单位。
func (r *Renderer) sizePt(font style.Font) float64 {
	px := font.Size.Pixels(r.rc.VerticalPPI)
	if px <= 0 {
		return defaultSizePt
	}
	return float64(px) * ptPerInch / r.rc.VerticalPPI
}

func (r *Renderer) pxX(mm float64) int { return int(math.Round(mm / mmPerInch * r.rc.HorizontalPPI)) }
func (r *Renderer) pxY(mm float64) int { return int(math.Round(mm / mmPerInch * r.rc.VerticalPPI)) }

func (r *Renderer) mmX(px int) float64 { return float64(px) * mmPerInch / r.rc.HorizontalPPI }
func (r *Renderer) mmY(px int) float64 { return float64(px) * mmPerInch / r.rc.VerticalPPI }
