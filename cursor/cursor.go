// Package cursor implements caret navigation over a laid out document: move
// strategies, a FIFO move queue, caret geometry and selection tracking.
package cursor

import (
	"go.uber.org/zap"

	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/topology"
)

// 翻页时目标 y 相对视口高度的默认倍数。
const (
	DefaultPageDownFactor = 1.9
	DefaultPageUpFactor   = 0.9
)

// Options 配置光标。
type Options struct {
	Logger         *zap.Logger
	PageDownFactor float64
	PageUpFactor   float64
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.PageDownFactor <= 0 {
		o.PageDownFactor = DefaultPageDownFactor
	}
	if o.PageUpFactor <= 0 {
		o.PageUpFactor = DefaultPageUpFactor
	}
	return o
}

type request struct {
	move   Move
	extend bool
}

// Cursor 持有当前偏移、所在盒子与纵向移动使用的首选 x。
// 移动请求先入队，Flush 时按 FIFO 在同一份几何快照上依次执行。
type Cursor struct {
	topo       *topology.Topology
	opts       Options
	offset     int
	box        layout.BoxID
	preferredX int
	refreshX   bool
	viewport   layout.Rect
	selection  Selection
	queue      []request
}

// New 创建位于文档第一个可认领偏移处的光标。
func New(topo *topology.Topology, opts Options) *Cursor {
	c := &Cursor{
		topo:      topo,
		opts:      opts.withDefaults(),
		refreshX:  true,
		selection: &RangeSelection{},
	}
	c.place(nearestClaimed(topo, topo.FirstOffset()))
	c.selection.Collapse(c.offset)
	return c
}

// SetTopology 切换到新一代盒树的拓扑，偏移保持不变（越界时截断）。
func (c *Cursor) SetTopology(topo *topology.Topology) {
	c.topo = topo
	c.place(nearestClaimed(topo, topo.Clamp(c.offset)))
}

// SetViewport 设置翻页使用的可见区域（绝对坐标）。
func (c *Cursor) SetViewport(r layout.Rect) { c.viewport = r }

// Viewport 返回当前可见区域。
func (c *Cursor) Viewport() layout.Rect { return c.viewport }

// ScrollToCaret 在光标超出可见区域时纵向滚动视口，使光标恰好落在边缘内；
// 返回是否发生了滚动。高度为 0 的视口不滚动。
func (c *Cursor) ScrollToCaret() bool {
	if c.viewport.Height <= 0 {
		return false
	}
	r := c.Caret().Rect
	switch {
	case r.Y < c.viewport.Y:
		c.viewport.Y = r.Y
	case r.Bottom() > c.viewport.Bottom():
		c.viewport.Y = r.Bottom() - c.viewport.Height
	default:
		return false
	}
	return true
}

// SetSelection replaces the selection tracker.
func (c *Cursor) SetSelection(s Selection) {
	c.selection = s
	c.selection.Collapse(c.offset)
}

// Selection returns the selection tracker.
func (c *Cursor) Selection() Selection { return c.selection }

// Offset returns the caret offset.
func (c *Cursor) Offset() int { return c.offset }

// Box returns the box claiming the caret offset.
func (c *Cursor) Box() layout.BoxID { return c.box }

// PreferredX returns the sticky column used by vertical moves.
func (c *Cursor) PreferredX() int { return c.preferredX }

// Caret returns the caret geometry at the current offset.
func (c *Cursor) Caret() Caret { return CaretAt(c.topo, c.offset) }

// Enqueue 将移动请求加入队列，移动后选区折叠到新位置。
func (c *Cursor) Enqueue(m Move) { c.queue = append(c.queue, request{move: m}) }

// EnqueueSelect 将移动请求加入队列，移动后选区端点扩展到新位置。
func (c *Cursor) EnqueueSelect(m Move) { c.queue = append(c.queue, request{move: m, extend: true}) }

// Pending reports the number of queued moves.
func (c *Cursor) Pending() int { return len(c.queue) }

// Flush 依次执行队列中的移动并返回最终偏移。
func (c *Cursor) Flush() int {
	for len(c.queue) > 0 {
		r := c.queue[0]
		c.queue = c.queue[1:]
		c.apply(r.move, r.extend)
	}
	c.queue = nil
	return c.offset
}

// Move 立即执行 m（先执行已排队的请求），选区折叠。
func (c *Cursor) Move(m Move) int {
	c.Enqueue(m)
	return c.Flush()
}

// Select 立即执行 m，选区端点扩展。
func (c *Cursor) Select(m Move) int {
	c.EnqueueSelect(m)
	return c.Flush()
}

func (c *Cursor) apply(m Move, extend bool) {
	from := c.offset
	if m.Kind.PreferX() {
		c.refreshX = true
	} else if c.refreshX {
		c.preferredX = c.Caret().Rect.X
		c.refreshX = false
	}

	to := c.resolve(m)
	c.place(to)
	if extend {
		c.selection.ExtendTo(c.offset)
	} else {
		c.selection.Collapse(c.offset)
	}
	c.opts.Logger.Debug("move",
		zap.Stringer("kind", m.Kind),
		zap.Int("from", from),
		zap.Int("to", c.offset),
		zap.Bool("extend", extend),
		zap.Int("preferred_x", c.preferredX))
}

func (c *Cursor) place(offset int) {
	c.offset = offset
	c.box = c.topo.BoxAt(offset)
}

// resolve 按移动种类分派到对应的策略；无法前进时返回当前偏移。
func (c *Cursor) resolve(m Move) int {
	topo, offset := c.topo, c.offset
	if c.box == layout.NoBox && !m.Kind.IsAbsolute() {
		return offset
	}
	switch m.Kind {
	case MoveLeft:
		return stepHorizontal(topo, offset, -1)
	case MoveRight:
		return stepHorizontal(topo, offset, 1)
	case MoveUp:
		return PreviousLinePosition(topo, offset, c.preferredX)
	case MoveDown:
		return NextLinePosition(topo, offset, c.preferredX)
	case MoveWordStart:
		return wordStart(topo, offset)
	case MoveWordEnd:
		return wordEnd(topo, offset)
	case MoveNextWord:
		return nextWord(topo, offset)
	case MovePreviousWord:
		return previousWord(topo, offset)
	case MoveLineStart:
		return lineStart(topo, offset, c.box)
	case MoveLineEnd:
		return lineEnd(topo, offset, c.box)
	case MoveToOffset:
		return nearestClaimed(topo, topo.Clamp(m.Offset))
	case MoveToCoordinates:
		return ViewToModel(topo, m.X, m.Y)
	case MovePageUp:
		y := c.viewport.Y - int(c.opts.PageUpFactor*float64(c.viewport.Height))
		return ViewToModel(topo, c.preferredX, y)
	case MovePageDown:
		y := c.viewport.Y + int(c.opts.PageDownFactor*float64(c.viewport.Height))
		return ViewToModel(topo, c.preferredX, y)
	default:
		return offset
	}
}

// stepHorizontal 按 dir 逐个偏移移动，直到某个盒子认领该偏移；到达内容边界时不动。
func stepHorizontal(topo *topology.Topology, offset, dir int) int {
	for o := offset + dir; o >= topo.FirstOffset() && o <= topo.LastOffset(); o += dir {
		if topo.Claims(o) {
			return o
		}
	}
	return offset
}

// nearestClaimed 返回 offset 本身或其后、其前最近的被认领偏移。
func nearestClaimed(topo *topology.Topology, offset int) int {
	if topo.Claims(offset) {
		return offset
	}
	if o := stepHorizontal(topo, offset, 1); o != offset {
		return o
	}
	return stepHorizontal(topo, offset, -1)
}
