package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/folio/cursor"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/topology"
)

func newNavigateCmd(a *app) *cobra.Command {
	var (
		in, styles, moves    string
		width, at, viewportH int
		batch                bool
	)
	cmd := &cobra.Command{
		Use:   "navigate",
		Short: "从指定偏移依次执行移动，打印每一步的偏移与光标",
		Long: `移动以逗号分隔，例如 "right,down,line-end"。
另外支持 "to:<偏移>" 与 "at:<x>:<y>"；前缀 "+" 表示扩展选区，例如 "+right"。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := parseScript(moves)
			if err != nil {
				return err
			}
			s, err := a.open(in, styles, width)
			if err != nil {
				return err
			}
			defer s.Close()

			c := cursor.New(topology.New(s.tree), cursor.Options{
				Logger:         a.log.Named("cursor"),
				PageDownFactor: a.cfg.Layout.PageDownFactor,
				PageUpFactor:   a.cfg.Layout.PageUpFactor,
			})
			c.SetViewport(layout.Rect{Width: s.tree.Width(), Height: viewportH})
			if at >= 0 {
				c.Move(cursor.To(at))
				c.ScrollToCaret()
			}

			out := cmd.OutOrStdout()
			printStep(out, "start", c)
			if batch {
				for _, st := range script {
					if st.extend {
						c.EnqueueSelect(st.move)
					} else {
						c.Enqueue(st.move)
					}
				}
				c.Flush()
				c.ScrollToCaret()
				printStep(out, "batch", c)
				return nil
			}
			for _, st := range script {
				if st.extend {
					c.Select(st.move)
				} else {
					c.Move(st.move)
				}
				// 视口跟随光标，连续翻页才能继续前进
				c.ScrollToCaret()
				printStep(out, st.String(), c)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "XML 文档路径")
	cmd.Flags().StringVar(&styles, "styles", "", "样式表路径")
	cmd.Flags().IntVar(&width, "width", 0, "排版宽度（像素），默认取配置")
	cmd.Flags().IntVar(&at, "at", -1, "起始偏移")
	cmd.Flags().StringVar(&moves, "moves", "", "移动序列")
	cmd.Flags().IntVar(&viewportH, "viewport-height", 400, "翻页使用的视口高度（像素）")
	cmd.Flags().BoolVar(&batch, "batch", false, "全部入队后一次执行，只打印最终位置")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

type step struct {
	move   cursor.Move
	extend bool
}

func (s step) String() string {
	if s.extend {
		return "+" + s.move.String()
	}
	return s.move.String()
}

// parseScript 解析逗号分隔的移动序列，空白项被忽略。
func parseScript(script string) ([]step, error) {
	var out []step
	for _, item := range strings.Split(script, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		st, err := parseStep(item)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func parseStep(item string) (step, error) {
	var st step
	if rest, ok := strings.CutPrefix(item, "+"); ok {
		st.extend = true
		item = rest
	}
	name, arg, hasArg := strings.Cut(item, ":")
	switch strings.ToLower(name) {
	case "to":
		n, err := strconv.Atoi(arg)
		if !hasArg || err != nil {
			return st, fmt.Errorf("移动 %q 需要整数偏移，例如 to:12", item)
		}
		st.move = cursor.To(n)
	case "at":
		xs, ys, ok := strings.Cut(arg, ":")
		x, errX := strconv.Atoi(xs)
		y, errY := strconv.Atoi(ys)
		if !hasArg || !ok || errX != nil || errY != nil {
			return st, fmt.Errorf("移动 %q 需要坐标，例如 at:30:5", item)
		}
		st.move = cursor.At(x, y)
	default:
		kind, err := cursor.ParseMoveKind(name)
		if err != nil {
			return st, err
		}
		st.move = cursor.Step(kind)
	}
	return st, nil
}

func printStep(w io.Writer, label string, c *cursor.Cursor) {
	caret := c.Caret()
	r := caret.Rect
	fmt.Fprintf(w, "%-16s offset=%d shape=%s rect=(%d,%d %dx%d) view=%d\n",
		label, c.Offset(), caret.Shape, r.X, r.Y, r.Width, r.Height, c.Viewport().Y)
}
