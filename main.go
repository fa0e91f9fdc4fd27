package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/cursor"
	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/layout"
	"github.com/ByLCY/folio/observability"
	canvasrenderer "github.com/ByLCY/folio/renderer/canvas"
	"github.com/ByLCY/folio/style"
	"github.com/ByLCY/folio/topology"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app 持有各子命令共享的配置与日志器。
type app struct {
	cfgFile  string
	logLevel string

	cfg     *config.Config
	log     *zap.Logger
	cleanup func()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "folio",
		Short:         "folio 对结构化 XML 文档排版并在其上移动光标",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.cleanup != nil {
				a.cleanup()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "配置文件路径（YAML/TOML/JSON）")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "覆盖配置中的日志级别")

	root.AddCommand(newLayoutCmd(a), newNavigateCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}
	a.cfg = cfg
	a.log, a.cleanup = observability.NewStderrLogger(cfg.Logger)
	return nil
}

// session 是一次加载：文档、样式缓存、渲染器与排版引擎。
type session struct {
	doc      *dom.Document
	cache    *style.Cache
	renderer *canvasrenderer.Renderer
	engine   *layout.Engine
	tree     *layout.Tree
}

func (s *session) Close() {
	if s.engine != nil {
		s.engine.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}
}

func (a *app) open(docPath, stylesPath string, width int) (*session, error) {
	doc, err := dom.LoadXMLFile(docPath)
	if err != nil {
		return nil, err
	}
	sheet, err := loadSheet(stylesPath)
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		width = a.cfg.Layout.Width
	}

	s := &session{doc: doc, cache: style.NewCache(doc, sheet)}
	s.renderer = canvasrenderer.NewRenderer(canvasrenderer.Options{
		FontDir:   a.cfg.Layout.FontDir,
		Fonts:     a.cfg.Fonts,
		Rendering: a.cfg.Rendering,
		Logger:    a.log.Named("renderer"),
		Title:     filepath.Base(docPath),
	})
	s.engine, err = layout.NewEngine(doc, layout.BuildOptions{
		Measurer:  s.renderer,
		Styles:    s.cache,
		Rendering: a.cfg.Rendering,
		Width:     width,
		Logger:    a.log.Named("layout"),
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("创建排版引擎失败: %w", err)
	}
	if s.tree, err = s.engine.Layout(); err != nil {
		s.Close()
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	return s, nil
}

func loadSheet(path string) (*style.Sheet, error) {
	if path == "" {
		return style.ParseString("")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开样式表 %s: %w", path, err)
	}
	defer f.Close()
	sheet, err := style.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("解析样式表 %s 失败: %w", path, err)
	}
	return sheet, nil
}

func newLayoutCmd(a *app) *cobra.Command {
	var (
		in, styles, debug, out string
		width, caretAt         int
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "排版文档，输出盒树 JSON 或 PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(in, styles, width)
			if err != nil {
				return err
			}
			defer s.Close()

			if debug != "" {
				if err := writeDebug(s.tree, debug); err != nil {
					return err
				}
			}
			if out != "" {
				var caret *cursor.Caret
				if caretAt >= 0 {
					c := cursor.CaretAt(topology.New(s.tree), caretAt)
					caret = &c
				}
				if err := writePDF(s, caret, out); err != nil {
					return err
				}
			}
			root := s.tree.AbsRect(s.tree.Root())
			fmt.Fprintf(cmd.OutOrStdout(), "已完成排版：%d 个盒子，%dx%d 像素\n", s.tree.Len(), root.Width, root.Height)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "XML 文档路径")
	cmd.Flags().StringVar(&styles, "styles", "", "样式表路径")
	cmd.Flags().IntVar(&width, "width", 0, "排版宽度（像素），默认取配置")
	cmd.Flags().StringVar(&debug, "debug", "", "盒树调试 JSON 输出路径")
	cmd.Flags().StringVar(&out, "pdf", "", "PDF 输出路径")
	cmd.Flags().IntVar(&caretAt, "caret", -1, "在 PDF 中绘制该偏移处的光标")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func writeDebug(tree *layout.Tree, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(tree, path); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func writePDF(s *session, caret *cursor.Caret, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	data, err := s.renderer.Render(s.tree, caret)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}
