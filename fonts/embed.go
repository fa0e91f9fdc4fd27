// Package fonts provides the built-in Latin Modern faces and loads font files
// from disk.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
)

// BuiltinPrefix 标记内置字体，例如 "builtin:lmroman10-bold"。
const BuiltinPrefix = "builtin:"

var builtin = map[string][]byte{
	"lmroman10-regular":    lmroman10regular.TTF,
	"lmroman10-bold":       lmroman10bold.TTF,
	"lmroman10-italic":     lmroman10italic.TTF,
	"lmroman10-bolditalic": lmroman10bolditalic.TTF,
}

// Names lists the built-in face names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin 按粗细与斜体返回内置的 Latin Modern Roman 字体名。
func Builtin(bold, italic bool) string {
	switch {
	case bold && italic:
		return "lmroman10-bolditalic"
	case bold:
		return "lmroman10-bold"
	case italic:
		return "lmroman10-italic"
	default:
		return "lmroman10-regular"
	}
}

// Load 返回字体字节。src 可写为 "builtin:<name>"；其余视为相对 dir 的文件路径。
func Load(dir, src string) ([]byte, error) {
	if name, ok := strings.CutPrefix(src, BuiltinPrefix); ok {
		data, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置字体 %s", name)
		}
		return data, nil
	}
	path := src
	if !filepath.IsAbs(path) {
		if dir == "" {
			return nil, fmt.Errorf("未指定字体目录时不允许使用相对路径：%s", src)
		}
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}
