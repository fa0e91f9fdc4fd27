// Package binding 展开生成内容中的 ${...} 引用。
package binding

import (
	"regexp"
	"strings"

	"github.com/ByLCY/folio/dom"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// Scope 按路径查找引用的值。
type Scope interface {
	Lookup(path string) (string, bool)
}

// Interpolate 将 text 中的 ${path} 与 ${path|默认值} 替换为 scope 中的值。
// 找不到且没有默认值时替换为空串。
func Interpolate(text string, scope Scope) string {
	if !strings.Contains(text, "${") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		expr := match[2 : len(match)-1]
		path, fallback, _ := strings.Cut(expr, "|")
		path = strings.TrimSpace(path)
		if path != "" && scope != nil {
			if v, ok := scope.Lookup(path); ok {
				return v
			}
		}
		return fallback
	})
}

// NodeScope 以元素为作用域：attr.<名>、<名>（属性简写）、name 与 kind。
// 属性简写优先于 name/kind。
type NodeScope struct {
	Node dom.Node
}

// Lookup 实现 Scope。
func (s NodeScope) Lookup(path string) (string, bool) {
	if key, ok := strings.CutPrefix(path, "attr."); ok {
		return s.attr(key)
	}
	if v, ok := s.attr(path); ok {
		return v, true
	}
	switch path {
	case "name":
		return s.Node.Name, true
	case "kind":
		return s.Node.Kind.String(), true
	}
	return "", false
}

func (s NodeScope) attr(key string) (string, bool) {
	for _, a := range s.Node.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
