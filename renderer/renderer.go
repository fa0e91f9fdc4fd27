package renderer

import (
	"github.com/ByLCY/folio/cursor"
	"github.com/ByLCY/folio/layout"
)

// Renderer 将盒树与光标输出为最终文件，例如 PDF。
// caret 可以为 nil；Render 返回生成的二进制数据。
type Renderer interface {
	Render(tree *layout.Tree, caret *cursor.Caret) ([]byte, error)
}
