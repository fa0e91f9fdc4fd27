package layout

import (
	"encoding/json"
	"os"
)

// DebugBox 是盒子的 JSON 视图：种类、节点、区间、绝对矩形与文字。
type DebugBox struct {
	Kind     string      `json:"kind"`
	Node     int32       `json:"node"`
	Name     string      `json:"name,omitempty"`
	Start    int         `json:"start"`
	End      int         `json:"end"`
	Rect     Rect        `json:"rect"`
	Baseline int         `json:"baseline,omitempty"`
	Text     string      `json:"text,omitempty"`
	Status   string      `json:"status,omitempty"`
	Children []*DebugBox `json:"children,omitempty"`
}

// Debug 将盒树转换为嵌套的调试结构。
func Debug(t *Tree, id BoxID) *DebugBox {
	bx := &t.boxes[id]
	r, _ := t.rangeOf(id)
	d := &DebugBox{
		Kind:     bx.Kind.String(),
		Node:     int32(bx.Node),
		Start:    r.Start,
		End:      r.End,
		Rect:     t.AbsRect(id),
		Baseline: bx.Baseline,
		Text:     t.Text(id),
	}
	if bx.Node >= 0 {
		d.Name = t.doc.Node(bx.Node).Name
	}
	if bx.Status != StatusClean {
		d.Status = bx.Status.String()
	}
	for _, c := range bx.Children {
		d.Children = append(d.Children, Debug(t, c))
	}
	return d
}

// WriteDebugJSON 将盒树输出为 JSON，便于调试或可视化。
func WriteDebugJSON(t *Tree, path string) error {
	if t == nil || t.root == NoBox {
		return nil
	}
	data, err := json.MarshalIndent(Debug(t, t.root), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
