package dom

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
)

// LoadXML reads an XML document. Elements named include in the xi namespace
// become include nodes; directives are dropped.
func LoadXML(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("读取 XML 失败: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("XML 文档缺少根元素")
	}
	b := NewBuilder(qualifiedName(root), attrsOf(root)...)
	appendTokens(b, root.Child)
	return b.Build()
}

// LoadXMLFile reads the XML document at path.
func LoadXMLFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开文档 %s: %w", path, err)
	}
	defer f.Close()
	return LoadXML(f)
}

func appendTokens(b *Builder, tokens []etree.Token) {
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *etree.Element:
			if t.Space == "xi" && t.Tag == "include" {
				b.Include(t.SelectAttrValue("href", ""))
				continue
			}
			b.Start(qualifiedName(t), attrsOf(t)...)
			appendTokens(b, t.Child)
			b.End()
		case *etree.CharData:
			b.Text(t.Data)
		case *etree.Comment:
			b.Comment(t.Data)
		case *etree.ProcInst:
			b.ProcessingInstruction(t.Target, strings.TrimSpace(t.Inst))
		}
	}
}

func qualifiedName(e *etree.Element) string {
	if e.Space == "" {
		return e.Tag
	}
	return e.Space + ":" + e.Tag
}

func attrsOf(e *etree.Element) []Attr {
	out := make([]Attr, 0, len(e.Attr))
	for _, a := range e.Attr {
		key := a.Key
		if a.Space != "" && a.Space != "xmlns" {
			key = a.Space + ":" + a.Key
		}
		if a.Space == "xmlns" || a.Key == "xmlns" {
			continue
		}
		out = append(out, Attr{Key: key, Value: a.Value})
	}
	return out
}
