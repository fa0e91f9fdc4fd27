package cursor

import (
	"unicode"

	"github.com/ByLCY/folio/dom"
	"github.com/ByLCY/folio/topology"
)

// 单词由字母与数字组成；标记字符总是边界，扫描不会越过它。

func isWord(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func isSeparator(r rune) bool { return r != dom.TagMarker && !isWord(r) }

func wordStart(topo *topology.Topology, offset int) int {
	doc := topo.Tree().Doc()
	o := offset
	for o > 0 && isWord(doc.CharAt(o-1)) {
		o--
	}
	return settle(topo, offset, o, -1)
}

func wordEnd(topo *topology.Topology, offset int) int {
	doc := topo.Tree().Doc()
	o := offset
	for o < doc.Len() && isWord(doc.CharAt(o)) {
		o++
	}
	return settle(topo, offset, o, 1)
}

// nextWord 先跳过分隔符，再跳到下一个单词的末尾；原地不动时退化为右移一格。
func nextWord(topo *topology.Topology, offset int) int {
	doc := topo.Tree().Doc()
	o := offset
	for o < doc.Len() && isSeparator(doc.CharAt(o)) {
		o++
	}
	for o < doc.Len() && isWord(doc.CharAt(o)) {
		o++
	}
	if o == offset {
		return stepHorizontal(topo, offset, 1)
	}
	return settle(topo, offset, o, 1)
}

// previousWord 先跳过分隔符，再跳到前一个单词的开头；原地不动时退化为左移一格。
func previousWord(topo *topology.Topology, offset int) int {
	doc := topo.Tree().Doc()
	o := offset
	for o > 0 && isSeparator(doc.CharAt(o-1)) {
		o--
	}
	for o > 0 && isWord(doc.CharAt(o-1)) {
		o--
	}
	if o == offset {
		return stepHorizontal(topo, offset, -1)
	}
	return settle(topo, offset, o, -1)
}

// settle 保证结果被某个盒子认领：否则沿 dir 继续找，找不到时保持 from。
func settle(topo *topology.Topology, from, o, dir int) int {
	if o == from || topo.Claims(o) {
		return o
	}
	if next := stepHorizontal(topo, o, dir); next != o {
		return next
	}
	return from
}
