package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/folio/style"
)

func newTestSplitter(pre bool) *Splitter {
	st := style.Default()
	if pre {
		st.WhiteSpace = style.WhiteSpacePre
	}
	return NewSplitter(fixedMeasurer{}, &st, style.DefaultRendering())
}

func TestSplitAtWhitespace(t *testing.T) {
	sp := newTestSplitter(false)
	text := []rune("baggy orange trousers")

	left, right := sp.Split(text, 100, 12*charW, false)
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Equal(t, "baggy ", left.Text)
	assert.Equal(t, "orange trousers", right.Text)
	assert.Equal(t, 100, left.Range.Start)
	assert.Equal(t, 105, left.Range.End)
	assert.Equal(t, 106, right.Range.Start)
	assert.Equal(t, 6*charW, left.Width)
	assert.Equal(t, 12, left.LineHeight)

	left, right = sp.Split(text, 100, 13*charW, false)
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Equal(t, "baggy orange ", left.Text)
	assert.Equal(t, "trousers", right.Text)
	assert.Equal(t, 8*charW, right.Width)
}

func TestSplitRoundTrip(t *testing.T) {
	sp := newTestSplitter(false)
	text := []rune("the quick brown fox jumps over the lazy dog")
	for w := 1; w <= len(text)+1; w++ {
		for _, force := range []bool{false, true} {
			left, right := sp.Split(text, 0, w*charW, force)
			if left == nil {
				require.False(t, force, "强制切分必须前进 (w=%d)", w)
				require.Equal(t, string(text), right.Text)
				continue
			}
			if right == nil {
				assert.Equal(t, string(text), left.Text)
				continue
			}
			assert.Equal(t, string(text), left.Text+right.Text)
			assert.Equal(t, left.Range.End+1, right.Range.Start)
			if !force {
				assert.LessOrEqual(t, left.Width, w*charW)
			}
		}
	}
}

func TestSplitForced(t *testing.T) {
	sp := newTestSplitter(false)
	text := []rune("abcdef")

	left, right := sp.Split(text, 0, 25, false)
	assert.Nil(t, left)
	assert.Equal(t, "abcdef", right.Text)

	left, right = sp.Split(text, 0, 25, true)
	assert.Equal(t, "ab", left.Text)
	assert.Equal(t, "cdef", right.Text)

	// 宽度不足一个字符时仍取一个字符
	left, right = sp.Split(text, 0, 0, true)
	assert.Equal(t, "a", left.Text)
	assert.Equal(t, "bcdef", right.Text)
}

func TestSplitWholeAndEmpty(t *testing.T) {
	sp := newTestSplitter(false)

	left, right := sp.Split([]rune("fits"), 0, 100, false)
	assert.Equal(t, "fits", left.Text)
	assert.Nil(t, right)

	left, right = sp.Split(nil, 7, 100, true)
	assert.Nil(t, left)
	require.NotNil(t, right)
	assert.Empty(t, right.Text)
}

func TestSplitPreNewline(t *testing.T) {
	sp := newTestSplitter(true)

	left, right := sp.Split([]rune("ab\ncd"), 0, 1000, false)
	require.NotNil(t, left)
	assert.Equal(t, "ab\n", left.Text)
	assert.Equal(t, "cd", right.Text)

	// pre 模式不在空格处断行
	left, right = sp.Split([]rune("ab cd"), 0, 3*charW, false)
	assert.Nil(t, left)
	assert.Equal(t, "ab cd", right.Text)
}
