package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuiltin(t *testing.T) {
	for _, name := range Names() {
		data, err := Load("", BuiltinPrefix+name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
	_, err := Load("", "builtin:comic-sans")
	assert.Error(t, err)
}

func TestBuiltinNames(t *testing.T) {
	assert.Len(t, Names(), 4)
	assert.Contains(t, Names(), Builtin(true, true))
	assert.Equal(t, "lmroman10-regular", Builtin(false, false))
	assert.Equal(t, "lmroman10-italic", Builtin(false, true))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.ttf"), []byte("font"), 0o644))

	data, err := Load(dir, "x.ttf")
	require.NoError(t, err)
	assert.Equal(t, []byte("font"), data)

	_, err = Load("", "x.ttf")
	assert.Error(t, err, "相对路径需要字体目录")

	_, err = Load(dir, "missing.ttf")
	assert.Error(t, err)
}
