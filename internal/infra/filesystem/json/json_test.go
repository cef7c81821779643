package json

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "contracts.json")

	require.NoError(t, NewWriter().WriteJSON(path, map[string]int{"a": 1}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(content))

	var decoded map[string]int
	require.NoError(t, NewReader().ReadJSON(path, &decoded))
	assert.Equal(t, map[string]int{"a": 1}, decoded)
}

func TestReaderErrors(t *testing.T) {
	dir := t.TempDir()

	var target map[string]any
	err := NewReader().ReadJSON(filepath.Join(dir, "missing.json"), &target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, NewWriter().WriteBytes(broken, []byte("{")))
	err = NewReader().ReadJSON(broken, &target)
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}
