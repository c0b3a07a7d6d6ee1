package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestFingerprintTreeEqualTrees(t *testing.T) {
	files := map[string]string{
		"lib/pkg/__init__.py": "x = 1\n",
		"lib/pkg/core.py":     "pass\n",
		"bin/app":             "#!/bin/sh\n",
	}
	first, err := FingerprintTree(writeTree(t, files))
	require.NoError(t, err)
	second, err := FingerprintTree(writeTree(t, files))
	require.NoError(t, err)

	assert.Regexp(t, `^xxh64:[0-9a-f]{16}$`, first)
	assert.Equal(t, first, second)
}

func TestFingerprintTreeContentSensitive(t *testing.T) {
	base, err := FingerprintTree(writeTree(t, map[string]string{"a.py": "x = 1\n"}))
	require.NoError(t, err)
	changed, err := FingerprintTree(writeTree(t, map[string]string{"a.py": "x = 2\n"}))
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestFingerprintTreePathSensitive(t *testing.T) {
	base, err := FingerprintTree(writeTree(t, map[string]string{"a.py": "x = 1\n"}))
	require.NoError(t, err)
	renamed, err := FingerprintTree(writeTree(t, map[string]string{"b.py": "x = 1\n"}))
	require.NoError(t, err)
	assert.NotEqual(t, base, renamed)
}
