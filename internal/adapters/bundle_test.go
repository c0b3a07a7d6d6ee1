package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envbuilder/internal/types"
)

func TestWriteLauncher(t *testing.T) {
	envRoot := t.TempDir()
	manifest := types.Manifest{
		Metadata: types.Metadata{Name: "bb-kb-mods", Version: "0.3.0"},
	}

	bundle := NewBundleAdapter()
	require.NoError(t, bundle.WriteLauncher(envRoot, manifest))

	path := filepath.Join(envRoot, "bin", "bb-kb-mods")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "exec python3 -m bb_kb_mods")
	assert.Contains(t, string(content), `PYTHONPATH="$here/lib"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	assert.Equal(t, epoch.Unix(), info.ModTime().Unix())
}

func TestWriteLauncherExplicitEntrypoint(t *testing.T) {
	envRoot := t.TempDir()
	manifest := types.Manifest{
		Metadata:   types.Metadata{Name: "bb-kb-mods", Version: "0.3.0"},
		Entrypoint: "bb_kb_mods.cli",
	}

	bundle := NewBundleAdapter()
	require.NoError(t, bundle.WriteLauncher(envRoot, manifest))

	content, err := os.ReadFile(filepath.Join(envRoot, "bin", "bb-kb-mods"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "exec python3 -m bb_kb_mods.cli")
}

func TestArchiveIsDeterministic(t *testing.T) {
	build := func(t *testing.T) []byte {
		envRoot := filepath.Join(t.TempDir(), "bundle")
		require.NoError(t, os.MkdirAll(filepath.Join(envRoot, "lib", "pkg"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(envRoot, "lib", "pkg", "core.py"), []byte("pass\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(envRoot, "lib", "pkg", "a.py"), []byte("x = 1\n"), 0644))

		bundle := NewBundleAdapter()
		path, err := bundle.Archive(envRoot)
		require.NoError(t, err)
		assert.Equal(t, envRoot+".tar.zst", path)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		return content
	}

	first := build(t)
	second := build(t)
	assert.Equal(t, first, second)
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "bb_kb_mods", moduleName("bb-kb-mods"))
	assert.Equal(t, "my_pkg_ext", moduleName("my-pkg.ext"))
	assert.Equal(t, "plain", moduleName("plain"))
}
