package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `api_version: v1
metadata:
  name: %s
  version: 0.1.0
dependencies:
  - numpy>=1.24
`

func writeManifest(t *testing.T, dir string, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, ManifestFileName)
	content := []byte(fmt.Sprintf(sampleManifest, name))
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestWorkspaceLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "pkg-b"), "pkg-b")
	writeManifest(t, filepath.Join(root, "pkg-a"), "pkg-a")
	// Manifests in skipped directories must not be discovered.
	writeManifest(t, filepath.Join(root, ".venv"), "hidden")
	writeManifest(t, filepath.Join(root, "out"), "hidden")
	writeManifest(t, filepath.Join(root, "pkg-a", "__pycache__"), "hidden")

	adapter := NewWorkspaceAdapter(NewManifestFileAdapter())
	workspace, err := adapter.Load(root)
	require.NoError(t, err)

	require.Len(t, workspace.Members, 2)
	assert.Equal(t, "pkg-a", workspace.Members[0].Metadata.Name)
	assert.Equal(t, "pkg-b", workspace.Members[1].Metadata.Name)
	assert.Equal(t, root, workspace.Root)
	assert.Equal(t, filepath.Join(root, "pkg-a", ManifestFileName), workspace.Members[0].Path)
}

func TestWorkspaceLoadEmptyRoot(t *testing.T) {
	adapter := NewWorkspaceAdapter(NewManifestFileAdapter())
	_, err := adapter.Load("")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestManifestFileLoad(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, "demo")

	adapter := NewManifestFileAdapter()
	manifest, err := adapter.LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", manifest.APIVersion)
	assert.Equal(t, "demo", manifest.Metadata.Name)
	assert.Equal(t, "0.1.0", manifest.Metadata.Version)
	assert.Equal(t, []string{"numpy>=1.24"}, manifest.Dependencies)
	assert.Equal(t, path, manifest.Path)
}

func TestManifestFileLoadMissing(t *testing.T) {
	adapter := NewManifestFileAdapter()
	_, err := adapter.LoadManifest(filepath.Join(t.TempDir(), "package.yaml"))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestManifestFileLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_version: [broken"), 0644))

	adapter := NewManifestFileAdapter()
	_, err := adapter.LoadManifest(path)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
