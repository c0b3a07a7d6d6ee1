package adapters

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envbuilder/internal/types"
)

const sampleIndex = `packages:
  NumPy:
    "1.26.4":
      artifacts:
        - kind: wheel
          platform: any
          path: numpy-1.26.4.whl
          hash: "xxh64:00000000000000aa"
    "1.24.0":
      dependencies:
        - libblas
      artifacts:
        - kind: sdist
          platform: any
          path: numpy-1.24.0.tar.gz
          hash: "xxh64:00000000000000bb"
  libblas:
    "3.11.0":
      artifacts:
        - kind: wheel
          platform: x86_64
          path: libblas-3.11.0.whl
          hash: "xxh64:00000000000000cc"
`

func writeIndex(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleIndex), 0644))
	return path
}

func TestIndexFileAvailableVersions(t *testing.T) {
	adapter := NewIndexFileAdapter(writeIndex(t))

	// Lookup goes through name normalization.
	versions, err := adapter.AvailableVersions("numpy")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.24.0", "1.26.4"}, versions)

	versions, err = adapter.AvailableVersions("ghost")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestIndexFileRelease(t *testing.T) {
	adapter := NewIndexFileAdapter(writeIndex(t))

	release, err := adapter.Release("numpy", "1.24.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"libblas"}, release.Dependencies)
	require.Len(t, release.Artifacts, 1)
	assert.Equal(t, types.ArtifactKindSdist, release.Artifacts[0].Kind)
	assert.Equal(t, "numpy-1.24.0.tar.gz", release.Artifacts[0].Path)

	_, err = adapter.Release("numpy", "9.9.9")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestIndexFileMissing(t *testing.T) {
	adapter := NewIndexFileAdapter(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := adapter.AvailableVersions("numpy")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestIndexFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packages: [broken"), 0644))

	adapter := NewIndexFileAdapter(path)
	_, err := adapter.AvailableVersions("numpy")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestIndexHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sampleIndex))
	}))
	defer server.Close()

	adapter := NewIndexHTTPAdapter(server.URL)
	versions, err := adapter.AvailableVersions("numpy")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.24.0", "1.26.4"}, versions)

	release, err := adapter.Release("libblas", "3.11.0")
	require.NoError(t, err)
	require.Len(t, release.Artifacts, 1)
	assert.Equal(t, "x86_64", release.Artifacts[0].Platform)
}

func TestIndexHTTPServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewIndexHTTPAdapter(server.URL)
	_, err := adapter.AvailableVersions("numpy")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeUnavailable, errbuilder.CodeOf(err))
}
