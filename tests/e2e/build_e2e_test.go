package e2e

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"envbuilder/internal/adapters"
	"envbuilder/internal/types"
	"envbuilder/tests/testutil"
)

const memberManifest = `api_version: v1
metadata:
  name: bb-kb-mods
  version: 0.3.0
dependencies:
  - numpy>=1.24,<2
`

// stageFixtures writes a workspace, an index, and a real wheel artifact
// under a temp directory and returns the workspace root and index path.
func stageFixtures(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()

	workspaceDir := filepath.Join(root, "workspace", "bb-kb-mods")
	require.NoError(t, os.MkdirAll(workspaceDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(workspaceDir, "package.yaml"), []byte(memberManifest), 0644))

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	entry, err := writer.Create("numpy/__init__.py")
	require.NoError(t, err)
	_, err = entry.Write([]byte("VERSION = \"1.26.4\"\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	indexDir := filepath.Join(root, "index")
	require.NoError(t, os.MkdirAll(indexDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(indexDir, "numpy-1.26.4.whl"), buf.Bytes(), 0644))

	index := types.IndexFile{Packages: map[string]map[string]types.Release{
		"numpy": {
			"1.26.4": types.Release{
				Artifacts: []types.Artifact{{
					Kind:     types.ArtifactKindWheel,
					Platform: types.PlatformAny,
					Path:     "numpy-1.26.4.whl",
					Hash:     adapters.HashContent(buf.Bytes()),
				}},
			},
		},
	}}
	data, err := yaml.Marshal(index)
	require.NoError(t, err)
	indexPath := filepath.Join(indexDir, "index.yaml")
	require.NoError(t, os.WriteFile(indexPath, data, 0644))

	return filepath.Join(root, "workspace"), indexPath
}

var (
	binaryOnce sync.Once
	binaryPath string
	binaryErr  error
)

// buildBinary compiles the CLI once per test run. Running the compiled
// binary directly (instead of "go run") preserves its exit code, which
// "go run" replaces with 1.
func buildBinary(t *testing.T) string {
	t.Helper()
	binaryOnce.Do(func() {
		dir, err := os.MkdirTemp("", "envbuilder-e2e-*")
		if err != nil {
			binaryErr = err
			return
		}
		binaryPath = filepath.Join(dir, "envbuilder")
		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/envbuilder")
		cmd.Dir = testutil.RepoRoot(t)
		cmd.Env = append(os.Environ(), "GO111MODULE=on")
		if out, err := cmd.CombinedOutput(); err != nil {
			binaryErr = fmt.Errorf("build failed: %w\n%s", err, out)
		}
	})
	require.NoError(t, binaryErr)
	return binaryPath
}

func runCommand(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	cmd := exec.Command(buildBinary(t), args...)
	cmd.Dir = testutil.RepoRoot(t)
	return cmd.CombinedOutput()
}

func TestResolveCommandE2E(t *testing.T) {
	workspace, index := stageFixtures(t)
	outDir := t.TempDir()

	out, err := runCommand(t, "resolve",
		"--workspace", workspace,
		"--index", index,
		"--output", outDir,
	)
	require.NoError(t, err, string(out))

	require.FileExists(t, filepath.Join(outDir, "deps.lock"))
	require.FileExists(t, filepath.Join(outDir, "resolution.report"))

	lock, err := os.ReadFile(filepath.Join(outDir, "deps.lock"))
	require.NoError(t, err)
	assert.Contains(t, string(lock), "numpy==1.26.4 wheel")
}

func TestBuildCommandE2E(t *testing.T) {
	workspace, index := stageFixtures(t)
	outDir := t.TempDir()

	out, err := runCommand(t, "build",
		"--workspace", workspace,
		"--index", index,
		"--output", outDir,
		"--cache-dir", t.TempDir(),
		"--archive",
	)
	require.NoError(t, err, string(out))

	bundle := filepath.Join(outDir, "bb-kb-mods-0.3.0")
	require.FileExists(t, filepath.Join(bundle, "bin", "bb-kb-mods"))
	require.FileExists(t, filepath.Join(bundle, "lib", "numpy", "__init__.py"))
	require.FileExists(t, filepath.Join(bundle, ".envbuilder", "env.manifest"))
	require.FileExists(t, bundle+".tar.zst")
}

func TestValidateCommandE2E(t *testing.T) {
	workspace, _ := stageFixtures(t)

	out, err := runCommand(t, "validate", "--workspace", workspace)
	require.NoError(t, err, string(out))
	assert.Contains(t, string(out), "bb-kb-mods")
}

func TestResolveConflictExitCodeE2E(t *testing.T) {
	workspace, index := stageFixtures(t)
	conflicting := `api_version: v1
metadata:
  name: bb-kb-mods
  version: 0.3.0
dependencies:
  - numpy>=2.0.0,<2.0.0
`
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "bb-kb-mods", "package.yaml"), []byte(conflicting), 0644))

	_, err := runCommand(t, "resolve",
		"--workspace", workspace,
		"--index", index,
		"--output", t.TempDir(),
	)
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}
