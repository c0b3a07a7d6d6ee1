package adapters

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"envbuilder/internal/ports"
	"envbuilder/internal/types"
)

// ManifestFileName is the per-package manifest discovered in workspace
// trees.
const ManifestFileName = "package.yaml"

type WorkspaceAdapter struct {
	Manifests ports.ManifestPort
}

func NewWorkspaceAdapter(manifests ports.ManifestPort) WorkspaceAdapter {
	return WorkspaceAdapter{Manifests: manifests}
}

// Load walks the workspace root for package manifests and loads each one.
// Member order is deterministic (sorted by path).
func (a WorkspaceAdapter) Load(root string) (types.Workspace, error) {
	if root == "" {
		return types.Workspace{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("workspace root is empty")
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if shouldSkipWorkspaceDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Base(path) == ManifestFileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return types.Workspace{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan workspace").
			WithCause(err)
	}
	sort.Strings(paths)

	workspace := types.Workspace{Root: root}
	for _, path := range paths {
		manifest, err := a.Manifests.LoadManifest(path)
		if err != nil {
			return types.Workspace{}, err
		}
		workspace.Members = append(workspace.Members, manifest)
	}
	return workspace, nil
}

func shouldSkipWorkspaceDir(name string) bool {
	switch name {
	case ".git", ".venv", "dist", "out", "__pycache__", ".mypy_cache", ".ruff_cache":
		return true
	default:
		return false
	}
}

var _ ports.WorkspacePort = WorkspaceAdapter{}
