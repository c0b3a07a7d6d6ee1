package ports

import "envbuilder/internal/types"

// WorkspacePort discovers and loads package manifests under a root.
type WorkspacePort interface {
	Load(root string) (types.Workspace, error)
}

// ManifestPort parses a single manifest file.
type ManifestPort interface {
	LoadManifest(path string) (types.Manifest, error)
}
