package ports

import "envbuilder/internal/types"

// InstallerPort unpacks one fetched artifact into an environment tree.
type InstallerPort interface {
	Install(artifact types.Artifact, archivePath string, envRoot string) error

	// InstallWorkspacePackage copies a workspace member package into the
	// tree from its source directory.
	InstallWorkspacePackage(manifest types.Manifest, envRoot string) error
}
