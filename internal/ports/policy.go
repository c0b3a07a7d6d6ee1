package ports

import "envbuilder/internal/types"

// ArtifactPolicyPort selects the distribution artifact to install for a
// resolved package version.
type ArtifactPolicyPort interface {
	Select(name string, version string, artifacts []types.Artifact, preferSdist bool) (types.Artifact, error)
}
