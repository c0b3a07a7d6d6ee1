// Package policies implements selection rules the resolver core consults
// but does not own: which distribution artifact serves a resolved version.
package policies

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"envbuilder/internal/ports"
	"envbuilder/internal/types"
)

// ArtifactPolicy picks artifacts for a target platform. Wheels are
// preferred over source archives so native compilers are only invoked
// when no prebuilt distribution exists, unless the dependency is flagged
// prefer-sdist.
type ArtifactPolicy struct {
	Platform string
}

func NewArtifactPolicy(platform string) ArtifactPolicy {
	return ArtifactPolicy{Platform: platform}
}

func (p ArtifactPolicy) Select(name string, version string, artifacts []types.Artifact, preferSdist bool) (types.Artifact, error) {
	var wheels []types.Artifact
	var sdists []types.Artifact
	for _, artifact := range artifacts {
		if !p.platformMatches(artifact.Platform) {
			continue
		}
		switch artifact.Kind {
		case types.ArtifactKindWheel:
			wheels = append(wheels, artifact)
		case types.ArtifactKindSdist:
			sdists = append(sdists, artifact)
		}
	}
	ordered := append(wheels, sdists...)
	if preferSdist {
		ordered = append(sdists, wheels...)
	}
	if len(ordered) == 0 {
		return types.Artifact{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no distribution for %s %s on platform %s", name, version, p.Platform))
	}
	return ordered[0], nil
}

func (p ArtifactPolicy) platformMatches(platform string) bool {
	if platform == "" || platform == types.PlatformAny {
		return true
	}
	return platform == p.Platform
}

var _ ports.ArtifactPolicyPort = ArtifactPolicy{}
