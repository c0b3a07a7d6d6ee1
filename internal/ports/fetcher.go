package ports

import (
	"context"

	"envbuilder/internal/types"
)

// FetchedArtifact locates one artifact after it has been fetched into the
// cache.
type FetchedArtifact struct {
	Package string
	Path    string
}

// FetcherPort obtains artifacts for resolved packages and stores them in
// the cache. All fetches complete or the call fails.
type FetcherPort interface {
	FetchAll(ctx context.Context, packages []types.ResolvedPackage) (map[string]FetchedArtifact, error)
}
