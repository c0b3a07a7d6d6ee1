package ports

import "envbuilder/internal/types"

// IndexPort exposes the package index the resolver walks.
type IndexPort interface {
	// AvailableVersions lists published versions for a package name.
	// An unknown name yields an empty slice, not an error.
	AvailableVersions(name string) ([]string, error)

	// Release returns the index entry for an exact package version.
	Release(name string, version string) (types.Release, error)
}
