package types

// Artifact is one downloadable distribution of a package release. Hash is
// an xxh64 digest of the artifact content, prefixed "xxh64:". Exactly one
// of URL and Path is set depending on whether the index is remote or local.
type Artifact struct {
	Kind     ArtifactKind `yaml:"kind"`
	Platform string       `yaml:"platform"`
	URL      string       `yaml:"url,omitempty"`
	Path     string       `yaml:"path,omitempty"`
	Hash     string       `yaml:"hash"`
}

// Release describes one published version of a package: its own declared
// dependencies (requirement strings) and the artifacts available for it.
type Release struct {
	Dependencies []string   `yaml:"dependencies,omitempty"`
	Artifacts    []Artifact `yaml:"artifacts"`
}

// IndexFile is the on-disk package index document: package name to
// version to release.
type IndexFile struct {
	Packages map[string]map[string]Release `yaml:"packages"`
}
