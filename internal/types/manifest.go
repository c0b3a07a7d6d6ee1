package types

type Metadata struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description,omitempty"`
}

// ToolRequirement names a binary that must be available on the invocation
// path of a dev shell. Tools are distro packages, so MinVersion compares
// under Debian version semantics. DevOnly tools (linters, analyzers) are
// excluded from application bundles.
type ToolRequirement struct {
	Name       string `yaml:"name"`
	Package    string `yaml:"package,omitempty"`
	MinVersion string `yaml:"min_version,omitempty"`
	DevOnly    bool   `yaml:"dev_only,omitempty"`
}

// OverridePin pins a package to an exact version after base resolution.
// Pins apply in declaration order; a later pin for the same package wins.
type OverridePin struct {
	Package string `yaml:"package"`
	Version string `yaml:"version"`
}

// ManifestDefaults provides workspace-level defaults so the CLI does not
// require --index and --output on every invocation.
type ManifestDefaults struct {
	Index    string `yaml:"index,omitempty"`
	Output   string `yaml:"output,omitempty"`
	Platform string `yaml:"platform,omitempty"`
}

type Manifest struct {
	APIVersion    string           `yaml:"api_version"`
	Metadata      Metadata         `yaml:"metadata"`
	Defaults      ManifestDefaults `yaml:"defaults,omitempty"`
	Dependencies  []string         `yaml:"dependencies,omitempty"`
	BuildRequires []string         `yaml:"build_requires,omitempty"`
	PreferSdist   []string         `yaml:"prefer_sdist,omitempty"`
	Tools         []ToolRequirement `yaml:"tools,omitempty"`
	Overrides     []OverridePin    `yaml:"overrides,omitempty"`
	Entrypoint    string           `yaml:"entrypoint,omitempty"`

	// Path is the location the manifest was loaded from. Not part of the
	// document itself.
	Path string `yaml:"-"`
}

// Workspace is the root scope of a build: one or more member manifests
// under a common root. Immutable once loaded.
type Workspace struct {
	Root    string
	Members []Manifest
}
