package types

// ResolvedPackage is one pinned entry of a DependencySet.
type ResolvedPackage struct {
	Name     string
	Version  string
	Artifact Artifact

	// Direct marks packages declared by a workspace manifest (as opposed
	// to transitively required ones).
	Direct bool

	// Workspace marks workspace member packages themselves, which are
	// installed from the workspace tree rather than from the index.
	Workspace bool

	// BuildOnly marks packages reachable only through build_requires.
	// They are present in dev shells but excluded from application
	// bundles.
	BuildOnly bool
}

// DependencySet maps each transitively required package name to exactly
// one resolved entry.
type DependencySet struct {
	Packages map[string]ResolvedPackage

	// InstallOrder lists package names in dependency-first topological
	// order. Deterministic for a given input.
	InstallOrder []string
}

type LockEntry struct {
	Package string
	Version string
	Kind    ArtifactKind
	Hash    string
}

// ResolutionRecord documents one override pin applied during resolution.
type ResolutionRecord struct {
	Package string
	Action  string
	Value   string
	Source  string
}

type ResolutionReport struct {
	Records []ResolutionRecord
}

// Environment is a materialized runtime tree.
type Environment struct {
	Root        string
	Mode        EnvMode
	State       EnvState
	Fingerprint string
	Variables   map[string]string
	Tools       []ToolRequirement
}

// EnvManifest is persisted at <env>/.envbuilder/env.manifest and records
// what the tree was built from.
type EnvManifest struct {
	Mode        EnvMode     `yaml:"mode"`
	Fingerprint string      `yaml:"fingerprint"`
	Packages    []LockEntry `yaml:"packages"`

	// Tools names the external tool requirements of the environment. For
	// application bundles this excludes dev_only tools.
	Tools []string `yaml:"tools,omitempty"`
}
