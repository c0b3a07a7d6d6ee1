package types

type ArtifactKind string

const (
	ArtifactKindWheel ArtifactKind = "wheel"
	ArtifactKindSdist ArtifactKind = "sdist"

	// ArtifactKindWorkspace marks lock entries for workspace member
	// packages, which install from the source tree instead of an archive.
	ArtifactKindWorkspace ArtifactKind = "workspace"
)

// PlatformAny marks an artifact installable on every platform.
const PlatformAny = "any"

type EnvMode string

const (
	EnvModeDevShell    EnvMode = "dev-shell"
	EnvModeApplication EnvMode = "application"
)

type EnvState string

const (
	EnvStateUnbuilt       EnvState = "unbuilt"
	EnvStateResolving     EnvState = "resolving"
	EnvStateMaterializing EnvState = "materializing"
	EnvStateReady         EnvState = "ready"
)

type ConstraintOp string

const (
	ConstraintOpNone   ConstraintOp = ""
	ConstraintOpEq     ConstraintOp = "=="
	ConstraintOpNe     ConstraintOp = "!="
	ConstraintOpCompat ConstraintOp = "~="
	ConstraintOpGte    ConstraintOp = ">="
	ConstraintOpLte    ConstraintOp = "<="
	ConstraintOpGt     ConstraintOp = ">"
	ConstraintOpLt     ConstraintOp = "<"
)
