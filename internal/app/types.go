package app

import (
	"time"

	"envbuilder/internal/types"
)

type ValidateRequest struct {
	Workspace string
}

type ValidateResult struct {
	Members []string
}

type ResolveRequest struct {
	Workspace string
	Index     string
	OutputDir string
	Platform  string
}

type ResolveResult struct {
	Packages  int
	OutputDir string
	Elapsed   time.Duration
}

type BuildRequest struct {
	Workspace string
	Index     string
	OutputDir string
	Platform  string
	CacheDir  string
	Jobs      int
	Archive   bool
}

type BuildResult struct {
	BundlePath  string
	ArchivePath string
	Fingerprint string
	Elapsed     time.Duration
}

type ShellRequest struct {
	Workspace string
	Index     string
	OutputDir string
	Platform  string
	CacheDir  string
	Jobs      int
}

type ShellResult struct {
	ExitCode int
}

type InspectRequest struct {
	OutputDir string
}

type InspectResult struct {
	Packages []types.LockEntry
	Records  []types.ResolutionRecord
}
