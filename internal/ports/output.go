package ports

import "envbuilder/internal/types"

type OutputPort interface {
	WriteLock(entries []types.LockEntry) error
	WriteResolutionReport(report types.ResolutionReport) error
	WriteEnvManifest(envRoot string, manifest types.EnvManifest) error
}

// OutputReaderPort reads previously written lock outputs for inspection.
type OutputReaderPort interface {
	ReadLock(dir string) ([]types.LockEntry, error)
	ReadResolutionReport(dir string) (types.ResolutionReport, error)
}
