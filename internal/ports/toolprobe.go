package ports

import "envbuilder/internal/types"

// ToolProbePort verifies external tool requirements against the host.
type ToolProbePort interface {
	// Probe checks that the tool is on PATH and meets its minimum
	// version. Returns the resolved binary path.
	Probe(tool types.ToolRequirement) (string, error)
}
