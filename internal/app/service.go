package app

import (
	"strings"
	"time"

	"envbuilder/internal/adapters"
	"envbuilder/internal/ports"
)

type Service struct {
	Workspace ports.WorkspacePort
	Installer ports.InstallerPort
	ToolProbe ports.ToolProbePort
	Reader    ports.OutputReaderPort
	ShellEnv  adapters.ShellEnvAdapter
	Bundle    adapters.BundleAdapter
	Clock     func() time.Time
}

func NewService() Service {
	return Service{
		Workspace: adapters.NewWorkspaceAdapter(adapters.NewManifestFileAdapter()),
		Installer: adapters.NewInstallerAdapter(),
		ToolProbe: adapters.NewToolProbeAdapter(),
		Reader:    adapters.NewOutputReaderAdapter(),
		ShellEnv:  adapters.NewShellEnvAdapter(),
		Bundle:    adapters.NewBundleAdapter(),
		Clock:     time.Now,
	}
}

// indexAdapter picks the index transport from the locator: HTTP for
// URLs, the local file adapter otherwise.
func indexAdapter(locator string) ports.IndexPort {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return adapters.NewIndexHTTPAdapter(locator)
	}
	return adapters.NewIndexFileAdapter(locator)
}
