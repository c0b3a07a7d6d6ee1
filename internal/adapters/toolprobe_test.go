package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envbuilder/internal/types"
)

func installFakeTool(t *testing.T, name string, version string) {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\necho \"" + name + " version " + version + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestProbeFindsTool(t *testing.T) {
	installFakeTool(t, "fakegen", "3.21.12")

	probe := NewToolProbeAdapter()
	path, err := probe.Probe(types.ToolRequirement{Name: "fakegen"})
	require.NoError(t, err)
	assert.Contains(t, path, "fakegen")
}

func TestProbeMinVersionSatisfied(t *testing.T) {
	installFakeTool(t, "fakegen", "3.21.12")

	probe := NewToolProbeAdapter()
	_, err := probe.Probe(types.ToolRequirement{Name: "fakegen", MinVersion: "3.20"})
	require.NoError(t, err)
}

func TestProbeMinVersionTooOld(t *testing.T) {
	installFakeTool(t, "fakegen", "3.19.0")

	probe := NewToolProbeAdapter()
	_, err := probe.Probe(types.ToolRequirement{Name: "fakegen", MinVersion: "3.21"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "older than required")
}

func TestProbeMissingTool(t *testing.T) {
	probe := NewToolProbeAdapter()
	_, err := probe.Probe(types.ToolRequirement{Name: "surely-not-installed-anywhere"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "required tool not on PATH")
}

func TestProbeMissingToolNamesDistroPackage(t *testing.T) {
	probe := NewToolProbeAdapter()
	_, err := probe.Probe(types.ToolRequirement{Name: "surely-not-installed-anywhere", Package: "surely-bin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provided by surely-bin")
}

func TestProbeUnparseableBanner(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\necho \"no digits here\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "oddtool"), []byte(script), 0755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	probe := NewToolProbeAdapter()
	_, err := probe.Probe(types.ToolRequirement{Name: "oddtool", MinVersion: "1.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse version")
}
