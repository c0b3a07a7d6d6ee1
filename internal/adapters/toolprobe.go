package adapters

import (
	"fmt"
	"os/exec"
	"regexp"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"

	"envbuilder/internal/ports"
	"envbuilder/internal/shared"
	"envbuilder/internal/types"
)

// versionPattern pulls the first version-looking token out of a tool's
// --version banner.
var versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)

// ToolProbeAdapter verifies external tool requirements against the host.
// Tools arrive through distro packages, so minimum versions compare
// under Debian version semantics.
type ToolProbeAdapter struct{}

func NewToolProbeAdapter() ToolProbeAdapter {
	return ToolProbeAdapter{}
}

func (a ToolProbeAdapter) Probe(tool types.ToolRequirement) (string, error) {
	path, err := exec.LookPath(tool.Name)
	if err != nil {
		msg := fmt.Sprintf("required tool not on PATH: %s", tool.Name)
		if tool.Package != "" {
			msg = fmt.Sprintf("%s (provided by %s)", msg, tool.Package)
		}
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(msg).
			WithCause(err)
	}
	if tool.MinVersion == "" {
		return path, nil
	}
	output, err := exec.Command(path, "--version").CombinedOutput()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("failed to query version of %s", tool.Name)).
			WithCause(shared.CommandError(output, err))
	}
	found := versionPattern.FindString(string(output))
	if found == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("could not parse version of %s", tool.Name))
	}
	have, err := debversion.NewVersion(found)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("unparseable version for %s: %s", tool.Name, found)).
			WithCause(err)
	}
	want, err := debversion.NewVersion(tool.MinVersion)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid min_version for %s: %s", tool.Name, tool.MinVersion)).
			WithCause(err)
	}
	if have.LessThan(want) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("%s %s is older than required %s", tool.Name, found, tool.MinVersion))
	}
	return path, nil
}

var _ ports.ToolProbePort = ToolProbeAdapter{}
