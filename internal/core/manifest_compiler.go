package core

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"envbuilder/internal/types"
)

const supportedAPIVersion = "v1"

// ManifestCompiler validates loaded manifests before anything downstream
// consumes them.
type ManifestCompiler struct{}

func NewManifestCompiler() ManifestCompiler {
	return ManifestCompiler{}
}

func (c ManifestCompiler) ValidateManifest(ctx context.Context, manifest types.Manifest) error {
	assert.NotEmpty(ctx, manifest.APIVersion, "api_version must be set")
	assert.NotEmpty(ctx, manifest.Metadata.Name, "metadata.name must be set")
	assert.NotEmpty(ctx, manifest.Metadata.Version, "metadata.version must be set")
	if manifest.APIVersion != supportedAPIVersion {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported api_version: %s", manifest.APIVersion))
	}
	if _, err := pep440.Parse(manifest.Metadata.Version); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package version: %s", manifest.Metadata.Version)).
			WithCause(err)
	}
	if _, err := ParseRequirements(manifest.Dependencies, "manifest"); err != nil {
		return err
	}
	if _, err := ParseRequirements(manifest.BuildRequires, "manifest"); err != nil {
		return err
	}
	for _, tool := range manifest.Tools {
		if err := validateTool(tool); err != nil {
			return err
		}
	}
	for _, pin := range manifest.Overrides {
		if err := validatePin(pin); err != nil {
			return err
		}
	}
	return nil
}

func (c ManifestCompiler) ValidateWorkspace(ctx context.Context, workspace types.Workspace) error {
	if len(workspace.Members) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("workspace has no package manifests")
	}
	seen := map[string]string{}
	for _, member := range workspace.Members {
		if err := c.ValidateManifest(ctx, member); err != nil {
			return err
		}
		if previous, ok := seen[member.Metadata.Name]; ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("duplicate package %s declared by %s and %s",
					member.Metadata.Name, previous, member.Path))
		}
		seen[member.Metadata.Name] = member.Path
	}
	return nil
}

func validateTool(tool types.ToolRequirement) error {
	if tool.Name == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("tool requirement without a name")
	}
	return nil
}

func validatePin(pin types.OverridePin) error {
	if pin.Package == "" || pin.Version == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("override pin requires package and version")
	}
	if _, err := pep440.Parse(pin.Version); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid override version for %s: %s", pin.Package, pin.Version)).
			WithCause(err)
	}
	return nil
}
