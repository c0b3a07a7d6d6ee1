package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"envbuilder/internal/adapters"
	"envbuilder/internal/core"
	"envbuilder/internal/policies"
	"envbuilder/internal/types"
)

func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	workspace, err := s.loadWorkspace(ctx, req.Workspace)
	if err != nil {
		return ValidateResult{}, err
	}
	result := ValidateResult{}
	for _, member := range workspace.Members {
		result.Members = append(result.Members, member.Metadata.Name)
	}
	return result, nil
}

func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	start := s.Clock()
	workspace, set, report, _, err := s.resolveSet(ctx, req.Workspace, req.Index, req.Platform)
	if err != nil {
		return ResolveResult{}, err
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		outputDir = defaultOutputDir(workspace)
	}
	output := adapters.NewOutputFileAdapter(outputDir)
	if err := output.WriteLock(lockEntries(set)); err != nil {
		return ResolveResult{}, err
	}
	if err := output.WriteResolutionReport(report); err != nil {
		return ResolveResult{}, err
	}
	elapsed := s.Clock().Sub(start)
	log.Ctx(ctx).Info().
		Int("packages", len(set.Packages)).
		Str("output", outputDir).
		Dur("elapsed", elapsed).
		Msg("resolution written")
	return ResolveResult{Packages: len(set.Packages), OutputDir: outputDir, Elapsed: elapsed}, nil
}

// resolveSet runs the shared front half of every operation: load and
// validate the workspace, then resolve its dependency set. The returned
// locator is the effective index after manifest defaults apply.
func (s Service) resolveSet(ctx context.Context, workspaceRoot string, index string, platform string) (types.Workspace, types.DependencySet, types.ResolutionReport, string, error) {
	workspace, err := s.loadWorkspace(ctx, workspaceRoot)
	if err != nil {
		return types.Workspace{}, types.DependencySet{}, types.ResolutionReport{}, "", err
	}
	indexLocator := strings.TrimSpace(index)
	if indexLocator == "" {
		indexLocator = workspaceDefault(workspace, func(d types.ManifestDefaults) string { return d.Index })
	}
	if indexLocator == "" {
		return types.Workspace{}, types.DependencySet{}, types.ResolutionReport{}, "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package index is required")
	}
	if platform == "" {
		platform = workspaceDefault(workspace, func(d types.ManifestDefaults) string { return d.Platform })
	}
	resolver := core.NewResolverCore(indexAdapter(indexLocator), policies.NewArtifactPolicy(platform))
	set, report, err := resolver.Resolve(ctx, workspace)
	if err != nil {
		return types.Workspace{}, types.DependencySet{}, types.ResolutionReport{}, "", err
	}
	return workspace, set, report, indexLocator, nil
}

func (s Service) loadWorkspace(ctx context.Context, root string) (types.Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	workspace, err := s.Workspace.Load(root)
	if err != nil {
		return types.Workspace{}, err
	}
	compiler := core.NewManifestCompiler()
	if err := compiler.ValidateWorkspace(ctx, workspace); err != nil {
		return types.Workspace{}, err
	}
	return workspace, nil
}

func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	entries, err := s.Reader.ReadLock(outputDir)
	if err != nil {
		return InspectResult{}, err
	}
	report, err := s.Reader.ReadResolutionReport(outputDir)
	if err != nil {
		return InspectResult{}, err
	}
	return InspectResult{Packages: entries, Records: report.Records}, nil
}

func lockEntries(set types.DependencySet) []types.LockEntry {
	var entries []types.LockEntry
	for _, name := range set.InstallOrder {
		pkg := set.Packages[name]
		entry := types.LockEntry{
			Package: pkg.Name,
			Version: pkg.Version,
			Kind:    pkg.Artifact.Kind,
			Hash:    pkg.Artifact.Hash,
		}
		if pkg.Workspace {
			entry.Kind = types.ArtifactKindWorkspace
			entry.Hash = "-"
		}
		entries = append(entries, entry)
	}
	return entries
}

// workspaceDefault returns the first non-empty manifest default.
func workspaceDefault(workspace types.Workspace, pick func(types.ManifestDefaults) string) string {
	for _, member := range workspace.Members {
		if value := pick(member.Defaults); value != "" {
			return value
		}
	}
	return ""
}

func defaultOutputDir(workspace types.Workspace) string {
	if dir := workspaceDefault(workspace, func(d types.ManifestDefaults) string { return d.Output }); dir != "" {
		return dir
	}
	return "out"
}
