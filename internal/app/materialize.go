package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"envbuilder/internal/adapters"
	"envbuilder/internal/ports"
	"envbuilder/internal/types"
)

// materializeOptions carries the knobs shared by both environment modes.
type materializeOptions struct {
	OutputDir string
	Index     string
	CacheDir  string
	Jobs      int
}

func (s Service) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	start := s.Clock()
	workspace, set, report, indexLocator, err := s.resolveSet(ctx, req.Workspace, req.Index, req.Platform)
	if err != nil {
		return BuildResult{}, err
	}
	env, err := s.materialize(ctx, workspace, set, types.EnvModeApplication, materializeOptions{
		OutputDir: req.OutputDir,
		Index:     indexLocator,
		CacheDir:  req.CacheDir,
		Jobs:      req.Jobs,
	})
	if err != nil {
		return BuildResult{}, err
	}
	if err := s.writeResolution(workspace, set, report, req.OutputDir); err != nil {
		return BuildResult{}, err
	}
	result := BuildResult{BundlePath: env.Root, Fingerprint: env.Fingerprint}
	if req.Archive {
		archivePath, err := s.Bundle.Archive(env.Root)
		if err != nil {
			return BuildResult{}, err
		}
		result.ArchivePath = archivePath
	}
	result.Elapsed = s.Clock().Sub(start)
	return result, nil
}

func (s Service) Shell(ctx context.Context, req ShellRequest) (ShellResult, error) {
	workspace, set, report, indexLocator, err := s.resolveSet(ctx, req.Workspace, req.Index, req.Platform)
	if err != nil {
		return ShellResult{}, err
	}
	env, err := s.materialize(ctx, workspace, set, types.EnvModeDevShell, materializeOptions{
		OutputDir: req.OutputDir,
		Index:     indexLocator,
		CacheDir:  req.CacheDir,
		Jobs:      req.Jobs,
	})
	if err != nil {
		return ShellResult{}, err
	}
	if err := s.writeResolution(workspace, set, report, req.OutputDir); err != nil {
		return ShellResult{}, err
	}
	exitCode, err := s.ShellEnv.Enter(env.Root, env.Variables)
	if err != nil {
		return ShellResult{}, err
	}
	return ShellResult{ExitCode: exitCode}, nil
}

// materialize builds an environment tree for the resolved set. The
// environment moves unbuilt -> resolving -> materializing -> ready;
// failures abort before ready and tear down the staging tree, so no
// partial environment is ever exposed at the final path.
func (s Service) materialize(ctx context.Context, workspace types.Workspace, set types.DependencySet, mode types.EnvMode, opts materializeOptions) (types.Environment, error) {
	env := types.Environment{Mode: mode, State: types.EnvStateUnbuilt}

	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		outputDir = defaultOutputDir(workspace)
	}
	env.Root = environmentRoot(outputDir, workspace, mode)
	env.State = types.EnvStateResolving

	cacheDir, err := resolveCacheDir(opts.CacheDir)
	if err != nil {
		return types.Environment{}, err
	}
	fetcher := adapters.NewFetcherAdapter(adapters.NewCacheDirAdapter(cacheDir), artifactBaseDir(opts.Index), opts.Jobs)

	// All fetches must complete before any install step begins.
	fetched, err := fetcher.FetchAll(ctx, selectPackages(set, mode))
	if err != nil {
		return types.Environment{}, err
	}

	env.State = types.EnvStateMaterializing
	staging := env.Root + ".partial"
	if err := os.RemoveAll(staging); err != nil {
		return types.Environment{}, stagingError(err)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return types.Environment{}, stagingError(err)
	}
	defer os.RemoveAll(staging)

	if err := s.installAll(ctx, workspace, set, mode, fetched, staging); err != nil {
		return types.Environment{}, err
	}
	if mode == types.EnvModeApplication {
		for _, member := range workspace.Members {
			if err := s.Bundle.WriteLauncher(staging, member); err != nil {
				return types.Environment{}, err
			}
		}
		// Bundles never link host tools; the non-dev_only requirements are
		// recorded so the runtime host can be checked against them.
		env.Tools = runtimeTools(workspace)
	}
	if mode == types.EnvModeDevShell {
		tools, err := s.exposeTools(ctx, workspace, staging)
		if err != nil {
			return types.Environment{}, err
		}
		env.Tools = tools
		variables, err := s.ShellEnv.Variables(env.Root, workspace.Root)
		if err != nil {
			return types.Environment{}, err
		}
		env.Variables = variables
	}

	fingerprint, err := adapters.FingerprintTree(staging)
	if err != nil {
		return types.Environment{}, err
	}
	env.Fingerprint = fingerprint

	output := adapters.NewOutputFileAdapter(outputDir)
	if err := output.WriteEnvManifest(staging, types.EnvManifest{
		Mode:        mode,
		Fingerprint: fingerprint,
		Packages:    lockEntries(set),
		Tools:       toolNames(env.Tools),
	}); err != nil {
		return types.Environment{}, err
	}

	if err := os.RemoveAll(env.Root); err != nil {
		return types.Environment{}, stagingError(err)
	}
	if err := os.Rename(staging, env.Root); err != nil {
		return types.Environment{}, stagingError(err)
	}
	env.State = types.EnvStateReady
	log.Ctx(ctx).Info().
		Str("mode", string(mode)).
		Str("root", env.Root).
		Str("fingerprint", fingerprint).
		Msg("environment ready")
	return env, nil
}

// installAll unpacks every selected package in dependency-first order.
func (s Service) installAll(ctx context.Context, workspace types.Workspace, set types.DependencySet, mode types.EnvMode, fetched map[string]ports.FetchedArtifact, staging string) error {
	members := map[string]types.Manifest{}
	for _, member := range workspace.Members {
		members[member.Metadata.Name] = member
	}
	for _, name := range set.InstallOrder {
		pkg, ok := set.Packages[name]
		if !ok {
			continue
		}
		if mode == types.EnvModeApplication && pkg.BuildOnly {
			continue
		}
		if pkg.Workspace {
			if err := s.Installer.InstallWorkspacePackage(members[pkg.Name], staging); err != nil {
				return err
			}
			continue
		}
		artifact, ok := fetched[pkg.Name]
		if !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg(fmt.Sprintf("environment build failed: no fetched artifact for %s", pkg.Name))
		}
		if err := s.Installer.Install(pkg.Artifact, artifact.Path, staging); err != nil {
			return err
		}
		log.Ctx(ctx).Debug().Str("package", pkg.Name).Str("version", pkg.Version).Msg("installed")
	}
	return nil
}

// exposeTools probes every external tool requirement and links it into
// the shell's bin directory, host interpreter included.
func (s Service) exposeTools(ctx context.Context, workspace types.Workspace, staging string) ([]types.ToolRequirement, error) {
	binDir := filepath.Join(staging, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return nil, stagingError(err)
	}
	requirements := []types.ToolRequirement{{Name: "python3"}}
	for _, member := range workspace.Members {
		requirements = append(requirements, member.Tools...)
	}
	var exposed []types.ToolRequirement
	seen := map[string]bool{}
	for _, tool := range requirements {
		if seen[tool.Name] {
			continue
		}
		seen[tool.Name] = true
		path, err := s.ToolProbe.Probe(tool)
		if err != nil {
			return nil, err
		}
		link := filepath.Join(binDir, tool.Name)
		if err := os.Symlink(path, link); err != nil && !os.IsExist(err) {
			return nil, stagingError(err)
		}
		log.Ctx(ctx).Debug().Str("tool", tool.Name).Str("path", path).Msg("tool exposed")
		exposed = append(exposed, tool)
	}
	return exposed, nil
}

// runtimeTools lists the tool requirements an application environment
// carries forward. dev_only tools (linters, analyzers) stay out of
// bundles.
func runtimeTools(workspace types.Workspace) []types.ToolRequirement {
	var out []types.ToolRequirement
	seen := map[string]bool{}
	for _, member := range workspace.Members {
		for _, tool := range member.Tools {
			if tool.DevOnly || seen[tool.Name] {
				continue
			}
			seen[tool.Name] = true
			out = append(out, tool)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func toolNames(tools []types.ToolRequirement) []string {
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	return names
}

// selectPackages filters the set by mode: application bundles exclude
// build-only packages.
func selectPackages(set types.DependencySet, mode types.EnvMode) []types.ResolvedPackage {
	var out []types.ResolvedPackage
	for _, name := range set.InstallOrder {
		pkg := set.Packages[name]
		if mode == types.EnvModeApplication && pkg.BuildOnly {
			continue
		}
		out = append(out, pkg)
	}
	return out
}

func (s Service) writeResolution(workspace types.Workspace, set types.DependencySet, report types.ResolutionReport, outputDir string) error {
	dir := strings.TrimSpace(outputDir)
	if dir == "" {
		dir = defaultOutputDir(workspace)
	}
	output := adapters.NewOutputFileAdapter(dir)
	if err := output.WriteLock(lockEntries(set)); err != nil {
		return err
	}
	return output.WriteResolutionReport(report)
}

// environmentRoot names the tree for a mode: application bundles are
// named after the primary package, dev shells share a fixed location.
func environmentRoot(outputDir string, workspace types.Workspace, mode types.EnvMode) string {
	if mode == types.EnvModeDevShell {
		return filepath.Join(outputDir, "devshell")
	}
	primary := workspace.Members[0]
	return filepath.Join(outputDir, fmt.Sprintf("%s-%s", primary.Metadata.Name, primary.Metadata.Version))
}

func resolveCacheDir(configured string) (string, error) {
	if dir := strings.TrimSpace(configured); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to locate user cache directory").
			WithCause(err)
	}
	return filepath.Join(base, "envbuilder", "artifacts"), nil
}

// artifactBaseDir anchors relative artifact paths next to a file index.
func artifactBaseDir(index string) string {
	if strings.HasPrefix(index, "http://") || strings.HasPrefix(index, "https://") {
		return ""
	}
	return filepath.Dir(index)
}

func stagingError(cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("environment build failed: staging").
		WithCause(cause)
}
