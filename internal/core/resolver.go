package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/dominikbraun/graph"
	"github.com/rs/zerolog/log"

	"envbuilder/internal/ports"
	"envbuilder/internal/shared"
	"envbuilder/internal/types"
)

// maxResolveIterations bounds the constraint-propagation loop. Constraint
// sets only grow, so the loop converges long before this in practice.
const maxResolveIterations = 100

type ResolverCore struct {
	Index  ports.IndexPort
	Policy ports.ArtifactPolicyPort
}

func NewResolverCore(index ports.IndexPort, policy ports.ArtifactPolicyPort) ResolverCore {
	return ResolverCore{Index: index, Policy: policy}
}

// resolveState carries all bookkeeping of one Resolve call.
type resolveState struct {
	constraints map[string][]types.Constraint
	preferSdist map[string]bool
	edges       map[string]map[string]struct{}
	members     map[string]types.Manifest
	direct      map[string]bool
	runtimeDeps map[string]bool
	resolved    map[string]string
	cache       *versionCache
}

// Resolve computes the pinned dependency set for a workspace: the member
// packages themselves plus the transitive closure of their declared
// dependencies, one version per name, artifacts chosen by policy,
// override pins applied last.
func (r ResolverCore) Resolve(ctx context.Context, workspace types.Workspace) (types.DependencySet, types.ResolutionReport, error) {
	if r.Index == nil || r.Policy == nil {
		return types.DependencySet{}, types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("resolver requires index and policy ports")
	}
	if len(workspace.Members) == 0 {
		return types.DependencySet{}, types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("workspace has no package manifests")
	}

	state := &resolveState{
		constraints: map[string][]types.Constraint{},
		preferSdist: map[string]bool{},
		edges:       map[string]map[string]struct{}{},
		members:     map[string]types.Manifest{},
		direct:      map[string]bool{},
		runtimeDeps: map[string]bool{},
		resolved:    map[string]string{},
		cache:       newVersionCache(),
	}
	if err := seedFromWorkspace(state, workspace); err != nil {
		return types.DependencySet{}, types.ResolutionReport{}, err
	}
	if err := r.propagate(ctx, state); err != nil {
		return types.DependencySet{}, types.ResolutionReport{}, err
	}

	set, err := r.buildSet(state)
	if err != nil {
		return types.DependencySet{}, types.ResolutionReport{}, err
	}
	overlays, report, err := r.pinOverlays(workspace, set)
	if err != nil {
		return types.DependencySet{}, types.ResolutionReport{}, err
	}
	set = ApplyOverlays(set, overlays)

	order, err := installOrder(state, set)
	if err != nil {
		return types.DependencySet{}, types.ResolutionReport{}, err
	}
	set.InstallOrder = order

	log.Ctx(ctx).Debug().
		Int("packages", len(set.Packages)).
		Int("pins", len(report.Records)).
		Msg("resolve completed")
	return set, report, nil
}

// seedFromWorkspace loads member manifests into the resolve state:
// member identity, declared runtime and build requirements, and sdist
// preferences.
func seedFromWorkspace(state *resolveState, workspace types.Workspace) error {
	for _, member := range workspace.Members {
		name := shared.NormalizePackageName(member.Metadata.Name)
		state.members[name] = member
	}
	for _, member := range workspace.Members {
		memberName := shared.NormalizePackageName(member.Metadata.Name)
		source := fmt.Sprintf("manifest:%s", memberName)
		runtime, err := ParseRequirements(member.Dependencies, source)
		if err != nil {
			return err
		}
		build, err := ParseRequirements(member.BuildRequires, fmt.Sprintf("build:%s", memberName))
		if err != nil {
			return err
		}
		for _, dep := range runtime {
			addDependency(state, memberName, dep)
			state.runtimeDeps[dep.Name] = true
			state.direct[dep.Name] = true
		}
		for _, dep := range build {
			addDependency(state, memberName, dep)
			state.direct[dep.Name] = true
		}
		for _, raw := range member.PreferSdist {
			state.preferSdist[shared.NormalizePackageName(raw)] = true
		}
	}
	return nil
}

func addDependency(state *resolveState, dependent string, dep types.Dependency) {
	state.constraints[dep.Name] = append(state.constraints[dep.Name], dep.Constraints...)
	if dep.PreferSdist {
		state.preferSdist[dep.Name] = true
	}
	if state.edges[dep.Name] == nil {
		state.edges[dep.Name] = map[string]struct{}{}
	}
	state.edges[dep.Name][dependent] = struct{}{}
}

// propagate runs the closure to a fixpoint: pick the best version per
// name under the accumulated constraints, pull in that release's own
// requirements, repeat until no pick changes.
func (r ResolverCore) propagate(ctx context.Context, state *resolveState) error {
	for iteration := 0; iteration < maxResolveIterations; iteration++ {
		changed := false
		for _, name := range sortedKeys(state.constraints) {
			if member, ok := state.members[name]; ok {
				if err := checkMemberConstraints(state, name, member); err != nil {
					return err
				}
				continue
			}
			version, err := r.pickVersion(name, state)
			if err != nil {
				return err
			}
			if state.resolved[name] == version {
				continue
			}
			state.resolved[name] = version
			changed = true
			if err := r.expandRelease(state, name, version); err != nil {
				return err
			}
		}
		if !changed {
			log.Ctx(ctx).Debug().Int("iterations", iteration+1).Msg("constraint propagation converged")
			return nil
		}
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("resolution did not converge")
}

func (r ResolverCore) pickVersion(name string, state *resolveState) (string, error) {
	available, err := r.Index.AvailableVersions(name)
	if err != nil {
		return "", err
	}
	if len(available) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no distribution for %s: package not in index", name))
	}
	return bestCompatibleVersion(name, state.constraints[name], available, state.cache)
}

func (r ResolverCore) expandRelease(state *resolveState, name string, version string) error {
	release, err := r.Index.Release(name, version)
	if err != nil {
		return err
	}
	deps, err := ParseRequirements(release.Dependencies, fmt.Sprintf("package:%s", name))
	if err != nil {
		return err
	}
	for _, dep := range deps {
		addDependency(state, name, dep)
	}
	return nil
}

func checkMemberConstraints(state *resolveState, name string, member types.Manifest) error {
	ok, err := state.cache.satisfiesAll(member.Metadata.Version, state.constraints[name])
	if err != nil {
		return err
	}
	if !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("resolution conflict: %s %s (%s)",
				name, member.Metadata.Version, describeConstraints(state.constraints[name])))
	}
	return nil
}

// buildSet assembles the dependency set from resolved versions: member
// packages install from the workspace, everything else gets an artifact
// selected by policy.
func (r ResolverCore) buildSet(state *resolveState) (types.DependencySet, error) {
	runtime := runtimeReachable(state)
	packages := map[string]types.ResolvedPackage{}
	for name, member := range state.members {
		packages[name] = types.ResolvedPackage{
			Name:      name,
			Version:   member.Metadata.Version,
			Direct:    true,
			Workspace: true,
		}
	}
	for name, version := range state.resolved {
		release, err := r.Index.Release(name, version)
		if err != nil {
			return types.DependencySet{}, err
		}
		artifact, err := r.Policy.Select(name, version, release.Artifacts, state.preferSdist[name])
		if err != nil {
			return types.DependencySet{}, err
		}
		packages[name] = types.ResolvedPackage{
			Name:      name,
			Version:   version,
			Artifact:  artifact,
			Direct:    state.direct[name],
			BuildOnly: !runtime[name],
		}
	}
	return types.DependencySet{Packages: packages}, nil
}

// runtimeReachable walks dependency edges from the members' declared
// runtime requirements. Anything outside the walk entered the closure
// through build_requires only.
func runtimeReachable(state *resolveState) map[string]bool {
	// edges map dependency -> dependents; invert for the forward walk.
	dependsOn := map[string][]string{}
	for dep, dependents := range state.edges {
		for dependent := range dependents {
			dependsOn[dependent] = append(dependsOn[dependent], dep)
		}
	}
	reachable := map[string]bool{}
	var queue []string
	for name := range state.members {
		reachable[name] = true
	}
	for name := range state.runtimeDeps {
		if !reachable[name] {
			reachable[name] = true
			queue = append(queue, name)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range dependsOn[current] {
			if !reachable[dep] {
				reachable[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return reachable
}

// installOrder produces a deterministic dependency-first ordering and
// rejects cyclic graphs.
func installOrder(state *resolveState, set types.DependencySet) ([]string, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, name := range sortedKeys(set.Packages) {
		if err := g.AddVertex(name); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to build dependency graph").
				WithCause(err)
		}
	}
	for dep, dependents := range state.edges {
		if _, ok := set.Packages[dep]; !ok {
			continue
		}
		for dependent := range dependents {
			if _, ok := set.Packages[dependent]; !ok {
				continue
			}
			if err := g.AddEdge(dep, dependent); err != nil {
				if strings.Contains(err.Error(), "cycle") {
					return nil, errbuilder.New().
						WithCode(errbuilder.CodeFailedPrecondition).
						WithMsg(fmt.Sprintf("dependency cycle involving %s and %s", dep, dependent))
				}
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to build dependency graph").
					WithCause(err)
			}
		}
	}
	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to order dependency graph").
			WithCause(err)
	}
	return order, nil
}

// pinOverlays turns manifest override pins into ordered overlays. Each
// pin is validated against the index and re-selects its artifact before
// it becomes part of the overlay pipeline.
func (r ResolverCore) pinOverlays(workspace types.Workspace, set types.DependencySet) ([]Overlay, types.ResolutionReport, error) {
	report := types.ResolutionReport{Records: []types.ResolutionRecord{}}
	var overlays []Overlay
	for _, member := range workspace.Members {
		source := fmt.Sprintf("manifest:%s", shared.NormalizePackageName(member.Metadata.Name))
		for _, pin := range member.Overrides {
			name := shared.NormalizePackageName(pin.Package)
			existing, ok := set.Packages[name]
			if !ok || existing.Workspace {
				report.Records = append(report.Records, types.ResolutionRecord{
					Package: name,
					Action:  "ignored",
					Value:   pin.Version,
					Source:  source,
				})
				continue
			}
			release, err := r.Index.Release(name, pin.Version)
			if err != nil {
				return nil, types.ResolutionReport{}, err
			}
			artifact, err := r.Policy.Select(name, pin.Version, release.Artifacts, false)
			if err != nil {
				return nil, types.ResolutionReport{}, err
			}
			overlays = append(overlays, PinOverlay(name, types.ResolvedPackage{
				Name:     name,
				Version:  pin.Version,
				Artifact: artifact,
			}))
			report.Records = append(report.Records, types.ResolutionRecord{
				Package: name,
				Action:  "pin",
				Value:   pin.Version,
				Source:  source,
			})
		}
	}
	return overlays, report, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
