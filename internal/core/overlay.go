package core

import "envbuilder/internal/types"

// Overlay transforms a resolved dependency set without mutating its
// input. Overlays apply in order; a later overlay overrides an earlier
// one for the same key.
type Overlay func(types.DependencySet) types.DependencySet

// ApplyOverlays folds the overlay list over a base set.
func ApplyOverlays(set types.DependencySet, overlays []Overlay) types.DependencySet {
	for _, overlay := range overlays {
		set = overlay(set)
	}
	return set
}

// PinOverlay replaces the entry for one package. Pinning a package that
// is not part of the set is a no-op: overlays override existing keys,
// they do not grow the closure.
func PinOverlay(name string, pinned types.ResolvedPackage) Overlay {
	return func(set types.DependencySet) types.DependencySet {
		out := cloneSet(set)
		if existing, ok := out.Packages[name]; ok {
			pinned.Direct = existing.Direct
			pinned.BuildOnly = existing.BuildOnly
			out.Packages[name] = pinned
		}
		return out
	}
}

func cloneSet(set types.DependencySet) types.DependencySet {
	packages := make(map[string]types.ResolvedPackage, len(set.Packages))
	for name, pkg := range set.Packages {
		packages[name] = pkg
	}
	order := append([]string(nil), set.InstallOrder...)
	return types.DependencySet{Packages: packages, InstallOrder: order}
}
