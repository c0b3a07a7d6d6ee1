package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"envbuilder/internal/types"
)

// versionCache memoizes parsed version objects to avoid repeated parsing
// during constraint evaluation and sorting.
type versionCache struct {
	versions   map[string]pep440.Version
	specifiers map[string]pep440.Specifiers
}

func newVersionCache() *versionCache {
	return &versionCache{
		versions:   map[string]pep440.Version{},
		specifiers: map[string]pep440.Specifiers{},
	}
}

func (c *versionCache) version(value string) (pep440.Version, error) {
	if parsed, ok := c.versions[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.versions[value] = parsed
	return parsed, nil
}

func (c *versionCache) specifier(value string) (pep440.Specifiers, error) {
	if parsed, ok := c.specifiers[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.NewSpecifiers(value)
	if err != nil {
		return pep440.Specifiers{}, err
	}
	c.specifiers[value] = parsed
	return parsed, nil
}

// compare returns -1, 0, or 1 comparing two version strings. Returns 0 on
// parse errors so malformed entries sort stably.
func (c *versionCache) compare(a string, b string) int {
	v1, err := c.version(a)
	if err != nil {
		return 0
	}
	v2, err := c.version(b)
	if err != nil {
		return 0
	}
	return v1.Compare(v2)
}

// satisfiesAll reports whether a version meets every constraint.
func (c *versionCache) satisfiesAll(version string, constraints []types.Constraint) (bool, error) {
	parsed, err := c.version(version)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version: %s", version)).
			WithCause(err)
	}
	for _, constraint := range constraints {
		if constraint.Op == types.ConstraintOpNone {
			continue
		}
		spec, err := c.specifier(specString(constraint))
		if err != nil {
			return false, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid constraint: %s%s", constraint.Op, constraint.Version)).
				WithCause(err)
		}
		if !spec.Check(parsed) {
			return false, nil
		}
	}
	return true, nil
}

// bestCompatibleVersion selects the highest version from available that
// satisfies all constraints. A failure names the package and every
// constraint with its source so conflicts are actionable.
func bestCompatibleVersion(name string, constraints []types.Constraint, available []string, cache *versionCache) (string, error) {
	if len(available) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no available versions for %s", name))
	}
	var candidates []string
	for _, version := range available {
		ok, err := cache.satisfiesAll(version, constraints)
		if err != nil {
			return "", err
		}
		if ok {
			candidates = append(candidates, version)
		}
	}
	if len(candidates) == 0 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("resolution conflict: %s (%s)", name, describeConstraints(constraints)))
	}
	sort.Slice(candidates, func(i, j int) bool {
		return cache.compare(candidates[i], candidates[j]) > 0
	})
	return candidates[0], nil
}

// describeConstraints renders the full constraint set with sources, e.g.
// ">=2,<3 from manifest:a; ==1.0 from manifest:b".
func describeConstraints(constraints []types.Constraint) string {
	grouped := map[string][]string{}
	var sources []string
	for _, constraint := range constraints {
		if constraint.Op == types.ConstraintOpNone {
			continue
		}
		if _, ok := grouped[constraint.Source]; !ok {
			sources = append(sources, constraint.Source)
		}
		grouped[constraint.Source] = append(grouped[constraint.Source],
			fmt.Sprintf("%s%s", constraint.Op, constraint.Version))
	}
	if len(sources) == 0 {
		return "no versions published"
	}
	sort.Strings(sources)
	var parts []string
	for _, source := range sources {
		parts = append(parts, fmt.Sprintf("%s from %s", strings.Join(grouped[source], ","), source))
	}
	return strings.Join(parts, "; ")
}

func specString(constraint types.Constraint) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", constraint.Op, constraint.Version))
}
