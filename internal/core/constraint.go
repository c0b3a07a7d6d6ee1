package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"envbuilder/internal/shared"
	"envbuilder/internal/types"
)

// opTokens is the ordered list of constraint operators tried during
// parsing. Longer tokens must precede shorter ones to avoid false matches
// (e.g. ">=" before ">").
var opTokens = []types.ConstraintOp{
	types.ConstraintOpGte,
	types.ConstraintOpLte,
	types.ConstraintOpCompat,
	types.ConstraintOpNe,
	types.ConstraintOpEq,
	types.ConstraintOpGt,
	types.ConstraintOpLt,
}

// ParseRequirement splits a raw requirement string such as
// "numpy>=1.24,<2" into a Dependency. Clauses after the first inherit the
// name parsed from the first clause. A bare name yields a dependency with
// no constraints.
func ParseRequirement(raw string, source string) (types.Dependency, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Dependency{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty requirement")
	}
	clauses := strings.Split(raw, ",")
	first, err := parseClause(clauses[0], source)
	if err != nil {
		return types.Dependency{}, err
	}
	if first.Name == "" {
		return types.Dependency{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid requirement: %s", raw))
	}
	dep := types.Dependency{Name: shared.NormalizePackageName(first.Name)}
	if first.Op != types.ConstraintOpNone {
		first.Name = dep.Name
		dep.Constraints = append(dep.Constraints, first)
	}
	for _, clause := range clauses[1:] {
		constraint, err := parseClause(clause, source)
		if err != nil {
			return types.Dependency{}, err
		}
		if constraint.Op == types.ConstraintOpNone || constraint.Name != "" {
			return types.Dependency{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid requirement clause in %q: %s", raw, clause))
		}
		constraint.Name = dep.Name
		dep.Constraints = append(dep.Constraints, constraint)
	}
	return dep, nil
}

// parseClause parses one "name>=version" or bare ">=version" clause.
func parseClause(raw string, source string) (types.Constraint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.Constraint{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("empty constraint clause")
	}
	for _, op := range opTokens {
		idx := strings.Index(raw, string(op))
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(raw[:idx])
		version := strings.TrimSpace(raw[idx+len(op):])
		if version == "" {
			return types.Constraint{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid constraint: %s", raw))
		}
		return types.Constraint{
			Name:    name,
			Op:      op,
			Version: version,
			Source:  source,
		}, nil
	}
	return types.Constraint{
		Name:   raw,
		Op:     types.ConstraintOpNone,
		Source: source,
	}, nil
}

// ParseRequirements parses a list of requirement strings.
func ParseRequirements(raws []string, source string) ([]types.Dependency, error) {
	var deps []types.Dependency
	for _, raw := range raws {
		dep, err := ParseRequirement(raw, source)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}
