package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"envbuilder/internal/types"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect types.Dependency
	}{
		{
			name:   "bare name",
			input:  "requests",
			expect: types.Dependency{Name: "requests"},
		},
		{
			name:  "single constraint",
			input: "numpy>=1.24",
			expect: types.Dependency{
				Name: "numpy",
				Constraints: []types.Constraint{
					{Name: "numpy", Op: types.ConstraintOpGte, Version: "1.24", Source: "test"},
				},
			},
		},
		{
			name:  "multiple clauses",
			input: "numpy>=1.24,<2",
			expect: types.Dependency{
				Name: "numpy",
				Constraints: []types.Constraint{
					{Name: "numpy", Op: types.ConstraintOpGte, Version: "1.24", Source: "test"},
					{Name: "numpy", Op: types.ConstraintOpLt, Version: "2", Source: "test"},
				},
			},
		},
		{
			name:  "exact pin",
			input: "pyyaml==6.0.1",
			expect: types.Dependency{
				Name: "pyyaml",
				Constraints: []types.Constraint{
					{Name: "pyyaml", Op: types.ConstraintOpEq, Version: "6.0.1", Source: "test"},
				},
			},
		},
		{
			name:  "compatible release",
			input: "attrs~=23.1",
			expect: types.Dependency{
				Name: "attrs",
				Constraints: []types.Constraint{
					{Name: "attrs", Op: types.ConstraintOpCompat, Version: "23.1", Source: "test"},
				},
			},
		},
		{
			name:  "name is normalized",
			input: "My_Package.Ext>=1.0",
			expect: types.Dependency{
				Name: "my-package-ext",
				Constraints: []types.Constraint{
					{Name: "my-package-ext", Op: types.ConstraintOpGte, Version: "1.0", Source: "test"},
				},
			},
		},
		{
			name:  "whitespace tolerated",
			input: "  numpy >= 1.24 ",
			expect: types.Dependency{
				Name: "numpy",
				Constraints: []types.Constraint{
					{Name: "numpy", Op: types.ConstraintOpGte, Version: "1.24", Source: "test"},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep, err := ParseRequirement(tt.input, "test")
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expect, dep); diff != "" {
				t.Fatalf("unexpected dependency (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRequirementErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace only", input: "   "},
		{name: "operator without version", input: "numpy>="},
		{name: "operator without name", input: ">=1.24"},
		{name: "second clause with name", input: "numpy>=1.24,scipy<2"},
		{name: "second clause bare name", input: "numpy>=1.24,scipy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequirement(tt.input, "test")
			require.Error(t, err)
		})
	}
}

func TestParseRequirements(t *testing.T) {
	deps, err := ParseRequirements([]string{"numpy>=1.24", "requests"}, "manifest:demo")
	require.NoError(t, err)
	require.Len(t, deps, 2)
	require.Equal(t, "numpy", deps[0].Name)
	require.Equal(t, "manifest:demo", deps[0].Constraints[0].Source)
	require.Equal(t, "requests", deps[1].Name)
	require.Empty(t, deps[1].Constraints)

	_, err = ParseRequirements([]string{"numpy>=1.24", ""}, "manifest:demo")
	require.Error(t, err)
}
