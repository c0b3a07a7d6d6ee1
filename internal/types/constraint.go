package types

type Constraint struct {
	Name    string
	Op      ConstraintOp
	Version string
	Source  string
}

type Dependency struct {
	Name        string
	Constraints []Constraint

	// PreferSdist forces source artifacts for this dependency even when a
	// wheel is available.
	PreferSdist bool
}
