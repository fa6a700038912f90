package config

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/seedbank/internal/seed"
)

// schemaSrc constrains the service-level configuration. Per-policy tables
// (module label entries of preDefinedOffset/preDefinedSeed) keep the struct
// open; the policies themselves check their own required keys.
const schemaSrc = `
#Config: {
	policy: "autoIncrement" | "linearMapping" | "preDefinedOffset" | "preDefinedSeed" | "random" | "perEvent"
	verbosity?:        int & >=0
	endOfJobSummary?:  bool
	baseSeed?:         int & >=0
	nJob?:             int & >=0
	maxUniqueEngines?: int & >0
	checkRange?:       bool
	masterSeed?:       int & >=0
	algorithm?:        string
	offset?:           int
	initSeedPolicy?:   {...}
	...
}
`

// Validate checks a service configuration tree against the embedded schema.
// It catches the structural mistakes a policy constructor would otherwise
// report one at a time: a bad policy name, a negative count, a boolean where
// an integer belongs.
func Validate(t *Tree) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return seed.ConfigError("internal schema error: %v", err)
	}

	val := ctx.Encode(t.Raw())
	if err := val.Err(); err != nil {
		return seed.ConfigError("cannot encode configuration: %v", err)
	}

	// Concrete: a missing required field (like policy) is an error, not
	// merely an incomplete value.
	if err := schema.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return seed.ConfigError("invalid configuration:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}
