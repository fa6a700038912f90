package policy

import (
	"strings"

	"github.com/roach88/seedbank/internal/seed"
)

// Kind enumerates the supported seed policies. Undefined is deliberately
// first and is never a valid configured policy.
type Kind int

const (
	Undefined Kind = iota
	AutoIncrement
	LinearMapping
	PreDefinedOffset
	PreDefinedSeed
	Random
	PerEvent

	numKinds
)

var kindNames = [numKinds]string{
	Undefined:        "unDefined",
	AutoIncrement:    "autoIncrement",
	LinearMapping:    "linearMapping",
	PreDefinedOffset: "preDefinedOffset",
	PreDefinedSeed:   "preDefinedSeed",
	Random:           "random",
	PerEvent:         "perEvent",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unDefined"
	}
	return kindNames[k]
}

// Names lists the configuration names of all usable policies, in Kind order.
// Undefined is omitted.
func Names() []string {
	return append([]string(nil), kindNames[Undefined+1:]...)
}

// KindFromName resolves a configuration name to its Kind. Unknown names,
// and the placeholder "unDefined", are configuration errors.
func KindFromName(name string) (Kind, error) {
	for k := Undefined + 1; k < numKinds; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return Undefined, seed.ConfigError("unrecognized policy %q; known policies are: %s",
		name, strings.Join(Names(), ", "))
}
