package policy

import (
	"log/slog"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/seed"
)

// Keys every policy configuration may carry.
var commonKeys = map[string]bool{
	"policy":          true,
	"verbosity":       true,
	"endOfJobSummary": true,
}

// Fixed key sets for the policies that do not embed per-engine tables.
// preDefinedOffset and preDefinedSeed accept arbitrary module labels, so
// they cannot be checked this way.
var fixedKeys = map[Kind][]string{
	AutoIncrement: {"baseSeed", "maxUniqueEngines", "checkRange"},
	LinearMapping: {"nJob", "baseSeed", "maxUniqueEngines", "checkRange"},
	Random:        {"masterSeed"},
	PerEvent:      {"algorithm", "offset", "initSeedPolicy"},
}

// New builds the policy named by the "policy" key of cfg. The whole tree is
// handed to the policy so that table-driven policies can read their
// per-engine entries from it.
func New(cfg *config.Tree) (Policy, error) {
	name, ok, err := cfg.GetString("policy")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, seed.ConfigError("missing required key %q", "policy")
	}

	kind, err := KindFromName(name)
	if err != nil {
		return nil, err
	}

	warnUnknownKeys(kind, cfg)

	switch kind {
	case AutoIncrement:
		return newAutoIncrement(cfg)
	case LinearMapping:
		return newLinearMapping(cfg)
	case PreDefinedOffset:
		return newPreDefinedOffset(cfg)
	case PreDefinedSeed:
		return newPreDefinedSeed(cfg)
	case Random:
		return newRandomPolicy(cfg)
	case PerEvent:
		return newPerEvent(cfg)
	default:
		return nil, seed.ConfigError("internal error: unhandled policy %q", name)
	}
}

// warnUnknownKeys flags keys the selected policy will never read. The host
// validator may reject them outright; here they only warn.
func warnUnknownKeys(kind Kind, cfg *config.Tree) {
	fixed, ok := fixedKeys[kind]
	if !ok {
		return
	}
	known := make(map[string]bool, len(commonKeys)+len(fixed))
	for k := range commonKeys {
		known[k] = true
	}
	for _, k := range fixed {
		known[k] = true
	}
	for _, k := range cfg.Keys() {
		if !known[k] {
			slog.Warn("configuration key not recognized by policy", "policy", kind.String(), "key", k)
		}
	}
}
