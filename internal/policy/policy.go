package policy

import (
	"fmt"
	"io"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/seed"
)

// Policy maps engine IDs to seeds. Implementations are pure apart from the
// internal counters of the incremental policies and the PRNG of the random
// policy; calling Seed twice for distinct IDs advances those.
//
// EventSeed returns seed.Invalid for policies that do not depend on the
// event; only the perEvent policy computes a real per-event value.
type Policy interface {
	// Kind tags which of the closed set of policies this is.
	Kind() Kind

	// Seed computes the configured (per-job) seed for an engine.
	Seed(id seed.EngineID) (seed.Seed, error)

	// EventSeed computes the seed for an engine in the context of one event.
	EventSeed(id seed.EngineID, data seed.EventData) (seed.Seed, error)

	// YieldsUniqueSeeds reports whether the master must reject two engines
	// holding the same value from this policy.
	YieldsUniqueSeeds() bool

	// Describe writes a short human-readable account of the configuration,
	// used at the top of the end-of-job summary.
	Describe(w io.Writer)
}

// rangeCheck verifies that computed seeds stay within
// [base, base+max): the window the job coordinator reserved for this job.
type rangeCheck struct {
	enabled bool
	base    seed.Seed
	max     uint64
}

// configure reads checkRange (default true) and, when the check is enabled,
// the mandatory maxUniqueEngines.
func (rc *rangeCheck) configure(kind Kind, cfg *config.Tree) error {
	enabled, ok, err := cfg.GetBool("checkRange")
	if err != nil {
		return err
	}
	rc.enabled = !ok || enabled

	n, ok, err := cfg.GetUint("maxUniqueEngines")
	if err != nil {
		return err
	}
	if ok {
		rc.max = n
	} else if rc.enabled {
		return seed.ConfigError("configuration of policy %q incomplete: maxUniqueEngines is required when checkRange is enabled", kind)
	}
	return nil
}

// ensure rejects a seed outside the reserved window.
func (rc *rangeCheck) ensure(kind Kind, id seed.EngineID, s seed.Seed) error {
	if !rc.enabled {
		return nil
	}
	if uint64(s) >= uint64(rc.base) && uint64(s) < uint64(rc.base)+rc.max {
		return nil
	}
	return seed.ConfigErrorFor(id,
		"policy %q produced seed %d, offset %d from base %d; allowed offsets are 0..%d (as configured in maxUniqueEngines)",
		kind, s, int64(s)-int64(rc.base), rc.base, int64(rc.max)-1)
}

func (rc *rangeCheck) describe(w io.Writer) {
	if rc.enabled {
		fmt.Fprintf(w, "\n  maximum number of seeds: %d", rc.max)
	} else {
		fmt.Fprint(w, "\n  no limit on number of seeds")
	}
}

// instanceValue resolves the table entry for an engine in the per-engine
// grammar shared by preDefinedOffset and preDefinedSeed:
//
//	moduleLabel: value              # nameless engine
//	moduleLabel: {instance: value}  # named engine instances
//
// Global engines look their instance name up at the top level.
func instanceValue(cfg *config.Tree, id seed.EngineID) (uint64, error) {
	if id.IsGlobal() {
		if cfg.IsTree(id.Instance) {
			return 0, seed.ConfigErrorFor(id,
				"a seed for a global engine was requested, but the configuration sets named instances under %q", id.Instance)
		}
		v, ok, err := cfg.GetUint(id.Instance)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, seed.ConfigErrorFor(id, "no entry configured for global engine %q", id.Instance)
		}
		return v, nil
	}

	if !cfg.Has(id.Module) {
		return 0, seed.ConfigErrorFor(id, "no entry configured for module label %q", id.Module)
	}

	if !id.HasInstance() {
		if cfg.IsTree(id.Module) {
			return 0, seed.ConfigErrorFor(id,
				"the configuration sets named instances under %q; nameless and named engine instances cannot coexist", id.Module)
		}
		v, ok, err := cfg.GetUint(id.Module)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, seed.ConfigErrorFor(id, "no entry configured")
		}
		return v, nil
	}

	if !cfg.IsTree(id.Module) {
		return 0, seed.ConfigErrorFor(id,
			"the configuration sets a nameless instance of %q; nameless and named engine instances cannot coexist", id.Module)
	}
	sub, _ := cfg.Sub(id.Module)
	v, ok, err := sub.GetUint(id.Instance)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, seed.ConfigErrorFor(id, "no entry configured for instance %q of module %q", id.Instance, id.Module)
	}
	return v, nil
}

// requireUint reads a mandatory non-negative integer key.
func requireUint(kind Kind, cfg *config.Tree, key string) (uint64, error) {
	v, ok, err := cfg.GetUint(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, seed.ConfigError("policy %q: missing required key %q", kind, key)
	}
	return v, nil
}
