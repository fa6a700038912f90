package policy

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/seed"
)

// autoIncrement hands out baseSeed, baseSeed+1, ... in registration order.
type autoIncrement struct {
	first seed.Seed
	next  seed.Seed
	rc    rangeCheck
}

func newAutoIncrement(cfg *config.Tree) (*autoIncrement, error) {
	p := &autoIncrement{}
	if err := p.rc.configure(AutoIncrement, cfg); err != nil {
		return nil, err
	}
	base, err := requireUint(AutoIncrement, cfg, "baseSeed")
	if err != nil {
		return nil, err
	}
	p.first = seed.Seed(base)
	p.next = p.first
	p.rc.base = p.first
	return p, nil
}

func (p *autoIncrement) Kind() Kind { return AutoIncrement }

func (p *autoIncrement) Seed(id seed.EngineID) (seed.Seed, error) {
	s := p.next
	p.next++
	if err := p.rc.ensure(AutoIncrement, id, s); err != nil {
		return seed.Invalid, err
	}
	return s, nil
}

func (p *autoIncrement) EventSeed(seed.EngineID, seed.EventData) (seed.Seed, error) {
	return seed.Invalid, nil
}

func (p *autoIncrement) YieldsUniqueSeeds() bool { return true }

func (p *autoIncrement) Describe(w io.Writer) {
	fmt.Fprintf(w, "seed policy: %q", AutoIncrement)
	p.rc.describe(w)
	fmt.Fprintf(w, "\n  first seed: %d", p.first)
}

// linearMapping reserves a window of maxUniqueEngines seeds per job and
// hands out maxUniqueEngines*nJob, +1, ... within it.
type linearMapping struct {
	first        seed.Seed
	next         seed.Seed
	seedsPerJob  uint64
	rc           rangeCheck
}

func newLinearMapping(cfg *config.Tree) (*linearMapping, error) {
	p := &linearMapping{}
	if err := p.rc.configure(LinearMapping, cfg); err != nil {
		return nil, err
	}

	nJob, ok, err := cfg.GetUint("nJob")
	if err != nil {
		return nil, err
	}
	if !ok {
		// baseSeed used to spell nJob; accepted with a warning.
		nJob, ok, err = cfg.GetUint("baseSeed")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, seed.ConfigError("policy %q: missing required key %q", LinearMapping, "nJob")
		}
		slog.Warn("'baseSeed' is deprecated for the linearMapping policy, use 'nJob'")
	}

	p.seedsPerJob, err = requireUint(LinearMapping, cfg, "maxUniqueEngines")
	if err != nil {
		return nil, err
	}

	p.first = seed.Seed(p.seedsPerJob * nJob)
	p.next = p.first
	p.rc.base = p.first
	p.rc.max = p.seedsPerJob
	return p, nil
}

func (p *linearMapping) Kind() Kind { return LinearMapping }

func (p *linearMapping) Seed(id seed.EngineID) (seed.Seed, error) {
	s := p.next
	p.next++
	if err := p.rc.ensure(LinearMapping, id, s); err != nil {
		return seed.Invalid, err
	}
	return s, nil
}

func (p *linearMapping) EventSeed(seed.EngineID, seed.EventData) (seed.Seed, error) {
	return seed.Invalid, nil
}

func (p *linearMapping) YieldsUniqueSeeds() bool { return true }

func (p *linearMapping) Describe(w io.Writer) {
	fmt.Fprintf(w, "seed policy: %q", LinearMapping)
	p.rc.describe(w)
	fmt.Fprintf(w, "\n  first seed:    %d", p.first)
	fmt.Fprintf(w, "\n  seeds per job: %d", p.seedsPerJob)
}

// preDefinedOffset reads a per-engine offset table from the configuration
// and serves baseSeed+offset.
type preDefinedOffset struct {
	base  seed.Seed
	table *config.Tree
	rc    rangeCheck
}

func newPreDefinedOffset(cfg *config.Tree) (*preDefinedOffset, error) {
	p := &preDefinedOffset{table: cfg}
	if err := p.rc.configure(PreDefinedOffset, cfg); err != nil {
		return nil, err
	}
	base, err := requireUint(PreDefinedOffset, cfg, "baseSeed")
	if err != nil {
		return nil, err
	}
	p.base = seed.Seed(base)
	p.rc.base = p.base
	return p, nil
}

func (p *preDefinedOffset) Kind() Kind { return PreDefinedOffset }

func (p *preDefinedOffset) Seed(id seed.EngineID) (seed.Seed, error) {
	off, err := instanceValue(p.table, id)
	if err != nil {
		return seed.Invalid, err
	}
	s := p.base + seed.Seed(off)
	if err := p.rc.ensure(PreDefinedOffset, id, s); err != nil {
		return seed.Invalid, err
	}
	return s, nil
}

func (p *preDefinedOffset) EventSeed(seed.EngineID, seed.EventData) (seed.Seed, error) {
	return seed.Invalid, nil
}

func (p *preDefinedOffset) YieldsUniqueSeeds() bool { return true }

func (p *preDefinedOffset) Describe(w io.Writer) {
	fmt.Fprintf(w, "seed policy: %q", PreDefinedOffset)
	p.rc.describe(w)
	fmt.Fprintf(w, "\n  base seed: %d", p.base)
}

// preDefinedSeed serves seeds verbatim from a per-engine table. No range
// check, no uniqueness guarantee; meant for debugging.
type preDefinedSeed struct {
	table *config.Tree
}

func newPreDefinedSeed(cfg *config.Tree) (*preDefinedSeed, error) {
	return &preDefinedSeed{table: cfg}, nil
}

func (p *preDefinedSeed) Kind() Kind { return PreDefinedSeed }

func (p *preDefinedSeed) Seed(id seed.EngineID) (seed.Seed, error) {
	v, err := instanceValue(p.table, id)
	if err != nil {
		return seed.Invalid, err
	}
	return seed.Seed(v), nil
}

func (p *preDefinedSeed) EventSeed(seed.EngineID, seed.EventData) (seed.Seed, error) {
	return seed.Invalid, nil
}

func (p *preDefinedSeed) YieldsUniqueSeeds() bool { return false }

func (p *preDefinedSeed) Describe(w io.Writer) {
	fmt.Fprintf(w, "seed policy: %q", PreDefinedSeed)
	fmt.Fprint(w, "\n  seeds taken directly from the configuration")
}
