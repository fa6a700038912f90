package policy

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/seed"
)

// randomPolicy draws each seed from a private PRNG seeded once at
// construction. Quality does not matter here; reproducibility of a job
// requires recording the master seed.
type randomPolicy struct {
	master seed.Seed
	rng    *rand.Rand
}

func newRandomPolicy(cfg *config.Tree) (*randomPolicy, error) {
	master, ok, err := cfg.GetUint("masterSeed")
	if err != nil {
		return nil, err
	}
	if !ok {
		// No master seed configured: derive one from the wall clock.
		master = 1 + uint64(time.Now().UnixNano())%uint64(seed.ValidMax)
	}
	p := &randomPolicy{
		master: seed.Seed(master),
		rng:    rand.New(rand.NewSource(int64(master))),
	}
	return p, nil
}

func (p *randomPolicy) Kind() Kind { return Random }

func (p *randomPolicy) Seed(seed.EngineID) (seed.Seed, error) {
	span := int64(seed.ValidMax-seed.ValidMin) + 1
	return seed.ValidMin + seed.Seed(p.rng.Int63n(span)), nil
}

func (p *randomPolicy) EventSeed(seed.EngineID, seed.EventData) (seed.Seed, error) {
	return seed.Invalid, nil
}

// YieldsUniqueSeeds is true so that the master flags the (unlikely) case of
// the PRNG repeating a value within one job.
func (p *randomPolicy) YieldsUniqueSeeds() bool { return true }

func (p *randomPolicy) Describe(w io.Writer) {
	fmt.Fprintf(w, "seed policy: %q", Random)
	fmt.Fprintf(w, "\n  master seed: %d", p.master)
	fmt.Fprintf(w, "\n  seeds within: [ %d ; %d ]", seed.ValidMin, seed.ValidMax)
}
