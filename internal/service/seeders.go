package service

import (
	"github.com/roach88/seedbank/internal/master"
	"github.com/roach88/seedbank/internal/seed"
)

// The two engine families the host cares about expose slightly different
// seeding calls; these wrappers adapt either into a master.Seeder.

// HepStyleEngine is the seeding surface of a CLHEP-style random engine:
// the second argument is an auxiliary sequence index, always 0 here.
type HepStyleEngine interface {
	SetSeed(value int64, aux int)
}

// HepEngineSeeder wraps a CLHEP-style engine as a seeder.
func HepEngineSeeder(e HepStyleEngine) master.Seeder {
	return func(_ seed.EngineID, s seed.Seed) {
		e.SetSeed(int64(s), 0)
	}
}

// RootStyleEngine is the seeding surface of a ROOT-style random generator.
type RootStyleEngine interface {
	SetSeed(value uint64)
}

// RootEngineSeeder wraps a ROOT-style generator as a seeder.
func RootEngineSeeder(e RootStyleEngine) master.Seeder {
	return func(_ seed.EngineID, s seed.Seed) {
		e.SetSeed(uint64(s))
	}
}
