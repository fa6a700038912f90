package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/seedbank/internal/seed"
)

type fakeHepEngine struct {
	value int64
	aux   int
	calls int
}

func (e *fakeHepEngine) SetSeed(value int64, aux int) {
	e.value, e.aux = value, aux
	e.calls++
}

type fakeRootEngine struct {
	value uint64
	calls int
}

func (e *fakeRootEngine) SetSeed(value uint64) {
	e.value = value
	e.calls++
}

func TestHepEngineSeeder(t *testing.T) {
	engine := &fakeHepEngine{}
	seeder := HepEngineSeeder(engine)

	seeder(seed.NewEngineID("gen", ""), 12345)
	assert.Equal(t, int64(12345), engine.value)
	assert.Equal(t, 0, engine.aux)
	assert.Equal(t, 1, engine.calls)
}

func TestRootEngineSeeder(t *testing.T) {
	engine := &fakeRootEngine{}
	seeder := RootEngineSeeder(engine)

	seeder(seed.NewEngineID("gen", ""), 54321)
	assert.Equal(t, uint64(54321), engine.value)
	assert.Equal(t, 1, engine.calls)
}
