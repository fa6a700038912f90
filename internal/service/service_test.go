package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/master"
	"github.com/roach88/seedbank/internal/seed"
)

const testProcess = "TestJob"

func newService(t *testing.T, cfg map[string]any, opts ...Option) *Service {
	t.Helper()
	s, err := New(config.New(cfg), opts...)
	require.NoError(t, err)
	return s
}

func autoIncrementService(t *testing.T, opts ...Option) *Service {
	return newService(t, map[string]any{
		"policy": "autoIncrement", "baseSeed": 100, "checkRange": false,
	}, opts...)
}

// inModule runs fn with the service in the construction phase of module
// label, the way the host would during that module's constructor.
func inModule(t *testing.T, s *Service, label string, fn func()) {
	t.Helper()
	require.NoError(t, s.PreModuleConstruction(ModuleInfo{Label: label, Process: testProcess}))
	fn()
	require.NoError(t, s.PostModuleConstruction())
}

// collectSeeder returns a seeder appending every pushed seed to a slice.
func collectSeeder(dst *[]seed.Seed) master.Seeder {
	return func(_ seed.EngineID, s seed.Seed) { *dst = append(*dst, s) }
}

func TestService_RegisterEngine_SeedsBeforeReturn(t *testing.T) {
	s := autoIncrementService(t)

	var pushed []seed.Seed
	inModule(t, s, "gen", func() {
		value, err := s.RegisterEngine(collectSeeder(&pushed), "")
		require.NoError(t, err)
		assert.Equal(t, seed.Seed(100), value)
		assert.Equal(t, []seed.Seed{100}, pushed, "the seeder runs before registration returns")
	})

	assert.Equal(t, seed.Seed(100), s.CurrentSeedFor("gen", ""))
}

func TestService_RegisterEngine_DuplicateIsLogicError(t *testing.T) {
	s := autoIncrementService(t)
	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(nil, "x")
		require.NoError(t, err)
		_, err = s.RegisterEngine(nil, "x")
		require.Error(t, err)
		assert.True(t, seed.IsLogicError(err))
	})
}

func TestService_RegisterEngine_OutsideConstructionPhase(t *testing.T) {
	s := autoIncrementService(t)

	// Construct one module so the job can reach the event phase.
	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(nil, "")
		require.NoError(t, err)
	})

	require.NoError(t, s.PreProcessEvent(EventInfo{Run: 1, TimeValid: true}))
	require.NoError(t, s.PreModule(ModuleInfo{Label: "gen", Process: testProcess}))

	_, err := s.RegisterEngine(nil, "late")
	require.Error(t, err)
	assert.True(t, seed.IsLogicError(err), "registration during an event must fail")
}

func TestService_RegisterEngine_NoCurrentModule(t *testing.T) {
	s := autoIncrementService(t)
	_, err := s.RegisterEngine(nil, "x")
	require.Error(t, err)
	assert.True(t, seed.IsLogicError(err))
}

func TestService_GlobalEngine_OnlyDuringServiceConstruction(t *testing.T) {
	s := autoIncrementService(t)

	// Service construction is the window for global engines.
	var pushed []seed.Seed
	value, err := s.RegisterGlobalEngine(collectSeeder(&pushed), "pool")
	require.NoError(t, err)
	assert.Equal(t, seed.Seed(100), value)
	assert.Equal(t, []seed.Seed{100}, pushed)

	// After the first module construction the window is closed.
	inModule(t, s, "gen", func() {
		_, err := s.RegisterGlobalEngine(nil, "late")
		require.Error(t, err)
		assert.True(t, seed.IsLogicError(err))
	})
}

func TestService_Override_Explicit(t *testing.T) {
	s := autoIncrementService(t)

	var pushed []seed.Seed
	inModule(t, s, "gen", func() {
		value, err := s.RegisterEngineWithOverride(collectSeeder(&pushed), "", 42)
		require.NoError(t, err)
		assert.Equal(t, seed.Seed(42), value)
		assert.Equal(t, []seed.Seed{42}, pushed, "the override itself is pushed")
	})

	assert.Equal(t, seed.Seed(42), s.CurrentSeedFor("gen", ""))
	assert.True(t, s.Master().IsFrozen(seed.NewEngineID("gen", "")))
}

func TestService_Override_InvalidMeansAbsent(t *testing.T) {
	s := autoIncrementService(t)
	inModule(t, s, "gen", func() {
		value, err := s.RegisterEngineWithOverride(nil, "", seed.Invalid)
		require.NoError(t, err)
		assert.Equal(t, seed.Seed(100), value, "no override: the policy decides")
	})
	assert.False(t, s.Master().IsFrozen(seed.NewEngineID("gen", "")))
}

func TestService_Override_FromConfig(t *testing.T) {
	tests := []struct {
		name       string
		pset       map[string]any
		wantSeed   seed.Seed
		wantFrozen bool
	}{
		{"first candidate wins", map[string]any{"Seed": 42}, 42, true},
		{"zero is the documented escape", map[string]any{"Seed": 0, "MySeed": 7}, 7, true},
		{"no candidate present", map[string]any{}, 100, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := autoIncrementService(t)
			inModule(t, s, "M", func() {
				_, err := s.RegisterEngineFromConfig(nil, "", config.New(tc.pset), "Seed", "MySeed")
				require.NoError(t, err)
			})
			assert.Equal(t, tc.wantSeed, s.CurrentSeedFor("M", ""))
			assert.Equal(t, tc.wantFrozen, s.Master().IsFrozen(seed.NewEngineID("M", "")))
		})
	}
}

func TestService_Override_FrozenEngineNeverReseeded(t *testing.T) {
	s := newService(t, map[string]any{"policy": "perEvent"})

	var pushed []seed.Seed
	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngineWithOverride(collectSeeder(&pushed), "", 42)
		require.NoError(t, err)
	})
	require.Equal(t, []seed.Seed{42}, pushed)

	require.NoError(t, s.PreProcessEvent(EventInfo{Run: 1, SubRun: 1, Event: 1, Time: 5, TimeValid: true}))
	require.NoError(t, s.PreModule(ModuleInfo{Label: "gen", Process: testProcess}))

	assert.Equal(t, []seed.Seed{42}, pushed, "no policy reseed reaches a frozen engine")
	assert.Equal(t, seed.Seed(42), s.CurrentSeedFor("gen", ""))
}

func TestService_ThreeStepRegistration(t *testing.T) {
	s := autoIncrementService(t)

	var pushed []seed.Seed
	inModule(t, s, "gen", func() {
		declared, err := s.DeclareEngine("x")
		require.NoError(t, err)
		assert.Equal(t, seed.Seed(100), declared)

		defined, err := s.DefineEngine(collectSeeder(&pushed), "x")
		require.NoError(t, err)
		assert.Equal(t, declared, defined)
		assert.Equal(t, []seed.Seed{100}, pushed, "define pushes the declared seed")
	})
}

func TestService_DefineEngine_Errors(t *testing.T) {
	s := autoIncrementService(t)
	inModule(t, s, "gen", func() {
		// Define without declare.
		_, err := s.DefineEngine(nil, "ghost")
		require.Error(t, err)
		assert.True(t, seed.IsLogicError(err))

		// Define twice.
		_, err = s.DeclareEngine("x")
		require.NoError(t, err)
		_, err = s.DefineEngine(func(seed.EngineID, seed.Seed) {}, "x")
		require.NoError(t, err)
		_, err = s.DefineEngine(func(seed.EngineID, seed.Seed) {}, "x")
		require.Error(t, err)
		assert.True(t, seed.IsLogicError(err))
	})
}

func TestService_GetSeed_LazyDeclareFreezesOutRegistration(t *testing.T) {
	s := autoIncrementService(t)
	inModule(t, s, "gen", func() {
		value, err := s.GetSeed("x")
		require.NoError(t, err)
		assert.Equal(t, seed.Seed(100), value)

		// The implicit declaration blocks a later real registration.
		_, err = s.RegisterEngine(nil, "x")
		require.Error(t, err)
		assert.True(t, seed.IsLogicError(err))

		// But a repeated query is fine and stable.
		again, err := s.GetSeed("x")
		require.NoError(t, err)
		assert.Equal(t, value, again)
	})
}

func TestService_SeedFor_RequiresRegistration(t *testing.T) {
	s := autoIncrementService(t)

	_, err := s.SeedFor("gen", "x")
	require.Error(t, err)
	assert.True(t, seed.IsLogicError(err))

	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(nil, "x")
		require.NoError(t, err)
	})

	value, err := s.SeedFor("gen", "x")
	require.NoError(t, err)
	assert.Equal(t, seed.Seed(100), value)
}

func TestService_GetCurrentSeed(t *testing.T) {
	s := autoIncrementService(t)
	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(nil, "")
		require.NoError(t, err)
		current, err := s.GetCurrentSeed("")
		require.NoError(t, err)
		assert.Equal(t, seed.Seed(100), current)
	})
}

func TestService_New_RejectsBadConfig(t *testing.T) {
	_, err := New(config.New(map[string]any{"policy": "bogus"}))
	require.Error(t, err)
	assert.True(t, seed.IsConfigurationError(err))

	_, err = New(config.New(map[string]any{}))
	require.Error(t, err)
	assert.True(t, seed.IsConfigurationError(err))
}

func TestService_LinearMapping_RangeViolation(t *testing.T) {
	s := newService(t, map[string]any{
		"policy": "linearMapping", "nJob": 5, "maxUniqueEngines": 2,
	})

	inModule(t, s, "a", func() {
		v, err := s.RegisterEngine(nil, "")
		require.NoError(t, err)
		assert.Equal(t, seed.Seed(10), v)
	})
	inModule(t, s, "b", func() {
		v, err := s.RegisterEngine(nil, "")
		require.NoError(t, err)
		assert.Equal(t, seed.Seed(11), v)
	})
	inModule(t, s, "c", func() {
		_, err := s.RegisterEngine(nil, "")
		require.Error(t, err)
		assert.True(t, seed.IsConfigurationError(err))
	})
}
