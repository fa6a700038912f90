package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/seedbank/internal/audit"
	"github.com/roach88/seedbank/internal/seed"
)

// push records which engine got which seed, in order.
type push struct {
	id seed.EngineID
	s  seed.Seed
}

func recordSeeder(dst *[]push) func(seed.EngineID, seed.Seed) {
	return func(id seed.EngineID, s seed.Seed) { *dst = append(*dst, push{id, s}) }
}

func eventOne() EventInfo {
	return EventInfo{Run: 1, SubRun: 2, Event: 3, Time: 12345, TimeValid: true}
}

func eventTwo() EventInfo {
	return EventInfo{Run: 1, SubRun: 2, Event: 4, Time: 12346, TimeValid: true}
}

func TestService_PerEventReseeding_GlobalsBeforeModules(t *testing.T) {
	s := newService(t, map[string]any{"policy": "perEvent"})

	var pushes []push
	_, err := s.RegisterGlobalEngine(recordSeeder(&pushes), "pool")
	require.NoError(t, err)

	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(recordSeeder(&pushes), "")
		require.NoError(t, err)
	})
	pushes = nil // registration itself pushes nothing under bare perEvent

	require.NoError(t, s.PreProcessEvent(eventOne()))
	require.Len(t, pushes, 1, "the global engine is reseeded at event start")
	assert.Equal(t, seed.GlobalEngineID("pool"), pushes[0].id)

	require.NoError(t, s.PreModule(ModuleInfo{Label: "gen", Process: testProcess}))
	require.Len(t, pushes, 2, "the module engine is reseeded before the module runs")
	assert.Equal(t, seed.NewEngineID("gen", ""), pushes[1].id)

	require.NoError(t, s.PostModule())
	require.NoError(t, s.PostProcessEvent())

	// A second, different event gives different seeds.
	require.NoError(t, s.PreProcessEvent(eventTwo()))
	require.NoError(t, s.PreModule(ModuleInfo{Label: "gen", Process: testProcess}))
	require.Len(t, pushes, 4)
	assert.NotEqual(t, pushes[0].s, pushes[2].s)
	assert.NotEqual(t, pushes[1].s, pushes[3].s)

	require.NoError(t, s.PostModule())
	require.NoError(t, s.PostProcessEvent())
}

func TestService_PerEventReseeding_SameEventIsStable(t *testing.T) {
	s := newService(t, map[string]any{"policy": "perEvent"})

	var pushes []push
	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(recordSeeder(&pushes), "")
		require.NoError(t, err)
	})

	run := func() seed.Seed {
		require.NoError(t, s.PreProcessEvent(eventOne()))
		require.NoError(t, s.PreModule(ModuleInfo{Label: "gen", Process: testProcess}))
		require.NoError(t, s.PostModule())
		require.NoError(t, s.PostProcessEvent())
		return pushes[len(pushes)-1].s
	}

	first := run()
	second := run()
	assert.Equal(t, first, second, "replaying the same event reproduces the seed")
}

func TestService_PreModule_OnlyReseedsMatchingModule(t *testing.T) {
	s := newService(t, map[string]any{"policy": "perEvent"})

	var genPushes, fitPushes []push
	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(recordSeeder(&genPushes), "")
		require.NoError(t, err)
	})
	inModule(t, s, "fit", func() {
		_, err := s.RegisterEngine(recordSeeder(&fitPushes), "")
		require.NoError(t, err)
	})

	require.NoError(t, s.PreProcessEvent(eventOne()))
	require.NoError(t, s.PreModule(ModuleInfo{Label: "gen", Process: testProcess}))

	assert.Len(t, genPushes, 1)
	assert.Empty(t, fitPushes, "other modules' engines stay untouched")
}

func TestService_NonEventPolicy_NoReseedDuringEvents(t *testing.T) {
	s := autoIncrementService(t)

	var pushes []push
	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(recordSeeder(&pushes), "")
		require.NoError(t, err)
	})
	require.Len(t, pushes, 1, "only the registration push")

	require.NoError(t, s.PreProcessEvent(eventOne()))
	require.NoError(t, s.PreModule(ModuleInfo{Label: "gen", Process: testProcess}))
	assert.Len(t, pushes, 1, "a job-level policy yields no per-event seeds")
}

func TestService_PostEndJob_Summary(t *testing.T) {
	var out bytes.Buffer
	s := newService(t, map[string]any{
		"policy": "autoIncrement", "baseSeed": 100, "checkRange": false,
		"endOfJobSummary": true,
	}, WithSummaryWriter(&out))

	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(nil, "")
		require.NoError(t, err)
	})

	require.NoError(t, s.PreModuleEndJob(ModuleInfo{Label: "gen", Process: testProcess}))
	require.NoError(t, s.PostModuleEndJob())
	require.NoError(t, s.PostEndJob())

	assert.Contains(t, out.String(), "Summary of the seeds")
	assert.Contains(t, out.String(), "gen")
}

func TestService_PostEndJob_QuietByDefault(t *testing.T) {
	var out bytes.Buffer
	s := autoIncrementService(t, WithSummaryWriter(&out))
	require.NoError(t, s.PostEndJob())
	assert.Empty(t, out.String())
}

func TestService_CallbackPairing(t *testing.T) {
	s := autoIncrementService(t)

	err := s.PostModule()
	require.Error(t, err)
	assert.True(t, seed.IsLogicError(err))

	err = s.PreModule(ModuleInfo{Label: "gen", Process: testProcess})
	require.Error(t, err, "module event processing cannot start outside an event")
	assert.True(t, seed.IsLogicError(err))
}

func TestService_AuditTrail(t *testing.T) {
	log, err := audit.Open(":memory:")
	require.NoError(t, err)
	defer log.Close()

	s := newService(t, map[string]any{
		"policy": "perEvent",
		"initSeedPolicy": map[string]any{
			"policy": "autoIncrement", "baseSeed": 100, "checkRange": false,
		},
	}, WithAudit(log))

	inModule(t, s, "gen", func() {
		_, err := s.RegisterEngine(func(seed.EngineID, seed.Seed) {}, "")
		require.NoError(t, err)
	})
	inModule(t, s, "fix", func() {
		_, err := s.RegisterEngineWithOverride(func(seed.EngineID, seed.Seed) {}, "", 42)
		require.NoError(t, err)
	})

	require.NoError(t, s.PreProcessEvent(eventOne()))
	require.NoError(t, s.PreModule(ModuleInfo{Label: "gen", Process: testProcess}))
	require.NoError(t, s.PostModule())
	require.NoError(t, s.PostProcessEvent())

	rows, err := log.Assignments()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, audit.SourceConfigured, rows[0].Source)
	assert.Equal(t, "gen", rows[0].Engine)
	assert.Equal(t, uint32(100), rows[0].Seed)

	assert.Equal(t, audit.SourceOverride, rows[1].Source)
	assert.Equal(t, uint32(42), rows[1].Seed)

	assert.Equal(t, audit.SourceEvent, rows[2].Source)
	assert.Equal(t, "gen", rows[2].Engine)
	assert.Equal(t, uint32(3), rows[2].Event, "event identity is stamped on per-event rows")
}
