package master

import (
	"log/slog"
	"sort"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/policy"
	"github.com/roach88/seedbank/internal/seed"
)

// Seeder pushes a seed into a real random engine. A nil Seeder is legal and
// means the engine was only declared: the master tracks its seed but cannot
// reseed it.
type Seeder func(id seed.EngineID, s seed.Seed)

// engineInfo is the per-engine record. Once frozen, no policy-driven reseed
// touches the engine again.
type engineInfo struct {
	seeder Seeder
	frozen bool
}

func (e *engineInfo) hasSeeder() bool { return e.seeder != nil }

// apply invokes the seeder, if any.
func (e *engineInfo) apply(id seed.EngineID, s seed.Seed) {
	if e.seeder != nil {
		e.seeder(id, s)
	}
}

// Master assigns seeds to engines according to its configured policy.
type Master struct {
	verbosity int
	pol       policy.Policy

	// Seeds computed from configuration, one per engine, stable for the
	// whole job (unless overridden).
	configured map[seed.EngineID]seed.Seed

	// Seeds computed for the event being processed; cleared on every
	// event boundary.
	knownEvent map[seed.EngineID]seed.Seed

	// The seed most recently assigned to each engine, kept for
	// observation only.
	current map[seed.EngineID]seed.Seed

	engines map[seed.EngineID]*engineInfo

	log *slog.Logger
}

// New builds a master from a policy configuration tree.
func New(cfg *config.Tree) (*Master, error) {
	pol, err := policy.New(cfg)
	if err != nil {
		return nil, err
	}

	verbosity, _, err := cfg.GetInt("verbosity")
	if err != nil {
		return nil, err
	}

	m := &Master{
		verbosity:  int(verbosity),
		pol:        pol,
		configured: map[seed.EngineID]seed.Seed{},
		knownEvent: map[seed.EngineID]seed.Seed{},
		current:    map[seed.EngineID]seed.Seed{},
		engines:    map[seed.EngineID]*engineInfo{},
		log:        slog.Default().With("component", "seedmaster"),
	}
	if m.verbosity > 0 {
		m.log.Info("seed master configured", "policy", pol.Kind().String())
	}
	return m, nil
}

// Policy exposes the active policy.
func (m *Master) Policy() policy.Policy { return m.pol }

// HasEngine reports whether id was ever registered.
func (m *Master) HasEngine(id seed.EngineID) bool {
	_, ok := m.engines[id]
	return ok
}

// HasSeeder reports whether id is registered with a non-nil seeder.
func (m *Master) HasSeeder(id seed.EngineID) bool {
	info, ok := m.engines[id]
	return ok && info.hasSeeder()
}

// IsFrozen reports whether id holds an overridden seed.
func (m *Master) IsFrozen(id seed.EngineID) bool {
	info, ok := m.engines[id]
	return ok && info.frozen
}

// EngineIDs returns all registered engine IDs, sorted.
func (m *Master) EngineIDs() []seed.EngineID {
	ids := make([]seed.EngineID, 0, len(m.engines))
	for id := range m.engines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// RegisterSeeder binds a seeder to id, creating the engine record if
// needed. No seed is computed.
func (m *Master) RegisterSeeder(id seed.EngineID, seeder Seeder) {
	info, ok := m.engines[id]
	if !ok {
		info = &engineInfo{}
		m.engines[id] = info
	}
	info.seeder = seeder
}

// RegisterNewSeeder is RegisterSeeder, except that a second registration of
// the same engine is a logic error.
func (m *Master) RegisterNewSeeder(id seed.EngineID, seeder Seeder) error {
	if m.HasEngine(id) {
		return seed.LogicErrorFor(id, "engine already registered")
	}
	m.RegisterSeeder(id, seeder)
	return nil
}

// FreezeSeed pins id to the given seed. Both the configured and the current
// value become s, and no policy-driven reseed will ever touch the engine.
func (m *Master) FreezeSeed(id seed.EngineID, s seed.Seed) error {
	info, ok := m.engines[id]
	if !ok {
		return seed.LogicErrorFor(id, "cannot freeze the seed of an engine never registered")
	}
	info.frozen = true
	m.configured[id] = s
	m.current[id] = s
	return nil
}

// GetSeed returns the configured seed for id, computing and caching it on
// first request. A valid computed seed also becomes the current one.
func (m *Master) GetSeed(id seed.EngineID) (seed.Seed, error) {
	if s, ok := m.configured[id]; ok {
		return s, nil
	}

	s, err := m.pol.Seed(id)
	if err != nil {
		return seed.Invalid, err
	}
	if m.pol.YieldsUniqueSeeds() {
		if err := m.ensureUnique(id, s, m.configured); err != nil {
			return seed.Invalid, err
		}
	}

	m.configured[id] = s

	// Per-event policies yield an invalid configured seed; record it as
	// current only when there is nothing yet, so a real assignment is
	// never shadowed.
	if seed.IsValid(s) {
		m.current[id] = s
	} else if _, ok := m.current[id]; !ok {
		m.current[id] = s
	}
	return s, nil
}

// GetEventSeed returns the per-event seed for id in the context of data,
// computing and caching it on first request within the event.
func (m *Master) GetEventSeed(data seed.EventData, id seed.EngineID) (seed.Seed, error) {
	if s, ok := m.knownEvent[id]; ok {
		return s, nil
	}

	s, err := m.pol.EventSeed(id, data)
	if err != nil {
		return seed.Invalid, err
	}
	if seed.IsValid(s) && m.pol.YieldsUniqueSeeds() {
		if err := m.ensureUnique(id, s, m.knownEvent); err != nil {
			return seed.Invalid, err
		}
	}

	m.knownEvent[id] = s

	// A frozen engine keeps its overridden value as current no matter
	// what the event would have given it.
	if info, ok := m.engines[id]; ok && info.frozen {
		return s, nil
	}
	if seed.IsValid(s) {
		m.current[id] = s
	} else if _, ok := m.current[id]; !ok {
		m.current[id] = s
	}
	return s, nil
}

// GetEventSeedByInstance is GetEventSeed for the engine of the currently
// running module, identified by instance name alone.
func (m *Master) GetEventSeedByInstance(data seed.EventData, instance string) (seed.Seed, error) {
	return m.GetEventSeed(data, seed.NewEngineID(data.ModuleLabel, instance))
}

// GetCurrentSeed returns the seed most recently assigned to id, or Invalid
// if none ever was. It never computes anything.
func (m *Master) GetCurrentSeed(id seed.EngineID) seed.Seed {
	return m.current[id]
}

// Reseed recomputes the configured seed for id and pushes it through the
// engine's seeder. Nothing happens, and Invalid is returned, when the
// engine has no seeder or is frozen.
func (m *Master) Reseed(id seed.EngineID) (seed.Seed, error) {
	info, ok := m.engines[id]
	if !ok || !info.hasSeeder() || info.frozen {
		return seed.Invalid, nil
	}
	s, err := m.GetSeed(id)
	if err != nil {
		return seed.Invalid, err
	}
	if seed.IsValid(s) {
		info.apply(id, s)
	}
	return s, nil
}

// ReseedEvent computes the event seed for id and pushes it through the
// seeder unless the engine is frozen. The event seed is returned either
// way, so callers can tell a frozen engine from a policy that yields no
// per-event seed.
func (m *Master) ReseedEvent(id seed.EngineID, data seed.EventData) (seed.Seed, error) {
	info, ok := m.engines[id]
	if !ok {
		return seed.Invalid, seed.LogicErrorFor(id, "cannot reseed an engine never registered")
	}
	s, err := m.GetEventSeed(data, id)
	if err != nil {
		return seed.Invalid, err
	}
	if seed.IsValid(s) && !info.frozen {
		info.apply(id, s)
	}
	return s, nil
}

// OnNewEvent forgets every per-event seed.
func (m *Master) OnNewEvent() {
	clear(m.knownEvent)
}

// ensureUnique scans seeds for another engine already holding s.
func (m *Master) ensureUnique(id seed.EngineID, s seed.Seed, seeds map[seed.EngineID]seed.Seed) error {
	for other, held := range seeds {
		if other == id {
			continue
		}
		if held == s {
			return seed.UniquenessError(id, other, s)
		}
	}
	return nil
}
