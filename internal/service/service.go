package service

import (
	"io"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/roach88/seedbank/internal/audit"
	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/master"
	"github.com/roach88/seedbank/internal/seed"
)

// Service is the host-facing seed distribution service.
type Service struct {
	mu sync.Mutex

	seeds *master.Master
	state hostState

	verbosity    int
	summaryAtEnd bool
	out          io.Writer

	auditLog *audit.Log
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAudit attaches an assignment audit log. Every seed pushed into an
// engine is recorded there.
func WithAudit(l *audit.Log) Option {
	return func(s *Service) { s.auditLog = l }
}

// WithSummaryWriter redirects the end-of-job summary (default os.Stdout).
func WithSummaryWriter(w io.Writer) Option {
	return func(s *Service) { s.out = w }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New validates cfg, builds the seed master and enters the
// service-construction phase, during which global engines may register.
func New(cfg *config.Tree, opts ...Option) (*Service, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	m, err := master.New(cfg)
	if err != nil {
		return nil, err
	}

	verbosity, _, err := cfg.GetInt("verbosity")
	if err != nil {
		return nil, err
	}
	summary, _, err := cfg.GetBool("endOfJobSummary")
	if err != nil {
		return nil, err
	}

	s := &Service{
		seeds:        m,
		verbosity:    int(verbosity),
		summaryAtEnd: summary,
		out:          os.Stdout,
		log:          slog.Default().With("component", "seedservice"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.state.enter(PhaseServiceConstruction); err != nil {
		return nil, err
	}
	return s, nil
}

// Master exposes the underlying seed master, for inspection and summary
// printing. Callers must not drive it concurrently with the service.
func (s *Service) Master() *master.Master { return s.seeds }

// PrintSummary writes the seed summary table to w.
func (s *Service) PrintSummary(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds.Print(w)
}

// ---------------------------------------------------------------------------
// Registration: module-scoped engines

// RegisterEngine registers the engine of the current module with the given
// instance name, computes its seed from the policy, pushes it through the
// seeder, and returns it.
func (s *Service) RegisterEngine(seeder master.Seeder, instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.qualify(instance)
	if err != nil {
		return seed.Invalid, err
	}
	return s.registerEngineID(id, seeder, nil)
}

// RegisterEngineWithOverride is RegisterEngine with an explicit seed
// override. Passing seed.Invalid means "no override": the policy decides.
// A valid override freezes the engine: no policy-driven reseed will ever
// touch it.
func (s *Service) RegisterEngineWithOverride(seeder master.Seeder, instance string, override seed.Seed) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.qualify(instance)
	if err != nil {
		return seed.Invalid, err
	}
	var ov *seed.Seed
	if seed.IsValid(override) {
		ov = &override
	}
	return s.registerEngineID(id, seeder, ov)
}

// RegisterEngineFromConfig is RegisterEngine with the override looked up in
// the module's own configuration: the first of paramNames present with a
// non-zero value wins; a zero explicitly disables that candidate.
func (s *Service) RegisterEngineFromConfig(seeder master.Seeder, instance string, pset *config.Tree, paramNames ...string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.qualify(instance)
	if err != nil {
		return seed.Invalid, err
	}
	ov, err := readSeedParameter(pset, paramNames...)
	if err != nil {
		return seed.Invalid, err
	}
	return s.registerEngineID(id, seeder, ov)
}

// ---------------------------------------------------------------------------
// Registration: global engines

// RegisterGlobalEngine registers an engine owned by the job rather than by
// any module. Legal only during service construction.
func (s *Service) RegisterGlobalEngine(seeder master.Seeder, instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerEngineID(seed.GlobalEngineID(instance), seeder, nil)
}

// RegisterGlobalEngineWithOverride is RegisterGlobalEngine with an explicit
// override; seed.Invalid means none.
func (s *Service) RegisterGlobalEngineWithOverride(seeder master.Seeder, instance string, override seed.Seed) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ov *seed.Seed
	if seed.IsValid(override) {
		ov = &override
	}
	return s.registerEngineID(seed.GlobalEngineID(instance), seeder, ov)
}

// RegisterGlobalEngineFromConfig resolves the override from pset like
// RegisterEngineFromConfig does.
func (s *Service) RegisterGlobalEngineFromConfig(seeder master.Seeder, instance string, pset *config.Tree, paramNames ...string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov, err := readSeedParameter(pset, paramNames...)
	if err != nil {
		return seed.Invalid, err
	}
	return s.registerEngineID(seed.GlobalEngineID(instance), seeder, ov)
}

// ---------------------------------------------------------------------------
// Three-step registration

// DeclareEngine records the engine's existence with no seeder and returns
// its configured seed, for callers that need the seed before the engine
// object exists. Complete the registration later with DefineEngine.
func (s *Service) DeclareEngine(instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.qualify(instance)
	if err != nil {
		return seed.Invalid, err
	}
	return s.registerEngineID(id, nil, nil)
}

// DeclareEngineFromConfig is DeclareEngine with a config-resolved override.
func (s *Service) DeclareEngineFromConfig(instance string, pset *config.Tree, paramNames ...string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.qualify(instance)
	if err != nil {
		return seed.Invalid, err
	}
	ov, err := readSeedParameter(pset, paramNames...)
	if err != nil {
		return seed.Invalid, err
	}
	return s.registerEngineID(id, nil, ov)
}

// DeclareGlobalEngine declares a global engine with no seeder.
func (s *Service) DeclareGlobalEngine(instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerEngineID(seed.GlobalEngineID(instance), nil, nil)
}

// DefineEngine attaches a seeder to an engine previously declared by the
// current module, and immediately pushes the engine's seed through it.
// Defining an engine never declared, or one that already has a seeder, is
// a logic error.
func (s *Service) DefineEngine(seeder master.Seeder, instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.qualify(instance)
	if err != nil {
		return seed.Invalid, err
	}
	return s.defineEngineID(id, seeder)
}

// DefineGlobalEngine is DefineEngine for a global engine.
func (s *Service) DefineGlobalEngine(seeder master.Seeder, instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defineEngineID(seed.GlobalEngineID(instance), seeder)
}

// ---------------------------------------------------------------------------
// Seed queries

// GetSeed returns the configured seed of the current module's engine.
// Querying an engine never registered implicitly declares it with no
// seeder, which also freezes it out of any future registration.
func (s *Service) GetSeed(instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.qualify(instance)
	if err != nil {
		return seed.Invalid, err
	}
	return s.getSeedID(id)
}

// GetGlobalSeed is GetSeed for a global engine.
func (s *Service) GetGlobalSeed(instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSeedID(seed.GlobalEngineID(instance))
}

// SeedFor returns the configured seed of an explicitly named engine. This
// is the one entry point safe to call from any goroutine; in exchange it
// requires the engine to be registered already.
func (s *Service) SeedFor(moduleLabel, instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := seed.NewEngineID(moduleLabel, instance)
	if !s.seeds.HasEngine(id) {
		return seed.Invalid, seed.LogicErrorFor(id, "engine not registered; explicit-label queries do not declare engines")
	}
	return s.seeds.GetSeed(id)
}

// GetCurrentSeed returns the seed most recently assigned to the current
// module's engine, or seed.Invalid. Never computes anything.
func (s *Service) GetCurrentSeed(instance string) (seed.Seed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.qualify(instance)
	if err != nil {
		return seed.Invalid, err
	}
	return s.seeds.GetCurrentSeed(id), nil
}

// GetGlobalCurrentSeed is GetCurrentSeed for a global engine.
func (s *Service) GetGlobalCurrentSeed(instance string) seed.Seed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeds.GetCurrentSeed(seed.GlobalEngineID(instance))
}

// CurrentSeedFor is the explicit-label current-seed observation.
func (s *Service) CurrentSeedFor(moduleLabel, instance string) seed.Seed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeds.GetCurrentSeed(seed.NewEngineID(moduleLabel, instance))
}

// ---------------------------------------------------------------------------
// Internals

// qualify scopes a short instance name to the current module.
func (s *Service) qualify(instance string) (seed.EngineID, error) {
	label := s.state.moduleLabel()
	if label == "" {
		return seed.EngineID{}, seed.LogicError(
			"no module is current; cannot qualify engine instance %q", instance)
	}
	return seed.NewEngineID(label, instance), nil
}

// ensureValidPhase rejects registration outside the construction phases:
// global engines may only register while the service itself is being
// constructed, module engines only from a module constructor.
func (s *Service) ensureValidPhase(global bool) error {
	if global {
		if s.state.phase != PhaseServiceConstruction {
			return seed.LogicError(
				"global engines may only be registered during service construction (current phase: %s)", s.state.phase)
		}
		return nil
	}
	if s.state.phase != PhaseModuleConstruction {
		return seed.LogicError(
			"engines may only be registered from a module constructor (current phase: %s)", s.state.phase)
	}
	return nil
}

// registerEngineID creates the engine record, resolves the seed (override
// or policy) and pushes it through the seeder before returning.
func (s *Service) registerEngineID(id seed.EngineID, seeder master.Seeder, override *seed.Seed) (seed.Seed, error) {
	if err := s.ensureValidPhase(id.IsGlobal()); err != nil {
		return seed.Invalid, err
	}
	if s.seeds.HasEngine(id) {
		return seed.Invalid, seed.LogicErrorFor(id, "engine already created")
	}
	if err := s.seeds.RegisterNewSeeder(id, seeder); err != nil {
		return seed.Invalid, err
	}

	if override != nil {
		value := *override
		if err := s.seeds.FreezeSeed(id, value); err != nil {
			return seed.Invalid, err
		}
		if seeder != nil {
			seeder(id, value)
			s.record(id, value, audit.SourceOverride)
		}
		if s.verbosity > 0 {
			s.log.Info("engine seed overridden", "engine", id.String(), "seed", value)
		}
		return value, nil
	}

	value, err := s.seeds.GetSeed(id)
	if err != nil {
		return seed.Invalid, err
	}
	if seeder != nil && seed.IsValid(value) {
		seeder(id, value)
		s.record(id, value, audit.SourceConfigured)
	}
	if s.verbosity > 0 {
		s.log.Info("engine registered", "engine", id.String(), "seed", value)
	}
	return value, nil
}

// defineEngineID completes a declare/define pair.
func (s *Service) defineEngineID(id seed.EngineID, seeder master.Seeder) (seed.Seed, error) {
	if !s.seeds.HasEngine(id) {
		return seed.Invalid, seed.LogicErrorFor(id, "cannot define an engine that was not declared")
	}
	if s.seeds.HasSeeder(id) {
		return seed.Invalid, seed.LogicErrorFor(id, "engine has already been defined")
	}
	if err := s.ensureValidPhase(id.IsGlobal()); err != nil {
		return seed.Invalid, err
	}

	s.seeds.RegisterSeeder(id, seeder)

	value, err := s.seeds.GetSeed(id)
	if err != nil {
		return seed.Invalid, err
	}
	if seeder != nil && seed.IsValid(value) {
		seeder(id, value)
		source := audit.SourceConfigured
		if s.seeds.IsFrozen(id) {
			source = audit.SourceOverride
		}
		s.record(id, value, source)
	}
	return value, nil
}

// getSeedID serves a seed query, lazily declaring unknown engines. The
// lazy path goes through registration and is therefore phase-checked.
func (s *Service) getSeedID(id seed.EngineID) (seed.Seed, error) {
	if s.seeds.HasEngine(id) {
		return s.seeds.GetSeed(id)
	}
	// Never-registered engine: declare it now, with no seeder. This keeps
	// old callers working, at the price of freezing the engine out of any
	// later registration.
	return s.registerEngineID(id, nil, nil)
}

// readSeedParameter resolves a seed override from a module's configuration:
// candidates are tried in order, a present non-zero value wins, and an
// explicit zero disables that candidate.
func readSeedParameter(pset *config.Tree, names ...string) (*seed.Seed, error) {
	for _, name := range names {
		v, ok, err := pset.GetUint(name)
		if err != nil {
			return nil, err
		}
		if !ok || v == 0 {
			continue
		}
		if v > math.MaxUint32 {
			return nil, seed.ConfigError("seed override %q = %d does not fit in 32 bits", name, v)
		}
		s := seed.Seed(v)
		return &s, nil
	}
	return nil, nil
}

// record writes an audit row, if an audit log is attached.
func (s *Service) record(id seed.EngineID, value seed.Seed, source audit.Source) {
	if s.auditLog == nil {
		return
	}
	a := audit.Assignment{Engine: id.String(), Seed: uint32(value), Source: source}
	if s.state.hasEvent {
		a.Run = s.state.event.Run
		a.SubRun = s.state.event.SubRun
		a.Event = s.state.event.Event
	}
	if err := s.auditLog.Record(a); err != nil {
		s.log.Warn("failed to record seed assignment", "engine", id.String(), "error", err)
	}
}
