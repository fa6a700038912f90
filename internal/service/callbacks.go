package service

import (
	"github.com/roach88/seedbank/internal/audit"
	"github.com/roach88/seedbank/internal/seed"
)

// Host callbacks. The host framework wires these to its activity
// notifications; their pairing is enforced by the phase tracker.
//
// Ordering guarantees, per job:
//   - global engines are reseeded in PreProcessEvent, before any
//     per-module callback of that event;
//   - a module's engines are reseeded in PreModule, before that module
//     processes the event.

// PreModuleConstruction enters the module-construction phase, during which
// the module under construction may register engines.
func (s *Service) PreModuleConstruction(mi ModuleInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.enter(PhaseModuleConstruction); err != nil {
		return err
	}
	return s.state.setModule(mi)
}

// PostModuleConstruction leaves the module-construction phase.
func (s *Service) PostModuleConstruction() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.resetModule()
	return s.state.leave(PhaseModuleConstruction)
}

// PreModuleBeginRun enters the begin-run phase for one module.
func (s *Service) PreModuleBeginRun(mi ModuleInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.enter(PhaseModuleBeginRun); err != nil {
		return err
	}
	return s.state.setModule(mi)
}

// PostModuleBeginRun leaves the begin-run phase.
func (s *Service) PostModuleBeginRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.resetModule()
	return s.state.leave(PhaseModuleBeginRun)
}

// PreProcessEvent starts an event: the per-event seed cache is dropped and
// every global engine is reseeded against the new event.
func (s *Service) PreProcessEvent(ei EventInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.enter(PhaseEvent); err != nil {
		return err
	}
	s.state.setEvent(ei)
	s.seeds.OnNewEvent()

	data := s.state.eventSeedInput()
	for _, id := range s.seeds.EngineIDs() {
		if !id.IsGlobal() {
			continue
		}
		if err := s.reseedInstance(id, data); err != nil {
			return err
		}
	}
	return nil
}

// PreModule announces the module about to process the current event and
// reseeds that module's engines.
func (s *Service) PreModule(mi ModuleInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.enter(PhaseModuleEvent); err != nil {
		return err
	}
	if err := s.state.setModule(mi); err != nil {
		return err
	}

	data := s.state.eventSeedInput()
	for _, id := range s.seeds.EngineIDs() {
		if id.Module != mi.Label {
			continue
		}
		if err := s.reseedInstance(id, data); err != nil {
			return err
		}
	}
	return nil
}

// PostModule ends the current module's event processing.
func (s *Service) PostModule() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.resetModule()
	return s.state.leave(PhaseModuleEvent)
}

// PostProcessEvent ends the event.
func (s *Service) PostProcessEvent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.resetEvent()
	return s.state.leave(PhaseEvent)
}

// PreModuleEndJob enters the end-job phase for one module.
func (s *Service) PreModuleEndJob(mi ModuleInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.enter(PhaseEndJob); err != nil {
		return err
	}
	return s.state.setModule(mi)
}

// PostModuleEndJob leaves the end-job phase.
func (s *Service) PostModuleEndJob() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.resetModule()
	return s.state.leave(PhaseEndJob)
}

// PostEndJob prints the seed summary when the configuration asked for one.
func (s *Service) PostEndJob() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verbosity >= 1 || s.summaryAtEnd {
		s.seeds.Print(s.out)
	}
	return nil
}

// reseedInstance reseeds one engine against the current event.
func (s *Service) reseedInstance(id seed.EngineID, data seed.EventData) error {
	value, err := s.seeds.ReseedEvent(id, data)
	if err != nil {
		return err
	}
	if !seed.IsValid(value) {
		s.log.Debug("no per-event seed for engine", "engine", id.String())
		return nil
	}
	if s.seeds.HasSeeder(id) && !s.seeds.IsFrozen(id) {
		s.record(id, value, audit.SourceEvent)
	}
	if s.verbosity > 0 {
		s.log.Info("event seed assigned", "engine", id.String(), "seed", value)
	}
	return nil
}
