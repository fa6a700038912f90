package service

import (
	"fmt"

	"github.com/roach88/seedbank/internal/seed"
)

// Phase tracks what the host framework is doing, as far as the seed service
// cares. Registration legality and reseeding both key off it.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseServiceConstruction
	PhaseModuleConstruction
	PhaseModuleBeginRun
	PhaseEvent
	PhaseModuleEvent
	PhaseEndJob

	// PhaseIdle is the state between paired callbacks.
	PhaseIdle
)

// String names the phase for diagnostics.
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not started"
	case PhaseServiceConstruction:
		return "service construction"
	case PhaseModuleConstruction:
		return "module construction"
	case PhaseModuleBeginRun:
		return "begin of run for module"
	case PhaseEvent:
		return "event preparation"
	case PhaseModuleEvent:
		return "event processing by a module"
	case PhaseEndJob:
		return "end of job"
	case PhaseIdle:
		return "idle"
	default:
		return fmt.Sprintf("unknown phase #%d", int(p))
	}
}

// ModuleInfo describes the host module currently driving the service.
type ModuleInfo struct {
	// Label is the module's configured label; it scopes engine IDs.
	Label string

	// Name is the module's class name.
	Name string

	// Process is the host process name. It must not change within a job.
	Process string
}

// EventInfo is the host's identity for the event being processed.
type EventInfo struct {
	Run    uint32
	SubRun uint32
	Event  uint32

	Time      uint64
	TimeValid bool

	IsData bool
}

// hostState mirrors the host's processing state: the current phase plus the
// module and event context used to qualify engine IDs and build per-event
// seed input. Mutated only from the service's callbacks.
type hostState struct {
	phase Phase

	module    ModuleInfo
	hasModule bool

	event    EventInfo
	hasEvent bool

	process string
}

// quiescent reports whether a new top-level phase may begin.
func (st *hostState) quiescent() bool {
	return st.phase == PhaseIdle || st.phase == PhaseServiceConstruction
}

// enter begins phase p, verifying the pairing discipline: top-level phases
// start only between callbacks, module-event processing only inside an
// event.
func (st *hostState) enter(p Phase) error {
	legal := false
	switch p {
	case PhaseServiceConstruction:
		legal = st.phase == PhaseNotStarted
	case PhaseModuleConstruction, PhaseModuleBeginRun, PhaseEvent, PhaseEndJob:
		legal = st.quiescent()
	case PhaseModuleEvent:
		legal = st.phase == PhaseEvent
	}
	if !legal {
		return seed.LogicError("illegal phase transition from %q to %q", st.phase, p)
	}
	st.phase = p
	return nil
}

// leave ends phase p. Leaving a phase that is not current is a pairing
// violation.
func (st *hostState) leave(p Phase) error {
	if st.phase != p {
		return seed.LogicError("cannot leave phase %q while in %q", p, st.phase)
	}
	if p == PhaseModuleEvent {
		st.phase = PhaseEvent
	} else {
		st.phase = PhaseIdle
	}
	return nil
}

// setModule records the module a pre-callback announced. The process name
// is pinned by the first module seen.
func (st *hostState) setModule(mi ModuleInfo) error {
	if st.process != "" && mi.Process != "" && st.process != mi.Process {
		return seed.LogicError("process name changed from %q to %q", st.process, mi.Process)
	}
	if mi.Process != "" {
		st.process = mi.Process
	}
	st.module = mi
	st.hasModule = true
	return nil
}

func (st *hostState) resetModule() {
	st.module = ModuleInfo{}
	st.hasModule = false
}

// moduleLabel returns the current module's label, empty when none is
// current.
func (st *hostState) moduleLabel() string {
	if !st.hasModule {
		return ""
	}
	return st.module.Label
}

func (st *hostState) setEvent(ei EventInfo) {
	st.event = ei
	st.hasEvent = true
}

func (st *hostState) resetEvent() {
	st.event = EventInfo{}
	st.hasEvent = false
}

// eventSeedInput assembles the data event-dependent policies consume from
// the current event and module context.
func (st *hostState) eventSeedInput() seed.EventData {
	return seed.EventData{
		Run:         st.event.Run,
		SubRun:      st.event.SubRun,
		Event:       st.event.Event,
		Time:        st.event.Time,
		TimeValid:   st.event.TimeValid,
		IsData:      st.event.IsData,
		ProcessName: st.process,
		ModuleType:  st.module.Name,
		ModuleLabel: st.moduleLabel(),
	}
}
