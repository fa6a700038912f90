package harness

import (
	"fmt"
	"io"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/seed"
	"github.com/roach88/seedbank/internal/service"
)

// The process name every harness job runs under.
const harnessProcess = "Harness"

// TraceEvent is one row of a scenario trace: a seed reaching an engine.
type TraceEvent struct {
	// Action is "register", "override", "declare" or "reseed".
	Action string `json:"action"`
	Engine string `json:"engine"`
	Seed   uint32 `json:"seed"`

	// Event identity, set on reseed rows only.
	Run    uint32 `json:"run,omitempty"`
	SubRun uint32 `json:"subrun,omitempty"`
	Event  uint32 `json:"event,omitempty"`
}

// Trace is the full record of a scenario run.
type Trace struct {
	Scenario string       `json:"scenario"`
	Steps    []TraceEvent `json:"steps"`
}

// runner drives one scenario through a real service.
type runner struct {
	svc     *service.Service
	trace   []TraceEvent
	inEvent bool
	event   EventStep
}

// Run executes the scenario and returns its trace.
func Run(sc *Scenario) (*Trace, error) {
	r := &runner{}

	svc, err := service.New(config.New(sc.Config), service.WithSummaryWriter(io.Discard))
	if err != nil {
		return nil, err
	}
	r.svc = svc

	if err := r.registerEngines(sc.Engines); err != nil {
		return nil, err
	}
	for _, ev := range sc.Events {
		if err := r.processEvent(ev); err != nil {
			return nil, err
		}
	}

	return &Trace{Scenario: sc.Name, Steps: r.trace}, nil
}

// seederFor returns a seeder that records event-time pushes for one engine.
// Registration-time pushes are recorded from the returned seed instead, so
// they carry the right action label.
func (r *runner) seederFor(id seed.EngineID) func(seed.EngineID, seed.Seed) {
	return func(_ seed.EngineID, s seed.Seed) {
		if !r.inEvent {
			return
		}
		r.trace = append(r.trace, TraceEvent{
			Action: "reseed",
			Engine: id.String(),
			Seed:   uint32(s),
			Run:    r.event.Run,
			SubRun: r.event.SubRun,
			Event:  r.event.Event,
		})
	}
}

func (r *runner) registerEngines(steps []EngineStep) error {
	for _, e := range steps {
		id := e.id()
		action := "register"

		var value seed.Seed
		var err error
		switch {
		case e.DeclareOnly && id.IsGlobal():
			action = "declare"
			value, err = r.svc.DeclareGlobalEngine(e.Instance)
		case e.DeclareOnly:
			action = "declare"
			err = r.inConstruction(e.Module, func() error {
				var derr error
				value, derr = r.svc.DeclareEngine(e.Instance)
				return derr
			})
		case id.IsGlobal():
			if e.Override != 0 {
				action = "override"
			}
			value, err = r.svc.RegisterGlobalEngineWithOverride(r.seederFor(id), e.Instance, seed.Seed(e.Override))
		default:
			if e.Override != 0 {
				action = "override"
			}
			err = r.inConstruction(e.Module, func() error {
				var rerr error
				value, rerr = r.svc.RegisterEngineWithOverride(r.seederFor(id), e.Instance, seed.Seed(e.Override))
				return rerr
			})
		}
		if err != nil {
			return fmt.Errorf("registering engine %s: %w", id, err)
		}

		r.trace = append(r.trace, TraceEvent{Action: action, Engine: id.String(), Seed: uint32(value)})
	}
	return nil
}

// inConstruction brackets fn in a module-construction window.
func (r *runner) inConstruction(label string, fn func() error) error {
	if err := r.svc.PreModuleConstruction(service.ModuleInfo{Label: label, Process: harnessProcess}); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return r.svc.PostModuleConstruction()
}

func (r *runner) processEvent(ev EventStep) error {
	r.inEvent = true
	r.event = ev
	defer func() { r.inEvent = false }()

	info := service.EventInfo{
		Run: ev.Run, SubRun: ev.SubRun, Event: ev.Event,
		Time: ev.Time, TimeValid: !ev.InvalidTime,
	}
	if err := r.svc.PreProcessEvent(info); err != nil {
		return fmt.Errorf("event %d: %w", ev.Event, err)
	}
	for _, label := range ev.Modules {
		if err := r.svc.PreModule(service.ModuleInfo{Label: label, Process: harnessProcess}); err != nil {
			return fmt.Errorf("event %d, module %s: %w", ev.Event, label, err)
		}
		if err := r.svc.PostModule(); err != nil {
			return err
		}
	}
	return r.svc.PostProcessEvent()
}
