// Package harness runs conformance scenarios against the seed service.
//
// A scenario is a YAML file describing a job: the service configuration,
// the engines the job's modules register (with optional overrides), and a
// sequence of events to process. Running a scenario produces a trace of
// every seed handed out, which tests compare against golden files or
// against a second run of the same scenario.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/seedbank/internal/seed"
)

// Scenario defines one conformance run.
type Scenario struct {
	// Name uniquely identifies the scenario; golden files are named
	// after it.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Config is the service configuration tree, inline.
	Config map[string]any `yaml:"config"`

	// Engines lists the engines the job registers, in order. Global
	// engines (no module) must come first: the host registers those
	// while the service itself is being constructed.
	Engines []EngineStep `yaml:"engines"`

	// Events lists the events the job processes, in order.
	Events []EventStep `yaml:"events,omitempty"`
}

// EngineStep registers one engine.
type EngineStep struct {
	// Module owning the engine; empty means a global engine.
	Module string `yaml:"module,omitempty"`

	// Instance name; empty means the default instance.
	Instance string `yaml:"instance,omitempty"`

	// Override pins the engine to this seed. Zero means no override.
	Override uint32 `yaml:"override,omitempty"`

	// DeclareOnly registers the engine without a seeder.
	DeclareOnly bool `yaml:"declareOnly,omitempty"`
}

// id returns the engine ID the step registers.
func (e EngineStep) id() seed.EngineID {
	if e.Module == "" {
		return seed.GlobalEngineID(e.Instance)
	}
	return seed.NewEngineID(e.Module, e.Instance)
}

// EventStep processes one event through a list of modules.
type EventStep struct {
	Run    uint32 `yaml:"run"`
	SubRun uint32 `yaml:"subrun"`
	Event  uint32 `yaml:"event"`
	Time   uint64 `yaml:"time"`

	// InvalidTime marks the event timestamp as unusable.
	InvalidTime bool `yaml:"invalidTime,omitempty"`

	// Modules to run for this event, in order.
	Modules []string `yaml:"modules,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(sc.Config) == 0 {
		return fmt.Errorf("scenario config is required")
	}
	seenModule := false
	for i, e := range sc.Engines {
		if e.Module == "" {
			if seenModule {
				return fmt.Errorf("engine #%d: global engines must be listed before module engines", i)
			}
		} else {
			seenModule = true
		}
	}
	return nil
}
