package seed

// EventData carries the event context consumed by event-dependent seed
// policies. The adapter fills it from the host's current event and module;
// policies only read it.
type EventData struct {
	Run    uint32
	SubRun uint32
	Event  uint32

	// Time is the raw event timestamp. Only meaningful when TimeValid.
	Time      uint64
	TimeValid bool

	// IsData is true when processing real detector data rather than
	// simulation.
	IsData bool

	ProcessName string
	ModuleType  string
	ModuleLabel string
}

// Clear resets every field.
func (d *EventData) Clear() { *d = EventData{} }
