package seed

import "strings"

// EngineID identifies a random engine within a job: a module label plus an
// optional instance name. An empty module label marks a global engine.
//
// EngineIDs are immutable values; compare with ==, order with Less.
type EngineID struct {
	// Module is the label of the module owning the engine.
	// Empty for global engines.
	Module string

	// Instance distinguishes engines within one module.
	// Empty means the default instance.
	Instance string
}

// NewEngineID builds a module-scoped engine ID.
func NewEngineID(module, instance string) EngineID {
	return EngineID{Module: module, Instance: instance}
}

// GlobalEngineID builds a global engine ID, one not owned by any module.
func GlobalEngineID(instance string) EngineID {
	return EngineID{Instance: instance}
}

// IsGlobal reports whether the engine belongs to the job rather than to a
// module.
func (id EngineID) IsGlobal() bool { return id.Module == "" }

// HasInstance reports whether a non-default instance name is set.
func (id EngineID) HasInstance() bool { return id.Instance != "" }

// String renders the ID as "module.instance", dropping the dot when the
// instance name is empty. Global engines render with a "<global>" prefix.
func (id EngineID) String() string {
	var b strings.Builder
	if id.IsGlobal() {
		b.WriteString("<global>")
	} else {
		b.WriteString(id.Module)
	}
	if id.HasInstance() {
		b.WriteByte('.')
		b.WriteString(id.Instance)
	}
	return b.String()
}

// Less orders IDs lexicographically by (module, instance).
// Global engines, having an empty module label, sort first.
func (id EngineID) Less(other EngineID) bool {
	if id.Module != other.Module {
		return id.Module < other.Module
	}
	return id.Instance < other.Instance
}
