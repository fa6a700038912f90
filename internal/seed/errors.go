package seed

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures of the seed engine.
type ErrorKind string

const (
	// KindConfiguration indicates bad or incomplete configuration: unknown
	// policy name, missing required key, out-of-range value, a violated
	// range check, or an unresolvable override target.
	KindConfiguration ErrorKind = "CONFIGURATION"

	// KindLogic indicates a protocol violation by the caller: registration
	// outside a legal phase, duplicate registration, defining an engine
	// never declared, or a module-scoped operation with no current module.
	KindLogic ErrorKind = "LOGIC"

	// KindUniqueness indicates a policy claiming unique seeds produced a
	// value already held by another engine.
	KindUniqueness ErrorKind = "UNIQUENESS"

	// KindInvalidInput indicates an event-dependent policy was invoked with
	// event data it cannot use (e.g. an invalid timestamp).
	KindInvalidInput ErrorKind = "INVALID_INPUT"
)

// Error is the one error type surfaced by the seed engine. It always names
// the engine involved when one is known; uniqueness errors also name the
// other holder of the colliding seed.
type Error struct {
	Kind    ErrorKind
	Message string

	// Engine is the ID the failing operation was about, when known.
	Engine EngineID

	// Holder is set on uniqueness errors: the engine already owning the
	// colliding seed.
	Holder EngineID

	// Seed is the offending value on uniqueness errors.
	Seed Seed
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Kind == KindUniqueness:
		return fmt.Sprintf("%s: seed %d already used by engine '%s', may not be reused by engine '%s'",
			e.Kind, e.Seed, e.Holder, e.Engine)
	case e.Engine != (EngineID{}):
		return fmt.Sprintf("%s: %s (engine '%s')", e.Kind, e.Message, e.Engine)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// ConfigError builds a configuration error.
func ConfigError(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// ConfigErrorFor builds a configuration error naming an engine.
func ConfigErrorFor(id EngineID, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Engine: id, Message: fmt.Sprintf(format, args...)}
}

// LogicError builds a logic error.
func LogicError(format string, args ...any) *Error {
	return &Error{Kind: KindLogic, Message: fmt.Sprintf(format, args...)}
}

// LogicErrorFor builds a logic error naming an engine.
func LogicErrorFor(id EngineID, format string, args ...any) *Error {
	return &Error{Kind: KindLogic, Engine: id, Message: fmt.Sprintf(format, args...)}
}

// UniquenessError reports that id was assigned a seed already held by holder.
func UniquenessError(id, holder EngineID, s Seed) *Error {
	return &Error{Kind: KindUniqueness, Engine: id, Holder: holder, Seed: s}
}

// InvalidInputError builds an invalid-input error naming an engine.
func InvalidInputError(id EngineID, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Engine: id, Message: fmt.Sprintf(format, args...)}
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsConfigurationError reports whether err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool { return isKind(err, KindConfiguration) }

// IsLogicError reports whether err is a logic error.
func IsLogicError(err error) bool { return isKind(err, KindLogic) }

// IsUniquenessError reports whether err is a seed-collision error.
func IsUniquenessError(err error) bool { return isKind(err, KindUniqueness) }

// IsInvalidInputError reports whether err is an invalid-input error.
func IsInvalidInputError(err error) bool { return isKind(err, KindInvalidInput) }
