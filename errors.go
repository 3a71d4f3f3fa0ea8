package jsonstream

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for the five error kinds OfRoot, Of and the streams they
// return can raise. Use errors.Is
// against these to classify a failure; the wrapped message carries the
// rendered position trail (and, for ErrMapping, the source value and target
// type).
var (
	// ErrFormat signals malformed JSON: an unexpected codepoint, invalid
	// escape, invalid number, premature EOF, invalid UTF-8, or invalid \u hex.
	ErrFormat = errors.New("jsonstream: format error")

	// ErrSchema signals valid JSON that mismatches the declared schema:
	// out-of-order access, re-access of a consumed continuation, or a
	// JSON-null where a streaming member was required.
	ErrSchema = errors.New("jsonstream: schema error")

	// ErrConstraint signals a bound on the data being violated: min_occur
	// or max_occur (including an absent required member), max_length,
	// max_depth, max_size, or the accepted JSON types.
	ErrConstraint = errors.New("jsonstream: constraint error")

	// ErrMapping signals that a generic value could not be converted to
	// the requested target type.
	ErrMapping = errors.New("jsonstream: mapping error")

	// ErrProxyMisuse signals that a proxy was called out of the order the
	// engine's frame stack requires (a parent proxy called while a child
	// sequence is still live, or a sequence accessed after being dropped
	// unread).
	ErrProxyMisuse = errors.New("jsonstream: proxy misuse")
)

// errFormatf builds an ErrFormat-wrapped error with no position trail, for
// layers (Input) that have no frame stack to render one from.
func errFormatf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// formatError builds an ErrFormat-wrapped error carrying the position trail.
func formatError(pos positioner, format string, args ...any) error {
	return fmt.Errorf("%w: %s (%s)", ErrFormat, fmt.Sprintf(format, args...), pos.position())
}

// schemaError builds an ErrSchema-wrapped error carrying the position trail.
func schemaError(pos positioner, format string, args ...any) error {
	return fmt.Errorf("%w: %s (%s)", ErrSchema, fmt.Sprintf(format, args...), pos.position())
}

// constraintError builds an ErrConstraint-wrapped error carrying the
// position trail.
func constraintError(pos positioner, format string, args ...any) error {
	return fmt.Errorf("%w: %s (%s)", ErrConstraint, fmt.Sprintf(format, args...), pos.position())
}

// mappingError builds an ErrMapping-wrapped error including the offending
// value and the target type name, plus the position trail.
func mappingError(pos positioner, v *Value, target reflect.Type) error {
	return fmt.Errorf("%w: cannot map %s into %s (%s)", ErrMapping, v.String(), target, pos.position())
}

// proxyMisuseError builds an ErrProxyMisuse-wrapped error carrying the
// position trail.
func proxyMisuseError(pos positioner, format string, args ...any) error {
	return fmt.Errorf("%w: %s (%s)", ErrProxyMisuse, fmt.Sprintf(format, args...), pos.position())
}

// positioner is satisfied by anything that can render a human-readable
// frame-stack position trail for error messages. The engine's frame stack
// is the usual implementation; tests may stub it.
type positioner interface {
	position() string
}
