package netlist

import "errors"

// Failure categories for parsing, serialization, and model mutation.
// Raise sites wrap these with fmt.Errorf("%w: ...") so callers match the
// category with errors.Is while the message carries the specifics
// (offending pins, known names, line numbers).
var (
	// ErrTypeMismatch reports a non-text value where text was required.
	// The package API is statically typed, so this surfaces at dynamic
	// boundaries (JSON tool arguments, reflection-driven callers).
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnknownAttribute reports a mutation targeting an attribute the
	// device variant does not declare.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidPin reports a pin order referencing a net not wired to
	// any instance terminal in the cell.
	ErrInvalidPin = errors.New("invalid pin")

	// ErrNotFound reports a failed lookup by name. Messages list the
	// names that do exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedNetlist reports a structural violation in the input:
	// a missing block section, an unterminated block, an unrecognized
	// line, or a missing terminator at end of input.
	ErrMalformedNetlist = errors.New("malformed netlist")

	// ErrMalformedDevice reports a device line whose token count or
	// key=value shape is invalid.
	ErrMalformedDevice = errors.New("malformed device")
)
