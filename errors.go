// errors.go - the host-visible error contract. Every public
// Engine method that can fail returns an *Error so a caller can recover it
// with errors.As and branch on its Code, or use errors.Is against the
// underlying cause that Unwrap exposes; the two
// internal-only codes (Terminator, TimesliceEnded) are never constructed
// here and never escape the package.
package drppc

import "fmt"

// Code classifies the kind of failure an *Error carries.
type Code int

const (
	// Okay is never carried by an *Error; it is the zero value a caller sees
	// when a method returns a nil error.
	Okay Code = iota
	// GenericError is a generic, uncategorized failure.
	GenericError
	// InvalidConfig is returned by Init/SetupContext when a Config
	// field is malformed (overlapping memory regions, a bit-width
	// partition that doesn't sum to address_bits, a missing mandatory
	// callback).
	InvalidConfig
	// BadPC is a fetch or branch into an address with no fetch region.
	BadPC
	// OutOfMemory is returned when a cache overflow survives one
	// invalidate-and-retry.
	OutOfMemory
	// CompileError is never returned to a caller: a block that fails to
	// translate is left untranslated and interpretation continues.
	// classify() never maps an error to it and Run never constructs an
	// *Error with it.
	CompileError
	// RuntimeError covers illegal opcodes, a generic memory access with no
	// matching region, and back-end assertions.
	RuntimeError
)

func (c Code) String() string {
	switch c {
	case Okay:
		return "Okay"
	case GenericError:
		return "GenericError"
	case InvalidConfig:
		return "InvalidConfig"
	case BadPC:
		return "BadPC"
	case OutOfMemory:
		return "OutOfMemory"
	case CompileError:
		return "CompileError"
	case RuntimeError:
		return "RuntimeError"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error is the concrete error type every Engine method returns. Op names
// the method that failed; Err is the underlying cause, if any.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("drppc: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("drppc: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}
