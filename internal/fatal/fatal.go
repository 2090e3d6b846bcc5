// Package fatal carries errors that must terminate the process after the
// terminal is released, as opposed to errors a command handler can recover
// from with a status-line message.
//
// The source this engine is modeled on signals these conditions by printing
// a message, ending the screen, and calling exit(1) from deep inside helper
// functions. That pattern doesn't translate to idiomatic Go: instead, any
// internal invariant violation or unrecoverable setup failure is wrapped in
// an *Error and returned up the call stack like any other error. The event
// loop (workhorse.Run) returns it to cmd/lsp's run, the one place allowed to
// act on it by tearing down the terminal and exiting with status 1.
package fatal

import "fmt"

// Error marks an error as fatal: the caller must stop whatever it is doing,
// unwind to the event loop, and let the process exit.
type Error struct {
	Op  string // the operation that discovered the violation, e.g. "blockring.align"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap turns err into a fatal *Error tagged with op. A nil err yields a nil
// *Error (typed nil, so callers should check err == nil before calling Wrap,
// not the other way around).
func Wrap(op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Newf builds a fatal *Error directly from a format string.
func Newf(op, format string, args ...any) *Error {
	return &Error{Op: op, Err: fmt.Errorf(format, args...)}
}
