package rpmpkg

import (
	"errors"
	"fmt"
)

// Sentinel error kinds a ParseError can wrap, matching spec.md §7's
// "I/O, bad magic, truncated header, unknown tag type, tag value out of
// declared range" distinctions. ErrIO is exported since callers like
// rpm dump need to tell a genuine read failure (missing file, permission
// denied) apart from a malformed package, the former an exit-code-2
// condition and the latter exit-code-3; the other four all collapse to
// the same "this file does not parse" outcome for every current caller,
// so they stay unexported.
var (
	ErrIO          = errors.New("i/o error")
	errBadMagic    = errors.New("bad magic")
	errTruncated   = errors.New("truncated header")
	errUnknownType = errors.New("unknown tag type")
	errOutOfRange  = errors.New("tag value out of declared range")
)

// ParseError is returned for any failure decoding an RPM file. File names
// the path under inspection; Unwrap exposes one of the sentinel kinds above
// so callers can classify the failure with errors.Is.
type ParseError struct {
	File   string
	Reason error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Reason
}

func parseErr(file string, reason error) *ParseError {
	return &ParseError{File: file, Reason: reason}
}

// ioErr wraps an *os.PathError (or any other OS-level failure) from
// reading the file itself, as opposed to a failure decoding its contents,
// so callers can tell the two apart with errors.Is(err, ErrIO).
func ioErr(file string, cause error) *ParseError {
	return &ParseError{File: file, Reason: fmt.Errorf("%w: %v", ErrIO, cause)}
}
