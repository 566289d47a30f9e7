package stratec

import (
	"errors"
	"fmt"
)

var (
	// ErrNotApplicable marks a file rejected by the pre-filter. It is never
	// returned by Scrub or ReadHeader; they report Ignored or a nil header.
	ErrNotApplicable = errors.New("not a stratec file")

	// ErrFormat is wrapped by every *FormatError.
	ErrFormat = errors.New("unrecognized stratec header")
)

// FormatError reports a file that passed the pre-filter but whose contents
// do not look like a Stratec header.
type FormatError struct {
	Path   string
	Reason string
	Err    error // underlying decode error, if any
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("file '%s' %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFormat}
	}
	return []error{ErrFormat, e.Err}
}

// IOError reports an open, read, stat or write failure on Path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("could not %s file '%s': %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// DateError reports a packed date whose month or day is out of range.
type DateError struct {
	Value uint32
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid packed date %d", e.Value)
}

// withPath attaches path to a FormatError produced by the buffer-level
// functions, which do not know where the buffer came from.
func withPath(err error, path string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		return &FormatError{Path: path, Reason: fe.Reason, Err: fe.Err}
	}
	var de *DateError
	if errors.As(err, &de) {
		return &FormatError{Path: path, Reason: "has an " + de.Error(), Err: de}
	}
	return err
}
