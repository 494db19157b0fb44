package perforce

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the perforce package.
var (
	// ErrMissingArgument is returned before any process is started when a
	// required parameter is empty.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrInvalidArgument is returned for a parameter outside its allowed
	// values.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidFileType is returned for an unsupported file type.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrInvalidView is returned for an empty client view mapping.
	ErrInvalidView = errors.New("invalid view mapping")

	// ErrNoChangeNumber is returned when p4 did not report the number of a
	// newly created changelist.
	ErrNoChangeNumber = errors.New("no changelist number in output")

	// ErrNotFound is returned when a query produced no record.
	ErrNotFound = errors.New("not found")

	// ErrUnexpectedOutput is returned when output cannot be interpreted.
	ErrUnexpectedOutput = errors.New("unexpected output")
)

// CommandError is a p4 invocation whose output was classified as a failure.
type CommandError struct {
	// Op is the operation name used for classification.
	Op string
	// Args is the argument vector that was run.
	Args []string
	// Message is the trimmed output the decision was based on.
	Message string
	// Ambiguous is set when no phrase rule matched the output.
	Ambiguous bool
}

func (e *CommandError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no confirmation in output"
	}
	if e.Ambiguous {
		return fmt.Sprintf("p4 %s: unrecognized output: %s", e.Op, msg)
	}
	return fmt.Sprintf("p4 %s: %s", e.Op, msg)
}

// IsAmbiguous reports whether err is a CommandError for output that
// matched no known phrase.
func IsAmbiguous(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.Ambiguous
}

// ParseError describes one field of a form that could not be read.
type ParseError struct {
	Form  string
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Form, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Form, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// errMissingField marks a required label that was not present.
var errMissingField = errors.New("missing field")

// ParseErrors collects the problems found while parsing one record.
// The record returned alongside it is still usable.
type ParseErrors []*ParseError

func (e ParseErrors) Error() string {
	msgs := make([]string, len(e))
	for i, pe := range e {
		msgs[i] = pe.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e ParseErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
