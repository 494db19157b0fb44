package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrUnknownCommand indicates a command name the CLI does not offer.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUnsupportedRecord indicates a value the renderer cannot print.
	ErrUnsupportedRecord = errors.New("unsupported record type")

	// ErrUnknownFormat indicates an output format other than text or json.
	ErrUnknownFormat = errors.New("unknown output format")
)

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("failed to initialize %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
