package tmi

import (
	"errors"
	"fmt"
)

var (
	// ErrTooShort is returned for lines below the minimal viable length.
	ErrTooShort = errors.New("tmi: line too short")
	// ErrMalformedTags is returned when the tag block is not terminated by " :"
	// or contains a token without '='.
	ErrMalformedTags = errors.New("tmi: malformed tags")
	// ErrMalformedCommand is returned when a command body lacks a required
	// delimiter or carries an unparseable number.
	ErrMalformedCommand = errors.New("tmi: malformed command")
	// ErrUnknownCommand is returned for verbs outside the recognized set.
	ErrUnknownCommand = errors.New("tmi: unknown command")
)

// CommandError reports a failure tied to a specific command verb.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	if errors.Is(e.Err, ErrUnknownCommand) {
		return fmt.Sprintf("tmi: unknown command %q", e.Command)
	}
	return fmt.Sprintf("tmi: malformed %s command", e.Command)
}

func (e *CommandError) Unwrap() error { return e.Err }

func malformed(cmd string) error {
	return &CommandError{Command: cmd, Err: ErrMalformedCommand}
}
