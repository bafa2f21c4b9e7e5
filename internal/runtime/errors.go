package runtime

import "errors"

var (
	// ErrSessionTerminated indicates an operation was invoked on a session
	// after Terminate. This is a lifecycle violation, distinct from a
	// command failure.
	ErrSessionTerminated = errors.New("session terminated")

	// ErrInvalidLanguage indicates an unknown language value
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrInvalidCommand indicates an empty command
	ErrInvalidCommand = errors.New("invalid command")
)
