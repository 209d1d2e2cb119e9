package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionCompleted is returned when chatting on a completed session.
	ErrSessionCompleted = errors.New("session is completed")

	// ErrAlreadyBootstrapped is returned by Bootstrap for a session that
	// already has messages.
	ErrAlreadyBootstrapped = errors.New("session already has messages")

	// ErrEmptyMessage is returned for a student message with no content.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoImage is returned by Intake when no image bytes were supplied.
	ErrNoImage = errors.New("no image provided")

	// ErrUnsupportedImage is returned for image types the pipeline rejects.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrImageTooLarge is returned for images above the size limit.
	ErrImageTooLarge = errors.New("image too large")

	// ErrNoStoredImage is returned by Image when the upload was not kept.
	ErrNoStoredImage = errors.New("no stored image for session")
)

// IntakeError reports a tutor failure after the session was already
// persisted. The session exists with no messages and can be resumed with
// Bootstrap.
type IntakeError struct {
	SessionID string
	Err       error
}

func (e *IntakeError) Error() string {
	return fmt.Sprintf("session %s created but tutor did not start: %v", e.SessionID, e.Err)
}

func (e *IntakeError) Unwrap() error { return e.Err }
