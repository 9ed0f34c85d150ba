package chat

import "errors"

// Error kinds surfaced by the chat core. Callers branch with errors.Is and
// map them to transport-level responses; anything else is an internal
// persistence or fabric failure.
var (
	// ErrAuthRequired rejects a send from an anonymous session.
	ErrAuthRequired = errors.New("authentication required")
	// ErrBanned rejects a send from a banned username before any content check.
	ErrBanned = errors.New("sender is banned")
	// ErrForbidden rejects a console operation from a non-admin identity.
	ErrForbidden = errors.New("admin role required")
	// ErrNotFound reports a stale or absent queue reference.
	ErrNotFound = errors.New("queue entry not found")
	// ErrInvalidAction reports an unknown moderation action kind.
	ErrInvalidAction = errors.New("invalid moderation action")
	// ErrInvalidInput reports a malformed request shape.
	ErrInvalidInput = errors.New("invalid input")
)
