package engine

import "errors"

// Typed outcomes and failures surfaced by the engine. All of these are
// recoverable: the transport layer turns them into user-facing prompts and
// none should crash the process.
var (
	// ErrUnknownUser means the requesting chat id has no user row.
	ErrUnknownUser = errors.New("unknown user")

	// ErrInvalidMessage means an action referenced a message id that was
	// never inserted.
	ErrInvalidMessage = errors.New("invalid message reference")

	// ErrInvalidUser means a message's owner could not be resolved as a user.
	ErrInvalidUser = errors.New("invalid user reference")

	// ErrInvalidReference means a rating referenced a message whose owner
	// is unknown.
	ErrInvalidReference = errors.New("rating references unknown message owner")

	// ErrNoCandidates is a normal terminal selector outcome, not a failure:
	// the user has seen everything currently on offer.
	ErrNoCandidates = errors.New("no unseen candidates")

	// ErrVoiceTooShort is a validation outcome: the submitted recording is
	// below the configured minimum duration and no message row was created.
	ErrVoiceTooShort = errors.New("voice message too short")
)
