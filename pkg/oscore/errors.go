package oscore

import (
	"errors"

	"github.com/backkem/oscore/pkg/option"
	"github.com/backkem/oscore/pkg/security"
)

// Pipeline errors. All are terminal for the message being processed;
// nothing is retried internally and no failure ever falls back to
// unprotected processing.
var (
	// ErrMalformedOption is returned for structurally invalid OSCORE
	// option bytes. Alias of option.ErrMalformed so errors.Is matches
	// either spelling.
	ErrMalformedOption = option.ErrMalformed

	// ErrMissingKID is returned for a received request whose option
	// does not carry the k-flag. Responses may legitimately omit the
	// KID; requests never may.
	ErrMissingKID = errors.New("oscore: request without KID")

	// ErrUnknownKID is returned when the received KID (and KID
	// Context) does not resolve to a security context.
	ErrUnknownKID = errors.New("oscore: unknown KID")

	// ErrAuthenticationFailure is returned when the AEAD tag check
	// fails. Replay state is not updated on this path.
	ErrAuthenticationFailure = errors.New("oscore: authentication failure")

	// ErrReplayDetected is returned when the received sequence number
	// was already accepted or is below the replay window floor.
	ErrReplayDetected = errors.New("oscore: replay detected")

	// ErrSequenceExhausted is the sender-side counter ceiling. Alias
	// of security.ErrSequenceExhausted.
	ErrSequenceExhausted = security.ErrSequenceExhausted

	// ErrNoContext is returned when no security context was supplied
	// and none can be resolved.
	ErrNoContext = errors.New("oscore: no security context")

	// ErrInvalidState is a programming-contract violation: a pipeline
	// stage ran against message state that is not in its prerequisite
	// stage.
	ErrInvalidState = errors.New("oscore: pipeline stage violation")
)
