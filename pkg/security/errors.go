package security

import "errors"

// Security context package errors.
var (
	// ErrMissingMasterSecret is returned when a context is created
	// without input keying material.
	ErrMissingMasterSecret = errors.New("security: missing master secret")

	// ErrIDTooLong is returned when a sender or recipient ID does not
	// fit the nonce layout (algorithm nonce size minus 6 bytes).
	ErrIDTooLong = errors.New("security: endpoint ID too long for nonce construction")

	// ErrIdenticalIDs is returned when sender and recipient IDs are
	// equal; both peers would derive the same key.
	ErrIdenticalIDs = errors.New("security: sender and recipient IDs must differ")

	// ErrSequenceExhausted is returned when the sender sequence number
	// reaches its ceiling. The context must be rotated with fresh key
	// material; the sequence never wraps.
	ErrSequenceExhausted = errors.New("security: sender sequence number exhausted")

	// ErrContextClosed is returned when a zeroized context is used.
	ErrContextClosed = errors.New("security: context closed")

	// ErrDuplicateContext is returned when adding a context whose
	// recipient ID (and ID Context) is already registered.
	ErrDuplicateContext = errors.New("security: duplicate context key")
)
