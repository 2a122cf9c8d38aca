package coap

import "errors"

// CoAP adapter errors.
var (
	// ErrNoOSCOREOption is returned when unprotecting a message that
	// carries no OSCORE option.
	ErrNoOSCOREOption = errors.New("coap: message has no OSCORE option")

	// ErrMalformedPlaintext is returned when a decrypted inner message
	// cannot be parsed back into code, options and payload.
	ErrMalformedPlaintext = errors.New("coap: malformed inner message plaintext")
)
