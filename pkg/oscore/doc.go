// Package oscore implements the OSCORE message-protection pipeline
// from RFC 8613: sealing a plaintext request or response into an
// OSCORE object (option value + AEAD ciphertext) and the inverse
// opening path with replay protection.
//
// Each operation runs a small state machine over a transient,
// single-use message state. The operation's role (request/response)
// is a constructor parameter of that state and immutable afterwards,
// so the option can never be serialized against an undecided role;
// no shared setup step between stages rewrites the flags wholesale.
//
// Transport, retransmission and key provisioning live outside this
// package: callers hand in plaintext and a security context and get
// wire-ready option/ciphertext values back (see pkg/coap for the CoAP
// message adapter).
package oscore
