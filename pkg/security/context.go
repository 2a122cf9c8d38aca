// Package security holds per-peer OSCORE security contexts: derived
// key material, the sender sequence allocator, and the recipient
// replay window. Contexts are long-lived shared resources; all mutable
// state is guarded so protect/unprotect calls on the same context can
// run concurrently.
package security

import (
	"bytes"
	"crypto/cipher"
	"sync"

	"github.com/backkem/oscore/pkg/crypto"
)

// ContextConfig carries the provisioning inputs for one security
// context. Master secret and salt come from the key-provisioning
// collaborator at creation time only; derivation runs exactly once.
type ContextConfig struct {
	// SenderID is our Key ID. May be empty (zero-length is a valid
	// identity, distinct from absent).
	SenderID []byte

	// RecipientID is the peer's Key ID.
	RecipientID []byte

	// MasterSecret is the input keying material. Required.
	MasterSecret []byte

	// MasterSalt is the optional HKDF salt.
	MasterSalt []byte

	// IDContext is the optional KID Context distinguishing groups of
	// contexts that share IDs.
	IDContext []byte

	// Algorithm selects the AEAD algorithm.
	// Default: AES-CCM-16-64-128.
	Algorithm crypto.Algorithm

	// ReplayWindowSize is the replay window width.
	// Default: DefaultReplayWindowSize (32).
	ReplayWindowSize int

	// SequenceStart is the first sender sequence number to allocate.
	// Zero for a fresh context; a context restored from persisted
	// state resumes from its stored counter so no Partial IV is
	// reused across restarts.
	SequenceStart uint64
}

// Context is an established OSCORE security context.
//
// The sealing key, unsealing key and Common IV are derived once at
// creation and immutable for the context's lifetime. The sender
// sequence number and replay window are the only mutable state.
type Context struct {
	senderID    []byte
	recipientID []byte
	idContext   []byte
	alg         crypto.Algorithm

	senderKey    []byte // seals outgoing messages
	recipientKey []byte // opens incoming messages
	commonIV     []byte

	sealer cipher.AEAD
	opener cipher.AEAD

	sequence *SendSequence
	window   *ReplayWindow

	mu     sync.RWMutex
	closed bool
}

// NewContext derives a security context from provisioning inputs.
// This implements the HKDF key schedule of RFC 8613 Section 3.2:
// Sender Key, Recipient Key and Common IV are each a deterministic
// pure function of the config, computed here and never re-derived.
func NewContext(config ContextConfig) (*Context, error) {
	if len(config.MasterSecret) == 0 {
		return nil, ErrMissingMasterSecret
	}

	alg := config.Algorithm
	if alg == 0 {
		alg = crypto.AESCCM1664128
	}
	if !alg.IsValid() {
		return nil, crypto.ErrUnknownAlgorithm
	}

	// Both IDs must fit the nonce layout up front so nonce
	// construction can never fail mid-pipeline.
	maxIDLen := alg.NonceSize() - 6
	if len(config.SenderID) > maxIDLen || len(config.RecipientID) > maxIDLen {
		return nil, ErrIDTooLong
	}
	if bytes.Equal(config.SenderID, config.RecipientID) {
		return nil, ErrIdenticalIDs
	}

	senderKey, err := crypto.DeriveKey(config.MasterSecret, config.MasterSalt,
		config.SenderID, config.IDContext, alg)
	if err != nil {
		return nil, err
	}
	recipientKey, err := crypto.DeriveKey(config.MasterSecret, config.MasterSalt,
		config.RecipientID, config.IDContext, alg)
	if err != nil {
		return nil, err
	}
	commonIV, err := crypto.DeriveCommonIV(config.MasterSecret, config.MasterSalt,
		config.IDContext, alg)
	if err != nil {
		return nil, err
	}

	sealer, err := crypto.NewAEAD(alg, senderKey)
	if err != nil {
		return nil, err
	}
	opener, err := crypto.NewAEAD(alg, recipientKey)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		senderID:     append([]byte(nil), config.SenderID...),
		recipientID:  append([]byte(nil), config.RecipientID...),
		alg:          alg,
		senderKey:    senderKey,
		recipientKey: recipientKey,
		commonIV:     commonIV,
		sealer:       sealer,
		opener:       opener,
		sequence:     NewSendSequenceWithValue(config.SequenceStart),
		window:       NewReplayWindow(config.ReplayWindowSize),
	}
	if config.IDContext != nil {
		ctx.idContext = append([]byte(nil), config.IDContext...)
	}
	return ctx, nil
}

// SenderID returns our Key ID.
func (c *Context) SenderID() []byte {
	return append([]byte(nil), c.senderID...)
}

// RecipientID returns the peer's Key ID.
func (c *Context) RecipientID() []byte {
	return append([]byte(nil), c.recipientID...)
}

// IDContext returns the KID Context, or nil if the context has none.
func (c *Context) IDContext() []byte {
	if c.idContext == nil {
		return nil
	}
	return append([]byte(nil), c.idContext...)
}

// Algorithm returns the context's AEAD algorithm.
func (c *Context) Algorithm() crypto.Algorithm {
	return c.alg
}

// CommonIV returns the derived Common IV.
func (c *Context) CommonIV() []byte {
	return append([]byte(nil), c.commonIV...)
}

// SenderKey returns a copy of the derived sealing key.
func (c *Context) SenderKey() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]byte(nil), c.senderKey...)
}

// RecipientKey returns a copy of the derived unsealing key.
func (c *Context) RecipientKey() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]byte(nil), c.recipientKey...)
}

// Sealer returns the AEAD instance for outgoing messages, or nil if
// the context has been closed.
func (c *Context) Sealer() cipher.AEAD {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	return c.sealer
}

// Opener returns the AEAD instance for incoming messages, or nil if
// the context has been closed.
func (c *Context) Opener() cipher.AEAD {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	return c.opener
}

// NextSequence allocates the next sender sequence number. It reads and
// increments atomically; once the ceiling is consumed every further
// call fails with ErrSequenceExhausted. Exhaustion is reported, never
// auto-rotated: rotation needs new key material from provisioning.
func (c *Context) NextSequence() (uint64, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return 0, ErrContextClosed
	}
	return c.sequence.Next()
}

// ReplayValid reports whether seq would pass replay checking, without
// recording it.
func (c *Context) ReplayValid(seq uint64) bool {
	return c.window.Valid(seq)
}

// ReplayAccept records seq as received. Returns false on replay.
func (c *Context) ReplayAccept(seq uint64) bool {
	return c.window.Accept(seq)
}

// ReplayWindow exposes the replay window, for inspection in tests and
// diagnostics.
func (c *Context) ReplayWindow() *ReplayWindow {
	return c.window
}

// Zeroize clears the derived keys and closes the context. Call when
// removing a context or rotating to fresh key material.
func (c *Context) Zeroize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.senderKey {
		c.senderKey[i] = 0
	}
	for i := range c.recipientKey {
		c.recipientKey[i] = 0
	}
	c.sealer = nil
	c.opener = nil
	c.closed = true
}
