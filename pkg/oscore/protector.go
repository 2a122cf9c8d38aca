package oscore

import (
	"bytes"

	"github.com/pion/logging"

	"github.com/backkem/oscore/pkg/crypto"
	"github.com/backkem/oscore/pkg/option"
	"github.com/backkem/oscore/pkg/security"
)

// Object is a protected message ready for the wire: the OSCORE option
// value and the AEAD ciphertext (tag included). The transport layer
// places both on the outer message.
type Object struct {
	Option     []byte
	Ciphertext []byte
}

// Config configures a Protector.
type Config struct {
	// Store resolves received KIDs to security contexts when the
	// caller does not pre-bind one. Optional; without it, Unprotect
	// requires an explicit context.
	Store *security.Store

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Protector runs the protect and unprotect pipelines. It holds no
// per-message state; all mutable state lives in the security contexts,
// so one Protector serves any number of peers concurrently.
type Protector struct {
	store *security.Store
	log   logging.LeveledLogger
}

// New creates a Protector.
func New(config Config) *Protector {
	p := &Protector{store: config.Store}
	if config.LoggerFactory != nil {
		p.log = config.LoggerFactory.NewLogger("oscore")
	}
	return p
}

// ProtectOptions tunes a single protect operation.
type ProtectOptions struct {
	// IncludeKIDContext forces the KID Context into the option even
	// for responses. Requests include it by default whenever the
	// context carries one.
	IncludeKIDContext bool
}

// Protect seals a plaintext into an OSCORE object under the given
// role and context.
//
// The sequence number is consumed up front and burned if a later
// stage fails: a Partial IV must never be reused for different
// plaintext under the same key, so failed sends cost a sequence
// number rather than risking nonce reuse.
func (p *Protector) Protect(role option.Role, sec *security.Context, plaintext []byte) (*Object, error) {
	return p.ProtectWithOptions(role, sec, plaintext, ProtectOptions{})
}

// ProtectWithOptions is Protect with per-operation overrides.
func (p *Protector) ProtectWithOptions(role option.Role, sec *security.Context, plaintext []byte, opts ProtectOptions) (*Object, error) {
	if sec == nil {
		return nil, ErrNoContext
	}

	// Role is finalized at state construction, before anything that
	// could serialize option bytes.
	st, err := newOutgoing(role)
	if err != nil {
		return nil, err
	}

	seq, err := sec.NextSequence()
	if err != nil {
		st.reject()
		return nil, err
	}
	st.seq = seq
	st.partialIV = option.EncodePartialIV(seq)

	senderID := sec.SenderID()

	nonce, err := crypto.BuildNonce(sec.CommonIV(), senderID, st.partialIV)
	if err != nil {
		st.reject()
		return nil, err
	}
	aad, err := crypto.BuildAAD(sec.Algorithm(), senderID, st.partialIV)
	if err != nil {
		st.reject()
		return nil, err
	}

	optVal := &option.Value{
		PartialIV: st.partialIV,
		KID:       senderID,
	}
	if idCtx := sec.IDContext(); idCtx != nil && (role == option.RoleRequest || opts.IncludeKIDContext) {
		optVal.KIDContext = idCtx
		optVal.HasKIDContext = true
	}

	optionBytes, err := st.buildOption(optVal)
	if err != nil {
		return nil, err
	}

	sealer := sec.Sealer()
	if sealer == nil {
		st.reject()
		return nil, security.ErrContextClosed
	}

	ciphertext := sealer.Seal(nil, nonce, plaintext, aad)
	if err := st.advance(StageOptionBuilt, StageEncrypted); err != nil {
		return nil, err
	}
	st.ciphertext = ciphertext

	if err := st.advance(StageEncrypted, StageDone); err != nil {
		return nil, err
	}

	if p.log != nil {
		p.log.Debugf("protected %s, PIV %d, %d ciphertext bytes", role, seq, len(ciphertext))
	}

	return &Object{Option: optionBytes, Ciphertext: ciphertext}, nil
}

// Unprotect opens a received OSCORE object.
//
// The role is the message direction as seen by the transport: a
// received request must carry a KID, a received response need not. If
// sec is nil the KID (and KID Context) from the option is resolved
// through the Protector's store.
//
// The replay window is consulted before decryption and committed only
// after the AEAD tag verifies, so an authentication failure never
// burns a window slot (reject-before-commit).
func (p *Protector) Unprotect(role option.Role, sec *security.Context, optionBytes, ciphertext []byte) ([]byte, error) {
	st, err := newIncoming(role)
	if err != nil {
		return nil, err
	}

	parsed, err := option.Decode(optionBytes)
	if err != nil {
		st.reject()
		return nil, err
	}
	if err := st.advance(StageReceived, StageOptionParsed); err != nil {
		return nil, err
	}
	st.parsed = parsed

	if role == option.RoleRequest && !parsed.HasKID {
		st.reject()
		return nil, ErrMissingKID
	}
	if len(parsed.PartialIV) == 0 {
		// This pipeline always transmits a Partial IV; without one the
		// nonce cannot be reconstructed.
		st.reject()
		return nil, ErrMalformedOption
	}

	sec, err = p.resolveContext(sec, parsed)
	if err != nil {
		st.reject()
		return nil, err
	}

	seq, err := option.DecodePartialIV(parsed.PartialIV)
	if err != nil {
		st.reject()
		return nil, ErrMalformedOption
	}
	st.seq = seq

	if !sec.ReplayValid(seq) {
		st.reject()
		if p.log != nil {
			p.log.Warnf("replay detected for %s, PIV %d", role, seq)
		}
		return nil, ErrReplayDetected
	}
	if err := st.advance(StageOptionParsed, StageReplayChecked); err != nil {
		return nil, err
	}

	// The nonce and AAD are rebuilt from the same fields the sealer
	// used: the Partial IV originator's ID is the option KID for
	// requests and our recipient ID for responses.
	peerID := sec.RecipientID()
	if parsed.HasKID {
		peerID = parsed.KID
	}

	nonce, err := crypto.BuildNonce(sec.CommonIV(), peerID, parsed.PartialIV)
	if err != nil {
		st.reject()
		return nil, ErrMalformedOption
	}
	aad, err := crypto.BuildAAD(sec.Algorithm(), peerID, parsed.PartialIV)
	if err != nil {
		st.reject()
		return nil, ErrMalformedOption
	}

	opener := sec.Opener()
	if opener == nil {
		st.reject()
		return nil, security.ErrContextClosed
	}

	plaintext, err := opener.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		// Tag mismatch: reject without touching replay state.
		st.reject()
		return nil, ErrAuthenticationFailure
	}
	if err := st.advance(StageReplayChecked, StageDecrypted); err != nil {
		return nil, err
	}

	// Commit. A concurrent unprotect of the same sequence number can
	// win the race between peek and commit; the loser is a replay.
	if !sec.ReplayAccept(seq) {
		st.reject()
		return nil, ErrReplayDetected
	}

	if err := st.advance(StageDecrypted, StageDone); err != nil {
		return nil, err
	}

	if p.log != nil {
		p.log.Debugf("unprotected %s, PIV %d, %d plaintext bytes", role, seq, len(plaintext))
	}
	return plaintext, nil
}

// resolveContext binds a security context for an unprotect operation:
// the caller's explicit context if given (with KID consistency checks
// against the option), otherwise a store lookup by KID.
func (p *Protector) resolveContext(sec *security.Context, parsed *option.Value) (*security.Context, error) {
	if sec != nil {
		if parsed.HasKID && !bytes.Equal(parsed.KID, sec.RecipientID()) {
			return nil, ErrUnknownKID
		}
		if parsed.HasKIDContext && !bytes.Equal(parsed.KIDContext, sec.IDContext()) {
			return nil, ErrUnknownKID
		}
		return sec, nil
	}

	if !parsed.HasKID {
		// Responses carry no KID; they must be unprotected against the
		// context of the request they answer.
		return nil, ErrNoContext
	}
	if p.store == nil {
		return nil, ErrNoContext
	}

	resolved, ok := p.store.Lookup(parsed.KID, parsed.KIDContext)
	if !ok {
		return nil, ErrUnknownKID
	}
	return resolved, nil
}
