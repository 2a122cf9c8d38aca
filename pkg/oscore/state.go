package oscore

import (
	"github.com/backkem/oscore/pkg/option"
)

// Stage tracks a single message through the protection pipeline.
//
// Encrypt path: Created -> FlagsFinalized -> OptionBuilt -> Encrypted -> Done.
// Decrypt path: Received -> OptionParsed -> ReplayChecked -> Decrypted -> Done.
// Rejected is terminal and reachable from any stage.
type Stage uint8

// Pipeline stages.
const (
	StageCreated Stage = iota
	StageFlagsFinalized
	StageOptionBuilt
	StageEncrypted
	StageReceived
	StageOptionParsed
	StageReplayChecked
	StageDecrypted
	StageDone
	StageRejected
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageCreated:
		return "Created"
	case StageFlagsFinalized:
		return "FlagsFinalized"
	case StageOptionBuilt:
		return "OptionBuilt"
	case StageEncrypted:
		return "Encrypted"
	case StageReceived:
		return "Received"
	case StageOptionParsed:
		return "OptionParsed"
	case StageReplayChecked:
		return "ReplayChecked"
	case StageDecrypted:
		return "Decrypted"
	case StageDone:
		return "Done"
	case StageRejected:
		return "Rejected"
	}
	return "Unknown"
}

// messageState is the transient record for one protect or unprotect
// operation. It is created at the start of the operation, mutated only
// by the pipeline during that operation, and discarded afterwards.
//
// The role is set at construction and never writable again: every
// later stage reads the same value the operation started with, so no
// initialization step can clobber it before the option is serialized.
type messageState struct {
	role  option.Role
	stage Stage

	partialIV []byte
	seq       uint64

	parsed      *option.Value // decrypt path only
	optionBytes []byte
	ciphertext  []byte
}

// newOutgoing creates the state for a protect operation. Constructing
// it is the Created -> FlagsFinalized transition: the role (and with
// it the k-flag) is final before anything else runs.
func newOutgoing(role option.Role) (*messageState, error) {
	if !role.IsValid() {
		return nil, option.ErrRoleNotSet
	}
	return &messageState{role: role, stage: StageFlagsFinalized}, nil
}

// newIncoming creates the state for an unprotect operation.
func newIncoming(role option.Role) (*messageState, error) {
	if !role.IsValid() {
		return nil, option.ErrRoleNotSet
	}
	return &messageState{role: role, stage: StageReceived}, nil
}

// advance moves the state from the expected stage to the next one.
// Any mismatch is a pipeline bug surfaced as ErrInvalidState rather
// than silently producing a wrong wire value.
func (s *messageState) advance(from, to Stage) error {
	if s.stage != from {
		s.stage = StageRejected
		return ErrInvalidState
	}
	s.stage = to
	return nil
}

// buildOption serializes the OSCORE option from finalized flags. Only
// reachable from FlagsFinalized, which makes encoding against an
// unfinalized role structurally impossible.
func (s *messageState) buildOption(v *option.Value) ([]byte, error) {
	if err := s.advance(StageFlagsFinalized, StageOptionBuilt); err != nil {
		return nil, err
	}

	// The codec re-checks the role; the stage guard above makes this
	// unreachable from pipeline code.
	v.Role = s.role
	encoded, err := v.Encode()
	if err != nil {
		s.stage = StageRejected
		return nil, err
	}
	s.optionBytes = encoded
	return encoded, nil
}

// reject marks the state terminally failed.
func (s *messageState) reject() {
	s.stage = StageRejected
}
