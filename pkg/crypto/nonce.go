// AEAD nonce construction for OSCORE.
// This implements the fixed-layout construction from RFC 8613 Section 5.2.

package crypto

import "errors"

// MaxPartialIVSize is the maximum Partial IV length in bytes.
// The Partial IV carries the low-order bytes of a sequence number
// bounded by 2^40-1, so it never exceeds 5 bytes.
const MaxPartialIVSize = 5

// Errors for nonce operations.
var (
	ErrSenderIDTooLong  = errors.New("crypto: sender ID too long for nonce")
	ErrInvalidPartialIV = errors.New("crypto: partial IV must be 1-5 bytes")
	ErrInvalidCommonIV  = errors.New("crypto: common IV length does not match algorithm nonce size")
)

// BuildNonce constructs the AEAD nonce from the Common IV, the ID of
// the Partial IV originator, and the Partial IV.
//
// Layout before XOR (nonceLen = len(commonIV), 13 for AES-CCM):
//
//	[0]                 length of id
//	[1 : nonceLen-5]    id, left-padded with zeroes to nonceLen-6 bytes
//	[nonceLen-5 :]      partialIV, left-padded with zeroes to 5 bytes
//
// The result is the XOR of this block with the Common IV. The id must
// fit in nonceLen-6 bytes; the caller enforces this bound at context
// creation so the same identity can never fail here mid-pipeline.
func BuildNonce(commonIV, id, partialIV []byte) ([]byte, error) {
	nonceLen := len(commonIV)
	if nonceLen < 7 {
		return nil, ErrInvalidCommonIV
	}
	if len(id) > nonceLen-6 {
		return nil, ErrSenderIDTooLong
	}
	if len(partialIV) == 0 || len(partialIV) > MaxPartialIVSize {
		return nil, ErrInvalidPartialIV
	}

	nonce := make([]byte, nonceLen)
	nonce[0] = byte(len(id))
	copy(nonce[1+(nonceLen-6-len(id)):], id)
	copy(nonce[nonceLen-len(partialIV):], partialIV)

	for i := range nonce {
		nonce[i] ^= commonIV[i]
	}
	return nonce, nil
}
