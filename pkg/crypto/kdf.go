// HKDF-based key schedule for OSCORE security contexts.
// This implements the derivation from RFC 8613 Section 3.2.

package crypto

import (
	"crypto/sha256"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/hkdf"
)

// Key derivation type strings from RFC 8613 Section 3.2.1.
const (
	kdfTypeKey = "Key"
	kdfTypeIV  = "IV"
)

// HKDFSHA256 derives key material using HKDF-SHA256 (RFC 5869).
//
// Parameters:
//   - secret: input keying material (the OSCORE Master Secret)
//   - salt: optional salt value (the Master Salt, can be nil or empty)
//   - info: context-specific info structure
//   - length: number of bytes to derive
//
// Returns the derived key material of the specified length.
func HKDFSHA256(secret, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// kdfInfo builds the CBOR info structure from RFC 8613 Section 3.2.1:
//
//	info = [id : bstr, id_context : bstr / nil, alg_aead : int,
//	        type : tstr, L : uint]
//
// A nil idContext encodes as CBOR null; a nil id encodes as the empty
// byte string (an empty sender ID is a valid identity).
func kdfInfo(id, idContext []byte, alg Algorithm, kdfType string, length int) ([]byte, error) {
	if id == nil {
		id = []byte{}
	}
	var idCtx interface{}
	if idContext != nil {
		idCtx = idContext
	}

	return cbor.Marshal([]interface{}{id, idCtx, int(alg), kdfType, length})
}

// DeriveKey derives a Sender or Recipient Key for the given identity.
// This implements the "Key" branch of RFC 8613 Section 3.2.1; pass the
// sender ID for the Sender Key and the recipient ID for the Recipient Key.
func DeriveKey(masterSecret, masterSalt, id, idContext []byte, alg Algorithm) ([]byte, error) {
	if !alg.IsValid() {
		return nil, ErrUnknownAlgorithm
	}

	info, err := kdfInfo(id, idContext, alg, kdfTypeKey, alg.KeySize())
	if err != nil {
		return nil, err
	}
	return HKDFSHA256(masterSecret, masterSalt, info, alg.KeySize())
}

// DeriveCommonIV derives the Common IV shared by both endpoints.
// This implements the "IV" branch of RFC 8613 Section 3.2.1; the id
// field is the empty byte string and L is the AEAD nonce size.
func DeriveCommonIV(masterSecret, masterSalt, idContext []byte, alg Algorithm) ([]byte, error) {
	if !alg.IsValid() {
		return nil, ErrUnknownAlgorithm
	}

	info, err := kdfInfo([]byte{}, idContext, alg, kdfTypeIV, alg.NonceSize())
	if err != nil {
		return nil, err
	}
	return HKDFSHA256(masterSecret, masterSalt, info, alg.NonceSize())
}
