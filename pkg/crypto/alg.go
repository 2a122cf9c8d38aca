// AEAD algorithm registry for OSCORE message protection.
// Algorithm identifiers are COSE algorithm values from RFC 9053.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/pion/dtls/v3/pkg/crypto/ccm"
)

// Algorithm identifies a COSE AEAD algorithm.
type Algorithm int

// Supported AEAD algorithms.
const (
	// AESCCM1664128 is AES-CCM-16-64-128 (COSE algorithm 10),
	// the mandatory-to-implement OSCORE default: 128-bit key,
	// 64-bit tag, 13-byte nonce.
	AESCCM1664128 Algorithm = 10

	// AESCCM16128128 is AES-CCM-16-128-128 (COSE algorithm 30):
	// 128-bit key, 128-bit tag, 13-byte nonce.
	AESCCM16128128 Algorithm = 30
)

// Errors for algorithm operations.
var (
	ErrUnknownAlgorithm = errors.New("crypto: unknown AEAD algorithm")
	ErrInvalidKeySize   = errors.New("crypto: invalid key size for algorithm")
)

// IsValid reports whether the algorithm is supported.
func (a Algorithm) IsValid() bool {
	switch a {
	case AESCCM1664128, AESCCM16128128:
		return true
	}
	return false
}

// KeySize returns the symmetric key size in bytes.
func (a Algorithm) KeySize() int {
	switch a {
	case AESCCM1664128, AESCCM16128128:
		return 16
	}
	return 0
}

// NonceSize returns the AEAD nonce size in bytes.
func (a Algorithm) NonceSize() int {
	switch a {
	case AESCCM1664128, AESCCM16128128:
		return 13
	}
	return 0
}

// TagSize returns the authentication tag size in bytes.
func (a Algorithm) TagSize() int {
	switch a {
	case AESCCM1664128:
		return 8
	case AESCCM16128128:
		return 16
	}
	return 0
}

// String returns the COSE algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AESCCM1664128:
		return "AES-CCM-16-64-128"
	case AESCCM16128128:
		return "AES-CCM-16-128-128"
	}
	return "Unknown"
}

// NewAEAD creates a cipher.AEAD instance for the algorithm.
// The key length must match the algorithm's key size.
func NewAEAD(a Algorithm, key []byte) (cipher.AEAD, error) {
	if !a.IsValid() {
		return nil, ErrUnknownAlgorithm
	}
	if len(key) != a.KeySize() {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := ccm.NewCCM(block, a.TagSize(), a.NonceSize())
	if err != nil {
		return nil, err
	}
	return aead, nil
}
