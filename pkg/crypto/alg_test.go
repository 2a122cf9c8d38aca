package crypto

import (
	"bytes"
	"testing"
)

func TestAlgorithmSizes(t *testing.T) {
	tests := []struct {
		alg       Algorithm
		keySize   int
		nonceSize int
		tagSize   int
		name      string
	}{
		{AESCCM1664128, 16, 13, 8, "AES-CCM-16-64-128"},
		{AESCCM16128128, 16, 13, 16, "AES-CCM-16-128-128"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.alg.IsValid() {
				t.Fatal("algorithm should be valid")
			}
			if got := tc.alg.KeySize(); got != tc.keySize {
				t.Errorf("KeySize = %d, want %d", got, tc.keySize)
			}
			if got := tc.alg.NonceSize(); got != tc.nonceSize {
				t.Errorf("NonceSize = %d, want %d", got, tc.nonceSize)
			}
			if got := tc.alg.TagSize(); got != tc.tagSize {
				t.Errorf("TagSize = %d, want %d", got, tc.tagSize)
			}
			if got := tc.alg.String(); got != tc.name {
				t.Errorf("String = %q, want %q", got, tc.name)
			}
		})
	}
}

func TestAlgorithmInvalid(t *testing.T) {
	bad := Algorithm(-7)
	if bad.IsValid() {
		t.Fatal("unknown algorithm should not be valid")
	}
	if bad.KeySize() != 0 || bad.NonceSize() != 0 || bad.TagSize() != 0 {
		t.Error("unknown algorithm should report zero sizes")
	}
	if _, err := NewAEAD(bad, make([]byte, 16)); err != ErrUnknownAlgorithm {
		t.Errorf("NewAEAD error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestNewAEADKeySize(t *testing.T) {
	if _, err := NewAEAD(AESCCM1664128, make([]byte, 15)); err != ErrInvalidKeySize {
		t.Errorf("NewAEAD error = %v, want ErrInvalidKeySize", err)
	}
}

func TestAEADRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AESCCM1664128, AESCCM16128128} {
		t.Run(alg.String(), func(t *testing.T) {
			key := make([]byte, alg.KeySize())
			for i := range key {
				key[i] = byte(i)
			}

			aead, err := NewAEAD(alg, key)
			if err != nil {
				t.Fatalf("NewAEAD failed: %v", err)
			}
			if aead.NonceSize() != alg.NonceSize() {
				t.Fatalf("AEAD nonce size = %d, want %d", aead.NonceSize(), alg.NonceSize())
			}
			if aead.Overhead() != alg.TagSize() {
				t.Fatalf("AEAD overhead = %d, want %d", aead.Overhead(), alg.TagSize())
			}

			nonce := make([]byte, alg.NonceSize())
			plaintext := []byte("attack at dawn")
			aad := []byte{0x01, 0x02}

			ciphertext := aead.Seal(nil, nonce, plaintext, aad)
			if len(ciphertext) != len(plaintext)+alg.TagSize() {
				t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), len(plaintext)+alg.TagSize())
			}

			got, err := aead.Open(nil, nonce, ciphertext, aad)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Errorf("Open = %x, want %x", got, plaintext)
			}
		})
	}
}

func TestAEADTamperDetection(t *testing.T) {
	key := make([]byte, 16)
	aead, err := NewAEAD(AESCCM1664128, key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	nonce := make([]byte, 13)
	ciphertext := aead.Seal(nil, nonce, []byte("payload"), []byte("aad"))

	// Flipping any single bit must fail authentication.
	for i := 0; i < len(ciphertext)*8; i++ {
		corrupted := make([]byte, len(ciphertext))
		copy(corrupted, ciphertext)
		corrupted[i/8] ^= 1 << (i % 8)

		if _, err := aead.Open(nil, nonce, corrupted, []byte("aad")); err == nil {
			t.Fatalf("Open succeeded with bit %d flipped", i)
		}
	}

	// Mismatched AAD must fail too.
	if _, err := aead.Open(nil, nonce, ciphertext, []byte("other")); err == nil {
		t.Fatal("Open succeeded with wrong AAD")
	}
}
