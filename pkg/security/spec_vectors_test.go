package security

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// Key derivation vectors from RFC 8613 Appendix C.1.

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

// TestRFC8613KeyDerivationClient validates the client-side security
// context from RFC 8613 Appendix C.1.1: empty sender ID, recipient ID
// 0x01, AES-CCM-16-64-128, HKDF-SHA256.
func TestRFC8613KeyDerivationClient(t *testing.T) {
	ctx, err := NewContext(ContextConfig{
		SenderID:     []byte{},
		RecipientID:  []byte{0x01},
		MasterSecret: mustHex(t, "0102030405060708090a0b0c0d0e0f10"),
		MasterSalt:   mustHex(t, "9e7ca92223786340"),
	})
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	wantSenderKey := mustHex(t, "f0910ed7295e6ad4b54fc793154302ff")
	wantRecipientKey := mustHex(t, "ffb14e093c94c9cac9471648b4f98710")
	wantCommonIV := mustHex(t, "4622d4dd6d944168eefb54987c")

	if got := ctx.SenderKey(); !bytes.Equal(got, wantSenderKey) {
		t.Errorf("sender key = %x, want %x", got, wantSenderKey)
	}
	if got := ctx.RecipientKey(); !bytes.Equal(got, wantRecipientKey) {
		t.Errorf("recipient key = %x, want %x", got, wantRecipientKey)
	}
	if got := ctx.CommonIV(); !bytes.Equal(got, wantCommonIV) {
		t.Errorf("common IV = %x, want %x", got, wantCommonIV)
	}
}

// TestRFC8613KeyDerivationServer is the mirrored C.1.2 context: the
// server's sender key is the client's recipient key and vice versa.
func TestRFC8613KeyDerivationServer(t *testing.T) {
	ctx, err := NewContext(ContextConfig{
		SenderID:     []byte{0x01},
		RecipientID:  []byte{},
		MasterSecret: mustHex(t, "0102030405060708090a0b0c0d0e0f10"),
		MasterSalt:   mustHex(t, "9e7ca92223786340"),
	})
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	if got, want := ctx.SenderKey(), mustHex(t, "ffb14e093c94c9cac9471648b4f98710"); !bytes.Equal(got, want) {
		t.Errorf("sender key = %x, want %x", got, want)
	}
	if got, want := ctx.RecipientKey(), mustHex(t, "f0910ed7295e6ad4b54fc793154302ff"); !bytes.Equal(got, want) {
		t.Errorf("recipient key = %x, want %x", got, want)
	}
	if got, want := ctx.CommonIV(), mustHex(t, "4622d4dd6d944168eefb54987c"); !bytes.Equal(got, want) {
		t.Errorf("common IV = %x, want %x", got, want)
	}
}
