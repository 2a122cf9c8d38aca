package crypto

import (
	"bytes"
	"testing"
)

func TestBuildNonceLayout(t *testing.T) {
	// With an all-zero Common IV the nonce is the raw layout block.
	commonIV := make([]byte, 13)

	tests := []struct {
		name      string
		id        []byte
		partialIV []byte
		want      []byte
	}{
		{
			name:      "one byte ID, one byte PIV",
			id:        []byte{0x01},
			partialIV: []byte{0x14},
			want: []byte{
				0x01,                                     // len(id)
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, // id left-padded to 7
				0x00, 0x00, 0x00, 0x00, 0x14, // PIV left-padded to 5
			},
		},
		{
			name:      "empty ID",
			id:        nil,
			partialIV: []byte{0x00},
			want: []byte{
				0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00,
			},
		},
		{
			name:      "max length ID and PIV",
			id:        []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77},
			partialIV: []byte{0x01, 0x02, 0x03, 0x04, 0x05},
			want: []byte{
				0x07,
				0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
				0x01, 0x02, 0x03, 0x04, 0x05,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := BuildNonce(commonIV, tc.id, tc.partialIV)
			if err != nil {
				t.Fatalf("BuildNonce failed: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("nonce = %x, want %x", got, tc.want)
			}
		})
	}
}

func TestBuildNonceXOR(t *testing.T) {
	commonIV := []byte{
		0x46, 0x22, 0xd4, 0xdd, 0x6d, 0x94, 0x41, 0x68,
		0xee, 0xfb, 0x54, 0x98, 0x7c,
	}

	got, err := BuildNonce(commonIV, nil, []byte{0x14})
	if err != nil {
		t.Fatalf("BuildNonce failed: %v", err)
	}

	// Empty ID and single-byte PIV only touch bytes 0 and 12 of the
	// layout block, and both the length byte and padding are zero for
	// an empty ID, so the result is the Common IV with the last byte
	// XORed by the PIV.
	want := make([]byte, 13)
	copy(want, commonIV)
	want[12] ^= 0x14
	if !bytes.Equal(got, want) {
		t.Errorf("nonce = %x, want %x", got, want)
	}
}

func TestBuildNonceBounds(t *testing.T) {
	commonIV := make([]byte, 13)

	if _, err := BuildNonce(commonIV, make([]byte, 8), []byte{0x01}); err != ErrSenderIDTooLong {
		t.Errorf("oversized ID error = %v, want ErrSenderIDTooLong", err)
	}
	if _, err := BuildNonce(commonIV, nil, nil); err != ErrInvalidPartialIV {
		t.Errorf("empty PIV error = %v, want ErrInvalidPartialIV", err)
	}
	if _, err := BuildNonce(commonIV, nil, make([]byte, 6)); err != ErrInvalidPartialIV {
		t.Errorf("oversized PIV error = %v, want ErrInvalidPartialIV", err)
	}
	if _, err := BuildNonce(make([]byte, 6), nil, []byte{0x01}); err != ErrInvalidCommonIV {
		t.Errorf("short common IV error = %v, want ErrInvalidCommonIV", err)
	}
}
