package option

import (
	"bytes"
	"testing"
)

// Vectors from RFC 8613 Section 6.1 and Appendix C style examples.

// TestRequestKIDVector pins the request option for sender ID 0x01 and
// Partial IV value 1: flags 0x09 (k-flag | PIV length 1), PIV 0x01,
// KID 0x01. A request must never encode without its KID, whatever
// order the per-message state was assembled in.
func TestRequestKIDVector(t *testing.T) {
	v := &Value{
		Role:      RoleRequest,
		PartialIV: EncodePartialIV(1),
		KID:       []byte{0x01},
	}

	encoded, err := v.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := []byte{0x09, 0x01, 0x01}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("encoded = %x, want %x", encoded, want)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !decoded.HasKID || !bytes.Equal(decoded.KID, []byte{0x01}) {
		t.Errorf("KID = %x (present=%v), want 01", decoded.KID, decoded.HasKID)
	}
	if !bytes.Equal(decoded.PartialIV, []byte{0x01}) {
		t.Errorf("PartialIV = %x, want 01", decoded.PartialIV)
	}
}

// TestSpecOptionVectors covers the encoding examples from
// RFC 8613 Section 6.1.
func TestSpecOptionVectors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want []byte
	}{
		{
			// Request with empty KID: k-flag still set, zero KID bytes.
			name: "request, PIV 0x14, empty KID",
			v:    Value{Role: RoleRequest, PartialIV: []byte{0x14}},
			want: []byte{0x09, 0x14},
		},
		{
			name: "request, PIV 0x00, KID 0x25",
			v:    Value{Role: RoleRequest, PartialIV: []byte{0x00}, KID: []byte{0x25}},
			want: []byte{0x09, 0x00, 0x25},
		},
		{
			name: "request with KID context",
			v: Value{
				Role:          RoleRequest,
				PartialIV:     []byte{0x05},
				KID:           []byte{0x44, 0x61},
				KIDContext:    []byte{0x37, 0xCB, 0xF3, 0xF1},
				HasKIDContext: true,
			},
			want: []byte{0x19, 0x05, 0x04, 0x37, 0xCB, 0xF3, 0xF1, 0x44, 0x61},
		},
		{
			name: "response with PIV, no KID",
			v:    Value{Role: RoleResponse, PartialIV: []byte{0x00}},
			want: []byte{0x01, 0x00},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := tc.v.Encode()
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(encoded, tc.want) {
				t.Errorf("encoded = %x, want %x", encoded, tc.want)
			}
		})
	}
}
