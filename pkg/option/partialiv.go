package option

import "errors"

// MaxSequenceNumber is the largest sender sequence number a Partial IV
// can carry: 2^40-1 (5 bytes).
const MaxSequenceNumber = (uint64(1) << 40) - 1

// ErrInvalidPartialIV is returned when Partial IV bytes cannot carry a
// sequence number.
var ErrInvalidPartialIV = errors.New("option: invalid partial IV length")

// EncodePartialIV encodes a sequence number as a minimal-length
// big-endian Partial IV. Sequence number 0 encodes as the single byte
// 0x00 (the Partial IV is present on the wire, not absent).
func EncodePartialIV(seq uint64) []byte {
	if seq == 0 {
		return []byte{0x00}
	}

	var tmp [8]byte
	n := 0
	for s := seq; s > 0; s >>= 8 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		tmp[i] = byte(seq)
		seq >>= 8
	}
	return append([]byte(nil), tmp[:n]...)
}

// DecodePartialIV reconstructs the sequence number from Partial IV
// bytes (1-5 bytes, big-endian).
func DecodePartialIV(piv []byte) (uint64, error) {
	if len(piv) == 0 || len(piv) > MaxPartialIVLen {
		return 0, ErrInvalidPartialIV
	}
	var seq uint64
	for _, b := range piv {
		seq = seq<<8 | uint64(b)
	}
	return seq, nil
}
