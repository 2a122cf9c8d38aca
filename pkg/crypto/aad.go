// External AAD construction for OSCORE.
// This implements the COSE Enc_structure from RFC 8613 Section 5.4.

package crypto

import "github.com/fxamacker/cbor/v2"

// oscoreVersion is the OSCORE version number in the external AAD.
const oscoreVersion = 1

// BuildAAD builds the Additional Authenticated Data for AEAD sealing
// and opening. Both sides must reconstruct byte-identical AAD from the
// algorithm identifier, the KID of the Partial IV originator, and the
// Partial IV; any divergence fails tag verification.
//
// Structure (RFC 8613 Section 5.4):
//
//	external_aad = [1, [alg], kid, partialIV, h'']
//	AAD          = ["Encrypt0", h'', external_aad]
//
// both serialized as CBOR. A nil kid encodes as the empty byte string.
func BuildAAD(alg Algorithm, kid, partialIV []byte) ([]byte, error) {
	if !alg.IsValid() {
		return nil, ErrUnknownAlgorithm
	}
	if len(partialIV) == 0 || len(partialIV) > MaxPartialIVSize {
		return nil, ErrInvalidPartialIV
	}
	if kid == nil {
		kid = []byte{}
	}

	externalAAD, err := cbor.Marshal([]interface{}{
		oscoreVersion,
		[]interface{}{int(alg)},
		kid,
		partialIV,
		[]byte{},
	})
	if err != nil {
		return nil, err
	}

	return cbor.Marshal([]interface{}{"Encrypt0", []byte{}, externalAAD})
}
