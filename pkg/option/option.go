// Package option implements the OSCORE option value codec from
// RFC 8613 Section 6.1.
//
// Wire layout:
//
//	0 1 2 3 4 5 6 7
//	+-+-+-+-+-+-+-+-+
//	|0 0 0|h|k|  n  |  flags byte
//	+-+-+-+-+-+-+-+-+
//	Partial IV (n bytes) | KID Context length + bytes (if h) | KID (if k)
//
// The KID has no length field; it is the remainder of the option, so a
// present-but-empty KID is the k-flag set with nothing following.
package option

import "errors"

// Role tags a single protect or unprotect operation as request or
// response. It is fixed for the duration of the operation and must be
// established before any option bytes are serialized: the k-flag is a
// pure function of the role, so encoding against an undecided role
// would silently drop the KID from a request.
type Role uint8

// Roles.
const (
	RoleRequest  Role = 1
	RoleResponse Role = 2
)

// IsValid reports whether the role has been set to a known value.
func (r Role) IsValid() bool {
	return r == RoleRequest || r == RoleResponse
}

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleRequest:
		return "Request"
	case RoleResponse:
		return "Response"
	}
	return "Unset"
}

// Flags byte layout.
const (
	flagPIVLenMask  = 0x07 // bits 0-2: Partial IV length
	flagKID         = 0x08 // bit 3: KID present (k)
	flagKIDContext  = 0x10 // bit 4: KID Context present (h)
	flagReservedMsk = 0xE0 // bits 5-7: reserved, must be zero
)

// MaxPartialIVLen is the maximum encoded Partial IV length in bytes.
const MaxPartialIVLen = 5

// MaxKIDContextLen is the maximum KID Context length (one length byte).
const MaxKIDContextLen = 255

// Errors for option encoding and decoding.
var (
	// ErrRoleNotSet is a programming-contract violation: the option
	// encoder was invoked before the operation's role was finalized.
	ErrRoleNotSet = errors.New("option: role not finalized before encode")

	// ErrMalformed is returned for structurally invalid option bytes.
	ErrMalformed = errors.New("option: malformed option value")

	ErrPartialIVTooLong  = errors.New("option: partial IV exceeds 5 bytes")
	ErrKIDContextTooLong = errors.New("option: KID context exceeds 255 bytes")
)

// Value is the decoded form of the OSCORE option.
//
// For encoding, the Role field is mandatory and decides the k-flag:
// requests always carry the KID (empty KID included), responses never
// do. A Value built for encoding is single-use; construct it once per
// operation with the role known up front rather than patching flags on
// a shared instance.
//
// For decoding, Role is left unset (the wire does not carry it) and
// the Has* fields report what was present; the caller validates them
// against the message direction.
type Value struct {
	Role Role

	// PartialIV is the transmitted Partial IV; empty means absent.
	PartialIV []byte

	// KID is the sender's Key ID. HasKID distinguishes a present
	// zero-length KID from an absent one.
	KID    []byte
	HasKID bool

	// KIDContext is the optional ID Context.
	KIDContext    []byte
	HasKIDContext bool
}

// Encode serializes the option value.
//
// The role must be finalized first; Encode fails with ErrRoleNotSet
// rather than guessing the k-flag. If every field is absent the option
// value is the empty byte string per RFC 8613 Section 6.1.
func (v *Value) Encode() ([]byte, error) {
	if !v.Role.IsValid() {
		return nil, ErrRoleNotSet
	}
	if len(v.PartialIV) > MaxPartialIVLen {
		return nil, ErrPartialIVTooLong
	}
	if v.HasKIDContext && len(v.KIDContext) > MaxKIDContextLen {
		return nil, ErrKIDContextTooLong
	}

	flags := byte(len(v.PartialIV))
	if v.Role == RoleRequest {
		flags |= flagKID
	}
	if v.HasKIDContext {
		flags |= flagKIDContext
	}

	if flags == 0 {
		return []byte{}, nil
	}

	size := 1 + len(v.PartialIV)
	if v.HasKIDContext {
		size += 1 + len(v.KIDContext)
	}
	if v.Role == RoleRequest {
		size += len(v.KID)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, flags)
	buf = append(buf, v.PartialIV...)
	if v.HasKIDContext {
		buf = append(buf, byte(len(v.KIDContext)))
		buf = append(buf, v.KIDContext...)
	}
	if v.Role == RoleRequest {
		buf = append(buf, v.KID...)
	}
	return buf, nil
}

// Decode parses an OSCORE option value. The returned Value has no
// role; the pipeline assigns it from the message direction and then
// checks presence rules (a request without the k-flag is invalid, but
// that is a protocol decision, not a framing one).
func Decode(data []byte) (*Value, error) {
	v := &Value{}
	if len(data) == 0 {
		return v, nil
	}

	flags := data[0]
	if flags&flagReservedMsk != 0 {
		return nil, ErrMalformed
	}
	pivLen := int(flags & flagPIVLenMask)
	if pivLen > MaxPartialIVLen {
		return nil, ErrMalformed
	}

	off := 1
	if pivLen > 0 {
		if len(data) < off+pivLen {
			return nil, ErrMalformed
		}
		v.PartialIV = append([]byte(nil), data[off:off+pivLen]...)
		off += pivLen
	}

	if flags&flagKIDContext != 0 {
		if len(data) < off+1 {
			return nil, ErrMalformed
		}
		ctxLen := int(data[off])
		off++
		if len(data) < off+ctxLen {
			return nil, ErrMalformed
		}
		v.KIDContext = append([]byte(nil), data[off:off+ctxLen]...)
		v.HasKIDContext = true
		off += ctxLen
	}

	if flags&flagKID != 0 {
		// The KID is everything that remains, zero bytes included.
		v.KID = append([]byte(nil), data[off:]...)
		v.HasKID = true
	} else if off != len(data) {
		return nil, ErrMalformed
	}

	return v, nil
}
