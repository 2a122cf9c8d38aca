// Package coap adapts the protection pipeline to CoAP messages. It
// implements the message processing of RFC 8613 Sections 4 and 8: the
// original message's code, Class E options and payload become the
// encrypted inner message, while Class U options, the token and the
// message ID stay on the outer message alongside the OSCORE option.
//
// Messages are parsed and rebuilt with go-coap; this package defines
// no CoAP framing of its own.
package coap

import (
	"bytes"
	"context"
	"fmt"

	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/message/pool"
	"github.com/plgd-dev/go-coap/v3/udp/coder"

	"github.com/backkem/oscore/pkg/option"
	"github.com/backkem/oscore/pkg/oscore"
	"github.com/backkem/oscore/pkg/security"
)

// udpHeaderSize is the fixed CoAP-over-UDP header length. An inner
// message is marshaled with an empty token, so its wire form after the
// header is exactly `options || 0xFF || payload`.
const udpHeaderSize = 4

// ProtectRequest seals a CoAP request datagram into its OSCORE form.
func ProtectRequest(ctx context.Context, p *oscore.Protector, sec *security.Context, raw []byte) ([]byte, error) {
	return protect(ctx, p, sec, raw, option.RoleRequest)
}

// ProtectResponse seals a CoAP response datagram into its OSCORE form.
func ProtectResponse(ctx context.Context, p *oscore.Protector, sec *security.Context, raw []byte) ([]byte, error) {
	return protect(ctx, p, sec, raw, option.RoleResponse)
}

// UnprotectRequest recovers the original request from a protected
// datagram. A nil sec resolves the context from the option's KID via
// the Protector's store.
func UnprotectRequest(ctx context.Context, p *oscore.Protector, sec *security.Context, raw []byte) ([]byte, error) {
	return unprotect(ctx, p, sec, raw, option.RoleRequest)
}

// UnprotectResponse recovers the original response from a protected
// datagram.
func UnprotectResponse(ctx context.Context, p *oscore.Protector, sec *security.Context, raw []byte) ([]byte, error) {
	return unprotect(ctx, p, sec, raw, option.RoleResponse)
}

func protect(ctx context.Context, p *oscore.Protector, sec *security.Context, raw []byte, role option.Role) ([]byte, error) {
	m := pool.NewMessage(ctx)
	if _, err := m.UnmarshalWithDecoder(coder.DefaultCoder, raw); err != nil {
		return nil, fmt.Errorf("coap: unmarshal message: %w", err)
	}

	inner, outer := splitOptions(m.Options())

	payload, err := m.ReadBody()
	if err != nil {
		return nil, fmt.Errorf("coap: read payload: %w", err)
	}

	plaintext, err := innerPlaintext(ctx, m.Code(), inner, payload)
	if err != nil {
		return nil, err
	}

	obj, err := p.Protect(role, sec, plaintext)
	if err != nil {
		return nil, err
	}

	// The outer code carries no application semantics: POST for
	// protected requests, 2.04 Changed for protected responses
	// (RFC 8613 Section 4.2).
	outerCode := codes.POST
	if role == option.RoleResponse {
		outerCode = codes.Changed
	}
	m.SetCode(outerCode)

	outer = append(outer, message.Option{ID: OSCORE, Value: obj.Option})
	m.ResetOptionsTo(sortOptions(outer))
	m.SetBody(bytes.NewReader(obj.Ciphertext))

	return m.MarshalWithEncoder(coder.DefaultCoder)
}

func unprotect(ctx context.Context, p *oscore.Protector, sec *security.Context, raw []byte, role option.Role) ([]byte, error) {
	m := pool.NewMessage(ctx)
	if _, err := m.UnmarshalWithDecoder(coder.DefaultCoder, raw); err != nil {
		return nil, fmt.Errorf("coap: unmarshal message: %w", err)
	}

	var oscoreOpt []byte
	found := false
	var outer message.Options
	for _, opt := range m.Options() {
		if opt.ID == OSCORE {
			oscoreOpt = opt.Value
			found = true
			continue
		}
		if outerOnly[opt.ID] {
			outer = append(outer, opt)
		}
		// Other outer options are unauthenticated and are dropped.
	}
	if !found {
		return nil, ErrNoOSCOREOption
	}

	ciphertext, err := m.ReadBody()
	if err != nil {
		return nil, fmt.Errorf("coap: read payload: %w", err)
	}

	plaintext, err := p.Unprotect(role, sec, oscoreOpt, ciphertext)
	if err != nil {
		return nil, err
	}

	innerCode, innerOpts, innerPayload, err := parseInnerPlaintext(ctx, plaintext)
	if err != nil {
		return nil, err
	}

	m.SetCode(innerCode)
	m.ResetOptionsTo(sortOptions(append(outer, innerOpts...)))
	m.SetBody(bytes.NewReader(innerPayload))

	return m.MarshalWithEncoder(coder.DefaultCoder)
}

// innerPlaintext frames the inner message as
// `code || options || 0xFF || payload` (RFC 8613 Section 5.3) by
// marshaling a token-less scratch message and replacing its header
// with the single original code byte.
func innerPlaintext(ctx context.Context, code codes.Code, opts message.Options, payload []byte) ([]byte, error) {
	scratch := pool.NewMessage(ctx)
	scratch.SetType(message.NonConfirmable)
	scratch.SetMessageID(0)
	scratch.SetCode(code)
	scratch.ResetOptionsTo(sortOptions(opts))
	if len(payload) > 0 {
		scratch.SetBody(bytes.NewReader(payload))
	}

	wire, err := scratch.MarshalWithEncoder(coder.DefaultCoder)
	if err != nil {
		return nil, fmt.Errorf("coap: marshal inner message: %w", err)
	}

	plaintext := make([]byte, 0, 1+len(wire)-udpHeaderSize)
	plaintext = append(plaintext, byte(code))
	plaintext = append(plaintext, wire[udpHeaderSize:]...)
	return plaintext, nil
}

// parseInnerPlaintext is the inverse of innerPlaintext.
func parseInnerPlaintext(ctx context.Context, plaintext []byte) (codes.Code, message.Options, []byte, error) {
	if len(plaintext) == 0 {
		return 0, nil, nil, ErrMalformedPlaintext
	}

	wire := make([]byte, 0, udpHeaderSize+len(plaintext)-1)
	wire = append(wire, 0x40, plaintext[0], 0x00, 0x00)
	wire = append(wire, plaintext[1:]...)

	scratch := pool.NewMessage(ctx)
	if _, err := scratch.UnmarshalWithDecoder(coder.DefaultCoder, wire); err != nil {
		return 0, nil, nil, ErrMalformedPlaintext
	}

	payload, err := scratch.ReadBody()
	if err != nil {
		return 0, nil, nil, ErrMalformedPlaintext
	}

	return scratch.Code(), scratch.Options(), payload, nil
}
