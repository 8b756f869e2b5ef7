// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
)

// namedCurveType is the ECParameters curve_type, RFC 8422 Section 5.4. This
// library only emits/accepts named_curve (3).
const namedCurveType = 3

// MessageServerKeyExchange carries whichever key-exchange material the
// negotiated suite requires (PSK identity hint, ECDHE parameters, or both),
// RFC 5246 Section 7.4.3 and RFC 4279 Section 2.
type MessageServerKeyExchange struct {
	IdentityHint []byte // set for PSK and ECDHE_PSK suites

	EllipticCurve     elliptic.Curve // set for ECDHE suites
	PublicKey         []byte         // set for ECDHE suites
	SignatureAlgorithm signaturehash.Algorithm
	Signature         []byte // set for ECDHE_ECDSA suites
}

// Type returns the Handshake Type.
func (m MessageServerKeyExchange) Type() Type {
	return TypeServerKeyExchange
}

// Marshal encodes the Handshake.
func (m *MessageServerKeyExchange) Marshal() ([]byte, error) {
	var out []byte

	if m.IdentityHint != nil {
		out = append(out, 0x00, 0x00)
		binary.BigEndian.PutUint16(out[len(out)-2:], uint16(len(m.IdentityHint)))
		out = append(out, m.IdentityHint...)
	}

	if m.EllipticCurve != 0 {
		out = append(out, namedCurveType, 0x00, 0x00)
		binary.BigEndian.PutUint16(out[len(out)-2:], uint16(m.EllipticCurve))
		out = append(out, byte(len(m.PublicKey)))
		out = append(out, m.PublicKey...)

		if m.Signature != nil {
			out = append(out, byte(m.SignatureAlgorithm.Hash), byte(m.SignatureAlgorithm.Signature))
			out = append(out, 0x00, 0x00)
			binary.BigEndian.PutUint16(out[len(out)-2:], uint16(len(m.Signature)))
			out = append(out, m.Signature...)
		}
	}

	return out, nil
}

// Unmarshal populates the message from encoded data. The caller must already
// know (from the negotiated CipherSuite) which fields are present; this
// library always carries exactly one of {PSK-only, ECDHE-only, both}.
func (m *MessageServerKeyExchange) Unmarshal(data []byte) error {
	offset := 0

	// A pure-PSK ServerKeyExchange is just a 2-byte length-prefixed hint.
	// An ECDHE ServerKeyExchange starts with the curve_type byte (3).
	if len(data) == 0 {
		return errBufferTooSmall
	}
	if data[0] != namedCurveType {
		if len(data) < 2 {
			return errBufferTooSmall
		}
		n := int(binary.BigEndian.Uint16(data[0:2]))
		if len(data) < 2+n {
			return errBufferTooSmall
		}
		m.IdentityHint = append([]byte{}, data[2:2+n]...)
		offset = 2 + n
		if offset == len(data) {
			return nil
		}
		if data[offset] != namedCurveType {
			return errUnsupportedCurveType
		}
	}

	offset++ // curve_type
	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	m.EllipticCurve = elliptic.Curve(binary.BigEndian.Uint16(data[offset:]))
	offset += 2

	if len(data) <= offset {
		return errBufferTooSmall
	}
	n := int(data[offset])
	offset++
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	m.PublicKey = append([]byte{}, data[offset:offset+n]...)
	offset += n

	if offset == len(data) {
		return nil // ECDHE_PSK carries no signature
	}

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	m.SignatureAlgorithm = signaturehash.Algorithm{
		Hash:      signaturehash.Hash(data[offset]),
		Signature: signaturehash.Signature(data[offset+1]),
	}
	offset += 2

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	sigLen := int(binary.BigEndian.Uint16(data[offset:]))
	offset += 2
	if len(data) < offset+sigLen {
		return errBufferTooSmall
	}
	m.Signature = append([]byte{}, data[offset:offset+sigLen]...)
	return nil
}
