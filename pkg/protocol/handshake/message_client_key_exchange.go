// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import "encoding/binary"

// MessageClientKeyExchange carries the initiator's half of the key
// exchange: an ECDHE public value, an RSA-encrypted premaster, a PSK
// identity, or a combination, RFC 5246 Section 7.4.7 / RFC 4279 Section 2.
type MessageClientKeyExchange struct {
	IdentityHint []byte // PSK identity (PSK, ECDHE_PSK)
	PublicKey    []byte // ECDHE public value (ECDHE_ECDSA, ECDHE_PSK)

	// EncryptedPreMasterSecret holds the RSA-PKCS#1v1.5-encrypted
	// premaster for the RSA key-exchange suite. It is mutually exclusive
	// with IdentityHint/PublicKey.
	EncryptedPreMasterSecret []byte
}

// Type returns the Handshake Type.
func (m MessageClientKeyExchange) Type() Type {
	return TypeClientKeyExchange
}

// Marshal encodes the Handshake.
func (m *MessageClientKeyExchange) Marshal() ([]byte, error) {
	switch {
	case m.IdentityHint != nil && m.PublicKey != nil:
		out := []byte{byte(len(m.PublicKey))}
		out = append(out, m.PublicKey...)
		out = append(out, 0x00, 0x00)
		binary.BigEndian.PutUint16(out[len(out)-2:], uint16(len(m.IdentityHint)))
		return append(out, m.IdentityHint...), nil
	case m.IdentityHint != nil:
		out := []byte{0x00, 0x00}
		binary.BigEndian.PutUint16(out, uint16(len(m.IdentityHint)))
		return append(out, m.IdentityHint...), nil
	case m.PublicKey != nil:
		return append([]byte{byte(len(m.PublicKey))}, m.PublicKey...), nil
	case m.EncryptedPreMasterSecret != nil:
		out := []byte{0x00, 0x00}
		binary.BigEndian.PutUint16(out, uint16(len(m.EncryptedPreMasterSecret)))
		return append(out, m.EncryptedPreMasterSecret...), nil
	default:
		return nil, errEmptyClientKeyExchange
	}
}

// Unmarshal populates the message from encoded data. Disambiguating which
// variant is in play is the handshake engine's job (it knows the negotiated
// CipherSuite); Unmarshal only ever extracts a single length-prefixed blob,
// and the engine re-slices combined PSK+ECDHE messages explicitly via
// UnmarshalPSKAndPublicKey below.
func (m *MessageClientKeyExchange) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	n := int(data[0])
	if len(data) == 1+n {
		m.PublicKey = append([]byte{}, data[1:1+n]...)
		return nil
	}
	if len(data) < 2 {
		return errBufferTooSmall
	}
	n16 := int(binary.BigEndian.Uint16(data[0:2]))
	if len(data) != 2+n16 {
		return errBufferTooSmall
	}
	m.IdentityHint = append([]byte{}, data[2:2+n16]...)
	return nil
}

// UnmarshalPSKAndPublicKey decodes the ECDHE_PSK variant, which carries a
// length-prefixed ECDHE public key immediately followed by a length-prefixed
// PSK identity.
func (m *MessageClientKeyExchange) UnmarshalPSKAndPublicKey(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	n := int(data[0])
	offset := 1
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	m.PublicKey = append([]byte{}, data[offset:offset+n]...)
	offset += n

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	idLen := int(binary.BigEndian.Uint16(data[offset:]))
	offset += 2
	if len(data) != offset+idLen {
		return errBufferTooSmall
	}
	m.IdentityHint = append([]byte{}, data[offset:offset+idLen]...)
	return nil
}

// UnmarshalEncryptedPreMaster decodes the RSA variant.
func (m *MessageClientKeyExchange) UnmarshalEncryptedPreMaster(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	n := int(binary.BigEndian.Uint16(data[0:2]))
	if len(data) != 2+n {
		return errBufferTooSmall
	}
	m.EncryptedPreMasterSecret = append([]byte{}, data[2:2+n]...)
	return nil
}
