// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
)

// MessageCertificateVerify proves possession of the private key
// corresponding to a just-sent client certificate by signing the running
// transcript hash, RFC 5246 Section 7.4.8.
type MessageCertificateVerify struct {
	Algorithm signaturehash.Algorithm
	Signature []byte
}

// Type returns the Handshake Type.
func (m MessageCertificateVerify) Type() Type {
	return TypeCertificateVerify
}

// Marshal encodes the Handshake.
func (m *MessageCertificateVerify) Marshal() ([]byte, error) {
	out := []byte{byte(m.Algorithm.Hash), byte(m.Algorithm.Signature), 0x00, 0x00}
	binary.BigEndian.PutUint16(out[2:], uint16(len(m.Signature)))
	return append(out, m.Signature...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageCertificateVerify) Unmarshal(data []byte) error {
	if len(data) < 4 {
		return errBufferTooSmall
	}
	m.Algorithm = signaturehash.Algorithm{
		Hash:      signaturehash.Hash(data[0]),
		Signature: signaturehash.Signature(data[1]),
	}
	n := int(binary.BigEndian.Uint16(data[2:4]))
	if len(data) != 4+n {
		return errBufferTooSmall
	}
	m.Signature = append([]byte{}, data[4:4+n]...)
	return nil
}
